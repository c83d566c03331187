package whispercpp

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestDecode_WhisperCppWords(t *testing.T) {
	t.Parallel()

	tr, err := decode([]byte(`{"result":{"language":"en"},"transcription":[
		{"offsets":{"from":0,"to":400},"text":" Tides"},
		{"offsets":{"from":400,"to":900},"text":" rise."},
		{"offsets":{"from":900,"to":1000},"text":" [BLANK_AUDIO]"},
		{"offsets":{"from":1000,"to":1600},"text":" Moon"},
		{"offsets":{"from":1600,"to":2100},"text":" pulls"}
	]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tr.Segments) != 2 {
		t.Fatalf("expected 2 sentences, got %+v", tr.Segments)
	}
	first, second := tr.Segments[0], tr.Segments[1]
	if first.Text != "Tides rise." || first.Start != 0 || first.End != 0.9 {
		t.Fatalf("unexpected first sentence %+v", first)
	}
	if second.Text != "Moon pulls" || second.Words[1].Start != 1.6 || second.End != 2.1 {
		t.Fatalf("unexpected second sentence %+v", second)
	}
}

func TestArgs(t *testing.T) {
	t.Parallel()

	got := strings.Join(New("whisper", "ggml-base.bin").args("in.wav", "out/asr"), " ")
	want := "-m ggml-base.bin -f in.wav -l en -of out/asr -oj -ml 1 -sow -np"
	if got != want {
		t.Fatalf("args = %q, want %q", got, want)
	}
}

func TestDecode_TrimsText(t *testing.T) {
	t.Parallel()

	tr, err := decode([]byte(`{"segments":[{"start":0.5,"end":1.4,"text":" Tides rise ","words":[{"start":0.5,"end":0.9,"word":" Tides"},{"start":0.9,"end":1.4,"word":"rise "}]}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	seg := tr.Segments[0]
	if seg.Text != "Tides rise" || seg.Words[0].Word != "Tides" || seg.Words[1].Word != "rise" {
		t.Fatalf("unexpected transcript %+v", tr)
	}
}

func TestDecode_Errors(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`not json`, `{"segments":[]}`, `{"transcription":[{"offsets":{"from":0,"to":10},"text":" [BLANK_AUDIO]"}]}`} {
		if _, err := decode([]byte(body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}

func TestTranscribe_RunsBinary(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "whisper")
	// The fake binary writes the JSON next to the -of prefix ($8).
	script := "#!/bin/sh\nprintf '%s' '{\"segments\":[{\"start\":0,\"end\":1,\"text\":\"hi\"}]}' > \"$8.json\"\n"
	if err := os.WriteFile(bin, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	tr, err := New(bin, "model.bin").Transcribe(context.Background(), filepath.Join(dir, "in.wav"), dir)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if len(tr.Segments) != 1 || tr.Segments[0].Text != "hi" {
		t.Fatalf("unexpected transcript %+v", tr)
	}
}

func TestTranscribe_Failure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "whisper")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\necho 'model not found' >&2\nexit 3\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	_, err := New(bin, "missing.bin").Transcribe(context.Background(), "in.wav", dir)
	if err == nil || !strings.Contains(err.Error(), "model not found") {
		t.Fatalf("expected whisper stderr in error, got %v", err)
	}
}
