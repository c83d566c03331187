package whispercpp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/forPelevin/topicreel/internal/types"
)

type Adapter struct {
	bin      string
	model    string
	language string
}

// New returns a transcriber for English narration. Speech models are asked
// for English (language_boost), so auto-detection is skipped.
func New(binPath, modelPath string) *Adapter {
	return &Adapter{bin: binPath, model: modelPath, language: "en"}
}

// Transcribe runs whisper.cpp with word timestamps and reads back its JSON.
func (a *Adapter) Transcribe(ctx context.Context, wavPath, workDir string) (types.Transcript, error) {
	outPrefix := filepath.Join(workDir, "narration-asr")
	cmd := exec.CommandContext(ctx, a.bin, a.args(wavPath, outPrefix)...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper.cpp failed: %w\n%s", err, string(b))
	}

	jb, err := os.ReadFile(outPrefix + ".json")
	if err != nil {
		return types.Transcript{}, err
	}
	return decode(jb)
}

// args asks for JSON output split one word per entry, so entry offsets are
// word timings.
func (a *Adapter) args(wavPath, outPrefix string) []string {
	return []string{
		"-m", a.model,
		"-f", wavPath,
		"-l", a.language,
		"-of", outPrefix,
		"-oj",
		"-ml", "1",
		"-sow",
		"-np",
	}
}

// output is whisper.cpp's JSON. Files already in segments/words form are
// accepted as is.
type output struct {
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text string `json:"text"`
	} `json:"transcription"`
	Segments []types.TranscriptSegment `json:"segments"`
}

func decode(b []byte) (types.Transcript, error) {
	var out output
	if err := json.Unmarshal(b, &out); err != nil {
		return types.Transcript{}, fmt.Errorf("decode whisper json: %w", err)
	}
	tr := types.Transcript{Segments: out.Segments}
	if len(out.Transcription) > 0 {
		tr = sentences(out)
	}
	if len(tr.Segments) == 0 {
		return types.Transcript{}, errors.New("whisper.cpp: empty transcript")
	}
	for i := range tr.Segments {
		tr.Segments[i].Text = strings.TrimSpace(tr.Segments[i].Text)
		for j := range tr.Segments[i].Words {
			tr.Segments[i].Words[j].Word = strings.TrimSpace(tr.Segments[i].Words[j].Word)
		}
	}
	return tr, nil
}

// sentences groups one-word entries into segments closed by . ! or ?.
func sentences(out output) types.Transcript {
	var tr types.Transcript
	var cur types.TranscriptSegment
	flush := func() {
		if len(cur.Words) == 0 {
			return
		}
		cur.Start = cur.Words[0].Start
		cur.End = cur.Words[len(cur.Words)-1].End
		texts := make([]string, len(cur.Words))
		for i, w := range cur.Words {
			texts[i] = strings.TrimSpace(w.Word)
		}
		cur.Text = strings.Join(texts, " ")
		tr.Segments = append(tr.Segments, cur)
		cur = types.TranscriptSegment{}
	}
	for _, e := range out.Transcription {
		text := strings.TrimSpace(e.Text)
		if text == "" || strings.HasPrefix(text, "[") {
			continue
		}
		cur.Words = append(cur.Words, types.Word{
			Start: float64(e.Offsets.From) / 1000,
			End:   float64(e.Offsets.To) / 1000,
			Word:  text,
		})
		if strings.ContainsAny(text[len(text)-1:], ".!?") {
			flush()
		}
	}
	flush()
	return tr
}
