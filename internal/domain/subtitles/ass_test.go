package subtitles

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/forPelevin/topicreel/internal/types"
)

func TestRenderASS_KaraokeHasKTags(t *testing.T) {
	ass, err := RenderASS([]string{"Hello world"}, 0, 2*time.Second, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ass, "{\\k") {
		t.Fatalf("expected karaoke tags in ASS, got:\n%s", ass)
	}
	if !strings.Contains(ass, "PlayResX: 1920") || !strings.Contains(ass, "PlayResY: 1080") {
		t.Fatalf("expected default play resolution, got:\n%s", ass)
	}
}

func TestRenderASS_LinesFollowParts(t *testing.T) {
	// Both parts weigh 6 runes per word plus gap, so the split lands mid-span.
	ass, err := RenderASS([]string{"alpha", "bravo"}, 2*time.Second, 4*time.Second, Options{Width: 540, Height: 960})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"Dialogue: 0,0:00:02.00,0:00:03.00,Caption,,0,0,0,,{\\k100}alpha",
		"Dialogue: 0,0:00:03.00,0:00:04.00,Caption,,0,0,0,,{\\k100}bravo",
		"PlayResX: 540",
		"Style: Caption, Inter, 39,",
	}
	for _, w := range want {
		if !strings.Contains(ass, w) {
			t.Fatalf("missing %q in:\n%s", w, ass)
		}
	}
}

func TestRenderASS_WordBudget(t *testing.T) {
	part := strings.Repeat("go ", 12)
	ass, err := RenderASS([]string{part}, 0, 12*time.Second, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(ass, "Dialogue:"); got != 2 {
		t.Fatalf("expected 12 words packed into 2 lines, got %d:\n%s", got, ass)
	}
	if !strings.Contains(ass, ",0:00:12.00,Caption") {
		t.Fatalf("last line must end at the span end:\n%s", ass)
	}
}

func TestRenderASS_Errors(t *testing.T) {
	if _, err := RenderASS([]string{"  ", ""}, 0, time.Second, Options{}); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
	if _, err := RenderASS([]string{"hi"}, time.Second, time.Second, Options{}); err == nil {
		t.Fatal("expected error for empty span")
	}
}

func TestRenderASS_EscapesOverrideBraces(t *testing.T) {
	ass, err := RenderASS([]string{`{\b1}bold`}, 0, time.Second, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(ass, `(\\b1)bold`) {
		t.Fatalf("braces must be neutralized:\n%s", ass)
	}
}

func TestAssTime_Format(t *testing.T) {
	got := assTime(61*time.Second + 234*time.Millisecond)
	if got != "0:01:01.23" {
		t.Fatalf("unexpected assTime: %s", got)
	}
}

func TestRenderTranscriptASS_ShiftsAndCuts(t *testing.T) {
	tr := types.Transcript{Segments: []types.TranscriptSegment{
		{Start: 0, End: 1, Words: []types.Word{{Start: 0.0, End: 0.5, Word: "Hello"}, {Start: 0.5, End: 1.0, Word: "world"}}},
		{Start: 1, End: 3, Words: []types.Word{{Start: 1.0, End: 2.5, Word: "again"}, {Start: 2.5, End: 3.0, Word: "cut"}}},
	}}
	ass, err := RenderTranscriptASS([]string{"Hello, world.", "Again, cut."}, tr, 2*time.Second, 4*time.Second+200*time.Millisecond, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Dialogue: 0,0:00:02.00,0:00:03.00,Caption,,0,0,0,,{\\k50}Hello {\\k50}world",
		"Dialogue: 0,0:00:03.00,0:00:04.20,Caption,,0,0,0,,{\\k120}again",
	} {
		if !strings.Contains(ass, want) {
			t.Fatalf("missing %q in:\n%s", want, ass)
		}
	}
	if strings.Contains(ass, "cut") {
		t.Fatalf("words past the span end must be dropped:\n%s", ass)
	}
}

func TestRenderTranscriptASS_NoWords(t *testing.T) {
	tr := types.Transcript{Segments: []types.TranscriptSegment{{Start: 0, End: 1, Text: "no words"}}}
	if _, err := RenderTranscriptASS([]string{"no words"}, tr, 0, time.Second, Options{}); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestRenderTranscriptASS_LinesFollowParts(t *testing.T) {
	// One recognized sentence runs across both parts and "gamma" was misheard.
	tr := types.Transcript{Segments: []types.TranscriptSegment{{Start: 0, End: 5, Words: []types.Word{
		{Start: 0, End: 1, Word: " Alpha"},
		{Start: 1, End: 2, Word: " beta"},
		{Start: 2, End: 3, Word: " gama,"},
		{Start: 3, End: 4, Word: " delta"},
		{Start: 4, End: 5, Word: " epsilon."},
	}}}}
	ass, err := RenderTranscriptASS([]string{"Alpha beta gamma.", "Delta epsilon."}, tr, 0, 5*time.Second, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"Dialogue: 0,0:00:00.00,0:00:03.00,Caption,,0,0,0,,{\\k100}Alpha {\\k100}beta {\\k100}gama,",
		"Dialogue: 0,0:00:03.00,0:00:05.00,Caption,,0,0,0,,{\\k100}delta {\\k100}epsilon.",
	} {
		if !strings.Contains(ass, want) {
			t.Fatalf("missing %q in:\n%s", want, ass)
		}
	}
}

func TestAssignParts(t *testing.T) {
	tests := []struct {
		name  string
		words []string
		parts []string
		want  []int
	}{
		{name: "exact", words: []string{"a", "b", "c"}, parts: []string{"a b", "c"}, want: []int{0, 0, 1}},
		{name: "substitution stays in part", words: []string{"a", "x", "c"}, parts: []string{"a b", "c"}, want: []int{0, 0, 1}},
		{name: "split word", words: []string{"twenty", "one", "c"}, parts: []string{"twenty-one", "c"}, want: []int{0, 0, 1}},
		{name: "extra words at the end", words: []string{"a", "b", "thanks"}, parts: []string{"a", "b"}, want: []int{0, 1, 1}},
		{name: "no script", words: []string{"a"}, parts: nil, want: []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words := make([]word, len(tt.words))
			for i, w := range tt.words {
				words[i] = word{Text: w}
			}
			assignParts(words, tt.parts)
			for i, w := range words {
				if w.Part != tt.want[i] {
					t.Fatalf("word %q part = %d, want %d", w.Text, w.Part, tt.want[i])
				}
			}
		})
	}
}
