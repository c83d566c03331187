// Package subtitles renders narration captions as an ASS sidecar file.
// Speech services return no word timestamps, so word timing comes from a
// transcript when one exists and is otherwise estimated from text length
// across the span where narration plays.
package subtitles

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/forPelevin/topicreel/internal/types"
)

var ErrNoText = errors.New("subtitles: no caption text")

type Options struct {
	// Width and Height set PlayRes. Zero keeps 1920x1080.
	Width  int
	Height int
}

type word struct {
	Start time.Duration
	End   time.Duration
	Text  string
	Part  int
}

type line struct {
	Start time.Duration
	End   time.Duration
	Words []word
}

// RenderASS spreads the words of parts over [start, end) in reading order
// and packs them into karaoke lines. A line never spans two parts.
func RenderASS(parts []string, start, end time.Duration, o Options) (string, error) {
	if end <= start {
		return "", fmt.Errorf("subtitles: empty span %s..%s", start, end)
	}
	words := timeWords(parts, start, end)
	if len(words) == 0 {
		return "", ErrNoText
	}
	return render(packWords(words), o), nil
}

// RenderTranscriptASS renders recognized words shifted by start. Words are
// matched back to parts in reading order, so as with RenderASS a line never
// spans two parts. Words that begin at or after end were cut from the mix
// and are dropped.
func RenderTranscriptASS(parts []string, tr types.Transcript, start, end time.Duration, o Options) (string, error) {
	if end <= start {
		return "", fmt.Errorf("subtitles: empty span %s..%s", start, end)
	}
	var recognized []word
	for _, seg := range tr.Segments {
		for _, w := range seg.Words {
			text := sanitizeASS(w.Word)
			if text == "" {
				continue
			}
			recognized = append(recognized, word{Start: start + dur(w.Start), End: start + dur(w.End), Text: text})
		}
	}
	assignParts(recognized, parts)

	var words []word
	for _, w := range recognized {
		w.End = min(w.End, end)
		if w.Start >= end || w.End <= w.Start {
			continue
		}
		words = append(words, w)
	}
	if len(words) == 0 {
		return "", ErrNoText
	}
	return render(packWords(words), o), nil
}

// partLookahead is how many script words a recognized word may skip to find
// its match.
const partLookahead = 4

// assignParts walks recognized words and script words together. A match
// moves the cursor past the script word; a miss keeps the part at the cursor,
// so recognition errors never move a word backwards.
func assignParts(words []word, parts []string) {
	type scriptWord struct {
		key  string
		part int
	}
	var script []scriptWord
	for i, p := range parts {
		for _, f := range strings.Fields(p) {
			if k := matchKey(f); k != "" {
				script = append(script, scriptWord{key: k, part: i})
			}
		}
	}
	if len(script) == 0 {
		return
	}

	next := 0
	for i := range words {
		k := matchKey(words[i].Text)
		part := script[min(next, len(script)-1)].part
		for j := next; j < min(next+partLookahead, len(script)); j++ {
			if k != "" && script[j].key == k {
				part = script[j].part
				next = j + 1
				break
			}
		}
		words[i].Part = part
	}
}

func matchKey(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
}

// timeWords weights each word by its rune count plus one for the gap.
func timeWords(parts []string, start, end time.Duration) []word {
	var out []word
	total := 0
	for i, p := range parts {
		for _, f := range strings.Fields(p) {
			text := sanitizeASS(f)
			if text == "" {
				continue
			}
			out = append(out, word{Text: text, Part: i})
			total += utf8.RuneCountInString(text) + 1
		}
	}
	span := int64(end - start)
	cum := 0
	for i := range out {
		w := utf8.RuneCountInString(out[i].Text) + 1
		out[i].Start = start + time.Duration(span*int64(cum)/int64(total))
		cum += w
		out[i].End = start + time.Duration(span*int64(cum)/int64(total))
	}
	if len(out) > 0 {
		out[len(out)-1].End = end
	}
	return out
}

func packWords(words []word) []line {
	var out []line
	cur := line{Start: words[0].Start}
	// Budgets keep lines readable on vertical layouts.
	charBudget := 42
	wordBudget := 9
	curLen := 0
	for i, w := range words {
		wl := utf8.RuneCountInString(w.Text)
		nextLen := curLen
		if curLen > 0 {
			nextLen++
		}
		nextLen += wl
		newPart := len(cur.Words) > 0 && cur.Words[0].Part != w.Part
		if len(cur.Words) > 0 && (newPart || len(cur.Words) >= wordBudget || nextLen > charBudget) {
			cur.End = cur.Words[len(cur.Words)-1].End
			out = append(out, cur)
			cur = line{Start: w.Start}
			curLen = 0
		}
		cur.Words = append(cur.Words, w)
		if curLen > 0 {
			curLen++
		}
		curLen += wl
		if i == len(words)-1 {
			cur.End = w.End
			out = append(out, cur)
		}
	}
	return out
}

func render(lines []line, o Options) string {
	var b strings.Builder
	b.WriteString(header(o))
	b.WriteString("\n\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, ln := range lines {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(ln.Start))
		b.WriteString(",")
		b.WriteString(assTime(ln.End))
		b.WriteString(",Caption,,0,0,0,,")
		texts := make([]string, 0, len(ln.Words))
		for _, w := range ln.Words {
			cs := max(int((w.End-w.Start)/(10*time.Millisecond)), 1)
			texts = append(texts, fmt.Sprintf("{\\k%d}%s", cs, w.Text))
		}
		b.WriteString(strings.Join(texts, " "))
		b.WriteString("\n")
	}
	return b.String()
}

func header(o Options) string {
	w, h := o.Width, o.Height
	if w <= 0 || h <= 0 {
		w, h = 1920, 1080
	}
	// Font size tracks the shorter side so portrait output stays legible.
	size := min(w, h) * 78 / 1080
	return strings.TrimSpace(fmt.Sprintf(`
[Script Info]
ScriptType: v4.00+
PlayResX: %d
PlayResY: %d
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Caption, Inter, %d, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,6,2,2, 80,80,85,1
`, w, h, size))
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
