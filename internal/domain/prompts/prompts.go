// Package prompts renders generation prompts from catalog variants.
package prompts

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/forPelevin/topicreel/internal/catalog"
)

type Vars struct {
	Topic    string
	Style    string
	Total    time.Duration
	Segments int
}

func (v Vars) replacer(extra ...string) *strings.Replacer {
	per := time.Duration(0)
	if v.Segments > 0 {
		per = v.Total / time.Duration(v.Segments)
	}
	pairs := []string{
		"{topic}", v.Topic,
		"{style}", strings.ToLower(v.Style),
		"{duration}", seconds(v.Total),
		"{segments}", strconv.Itoa(v.Segments),
		"{segment_sec}", seconds(per),
		"{labels}", Labels(v.Segments),
	}
	return strings.NewReplacer(append(pairs, extra...)...)
}

func ScriptPrompt(variant catalog.Variant, v Vars) string {
	return SanitizeASCII(v.replacer().Replace(variant.Script))
}

func MusicPrompt(variant catalog.Variant, v Vars) string {
	return SanitizeASCII(v.replacer().Replace(variant.Music))
}

// VisualPrompt renders the prompt for the segment at zero-based position i.
func VisualPrompt(variant catalog.Variant, v Vars, i int, segment string) string {
	tmpl := variant.Visual
	if n := len(variant.Scenes); n > 0 {
		tmpl = variant.Scenes[min(i, n-1)]
	}
	r := v.replacer("{shot}", ShotType(i, v.Segments), "{segment}", segment)
	return SanitizeASCII(r.Replace(tmpl))
}

// ShotType picks a camera framing by position so consecutive segments do not
// all open on the same composition.
func ShotType(i, n int) string {
	switch {
	case i == 0:
		return "establishing wide shot"
	case i == 1 && n > 2:
		return "medium shot with focus on key elements"
	case i == 2 && n > 3:
		return "close-up shot showing important details"
	default:
		return "dynamic concluding shot"
	}
}

// Labels spells the numbering convention the script parser expects,
// e.g. "'1:', '2:', and '3:'".
func Labels(n int) string {
	if n <= 0 {
		return ""
	}
	if n == 1 {
		return "'1:'"
	}
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, fmt.Sprintf("'%d:'", i))
	}
	if n == 2 {
		return parts[0] + " and " + parts[1]
	}
	return strings.Join(parts[:n-1], ", ") + ", and " + parts[n-1]
}

// SanitizeASCII drops every non-ASCII rune.
func SanitizeASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
}

var narrationRE = regexp.MustCompile(`[^\w\s.,!?]`)

// Narration joins segment texts into a single speakable string. It returns ""
// when nothing speakable remains.
func Narration(segments []string) string {
	s := narrationRE.ReplaceAllString(strings.Join(segments, " "), "")
	s = SanitizeASCII(s)
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
