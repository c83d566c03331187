// Package script recovers numbered narration segments from generated text.
package script

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/forPelevin/topicreel/internal/types"
)

// segmentRE matches "<integer>: <content>" anywhere on a line. The integer
// label is not used for ordering. Content must start on the label's line, so
// a label followed by a line break does not pull in the next line.
var segmentRE = regexp.MustCompile(`\d+:[ \t]*(\S.*)`)

// ExtractionError reports that fewer segments were found than the run requires.
type ExtractionError struct {
	Required int
	Got      int
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("script extraction: found %d of %d required segments", e.Got, e.Required)
}

// Parse returns the first n segments in scan order. Extra matches are dropped.
func Parse(raw string, n int) ([]types.ScriptSegment, error) {
	if n <= 0 {
		return nil, fmt.Errorf("script extraction: segment count must be > 0, got %d", n)
	}

	out := make([]types.ScriptSegment, 0, n)
	for _, line := range strings.Split(raw, "\n") {
		m := segmentRE.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[1])
		if text == "" {
			continue
		}
		out = append(out, types.ScriptSegment{Index: len(out) + 1, Text: text})
		if len(out) == n {
			return out, nil
		}
	}
	return nil, &ExtractionError{Required: n, Got: len(out)}
}

// Texts flattens segments into their narration strings.
func Texts(segs []types.ScriptSegment) []string {
	out := make([]string, 0, len(segs))
	for _, s := range segs {
		out = append(out, s.Text)
	}
	return out
}

// Join renders the script file body: one segment per paragraph.
func Join(segs []types.ScriptSegment) string {
	return strings.Join(Texts(segs), "\n\n")
}
