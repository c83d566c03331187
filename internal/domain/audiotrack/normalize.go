package audiotrack

import (
	"fmt"
	"time"
)

// Policy decides what happens when a source is shorter than the target.
type Policy string

const (
	// PolicyPadEnd appends silence after the content.
	PolicyPadEnd Policy = "pad-end"
	// PolicyCenter splits the silence evenly around the content.
	PolicyCenter Policy = "center"
	// PolicyLoop repeats the whole source back to back.
	PolicyLoop Policy = "loop"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyPadEnd, PolicyCenter, PolicyLoop:
		return p, nil
	default:
		return "", fmt.Errorf("unknown silence policy %q (want pad-end, center or loop)", s)
	}
}

type Options struct {
	Target time.Duration
	// Volume is a linear gain. Zero means unity.
	Volume  float64
	FadeIn  time.Duration
	FadeOut time.Duration
	Policy  Policy
	// LeadIn is silence placed before the content. It is part of Target and
	// is ignored by PolicyLoop.
	LeadIn time.Duration
}

// Re-normalizing a track to its own length leaves it unchanged only when
// Volume, fades and LeadIn are neutral. Those are applied once per call, so
// a second pass with LeadIn set shifts the content again.

// Normalize returns a new track of exactly Target length (rounded to the
// nearest frame) in the source format. The source is never modified.
//
// Gain is applied first. The content span is then cut from the source
// (trimmed from the start, or looped), faded in and out, and placed into
// silence according to the policy. Fades never touch inserted silence.
func Normalize(src *Track, o Options) (*Track, error) {
	if src == nil || src.Frames() == 0 {
		return nil, ErrEmptySource
	}
	if err := src.validate(); err != nil {
		return nil, err
	}
	if o.Target <= 0 {
		return nil, fmt.Errorf("target duration must be > 0, got %s", o.Target)
	}
	policy := o.Policy
	if policy == "" {
		policy = PolicyPadEnd
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}

	ch := src.Channels
	total := FramesFor(o.Target, src.SampleRate)

	lead := 0
	if policy != PolicyLoop {
		lead = min(FramesFor(o.LeadIn, src.SampleRate), total)
	}
	avail := total - lead

	gain := o.Volume
	if gain == 0 {
		gain = 1
	}

	var content []float64
	n := src.Frames()
	switch {
	case n >= avail:
		content = scaled(src.Samples[:avail*ch], gain)
	case policy == PolicyLoop:
		content = make([]float64, avail*ch)
		for off := 0; off < len(content); off += len(src.Samples) {
			copy(content[off:], src.Samples)
		}
		applyGain(content, gain)
	default:
		content = scaled(src.Samples, gain)
	}

	fade(content, ch, FramesFor(o.FadeIn, src.SampleRate), FramesFor(o.FadeOut, src.SampleRate))

	out := Silence(src.SampleRate, ch, total)
	offset := lead
	if policy == PolicyCenter {
		offset += (avail - len(content)/ch) / 2
	}
	copy(out.Samples[offset*ch:], content)
	return out, nil
}

func scaled(in []float64, gain float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	applyGain(out, gain)
	return out
}

func applyGain(s []float64, gain float64) {
	if gain == 1 {
		return
	}
	for i := range s {
		s[i] *= gain
	}
}

// fade applies linear ramps over the first in and last out frames of s.
func fade(s []float64, ch, in, out int) {
	frames := len(s) / ch
	in = min(in, frames)
	out = min(out, frames)
	for f := 0; f < in; f++ {
		g := float64(f) / float64(in)
		for c := 0; c < ch; c++ {
			s[f*ch+c] *= g
		}
	}
	for k := 0; k < out; k++ {
		f := frames - 1 - k
		g := float64(k) / float64(out)
		for c := 0; c < ch; c++ {
			s[f*ch+c] *= g
		}
	}
}

// Span reports where a source of the given length lands inside the
// normalized track. Looped content fills the whole target.
func (o Options) Span(source time.Duration) (start, end time.Duration) {
	if o.Target <= 0 || source <= 0 {
		return 0, 0
	}
	if o.Policy == PolicyLoop {
		return 0, o.Target
	}
	lead := min(max(o.LeadIn, 0), o.Target)
	avail := o.Target - lead
	content := min(source, avail)
	start = lead
	if o.Policy == PolicyCenter {
		start += (avail - content) / 2
	}
	return start, start + content
}
