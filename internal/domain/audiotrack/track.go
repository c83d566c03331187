// Package audiotrack conforms decoded PCM tracks to an exact duration and
// mixes them. Every track carries its own sample rate and channel count, and
// silence is always synthesized from the track it is inserted into.
package audiotrack

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrEmptySource    = errors.New("audio source has zero duration")
	ErrFormatMismatch = errors.New("audio tracks differ in sample rate or channel count")
	ErrLengthMismatch = errors.New("audio tracks differ in length")
)

// NormalizationError wraps any failure to conform a named track. Callers drop
// the track and continue.
type NormalizationError struct {
	Track string
	Err   error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s audio: %v", e.Track, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// Track is interleaved float PCM in [-1, 1].
type Track struct {
	SampleRate int
	Channels   int
	Samples    []float64
}

func (t *Track) Frames() int {
	if t == nil || t.Channels <= 0 {
		return 0
	}
	return len(t.Samples) / t.Channels
}

func (t *Track) Duration() time.Duration {
	if t == nil || t.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(t.Frames()) / float64(t.SampleRate) * float64(time.Second))
}

func (t *Track) sameFormat(o *Track) bool {
	return t.SampleRate == o.SampleRate && t.Channels == o.Channels
}

func (t *Track) validate() error {
	if t.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", t.SampleRate)
	}
	if t.Channels <= 0 {
		return fmt.Errorf("invalid channel count %d", t.Channels)
	}
	if len(t.Samples)%t.Channels != 0 {
		return fmt.Errorf("sample count %d is not a multiple of %d channels", len(t.Samples), t.Channels)
	}
	return nil
}

// Silence returns frames of digital silence in the given format.
func Silence(sampleRate, channels, frames int) *Track {
	if frames < 0 {
		frames = 0
	}
	return &Track{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    make([]float64, frames*channels),
	}
}

// FramesFor converts a duration to a whole frame count at rate, rounding to
// the nearest frame.
func FramesFor(d time.Duration, rate int) int {
	if d <= 0 || rate <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * float64(rate)))
}
