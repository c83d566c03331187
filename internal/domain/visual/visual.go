// Package visual plans duration conformance for generated video segments and
// for the assembled timeline. Plans are pure; the media tool executes them.
package visual

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrUndecodable = errors.New("video has no measurable duration")

// NormalizationError is fatal for the run: a missing segment would break the
// one-to-one mapping between narration segments and visuals.
type NormalizationError struct {
	Segment int
	Err     error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize segment %d video: %v", e.Segment, e.Err)
}

func (e *NormalizationError) Unwrap() error { return e.Err }

// SegmentPlan conforms one clip to Target. Loops counts extra whole repeats
// appended after the first play; the result is always cut at Target from
// the start of the clip.
type SegmentPlan struct {
	Native time.Duration
	Target time.Duration
	Loops  int
}

func (p SegmentPlan) Trimmed() bool { return p.Loops == 0 && p.Native > p.Target }

func PlanSegment(native, target time.Duration) (SegmentPlan, error) {
	if target <= 0 {
		return SegmentPlan{}, fmt.Errorf("segment target must be > 0, got %s", target)
	}
	if native <= 0 {
		return SegmentPlan{}, ErrUndecodable
	}
	p := SegmentPlan{Native: native, Target: target}
	if native < target {
		p.Loops = int(math.Ceil(float64(target)/float64(native))) - 1
	}
	return p, nil
}

type ClampAction string

const (
	ClampNone ClampAction = "none"
	ClampTrim ClampAction = "trim"
	ClampPad  ClampAction = "pad"
)

// TimelinePlan corrects encoder drift on the concatenated timeline.
type TimelinePlan struct {
	Action   ClampAction
	Measured time.Duration
	Target   time.Duration
	// Pad is how long the last frame is held when Action is ClampPad.
	Pad time.Duration
}

// PlanTimeline compares a measured duration against the declared total.
// Differences within tolerance are left alone.
func PlanTimeline(measured, target, tolerance time.Duration) TimelinePlan {
	p := TimelinePlan{Action: ClampNone, Measured: measured, Target: target}
	diff := measured - target
	switch {
	case diff > tolerance:
		p.Action = ClampTrim
	case -diff > tolerance:
		p.Action = ClampPad
		p.Pad = -diff
	}
	return p
}

// FrameTolerance is one frame period at fps.
func FrameTolerance(fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Second / time.Duration(fps)
}

// Within reports whether got matches want within tol.
func Within(got, want, tol time.Duration) bool {
	d := got - want
	if d < 0 {
		d = -d
	}
	return d <= tol
}

// SegmentsFor splits total into equal segments of per. total must be a
// positive multiple of per.
func SegmentsFor(total, per time.Duration) (int, error) {
	if total <= 0 || per <= 0 {
		return 0, fmt.Errorf("durations must be > 0 (total=%s, segment=%s)", total, per)
	}
	if total%per != 0 {
		return 0, fmt.Errorf("length %s is not a multiple of the %s segment duration", total, per)
	}
	return int(total / per), nil
}
