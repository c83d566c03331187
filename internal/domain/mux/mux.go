// Package mux binds the assembled timeline to the composite audio through a
// fixed ladder of encode tiers. Each tier runs at most once, writes to its own
// path, and removes its partial output on failure.
package mux

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/topicreel/internal/types"
)

type State string

const (
	StatePrimary         State = "PRIMARY_ENCODE"
	StateSimple          State = "FALLBACK_ENCODE_SIMPLE"
	StateAudioFirst      State = "FALLBACK_ENCODE_AUDIO_FIRST"
	StateDone            State = "DONE"
	StateTerminalFailure State = "TERMINAL_FAILURE"
)

var ErrTerminal = errors.New("all mux tiers failed")

// Encoder is the subset of the media tool the muxer drives.
type Encoder interface {
	EncodePrimary(ctx context.Context, r types.EncodeRequest) error
	EncodeSimple(ctx context.Context, r types.EncodeRequest) error
	EncodeVideoOnly(ctx context.Context, r types.EncodeRequest) error
	EncodeAudioOnly(ctx context.Context, r types.EncodeRequest) error
	Remux(ctx context.Context, r types.EncodeRequest) error
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}

type Attempt struct {
	Tier State
	Err  error
}

// Error is returned on TERMINAL_FAILURE and lists every tier's cause.
type Error struct {
	Attempts []Attempt
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Tier, a.Err))
	}
	return "mux: all tiers failed: " + strings.Join(parts, "; ")
}

func (e *Error) Unwrap() error { return ErrTerminal }

type Request struct {
	// Video is the assembled timeline.
	Video string
	// Audio is the composite track; empty renders a video-only output.
	Audio string
	Out   string
	// WorkDir holds per-tier outputs and audio-first intermediates.
	WorkDir   string
	Target    time.Duration
	Tolerance time.Duration
	FPS       int
}

type Result struct {
	Path     string
	State    State
	Tier     State
	Duration time.Duration
	Attempts []Attempt
}

type Muxer struct {
	enc Encoder
	log zerolog.Logger
}

func New(enc Encoder, log zerolog.Logger) *Muxer {
	return &Muxer{enc: enc, log: log}
}

// Mux walks PRIMARY_ENCODE, FALLBACK_ENCODE_SIMPLE and
// FALLBACK_ENCODE_AUDIO_FIRST in order and stops at the first tier whose
// output passes the duration acceptance check. Inputs are never removed.
func (m *Muxer) Mux(ctx context.Context, req Request) (Result, error) {
	if req.Video == "" || req.Out == "" {
		return Result{State: StateTerminalFailure}, errors.New("mux: video and output paths are required")
	}
	if req.WorkDir == "" {
		req.WorkDir = filepath.Dir(req.Out)
	}

	res := Result{}
	state := StatePrimary
	for state != StateDone && state != StateTerminalFailure {
		if err := ctx.Err(); err != nil {
			res.Attempts = append(res.Attempts, Attempt{Tier: state, Err: err})
			state = StateTerminalFailure
			break
		}

		tierOut := filepath.Join(req.WorkDir, "mux-"+strings.ToLower(string(state))+".mp4")
		start := time.Now()
		dur, err := m.runTier(ctx, state, req, tierOut)
		if err == nil {
			if err = os.Rename(tierOut, req.Out); err != nil {
				err = fmt.Errorf("publish output: %w", err)
			}
		}
		if err != nil {
			removeQuiet(tierOut)
			m.log.Warn().Err(err).Str("tier", string(state)).Dur("took", time.Since(start)).Msg("mux tier failed")
			res.Attempts = append(res.Attempts, Attempt{Tier: state, Err: err})
			state = next(state)
			continue
		}

		m.log.Info().Str("tier", string(state)).Dur("duration", dur).Dur("took", time.Since(start)).Msg("mux tier succeeded")
		res.Attempts = append(res.Attempts, Attempt{Tier: state})
		res.Tier = state
		res.Duration = dur
		res.Path = req.Out
		state = StateDone
	}

	res.State = state
	if state == StateTerminalFailure {
		var failed []Attempt
		for _, a := range res.Attempts {
			if a.Err != nil {
				failed = append(failed, a)
			}
		}
		return res, &Error{Attempts: failed}
	}
	return res, nil
}

func next(s State) State {
	switch s {
	case StatePrimary:
		return StateSimple
	case StateSimple:
		return StateAudioFirst
	default:
		return StateTerminalFailure
	}
}

func (m *Muxer) runTier(ctx context.Context, tier State, req Request, out string) (time.Duration, error) {
	removeQuiet(out)

	r := types.EncodeRequest{Video: req.Video, Audio: req.Audio, Out: out, Duration: req.Target, FPS: req.FPS}
	var err error
	switch tier {
	case StatePrimary:
		err = m.enc.EncodePrimary(ctx, r)
	case StateSimple:
		err = m.enc.EncodeSimple(ctx, r)
	case StateAudioFirst:
		err = m.audioFirst(ctx, req, out)
	default:
		err = fmt.Errorf("unknown tier %s", tier)
	}
	if err != nil {
		return 0, err
	}
	return m.accept(ctx, out, req)
}

// audioFirst renders the video-only and audio-only streams separately, then
// remuxes them without re-encoding.
func (m *Muxer) audioFirst(ctx context.Context, req Request, out string) error {
	videoOnly := filepath.Join(req.WorkDir, "mux-audio-first-video.mp4")
	audioOnly := filepath.Join(req.WorkDir, "mux-audio-first-audio.m4a")
	defer removeQuiet(videoOnly)
	defer removeQuiet(audioOnly)

	base := types.EncodeRequest{Duration: req.Target, FPS: req.FPS}

	v := base
	v.Video, v.Out = req.Video, videoOnly
	if err := m.enc.EncodeVideoOnly(ctx, v); err != nil {
		return fmt.Errorf("video-only render: %w", err)
	}
	if req.Audio == "" {
		return os.Rename(videoOnly, out)
	}

	a := base
	a.Audio, a.Out = req.Audio, audioOnly
	if err := m.enc.EncodeAudioOnly(ctx, a); err != nil {
		return fmt.Errorf("audio-only render: %w", err)
	}

	r := base
	r.Video, r.Audio, r.Out = videoOnly, audioOnly, out
	if err := m.enc.Remux(ctx, r); err != nil {
		return fmt.Errorf("remux: %w", err)
	}
	return nil
}

func (m *Muxer) accept(ctx context.Context, out string, req Request) (time.Duration, error) {
	st, err := os.Stat(out)
	if err != nil {
		return 0, fmt.Errorf("output missing: %w", err)
	}
	if st.Size() == 0 {
		return 0, errors.New("output is empty")
	}
	got, err := m.enc.ProbeDuration(ctx, out)
	if err != nil {
		return 0, err
	}
	d := got - req.Target
	if d < 0 {
		d = -d
	}
	if d > req.Tolerance {
		return 0, fmt.Errorf("output duration %s differs from target %s by more than %s", got, req.Target, req.Tolerance)
	}
	return got, nil
}

func removeQuiet(path string) {
	_ = os.Remove(path)
}
