// Package usecase runs one topic-to-video generation: script, narration,
// segment visuals, timeline, music, audio normalization, mix and mux.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/forPelevin/topicreel/internal/catalog"
	"github.com/forPelevin/topicreel/internal/domain/audiotrack"
	"github.com/forPelevin/topicreel/internal/domain/mux"
	"github.com/forPelevin/topicreel/internal/domain/prompts"
	"github.com/forPelevin/topicreel/internal/domain/script"
	"github.com/forPelevin/topicreel/internal/ports"
	"github.com/forPelevin/topicreel/internal/types"
)

var ErrNoVisuals = errors.New("no segment clips to assemble")

type Deps struct {
	Media  ports.VideoTool
	Fetch  ports.Fetcher
	Text   ports.TextGenerator
	Speech ports.SpeechSynthesizer
	Video  ports.VideoGenerator
	Music  ports.MusicGenerator
	// ASR is optional. Without it caption timing is estimated from text.
	ASR ports.Transcriber
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase { return Usecase{d: d} }

type Visuals struct {
	Model  string
	Params map[string]any
	FPS    int
	Width  int
	Height int
	// Concurrency bounds parallel segment generation; <= 1 is sequential.
	Concurrency int
}

type Narration struct {
	Enabled bool
	Model   string
	Voice   string
	Emotion string
	Params  map[string]any
	// Audio.Target is ignored; every track is conformed to the run total.
	Audio audiotrack.Options
}

type Music struct {
	Enabled bool
	Model   string
	Params  map[string]any
	Audio   audiotrack.Options
}

type Input struct {
	Topic      string
	Variant    catalog.Variant
	Style      string
	Segments   int
	SegmentDur time.Duration

	Visuals   Visuals
	Narration Narration
	Music     Music

	// MixRate and MixChannels are the PCM format every track is decoded to.
	MixRate     int
	MixChannels int
	// Tolerance is the final acceptance window for the muxed duration.
	Tolerance time.Duration

	WorkDir string
	// OutDir receives artifacts as soon as they are produced.
	OutDir string
	Logger *zerolog.Logger
}

func (in Input) total() time.Duration {
	return time.Duration(in.Segments) * in.SegmentDur
}

type Result struct {
	Manifest types.Manifest
	Mux      mux.Result
}

type run struct {
	d   Deps
	in  Input
	log zerolog.Logger
	out *exporter
	res Result
	// spoken is where narration content sits in the mix, zero without one.
	spoken [2]time.Duration
}

// Run executes every stage in order. Fatal stages return an error wrapped
// with the stage name; the Result still describes everything produced and
// exported up to that point.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	log := zerolog.Nop()
	if in.Logger != nil {
		log = *in.Logger
	}
	r := &run{d: u.d, in: in, log: log, out: newExporter(in.OutDir, log)}
	r.res.Manifest.TargetSec = in.total().Seconds()
	r.res.Manifest.SegmentSec = in.SegmentDur.Seconds()

	err := r.execute(ctx)
	r.res.Manifest.Artifacts = r.out.files()
	return r.res, err
}

func (r *run) execute(ctx context.Context) error {
	in := r.in
	total := in.total()
	if total <= 0 {
		return fmt.Errorf("invalid run length: %d segments of %s", in.Segments, in.SegmentDur)
	}
	vars := prompts.Vars{Topic: in.Topic, Style: in.Style, Total: total, Segments: in.Segments}

	// 1. script
	segs, err := r.writeScript(ctx, vars)
	if err != nil {
		return r.fatal("script", err)
	}
	r.stage("script", types.StageOK, nil)

	// 2. narration
	var narration *types.MediaAsset
	if !in.Narration.Enabled {
		r.stage("narration", types.StageSkipped, nil)
	} else {
		text := prompts.Narration(script.Texts(segs))
		if text == "" {
			r.log.Warn().Msg("narration text is empty after cleaning; skipping voiceover")
			r.stage("narration", types.StageSkipped, nil)
		} else if narration, err = r.narrate(ctx, text); err != nil {
			if !in.Music.Enabled {
				return r.fatal("narration", err)
			}
			r.stage("narration", types.StageFailed, err)
		} else {
			r.stage("narration", types.StageOK, nil)
		}
	}

	// 3-4. visuals and timeline
	clips, err := r.buildSegments(ctx, vars, segs)
	if err != nil {
		return r.fatal("visuals", err)
	}
	r.stage("visuals", types.StageOK, nil)

	timeline, err := r.assembleTimeline(ctx, clips, total)
	if err != nil {
		return r.fatal("timeline", err)
	}
	r.res.Manifest.TimelineSec = timeline.Duration.Seconds()
	r.stage("timeline", types.StageOK, nil)

	// 5. music
	var music *types.MediaAsset
	if !in.Music.Enabled {
		r.stage("music", types.StageSkipped, nil)
	} else if music, err = r.compose(ctx, vars); err != nil {
		r.stage("music", types.StageFailed, err)
	} else {
		r.stage("music", types.StageOK, nil)
	}

	// 6. normalize and mix
	composite := r.mixAudio(ctx, total, narration, music)
	if in.Narration.Enabled {
		r.captions(ctx, segs, narration)
	}

	// 7. mux
	return r.mux(ctx, timeline, composite, total)
}

func (r *run) writeScript(ctx context.Context, vars prompts.Vars) ([]types.ScriptSegment, error) {
	raw, err := r.d.Text.Generate(ctx, prompts.ScriptPrompt(r.in.Variant, vars))
	if err != nil {
		return nil, fmt.Errorf("generate script: %w", err)
	}
	segs, err := script.Parse(raw, r.in.Segments)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(r.in.WorkDir, "script.txt")
	if err := os.WriteFile(path, []byte(script.Join(segs)), 0o644); err != nil {
		return nil, fmt.Errorf("write script: %w", err)
	}
	r.out.export("script", path, "script.txt")
	return segs, nil
}

func (r *run) mux(ctx context.Context, timeline types.Timeline, composite string, total time.Duration) error {
	in := r.in
	res, err := mux.New(r.d.Media, r.log).Mux(ctx, mux.Request{
		Video:     timeline.Path,
		Audio:     composite,
		Out:       filepath.Join(in.WorkDir, "final_video.mp4"),
		WorkDir:   in.WorkDir,
		Target:    total,
		Tolerance: in.Tolerance,
		FPS:       in.Visuals.FPS,
	})
	r.res.Mux = res
	r.res.Manifest.MuxState = string(res.State)
	if err != nil {
		// Keep the conformed intermediates for manual recovery.
		r.out.export("timeline", timeline.Path, "timeline.mp4")
		if composite != "" {
			r.out.export("composite_audio", composite, "composite_audio.wav")
		}
		return r.fatal("mux", err)
	}

	r.out.export("final", res.Path, "final_video.mp4")
	r.res.Manifest.Final = "final_video.mp4"
	r.res.Manifest.FinalSec = res.Duration.Seconds()
	r.stage("mux", types.StageOK, nil)
	return nil
}

func (r *run) stage(name string, status types.StageStatus, err error) {
	rep := types.StageReport{Stage: name, Status: status}
	ev := r.log.Info()
	if err != nil {
		rep.Error = err.Error()
		ev = r.log.Warn().Err(err)
	}
	ev.Str("stage", name).Str("status", string(status)).Msg("stage finished")
	r.res.Manifest.Stages = append(r.res.Manifest.Stages, rep)
}

func (r *run) fatal(name string, err error) error {
	r.stage(name, types.StageFailed, err)
	return fmt.Errorf("%s: %w", name, err)
}
