package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forPelevin/topicreel/internal/domain/prompts"
	"github.com/forPelevin/topicreel/internal/domain/visual"
	"github.com/forPelevin/topicreel/internal/types"
)

// buildSegments generates, downloads and conforms one clip per script
// segment. Results are stored by segment index, never by completion order.
func (r *run) buildSegments(ctx context.Context, vars prompts.Vars, segs []types.ScriptSegment) ([]types.NormalizedClip, error) {
	clips := make([]types.NormalizedClip, len(segs))
	report := make([]types.ManifestSegment, len(segs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.in.Visuals.Concurrency))
	for i, seg := range segs {
		g.Go(func() error {
			clip, ms, err := r.buildSegmentClip(gctx, vars, i, seg)
			if err != nil {
				return err
			}
			clips[i] = clip
			report[i] = ms
			return nil
		})
	}
	err := g.Wait()

	for _, ms := range report {
		if ms.Index != 0 {
			r.res.Manifest.Segments = append(r.res.Manifest.Segments, ms)
		}
	}
	if err != nil {
		return nil, err
	}
	return clips, nil
}

func (r *run) buildSegmentClip(ctx context.Context, vars prompts.Vars, i int, seg types.ScriptSegment) (types.NormalizedClip, types.ManifestSegment, error) {
	v := r.in.Visuals
	target := r.in.SegmentDur
	ms := types.ManifestSegment{Index: seg.Index, Text: seg.Text}

	r.log.Info().Int("segment", seg.Index).Str("model", v.Model).Msg("generating segment visual")
	urls, err := r.d.Video.GenerateVideo(ctx, types.VideoRequest{
		Model:  v.Model,
		Prompt: prompts.VisualPrompt(r.in.Variant, vars, i, seg.Text),
		Params: v.Params,
	})
	if err != nil {
		return types.NormalizedClip{}, ms, fmt.Errorf("segment %d: generate video: %w", seg.Index, err)
	}
	asset, err := r.d.Fetch.Fetch(ctx, urls, types.KindVideo, ".mp4")
	if err != nil {
		return types.NormalizedClip{}, ms, fmt.Errorf("segment %d: %w", seg.Index, err)
	}
	name := fmt.Sprintf("segment_%d.mp4", seg.Index)
	r.out.export(fmt.Sprintf("segment_%d", seg.Index), asset.Path, name)
	ms.File = name

	native, err := r.d.Media.ProbeDuration(ctx, asset.Path)
	if err != nil {
		return types.NormalizedClip{}, ms, &visual.NormalizationError{Segment: seg.Index, Err: err}
	}
	asset.Duration = native
	ms.NativeSec = native.Seconds()

	plan, err := visual.PlanSegment(native, target)
	if err != nil {
		return types.NormalizedClip{}, ms, &visual.NormalizationError{Segment: seg.Index, Err: err}
	}
	ms.Loops = plan.Loops

	out := filepath.Join(r.in.WorkDir, fmt.Sprintf("clip_%d.mp4", seg.Index))
	spec := types.ClipSpec{Loops: plan.Loops, Duration: target, FPS: v.FPS, Width: v.Width, Height: v.Height}
	if err := r.d.Media.ConformClip(ctx, asset.Path, out, spec); err != nil {
		return types.NormalizedClip{}, ms, &visual.NormalizationError{Segment: seg.Index, Err: err}
	}
	r.log.Debug().
		Int("segment", seg.Index).
		Dur("native", native).
		Int("loops", plan.Loops).
		Bool("trimmed", plan.Trimmed()).
		Msg("segment conformed")

	clip := types.NormalizedClip{
		MediaAsset: types.MediaAsset{Path: out, Kind: types.KindVideo, Duration: target, URL: asset.URL},
		Target:     target,
	}
	return clip, ms, nil
}

// assembleTimeline concatenates clips in order and clamps drift against
// total with a trim or a held last frame.
func (r *run) assembleTimeline(ctx context.Context, clips []types.NormalizedClip, total time.Duration) (types.Timeline, error) {
	if len(clips) == 0 {
		return types.Timeline{}, ErrNoVisuals
	}
	paths := make([]string, 0, len(clips))
	for _, c := range clips {
		paths = append(paths, c.Path)
	}

	raw := filepath.Join(r.in.WorkDir, "timeline_concat.mp4")
	if err := r.d.Media.ConcatClips(ctx, paths, filepath.Join(r.in.WorkDir, "concat.txt"), raw); err != nil {
		return types.Timeline{}, err
	}
	measured, err := r.d.Media.ProbeDuration(ctx, raw)
	if err != nil {
		return types.Timeline{}, fmt.Errorf("probe timeline: %w", err)
	}

	plan := visual.PlanTimeline(measured, total, visual.FrameTolerance(r.in.Visuals.FPS))
	tl := types.Timeline{Path: raw, Clips: clips, Duration: measured}
	if plan.Action == visual.ClampNone {
		return tl, nil
	}

	r.log.Info().Str("action", string(plan.Action)).Dur("measured", measured).Dur("target", total).Msg("clamping timeline")
	clamped := filepath.Join(r.in.WorkDir, "timeline.mp4")
	if err := r.d.Media.ClampTimeline(ctx, raw, clamped, total, plan.Pad, r.in.Visuals.FPS); err != nil {
		return types.Timeline{}, err
	}
	if tl.Duration, err = r.d.Media.ProbeDuration(ctx, clamped); err != nil {
		return types.Timeline{}, fmt.Errorf("probe timeline: %w", err)
	}
	tl.Path = clamped
	return tl, nil
}
