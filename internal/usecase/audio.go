package usecase

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/forPelevin/topicreel/internal/domain/audiotrack"
	"github.com/forPelevin/topicreel/internal/domain/prompts"
	"github.com/forPelevin/topicreel/internal/domain/script"
	"github.com/forPelevin/topicreel/internal/domain/subtitles"
	"github.com/forPelevin/topicreel/internal/types"
)

func (r *run) narrate(ctx context.Context, text string) (*types.MediaAsset, error) {
	n := r.in.Narration
	r.log.Info().Str("model", n.Model).Str("voice", n.Voice).Msg("generating narration")
	urls, err := r.d.Speech.Synthesize(ctx, types.SpeechRequest{
		Model:   n.Model,
		Text:    text,
		Voice:   n.Voice,
		Emotion: n.Emotion,
		Params:  n.Params,
	})
	if err != nil {
		return nil, fmt.Errorf("generate narration: %w", err)
	}
	return r.fetchAudio(ctx, urls, "narration", "voiceover")
}

func (r *run) compose(ctx context.Context, vars prompts.Vars) (*types.MediaAsset, error) {
	m := r.in.Music
	r.log.Info().Str("model", m.Model).Msg("generating music")
	urls, err := r.d.Music.GenerateMusic(ctx, types.MusicRequest{
		Model:    m.Model,
		Prompt:   prompts.MusicPrompt(r.in.Variant, vars),
		Duration: vars.Total,
		Params:   m.Params,
	})
	if err != nil {
		return nil, fmt.Errorf("generate music: %w", err)
	}
	return r.fetchAudio(ctx, urls, "music", "background_music")
}

func (r *run) fetchAudio(ctx context.Context, urls []string, name, artifact string) (*types.MediaAsset, error) {
	suffix := suffixFor(urls, ".mp3")
	asset, err := r.d.Fetch.Fetch(ctx, urls, types.KindAudio, suffix)
	if err != nil {
		return nil, err
	}
	file := artifact + suffix
	r.out.export(name, asset.Path, file)

	if d, err := r.d.Media.ProbeDuration(ctx, asset.Path); err != nil {
		r.log.Debug().Err(err).Str("track", name).Msg("probe audio duration")
	} else {
		asset.Duration = d
	}
	return &asset, nil
}

// mixAudio conforms whichever tracks exist to total and writes the composite.
// Every failure here only drops audio; the path is empty when nothing is left.
func (r *run) mixAudio(ctx context.Context, total time.Duration, narration, music *types.MediaAsset) string {
	type source struct {
		name  string
		asset *types.MediaAsset
		opts  audiotrack.Options
	}
	sources := lo.Filter([]source{
		{"narration", narration, r.in.Narration.Audio},
		{"music", music, r.in.Music.Audio},
	}, func(s source, _ int) bool { return s.asset != nil })

	var tracks []*audiotrack.Track
	for _, s := range sources {
		s.opts.Target = total
		t, source, err := r.normalizeTrack(ctx, s.name, s.asset, s.opts)
		if err != nil {
			r.stage("normalize_"+s.name, types.StageFailed, err)
			continue
		}
		ma := &types.ManifestAudio{
			File:      r.out.file(s.name),
			SourceSec: s.asset.Duration.Seconds(),
			Policy:    string(s.opts.Policy),
		}
		if s.name == "narration" {
			r.res.Manifest.Narration = ma
			r.spoken[0], r.spoken[1] = s.opts.Span(source)
		} else {
			r.res.Manifest.Music = ma
		}
		r.stage("normalize_"+s.name, types.StageOK, nil)
		tracks = append(tracks, t)
	}

	mixed, err := audiotrack.Mix(tracks...)
	if err != nil {
		r.stage("mix", types.StageFailed, err)
		return ""
	}
	if mixed == nil {
		r.stage("mix", types.StageSkipped, nil)
		return ""
	}
	out := filepath.Join(r.in.WorkDir, "composite.wav")
	if err := audiotrack.WriteWAV(out, mixed); err != nil {
		r.stage("mix", types.StageFailed, err)
		return ""
	}
	r.log.Info().Int("tracks", len(tracks)).Dur("duration", mixed.Duration()).Msg("audio mixed")
	r.stage("mix", types.StageOK, nil)
	return out
}

func (r *run) normalizeTrack(ctx context.Context, name string, asset *types.MediaAsset, opts audiotrack.Options) (*audiotrack.Track, time.Duration, error) {
	wav := filepath.Join(r.in.WorkDir, name+".wav")
	if err := r.d.Media.DecodeAudio(ctx, asset.Path, wav, r.in.MixRate, r.in.MixChannels); err != nil {
		return nil, 0, &audiotrack.NormalizationError{Track: name, Err: err}
	}
	src, err := audiotrack.ReadWAV(wav)
	if err != nil {
		return nil, 0, &audiotrack.NormalizationError{Track: name, Err: err}
	}
	if r.in.MixRate > 0 && r.in.MixChannels > 0 {
		if src, err = audiotrack.Convert(src, r.in.MixRate, r.in.MixChannels); err != nil {
			return nil, 0, &audiotrack.NormalizationError{Track: name, Err: err}
		}
	}
	t, err := audiotrack.Normalize(src, opts)
	if err != nil {
		return nil, 0, &audiotrack.NormalizationError{Track: name, Err: err}
	}
	r.log.Debug().
		Str("track", name).
		Dur("source", src.Duration()).
		Dur("normalized", t.Duration()).
		Str("policy", string(opts.Policy)).
		Msg("track normalized")
	return t, src.Duration(), nil
}

// captions writes an ASS sidecar timed to the span where narration plays.
// Word timing comes from ASR when configured and is otherwise estimated from
// the script. Failures are reported and never stop the run.
func (r *run) captions(ctx context.Context, segs []types.ScriptSegment, narration *types.MediaAsset) {
	start, end := r.spoken[0], r.spoken[1]
	if narration == nil || end <= start {
		r.stage("captions", types.StageSkipped, nil)
		return
	}
	o := subtitles.Options{Width: r.in.Visuals.Width, Height: r.in.Visuals.Height}

	parts := lo.Map(script.Texts(segs), func(s string, _ int) string {
		return prompts.Narration([]string{s})
	})
	var ass string
	if r.d.ASR != nil {
		tr, err := r.transcribe(ctx, narration)
		if err == nil {
			ass, err = subtitles.RenderTranscriptASS(parts, tr, start, end, o)
		}
		if err != nil {
			r.log.Warn().Err(err).Msg("caption alignment failed; estimating word timing")
		}
	}
	if ass == "" {
		var err error
		if ass, err = subtitles.RenderASS(parts, start, end, o); err != nil {
			r.stage("captions", types.StageFailed, err)
			return
		}
	}

	path := filepath.Join(r.in.WorkDir, "captions.ass")
	if err := os.WriteFile(path, []byte(ass), 0o644); err != nil {
		r.stage("captions", types.StageFailed, err)
		return
	}
	r.out.export("captions", path, "captions.ass")
	r.stage("captions", types.StageOK, nil)
}

func (r *run) transcribe(ctx context.Context, narration *types.MediaAsset) (types.Transcript, error) {
	wav := filepath.Join(r.in.WorkDir, "narration-16k.wav")
	if err := r.d.Media.DecodeAudio(ctx, narration.Path, wav, 16000, 1); err != nil {
		return types.Transcript{}, err
	}
	return r.d.ASR.Transcribe(ctx, wav, r.in.WorkDir)
}

// suffixFor keeps the extension the service used so decoders can sniff it.
func suffixFor(urls []string, def string) string {
	raw, ok := lo.Find(urls, func(u string) bool { return strings.TrimSpace(u) != "" })
	if !ok {
		return def
	}
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if len(ext) < 2 || len(ext) > 5 {
		return def
	}
	return ext
}
