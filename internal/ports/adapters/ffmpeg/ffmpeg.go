package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/forPelevin/topicreel/internal/types"
)

type Adapter struct {
	ffmpeg  string
	ffprobe string
}

func New(ffmpegPath, ffprobePath string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

func (a *Adapter) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

func (a *Adapter) DecodeAudio(ctx context.Context, in, outWav string, sampleRate, channels int) error {
	return a.run(ctx, "decode audio", decodeAudio(in, outWav, sampleRate, channels))
}

func (a *Adapter) ConformClip(ctx context.Context, in, out string, spec types.ClipSpec) error {
	return a.run(ctx, "conform clip", conformClip(in, out, spec))
}

// ConcatClips joins clips with the concat demuxer. Clips must share codec
// parameters, which ConformClip guarantees.
func (a *Adapter) ConcatClips(ctx context.Context, clips []string, listPath, out string) error {
	if len(clips) == 0 {
		return errors.New("ffmpeg concat: no clips")
	}
	list, err := concatList(clips)
	if err != nil {
		return err
	}
	if err := os.WriteFile(listPath, []byte(list), 0o644); err != nil {
		return err
	}
	s := ffmpeggo.Input(listPath, ffmpeggo.KwArgs{"f": "concat", "safe": 0}).
		Output(out, ffmpeggo.KwArgs{"c": "copy"})
	return a.run(ctx, "concat", s)
}

func (a *Adapter) ClampTimeline(ctx context.Context, in, out string, target, pad time.Duration, fps int) error {
	return a.run(ctx, "clamp timeline", clampTimeline(in, out, target, pad, fps))
}

func (a *Adapter) EncodePrimary(ctx context.Context, r types.EncodeRequest) error {
	return a.run(ctx, "encode primary", encodePrimary(r))
}

func (a *Adapter) EncodeSimple(ctx context.Context, r types.EncodeRequest) error {
	return a.run(ctx, "encode simple", encodeSimple(r))
}

func (a *Adapter) EncodeVideoOnly(ctx context.Context, r types.EncodeRequest) error {
	s := ffmpeggo.Input(r.Video).Video().Output(r.Out, ffmpeggo.KwArgs{
		"c:v":     "libx264",
		"preset":  "veryfast",
		"pix_fmt": "yuv420p",
		"r":       fpsOrDefault(r.FPS),
		"t":       fmtSeconds(r.Duration),
		"an":      "",
	})
	return a.run(ctx, "encode video only", s)
}

func (a *Adapter) EncodeAudioOnly(ctx context.Context, r types.EncodeRequest) error {
	s := ffmpeggo.Input(r.Audio).Audio().Output(r.Out, ffmpeggo.KwArgs{
		"c:a": "aac",
		"b:a": "192k",
		"t":   fmtSeconds(r.Duration),
		"vn":  "",
	})
	return a.run(ctx, "encode audio only", s)
}

func (a *Adapter) Remux(ctx context.Context, r types.EncodeRequest) error {
	streams := []*ffmpeggo.Stream{
		ffmpeggo.Input(r.Video).Video(),
		ffmpeggo.Input(r.Audio).Audio(),
	}
	s := ffmpeggo.Output(streams, r.Out, ffmpeggo.KwArgs{
		"c":        "copy",
		"t":        fmtSeconds(r.Duration),
		"movflags": "+faststart",
	})
	return a.run(ctx, "remux", s)
}

func (a *Adapter) run(ctx context.Context, op string, s *ffmpeggo.Stream) error {
	args := s.OverWriteOutput().GetArgs()
	cmd := exec.CommandContext(ctx, a.ffmpeg, args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg %s: %w\n%s", op, err, string(b))
	}
	return nil
}

func decodeAudio(in, outWav string, sampleRate, channels int) *ffmpeggo.Stream {
	kw := ffmpeggo.KwArgs{
		"vn":  "",
		"c:a": "pcm_s16le",
		"f":   "wav",
	}
	if sampleRate > 0 {
		kw["ar"] = sampleRate
	}
	if channels > 0 {
		kw["ac"] = channels
	}
	return ffmpeggo.Input(in).Output(outWav, kw)
}

// conformClip loops the source Loops extra times, cuts at Duration from the
// start and normalizes geometry and frame rate so clips concat losslessly.
func conformClip(in, out string, spec types.ClipSpec) *ffmpeggo.Stream {
	var inKw []ffmpeggo.KwArgs
	if spec.Loops > 0 {
		inKw = append(inKw, ffmpeggo.KwArgs{"stream_loop": spec.Loops})
	}
	fps := fpsOrDefault(spec.FPS)
	vf := fmt.Sprintf("fps=%d", fps)
	if spec.Width > 0 && spec.Height > 0 {
		w, h := even(spec.Width), even(spec.Height)
		vf = fmt.Sprintf(
			"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,%s",
			w, h, w, h, vf,
		)
	}
	return ffmpeggo.Input(in, inKw...).Output(out, ffmpeggo.KwArgs{
		"vf":      vf,
		"t":       fmtSeconds(spec.Duration),
		"an":      "",
		"c:v":     "libx264",
		"preset":  "veryfast",
		"crf":     18,
		"pix_fmt": "yuv420p",
	})
}

func clampTimeline(in, out string, target, pad time.Duration, fps int) *ffmpeggo.Stream {
	kw := ffmpeggo.KwArgs{
		"t":       fmtSeconds(target),
		"an":      "",
		"c:v":     "libx264",
		"preset":  "veryfast",
		"crf":     18,
		"pix_fmt": "yuv420p",
		"r":       fpsOrDefault(fps),
	}
	if pad > 0 {
		kw["vf"] = "tpad=stop_mode=clone:stop_duration=" + fmtSeconds(pad)
	}
	return ffmpeggo.Input(in).Output(out, kw)
}

func encodePrimary(r types.EncodeRequest) *ffmpeggo.Stream {
	kw := ffmpeggo.KwArgs{
		"c:v":      "libx264",
		"preset":   "ultrafast",
		"b:v":      "2000k",
		"pix_fmt":  "yuv420p",
		"r":        fpsOrDefault(r.FPS),
		"t":        fmtSeconds(r.Duration),
		"movflags": "+faststart",
	}
	return ffmpeggo.Output(muxInputs(r, kw), r.Out, kw)
}

// encodeSimple drops the tuned options and pins a single thread.
func encodeSimple(r types.EncodeRequest) *ffmpeggo.Stream {
	kw := ffmpeggo.KwArgs{
		"c:v":     "libx264",
		"pix_fmt": "yuv420p",
		"threads": 1,
		"r":       fpsOrDefault(r.FPS),
		"t":       fmtSeconds(r.Duration),
	}
	return ffmpeggo.Output(muxInputs(r, kw), r.Out, kw)
}

func muxInputs(r types.EncodeRequest, kw ffmpeggo.KwArgs) []*ffmpeggo.Stream {
	streams := []*ffmpeggo.Stream{ffmpeggo.Input(r.Video).Video()}
	if r.Audio == "" {
		kw["an"] = ""
		return streams
	}
	kw["c:a"] = "aac"
	kw["b:a"] = "192k"
	return append(streams, ffmpeggo.Input(r.Audio).Audio())
}

func concatList(clips []string) (string, error) {
	var b strings.Builder
	for _, c := range clips {
		abs, err := filepath.Abs(c)
		if err != nil {
			return "", err
		}
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(abs, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String(), nil
}

func fpsOrDefault(fps int) int {
	if fps <= 0 {
		return 24
	}
	return fps
}

func even(n int) int {
	return n &^ 1
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
