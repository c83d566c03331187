package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/forPelevin/topicreel/internal/catalog"
	"github.com/forPelevin/topicreel/internal/pipeline"
	"github.com/forPelevin/topicreel/internal/ports/adapters/httpapi"
)

func run(cmd *cobra.Command, topic string) error {
	f := cmd.Flags()
	outDir, _ := f.GetString("out")
	lengthSec, _ := f.GetInt("length")
	segmentSec, _ := f.GetFloat64("segment-sec")
	variant, _ := f.GetString("variant")
	style, _ := f.GetString("style")
	voice, _ := f.GetString("voice")
	emotion, _ := f.GetString("emotion")
	textModel, _ := f.GetString("text-model")
	speechModel, _ := f.GetString("speech-model")
	videoModel, _ := f.GetString("video-model")
	musicModel, _ := f.GetString("music-model")
	rawParams, _ := f.GetStringArray("param")
	noVoiceover, _ := f.GetBool("no-voiceover")
	noMusic, _ := f.GetBool("no-music")
	narrationPolicy, _ := f.GetString("narration-policy")
	musicPolicy, _ := f.GetString("music-policy")
	concurrency, _ := f.GetInt("concurrency")
	keepTemp, _ := f.GetBool("keep-temp")
	catalogPath, _ := f.GetString("catalog")
	progress, _ := f.GetBool("progress")
	logJSON, _ := f.GetBool("log-json")
	verbose, _ := f.GetBool("verbose")
	fps, _ := f.GetInt("fps")
	width, _ := f.GetInt("width")
	height, _ := f.GetInt("height")
	mixRate, _ := f.GetInt("mix-rate")
	mixChannels, _ := f.GetInt("mix-channels")

	log := newLogger(cmd.ErrOrStderr(), logJSON, verbose)

	params, err := parseParams(rawParams)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, time.Hour)
	defer cancel()

	cfg := pipeline.Config{
		Topic:      strings.TrimSpace(topic),
		OutDir:     outDir,
		KeepTemp:   keepTemp,
		Length:     time.Duration(lengthSec) * time.Second,
		SegmentDur: seconds(segmentSec),
		Variant:    variant,
		Style:      style,

		TextModel:   textModel,
		SpeechModel: speechModel,
		VideoModel:  videoModel,
		MusicModel:  musicModel,
		Params:      params,
		Voice:       voice,
		Emotion:     emotion,

		NoVoiceover:     noVoiceover,
		NoMusic:         noMusic,
		NarrationPolicy: narrationPolicy,
		NarrationVolume: changedFloat(f, "narration-volume"),
		NarrationLeadIn: changedSeconds(f, "lead-in"),
		MusicPolicy:     musicPolicy,
		MusicVolume:     changedFloat(f, "music-volume"),
		MusicFadeIn:     changedSeconds(f, "music-fade-in"),
		MusicFadeOut:    changedSeconds(f, "music-fade-out"),

		FPS:           fps,
		Width:         width,
		Height:        height,
		MixSampleRate: mixRate,
		MixChannels:   mixChannels,
		Concurrency:   concurrency,

		Catalog: cat,
		Logger:  &log,

		FFmpegPath:  getenvDefault("FFMPEG_PATH", "ffmpeg"),
		FFprobePath: getenvDefault("FFPROBE_PATH", "ffprobe"),

		WhisperBin:   os.Getenv("WHISPER_BIN"),
		WhisperModel: os.Getenv("WHISPER_MODEL"),

		ReplicateAPIToken:     os.Getenv("REPLICATE_API_TOKEN"),
		ReplicateBaseURL:      os.Getenv("REPLICATE_BASE_URL"),
		ReplicateAllowedHosts: httpapi.SplitHosts(os.Getenv("REPLICATE_ALLOWED_HOSTS")),

		TextProvider:           strings.ToLower(strings.TrimSpace(os.Getenv("TEXT_PROVIDER"))),
		OpenRouterAPIKey:       os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModel:        os.Getenv("OPENROUTER_MODEL"),
		OpenRouterBaseURL:      os.Getenv("OPENROUTER_BASE_URL"),
		OpenRouterAllowedHosts: httpapi.SplitHosts(os.Getenv("OPENROUTER_ALLOWED_HOSTS")),
		OpenAIAPIKey:           os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:            os.Getenv("OPENAI_MODEL"),
	}
	if progress {
		cfg.Progress = cmd.ErrOrStderr()
	}

	dir, err := pipeline.Run(ctx, cfg)
	if dir != "" {
		log.Info().Str("dir", dir).Msg("run output")
	}
	return err
}

func newLogger(w io.Writer, jsonOut, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	if !jsonOut {
		_, noColor := os.LookupEnv("NO_COLOR")
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: noColor}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// parseParams reads kind.key=value overrides. Values are parsed as bool,
// int or float when they look like one and kept as strings otherwise.
func parseParams(raw []string) (map[catalog.Kind]map[string]any, error) {
	out := map[catalog.Kind]map[string]any{}
	for _, p := range raw {
		lhs, value, ok := strings.Cut(p, "=")
		kind, key, okKey := strings.Cut(strings.TrimSpace(lhs), ".")
		if !ok || !okKey || key == "" {
			return nil, fmt.Errorf("invalid --param %q (want kind.key=value)", p)
		}
		k := catalog.Kind(strings.ToLower(kind))
		switch k {
		case catalog.KindText, catalog.KindSpeech, catalog.KindVideo, catalog.KindMusic:
		default:
			return nil, fmt.Errorf("invalid --param %q: unknown kind %q", p, kind)
		}
		if out[k] == nil {
			out[k] = map[string]any{}
		}
		out[k][key] = parseValue(strings.TrimSpace(value))
	}
	return out, nil
}

func parseValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// changedFloat returns nil for flags left at their default so the catalog's
// audio defaults apply.
func changedFloat(f *pflag.FlagSet, name string) *float64 {
	if !f.Changed(name) {
		return nil
	}
	v, _ := f.GetFloat64(name)
	return &v
}

func changedSeconds(f *pflag.FlagSet, name string) *time.Duration {
	v := changedFloat(f, name)
	if v == nil {
		return nil
	}
	d := seconds(*v)
	return &d
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
