package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/forPelevin/topicreel/internal/catalog"
	"github.com/forPelevin/topicreel/internal/domain/audiotrack"
	"github.com/forPelevin/topicreel/internal/domain/visual"
	"github.com/forPelevin/topicreel/internal/ports"
	"github.com/forPelevin/topicreel/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/topicreel/internal/ports/adapters/httpfetch"
	"github.com/forPelevin/topicreel/internal/ports/adapters/openai"
	"github.com/forPelevin/topicreel/internal/ports/adapters/openrouter"
	"github.com/forPelevin/topicreel/internal/ports/adapters/replicate"
	"github.com/forPelevin/topicreel/internal/ports/adapters/whispercpp"
	"github.com/forPelevin/topicreel/internal/types"
	"github.com/forPelevin/topicreel/internal/usecase"
)

const (
	ProviderReplicate  = "replicate"
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
)

type Config struct {
	Topic string
	// OutDir is the root for per-run output directories. Defaults to "out".
	OutDir string
	// TempDir is where the per-run workspace is created. Defaults to the
	// system temp dir.
	TempDir  string
	KeepTemp bool

	Length     time.Duration
	SegmentDur time.Duration
	Variant    string
	Style      string

	// Empty model ids fall back to the catalog defaults.
	TextModel   string
	SpeechModel string
	VideoModel  string
	MusicModel  string
	// Params overrides model parameters per kind.
	Params  map[catalog.Kind]map[string]any
	Voice   string
	Emotion string

	NoVoiceover bool
	NoMusic     bool
	// NarrationPolicy is pad-end or center. Looping speech is rejected.
	NarrationPolicy  string
	NarrationFadeIn  time.Duration
	NarrationFadeOut time.Duration
	MusicPolicy      string
	// Nil audio settings take the catalog defaults.
	NarrationVolume *float64
	NarrationLeadIn *time.Duration
	MusicVolume     *float64
	MusicFadeIn     *time.Duration
	MusicFadeOut    *time.Duration

	FPS    int
	Width  int
	Height int
	// MixSampleRate and MixChannels fix the PCM format of every audio track.
	MixSampleRate int
	MixChannels   int
	// Tolerance is the final duration acceptance window. Zero means one
	// video frame plus one AAC frame.
	Tolerance   time.Duration
	Concurrency int

	Catalog  catalog.Catalog
	Logger   *zerolog.Logger
	Progress io.Writer
	// HTTPClient is shared by every service adapter and the fetcher.
	HTTPClient *http.Client

	FFmpegPath  string
	FFprobePath string
	// WhisperBin and WhisperModel enable transcript-timed captions. Both or
	// neither must be set.
	WhisperBin   string
	WhisperModel string

	ReplicateAPIToken     string
	ReplicateBaseURL      string
	ReplicateAllowedHosts []string

	TextProvider           string
	OpenRouterAPIKey       string
	OpenRouterModel        string
	OpenRouterBaseURL      string
	OpenRouterAllowedHosts []string
	OpenAIAPIKey           string
	OpenAIModel            string
}

// WithDefaults fills the audio, video and catalog settings the CLI leaves
// at zero values.
func (c Config) WithDefaults() Config {
	if c.Catalog.Variants == nil {
		c.Catalog = catalog.Default()
	}
	d := c.Catalog.Defaults
	setString(&c.Variant, d.Variant)
	setString(&c.Style, d.Style)
	setString(&c.TextModel, d.TextModel)
	setString(&c.SpeechModel, d.SpeechModel)
	setString(&c.VideoModel, d.VideoModel)
	setString(&c.MusicModel, d.MusicModel)
	setString(&c.Voice, d.Voice)
	setString(&c.Emotion, d.Emotion)
	setString(&c.TextProvider, ProviderReplicate)
	setString(&c.NarrationPolicy, string(audiotrack.PolicyPadEnd))
	setString(&c.MusicPolicy, string(audiotrack.PolicyLoop))
	setString(&c.OutDir, "out")
	setFloat(&c.NarrationVolume, d.NarrationVolume)
	setSeconds(&c.NarrationLeadIn, d.LeadInSec)
	setFloat(&c.MusicVolume, d.MusicVolume)
	setSeconds(&c.MusicFadeIn, d.MusicFadeInSec)
	setSeconds(&c.MusicFadeOut, d.MusicFadeOutSec)

	if c.SegmentDur == 0 {
		c.SegmentDur = 5 * time.Second
	}
	if c.Length == 0 {
		c.Length = 20 * time.Second
	}
	if c.FPS == 0 {
		c.FPS = 24
	}
	if c.MixSampleRate == 0 {
		c.MixSampleRate = 44100
	}
	if c.MixChannels == 0 {
		c.MixChannels = 2
	}
	if c.Tolerance == 0 {
		c.Tolerance = visual.FrameTolerance(c.FPS) + aacFrame(c.MixSampleRate)
	}
	return c
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Topic) == "" {
		return errors.New("topic is empty")
	}
	if _, err := visual.SegmentsFor(c.Length, c.SegmentDur); err != nil {
		return err
	}
	if _, err := c.Catalog.Variant(c.Variant); err != nil {
		return err
	}
	if _, err := c.Catalog.Model(catalog.KindVideo, c.VideoModel); err != nil {
		return err
	}
	if !c.NoVoiceover {
		if _, err := c.Catalog.Model(catalog.KindSpeech, c.SpeechModel); err != nil {
			return err
		}
		if _, err := c.Catalog.Voice(c.Voice); err != nil {
			return err
		}
		if _, err := c.Catalog.Emotion(c.Emotion); err != nil {
			return err
		}
	}
	if !c.NoMusic {
		if _, err := c.Catalog.Model(catalog.KindMusic, c.MusicModel); err != nil {
			return err
		}
	}
	p, err := audiotrack.ParsePolicy(c.NarrationPolicy)
	if err != nil {
		return fmt.Errorf("narration: %w", err)
	}
	if p == audiotrack.PolicyLoop {
		return errors.New("narration: loop policy is not allowed for speech (want pad-end or center)")
	}
	if _, err := audiotrack.ParsePolicy(c.MusicPolicy); err != nil {
		return fmt.Errorf("music: %w", err)
	}
	for name, v := range map[string]*float64{"narration volume": c.NarrationVolume, "music volume": c.MusicVolume} {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be > 0 (drop the track with --no-voiceover or --no-music)", name)
		}
	}
	for name, d := range map[string]time.Duration{
		"lead-in":            lo.FromPtr(c.NarrationLeadIn),
		"narration fade-in":  c.NarrationFadeIn,
		"narration fade-out": c.NarrationFadeOut,
		"music fade-in":      lo.FromPtr(c.MusicFadeIn),
		"music fade-out":     lo.FromPtr(c.MusicFadeOut),
	} {
		if d < 0 {
			return fmt.Errorf("%s must be >= 0", name)
		}
	}
	if leadIn := lo.FromPtr(c.NarrationLeadIn); leadIn >= c.Length {
		return fmt.Errorf("lead-in %s must be shorter than the video length %s", leadIn, c.Length)
	}
	if c.FPS <= 0 {
		return errors.New("fps must be > 0")
	}
	if c.Width < 0 || c.Height < 0 {
		return errors.New("width and height must be >= 0")
	}
	if c.MixSampleRate <= 0 || c.MixChannels <= 0 || c.MixChannels > 2 {
		return fmt.Errorf("unsupported mix format %d Hz x %d channels", c.MixSampleRate, c.MixChannels)
	}
	if c.Concurrency < 0 {
		return errors.New("concurrency must be >= 0")
	}
	if c.Tolerance < 0 {
		return errors.New("tolerance must be >= 0")
	}

	if (c.WhisperBin == "") != (c.WhisperModel == "") {
		return errors.New("WHISPER_BIN and WHISPER_MODEL must be set together")
	}

	if strings.TrimSpace(c.ReplicateAPIToken) == "" {
		return errors.New("REPLICATE_API_TOKEN is required (set it in .env)")
	}
	if err := replicate.ValidateBaseURL(c.ReplicateBaseURL, c.ReplicateAllowedHosts); err != nil {
		return err
	}

	switch c.TextProvider {
	case ProviderReplicate:
		_, err := c.Catalog.Model(catalog.KindText, c.TextModel)
		return err
	case ProviderOpenRouter:
		if strings.TrimSpace(c.OpenRouterAPIKey) == "" {
			return errors.New("OPENROUTER_API_KEY is required for TEXT_PROVIDER=openrouter")
		}
		return openrouter.ValidateBaseURL(c.OpenRouterBaseURL, c.OpenRouterAllowedHosts)
	case ProviderOpenAI:
		if strings.TrimSpace(c.OpenAIAPIKey) == "" {
			return errors.New("OPENAI_API_KEY is required for TEXT_PROVIDER=openai")
		}
		return nil
	default:
		return fmt.Errorf("unknown TEXT_PROVIDER %q (want replicate, openrouter or openai)", c.TextProvider)
	}
}

// Run validates cfg, generates one video into a fresh run directory under
// cfg.OutDir and returns that directory. The manifest and asset bundle are
// written on every exit path past workspace creation.
func Run(ctx context.Context, cfg Config) (string, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	in, err := cfg.input()
	if err != nil {
		return "", fmt.Errorf("config: %w", err)
	}

	runID := uuid.NewString()
	runOutDir := buildRunOutDir(cfg.OutDir, cfg.Topic, runID, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return "", err
	}
	log.Info().Str("run", runID).Str("dir", runOutDir).Msg("output run dir")

	work, err := os.MkdirTemp(cfg.TempDir, "topicreel-"+runID[:8]+"-")
	if err != nil {
		return runOutDir, fmt.Errorf("create workspace: %w", err)
	}
	defer cleanup(work, cfg.KeepTemp, log)
	log.Debug().Str("dir", work).Msg("workspace")

	in.WorkDir = work
	in.OutDir = runOutDir
	in.Logger = &log

	uc := usecase.New(cfg.deps(work, log))
	res, runErr := uc.Run(ctx, in)

	m := res.Manifest
	m.RunID = runID
	m.Topic = cfg.Topic
	m.Variant = cfg.Variant
	if len(m.Artifacts) > 0 {
		zipPath, err := bundleArtifacts(runOutDir, m.Artifacts)
		if err != nil {
			log.Warn().Err(err).Msg("bundle artifacts")
		} else {
			m.Artifacts["bundle"] = filepath.Base(zipPath)
		}
	}
	if err := writeManifest(runOutDir, m); err != nil {
		log.Warn().Err(err).Msg("write manifest")
	} else {
		log.Info().Int("artifacts", len(m.Artifacts)).Str("state", m.MuxState).Msg("manifest written")
	}
	return runOutDir, runErr
}

func (c Config) input() (usecase.Input, error) {
	variant, err := c.Catalog.Variant(c.Variant)
	if err != nil {
		return usecase.Input{}, err
	}
	segments, err := visual.SegmentsFor(c.Length, c.SegmentDur)
	if err != nil {
		return usecase.Input{}, err
	}
	video, err := c.Catalog.Model(catalog.KindVideo, c.VideoModel)
	if err != nil {
		return usecase.Input{}, err
	}

	in := usecase.Input{
		Topic:      c.Topic,
		Variant:    variant,
		Style:      c.Style,
		Segments:   segments,
		SegmentDur: c.SegmentDur,
		Visuals: usecase.Visuals{
			Model:       c.VideoModel,
			Params:      video.WithParams(c.Params[catalog.KindVideo]),
			FPS:         c.FPS,
			Width:       c.Width,
			Height:      c.Height,
			Concurrency: c.Concurrency,
		},
		MixRate:     c.MixSampleRate,
		MixChannels: c.MixChannels,
		Tolerance:   c.Tolerance,
	}

	if !c.NoVoiceover {
		speech, err := c.Catalog.Model(catalog.KindSpeech, c.SpeechModel)
		if err != nil {
			return usecase.Input{}, err
		}
		in.Narration = usecase.Narration{
			Enabled: true,
			Model:   c.SpeechModel,
			Params:  speech.WithParams(c.Params[catalog.KindSpeech]),
			Audio: audiotrack.Options{
				Volume:  lo.FromPtr(c.NarrationVolume),
				FadeIn:  c.NarrationFadeIn,
				FadeOut: c.NarrationFadeOut,
				Policy:  audiotrack.Policy(c.NarrationPolicy),
				LeadIn:  lo.FromPtr(c.NarrationLeadIn),
			},
		}
		if speech.UsesVoice {
			if in.Narration.Voice, err = c.Catalog.Voice(c.Voice); err != nil {
				return usecase.Input{}, err
			}
			if in.Narration.Emotion, err = c.Catalog.Emotion(c.Emotion); err != nil {
				return usecase.Input{}, err
			}
		}
	}

	if !c.NoMusic {
		music, err := c.Catalog.Model(catalog.KindMusic, c.MusicModel)
		if err != nil {
			return usecase.Input{}, err
		}
		in.Music = usecase.Music{
			Enabled: true,
			Model:   c.MusicModel,
			Params:  music.WithParams(c.Params[catalog.KindMusic]),
			Audio: audiotrack.Options{
				Volume:  lo.FromPtr(c.MusicVolume),
				FadeIn:  lo.FromPtr(c.MusicFadeIn),
				FadeOut: lo.FromPtr(c.MusicFadeOut),
				Policy:  audiotrack.Policy(c.MusicPolicy),
			},
		}
	}
	return in, nil
}

func (c Config) deps(work string, log zerolog.Logger) usecase.Deps {
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	fetchOpts := []httpfetch.Option{httpfetch.WithClient(client)}
	if c.Progress != nil {
		fetchOpts = append(fetchOpts, httpfetch.WithProgress(c.Progress))
	}

	rep := replicate.New(c.ReplicateAPIToken, c.ReplicateBaseURL,
		replicate.WithClient(client),
		replicate.WithAllowedHosts(c.ReplicateAllowedHosts),
		replicate.WithLogger(log.With().Str("adapter", "replicate").Logger()),
	)

	d := usecase.Deps{
		Media:  ffmpeg.New(c.FFmpegPath, c.FFprobePath),
		Fetch:  httpfetch.New(work, fetchOpts...),
		Text:   c.textGenerator(rep, client, log),
		Speech: rep,
		Video:  rep,
		Music:  rep,
	}
	if c.WhisperBin != "" {
		d.ASR = whispercpp.New(c.WhisperBin, c.WhisperModel)
	}
	return d
}

func (c Config) textGenerator(rep *replicate.Adapter, client *http.Client, log zerolog.Logger) ports.TextGenerator {
	switch c.TextProvider {
	case ProviderOpenRouter:
		return openrouter.New(c.OpenRouterAPIKey, c.OpenRouterModel, c.OpenRouterBaseURL,
			openrouter.WithClient(client),
			openrouter.WithLogger(log.With().Str("adapter", "openrouter").Logger()),
		)
	case ProviderOpenAI:
		return openai.New(c.OpenAIAPIKey, c.OpenAIModel, option.WithHTTPClient(client))
	default:
		m, _ := c.Catalog.Model(catalog.KindText, c.TextModel)
		return rep.Text(c.TextModel, m.WithParams(c.Params[catalog.KindText]))
	}
}

func writeManifest(dir string, m types.Manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "manifest.json"), b, 0o644)
}

func cleanup(dir string, keep bool, log zerolog.Logger) {
	if keep {
		log.Info().Str("dir", dir).Msg("keeping workspace")
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("remove workspace")
	}
}

// aacFrame is the duration of one 1024-sample AAC frame.
func aacFrame(rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(1024 * int64(time.Second) / int64(rate))
}

func buildRunOutDir(outRoot, topic, runID string, now time.Time) string {
	name := normalizePathSegment(topic)
	if len(name) > 40 {
		name = strings.Trim(name[:40], "-")
	}
	if name == "" {
		name = "video"
	}
	ts := now.UTC().Format("20060102-150405Z")
	suffix := hash(topic + "|" + runID)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

func setString(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}

func setFloat(dst **float64, def *float64) {
	if *dst == nil {
		*dst = lo.ToPtr(lo.FromPtr(def))
	}
}

func setSeconds(dst **time.Duration, def *float64) {
	if *dst == nil {
		*dst = lo.ToPtr(time.Duration(lo.FromPtr(def) * float64(time.Second)))
	}
}

// ensure adapters implement ports
var _ ports.VideoTool = (*ffmpeg.Adapter)(nil)
var _ ports.Fetcher = (*httpfetch.Fetcher)(nil)
var _ ports.TextGenerator = (*replicate.Text)(nil)
var _ ports.TextGenerator = (*openrouter.Adapter)(nil)
var _ ports.TextGenerator = (*openai.Adapter)(nil)
var _ ports.SpeechSynthesizer = (*replicate.Adapter)(nil)
var _ ports.VideoGenerator = (*replicate.Adapter)(nil)
var _ ports.MusicGenerator = (*replicate.Adapter)(nil)
var _ ports.Transcriber = (*whispercpp.Adapter)(nil)
