package ports

import (
	"context"
	"time"

	"github.com/forPelevin/topicreel/internal/types"
)

type VideoTool interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
	// DecodeAudio writes PCM WAV at sampleRate and channels.
	DecodeAudio(ctx context.Context, in, outWav string, sampleRate, channels int) error
	ConformClip(ctx context.Context, in, out string, spec types.ClipSpec) error
	ConcatClips(ctx context.Context, clips []string, listPath, out string) error
	// ClampTimeline trims to target, holding the last frame for pad first.
	ClampTimeline(ctx context.Context, in, out string, target, pad time.Duration, fps int) error

	EncodePrimary(ctx context.Context, r types.EncodeRequest) error
	EncodeSimple(ctx context.Context, r types.EncodeRequest) error
	EncodeVideoOnly(ctx context.Context, r types.EncodeRequest) error
	EncodeAudioOnly(ctx context.Context, r types.EncodeRequest) error
	Remux(ctx context.Context, r types.EncodeRequest) error
}

type Fetcher interface {
	Fetch(ctx context.Context, urls []string, kind types.MediaKind, suffix string) (types.MediaAsset, error)
}

type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, req types.SpeechRequest) ([]string, error)
}

type VideoGenerator interface {
	GenerateVideo(ctx context.Context, req types.VideoRequest) ([]string, error)
}

type MusicGenerator interface {
	GenerateMusic(ctx context.Context, req types.MusicRequest) ([]string, error)
}

// Transcriber recovers word timing from a 16 kHz mono WAV.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath, workDir string) (types.Transcript, error)
}
