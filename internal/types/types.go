package types

import "time"

type MediaKind string

const (
	KindVideo MediaKind = "video"
	KindAudio MediaKind = "audio"
)

// ScriptSegment is one numbered narration unit recovered from generated text.
// Index is 1-based and follows scan order.
type ScriptSegment struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Transcript is word-timed speech recognition output. Times are seconds
// from the start of the transcribed file.
type Transcript struct {
	Segments []TranscriptSegment `json:"segments"`
}

type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

type Word struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Word  string  `json:"word"`
}

type MediaAsset struct {
	Path     string        `json:"path"`
	Kind     MediaKind     `json:"kind"`
	Duration time.Duration `json:"duration,omitempty"`
	Bytes    int64         `json:"bytes"`
	URL      string        `json:"url,omitempty"`
}

// NormalizedClip is a MediaAsset whose duration has been conformed to Target.
type NormalizedClip struct {
	MediaAsset
	Target time.Duration `json:"target"`
}

type Timeline struct {
	Path     string           `json:"path"`
	Clips    []NormalizedClip `json:"clips"`
	Duration time.Duration    `json:"duration"`
}

// ClipSpec drives the conform step of a single segment.
type ClipSpec struct {
	Loops    int
	Duration time.Duration
	FPS      int
	Width    int
	Height   int
}

// EncodeRequest is shared by every mux tier. Audio may be empty for a
// video-only render.
type EncodeRequest struct {
	Video    string
	Audio    string
	Out      string
	Duration time.Duration
	FPS      int
}

type SpeechRequest struct {
	Model   string
	Text    string
	Voice   string
	Emotion string
	Params  map[string]any
}

type VideoRequest struct {
	Model  string
	Prompt string
	Params map[string]any
}

type MusicRequest struct {
	Model    string
	Prompt   string
	Duration time.Duration
	Params   map[string]any
}

type StageStatus string

const (
	StageOK      StageStatus = "ok"
	StageSkipped StageStatus = "skipped"
	StageFailed  StageStatus = "failed"
)

type StageReport struct {
	Stage  string      `json:"stage"`
	Status StageStatus `json:"status"`
	Error  string      `json:"error,omitempty"`
}

type Manifest struct {
	RunID       string            `json:"run_id"`
	Topic       string            `json:"topic"`
	Variant     string            `json:"variant"`
	TargetSec   float64           `json:"target_sec"`
	SegmentSec  float64           `json:"segment_sec"`
	Segments    []ManifestSegment `json:"segments"`
	Narration   *ManifestAudio    `json:"narration,omitempty"`
	Music       *ManifestAudio    `json:"music,omitempty"`
	TimelineSec float64           `json:"timeline_sec,omitempty"`
	Final       string            `json:"final,omitempty"`
	FinalSec    float64           `json:"final_sec,omitempty"`
	MuxState    string            `json:"mux_state,omitempty"`
	Stages      []StageReport     `json:"stages"`
	Artifacts   map[string]string `json:"artifacts"`
}

type ManifestSegment struct {
	Index     int     `json:"index"`
	Text      string  `json:"text"`
	File      string  `json:"file"`
	NativeSec float64 `json:"native_sec"`
	Loops     int     `json:"loops"`
}

type ManifestAudio struct {
	File      string  `json:"file"`
	SourceSec float64 `json:"source_sec"`
	Policy    string  `json:"policy"`
}
