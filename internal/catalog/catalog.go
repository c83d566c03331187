// Package catalog holds the static lookup tables handed to a run: generation
// models and their default parameters, voices, emotions, visual styles and
// prompt variants. Defaults are compiled in and a YAML file may override them.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

type Kind string

// Lengths are the offered video lengths in seconds. Each is a whole number
// of 5 s segments.
var Lengths = []int{10, 15, 20}

const (
	KindText   Kind = "text"
	KindSpeech Kind = "speech"
	KindVideo  Kind = "video"
	KindMusic  Kind = "music"
)

// Model is a generation model reachable through the predictions API.
type Model struct {
	Name string `yaml:"name"`
	// UsesVoice marks speech models that accept voice_id and emotion.
	UsesVoice bool           `yaml:"uses_voice,omitempty"`
	Params    map[string]any `yaml:"params,omitempty"`
}

// Variant is a family of prompt templates. Placeholders are written as
// {topic}, {style}, {duration}, {segments}, {segment_sec}, {labels}, {shot}
// and {segment}.
type Variant struct {
	Script string `yaml:"script"`
	Visual string `yaml:"visual"`
	Music  string `yaml:"music"`
	// Scenes overrides Visual by segment position. The last entry covers
	// every later position.
	Scenes []string `yaml:"scenes,omitempty"`
}

type Defaults struct {
	TextModel   string `yaml:"text_model"`
	SpeechModel string `yaml:"speech_model"`
	VideoModel  string `yaml:"video_model"`
	MusicModel  string `yaml:"music_model"`
	Voice       string `yaml:"voice"`
	Emotion     string `yaml:"emotion"`
	Variant     string `yaml:"variant"`
	Style       string `yaml:"style"`

	// Audio mix settings. Nil means unset, so a file can still pin 0.
	NarrationVolume *float64 `yaml:"narration_volume,omitempty"`
	LeadInSec       *float64 `yaml:"lead_in_sec,omitempty"`
	MusicVolume     *float64 `yaml:"music_volume,omitempty"`
	MusicFadeInSec  *float64 `yaml:"music_fade_in_sec,omitempty"`
	MusicFadeOutSec *float64 `yaml:"music_fade_out_sec,omitempty"`
}

type Catalog struct {
	Text     map[string]Model   `yaml:"text"`
	Speech   map[string]Model   `yaml:"speech"`
	Video    map[string]Model   `yaml:"video"`
	Music    map[string]Model   `yaml:"music"`
	Voices   map[string]string  `yaml:"voices"`
	Emotions []string           `yaml:"emotions"`
	Styles   []string           `yaml:"styles"`
	Variants map[string]Variant `yaml:"variants"`
	Defaults Defaults           `yaml:"defaults"`
}

// Load reads a YAML catalog on top of Default. A missing file yields the
// defaults unchanged.
func Load(path string) (Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return Catalog{}, fmt.Errorf("unmarshal catalog: %w", err)
	}
	c.ApplyDefaults()
	return c, nil
}

// ApplyDefaults merges the compiled-in tables under whatever was loaded.
// Entries present in c win; missing entries and empty scalars fall back.
func (c *Catalog) ApplyDefaults() {
	d := Default()

	c.Text = mergeModels(d.Text, c.Text)
	c.Speech = mergeModels(d.Speech, c.Speech)
	c.Video = mergeModels(d.Video, c.Video)
	c.Music = mergeModels(d.Music, c.Music)

	if c.Voices == nil {
		c.Voices = map[string]string{}
	}
	for k, v := range d.Voices {
		if _, ok := c.Voices[k]; !ok {
			c.Voices[k] = v
		}
	}
	if len(c.Emotions) == 0 {
		c.Emotions = d.Emotions
	}
	if len(c.Styles) == 0 {
		c.Styles = d.Styles
	}
	if c.Variants == nil {
		c.Variants = map[string]Variant{}
	}
	for k, v := range d.Variants {
		if _, ok := c.Variants[k]; !ok {
			c.Variants[k] = v
		}
	}

	setDefault(&c.Defaults.TextModel, d.Defaults.TextModel)
	setDefault(&c.Defaults.SpeechModel, d.Defaults.SpeechModel)
	setDefault(&c.Defaults.VideoModel, d.Defaults.VideoModel)
	setDefault(&c.Defaults.MusicModel, d.Defaults.MusicModel)
	setDefault(&c.Defaults.Voice, d.Defaults.Voice)
	setDefault(&c.Defaults.Emotion, d.Defaults.Emotion)
	setDefault(&c.Defaults.Variant, d.Defaults.Variant)
	setDefault(&c.Defaults.Style, d.Defaults.Style)
	setFloat(&c.Defaults.NarrationVolume, d.Defaults.NarrationVolume)
	setFloat(&c.Defaults.LeadInSec, d.Defaults.LeadInSec)
	setFloat(&c.Defaults.MusicVolume, d.Defaults.MusicVolume)
	setFloat(&c.Defaults.MusicFadeInSec, d.Defaults.MusicFadeInSec)
	setFloat(&c.Defaults.MusicFadeOutSec, d.Defaults.MusicFadeOutSec)
}

// Model looks up a model id of the given kind.
func (c Catalog) Model(kind Kind, id string) (Model, error) {
	var table map[string]Model
	switch kind {
	case KindText:
		table = c.Text
	case KindSpeech:
		table = c.Speech
	case KindVideo:
		table = c.Video
	case KindMusic:
		table = c.Music
	default:
		return Model{}, fmt.Errorf("unknown model kind %q", kind)
	}
	m, ok := table[id]
	if !ok {
		return Model{}, fmt.Errorf("unknown %s model %q (known: %s)", kind, id, strings.Join(keys(table), ", "))
	}
	return m, nil
}

// Voice resolves a display name ("Wise Woman") or a raw voice id ("Wise_Woman").
func (c Catalog) Voice(name string) (string, error) {
	name = strings.TrimSpace(name)
	if id, ok := c.Voices[name]; ok {
		return id, nil
	}
	for _, id := range c.Voices {
		if strings.EqualFold(id, name) {
			return id, nil
		}
	}
	return "", fmt.Errorf("unknown voice %q", name)
}

func (c Catalog) Emotion(name string) (string, error) {
	for _, e := range c.Emotions {
		if strings.EqualFold(e, name) {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown emotion %q (known: %s)", name, strings.Join(c.Emotions, ", "))
}

func (c Catalog) Variant(name string) (Variant, error) {
	v, ok := c.Variants[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Variant{}, fmt.Errorf("unknown variant %q (known: %s)", name, strings.Join(keys(c.Variants), ", "))
	}
	return v, nil
}

// Marshal renders the effective catalog, e.g. as a starting point for overrides.
func (c Catalog) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// WithParams returns a copy of the model defaults with overrides applied on top.
func (m Model) WithParams(overrides map[string]any) map[string]any {
	out := make(map[string]any, len(m.Params)+len(overrides))
	for k, v := range m.Params {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

func mergeModels(base, over map[string]Model) map[string]Model {
	out := make(map[string]Model, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		if b, ok := base[k]; ok {
			if v.Name == "" {
				v.Name = b.Name
			}
			v.UsesVoice = v.UsesVoice || b.UsesVoice
			v.Params = b.WithParams(v.Params)
		}
		out[k] = v
	}
	return out
}

func setDefault(dst *string, def string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = def
	}
}

func setFloat(dst **float64, def *float64) {
	if *dst == nil && def != nil {
		*dst = lo.ToPtr(*def)
	}
}

func keys[T any](m map[string]T) []string {
	out := lo.Keys(m)
	sort.Strings(out)
	return out
}
