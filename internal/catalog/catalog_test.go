package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_IsConsistent(t *testing.T) {
	t.Parallel()

	c := Default()
	for kind, id := range map[Kind]string{
		KindText:   c.Defaults.TextModel,
		KindSpeech: c.Defaults.SpeechModel,
		KindVideo:  c.Defaults.VideoModel,
		KindMusic:  c.Defaults.MusicModel,
	} {
		if _, err := c.Model(kind, id); err != nil {
			t.Fatalf("default %s model: %v", kind, err)
		}
	}
	if _, err := c.Voice(c.Defaults.Voice); err != nil {
		t.Fatalf("default voice: %v", err)
	}
	if _, err := c.Emotion(c.Defaults.Emotion); err != nil {
		t.Fatalf("default emotion: %v", err)
	}
	if _, err := c.Variant(c.Defaults.Variant); err != nil {
		t.Fatalf("default variant: %v", err)
	}
}

func TestVoice_AcceptsDisplayNameOrID(t *testing.T) {
	t.Parallel()

	c := Default()
	for _, in := range []string{"Wise Woman", "Wise_Woman", "wise_woman"} {
		got, err := c.Voice(in)
		if err != nil {
			t.Fatalf("Voice(%q): %v", in, err)
		}
		if got != "Wise_Woman" {
			t.Fatalf("Voice(%q) = %q", in, got)
		}
	}
	if _, err := c.Voice("Nobody"); err == nil {
		t.Fatalf("expected error for unknown voice")
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Defaults.VideoModel != "luma/ray-flash-2-540p" {
		t.Fatalf("unexpected default video model %q", c.Defaults.VideoModel)
	}
}

func TestLoad_OverridesMergeOnDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	yml := `
video:
  luma/ray-flash-2-540p:
    params:
      num_frames: 160
  acme/new-video:
    name: Acme
    params:
      steps: 12
variants:
  explainer:
    script: "Explain {topic} in {segments} parts labelled {labels}."
    visual: "{shot} of {topic}: {segment}"
    music: "calm music for {topic}"
defaults:
  variant: explainer
  lead_in_sec: 0
  music_volume: 0.5
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	luma, err := c.Model(KindVideo, "luma/ray-flash-2-540p")
	if err != nil {
		t.Fatal(err)
	}
	if luma.Params["num_frames"] != 160 {
		t.Fatalf("num_frames override lost: %v", luma.Params["num_frames"])
	}
	if luma.Params["fps"] != 24 {
		t.Fatalf("default fps lost: %v", luma.Params["fps"])
	}
	if luma.Name != "Luma Ray Flash 2 (540p)" {
		t.Fatalf("default name lost: %q", luma.Name)
	}
	if _, err := c.Model(KindVideo, "acme/new-video"); err != nil {
		t.Fatalf("new model missing: %v", err)
	}
	if _, err := c.Variant("educational"); err != nil {
		t.Fatalf("builtin variant lost: %v", err)
	}
	if c.Defaults.Variant != "explainer" || c.Defaults.SpeechModel != "minimax/speech-02-turbo" {
		t.Fatalf("unexpected defaults: %+v", c.Defaults)
	}
	d := c.Defaults
	if d.LeadInSec == nil || *d.LeadInSec != 0 {
		t.Fatalf("explicit zero lead-in lost: %v", d.LeadInSec)
	}
	if *d.MusicVolume != 0.5 || *d.NarrationVolume != 1.2 || *d.MusicFadeOutSec != 2.5 {
		t.Fatalf("audio defaults = %v %v %v", *d.MusicVolume, *d.NarrationVolume, *d.MusicFadeOutSec)
	}
	sp, _ := c.Model(KindSpeech, "minimax/speech-02-turbo")
	if !sp.UsesVoice {
		t.Fatalf("uses_voice lost on merge")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("video: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}

func TestWithParams_DoesNotMutateDefaults(t *testing.T) {
	t.Parallel()

	m := Model{Params: map[string]any{"fps": 24}}
	got := m.WithParams(map[string]any{"fps": 30, "quality": 5})
	if got["fps"] != 30 || got["quality"] != 5 {
		t.Fatalf("unexpected merge: %v", got)
	}
	if m.Params["fps"] != 24 {
		t.Fatalf("defaults mutated: %v", m.Params)
	}
}
