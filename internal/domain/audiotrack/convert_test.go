package audiotrack

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestConvert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		src      *Track
		rate, ch int
	}{
		{"same format copies", ramp(testRate, 2, time.Second), testRate, 2},
		{"mono to stereo", ramp(testRate, 1, time.Second), testRate, 2},
		{"stereo to mono", ramp(testRate, 2, time.Second), testRate, 1},
		{"upsample", ramp(testRate, 1, time.Second), 2 * testRate, 1},
		{"downsample and upmix", ramp(32000, 1, 2*time.Second), 16000, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Convert(tt.src, tt.rate, tt.ch)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if got.SampleRate != tt.rate || got.Channels != tt.ch {
				t.Fatalf("format = %d x %d", got.SampleRate, got.Channels)
			}
			if d := got.Duration() - tt.src.Duration(); d > time.Millisecond || d < -time.Millisecond {
				t.Fatalf("duration changed: %v -> %v", tt.src.Duration(), got.Duration())
			}
			if &got.Samples[0] == &tt.src.Samples[0] {
				t.Fatalf("Convert must not alias the source")
			}
		})
	}
}

func TestConvert_Values(t *testing.T) {
	t.Parallel()

	stereo := &Track{SampleRate: testRate, Channels: 2, Samples: []float64{0.2, 0.4, -0.5, 0.5}}
	mono, err := Convert(stereo, testRate, 1)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	want := []float64{0.3, 0}
	for i := range want {
		if math.Abs(mono.Samples[i]-want[i]) > 1e-9 {
			t.Fatalf("mono[%d] = %v want %v", i, mono.Samples[i], want[i])
		}
	}

	up, err := Convert(&Track{SampleRate: 1000, Channels: 1, Samples: []float64{0, 1}}, 2000, 1)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if len(up.Samples) != 4 || math.Abs(up.Samples[1]-0.5) > 1e-9 {
		t.Fatalf("unexpected interpolation %v", up.Samples)
	}
}

func TestConvert_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Convert(ramp(testRate, 2, time.Second), testRate, 6); !errors.Is(err, ErrFormatMismatch) {
		t.Fatalf("expected ErrFormatMismatch, got %v", err)
	}
	if _, err := Convert(ramp(testRate, 1, time.Second), 0, 1); err == nil {
		t.Fatalf("expected error for zero rate")
	}
	if _, err := Convert(&Track{SampleRate: testRate, Channels: 2, Samples: []float64{1}}, testRate, 2); err == nil {
		t.Fatalf("expected error for ragged samples")
	}
}
