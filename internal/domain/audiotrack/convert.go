package audiotrack

import "fmt"

// Convert returns t in the given format. Channels are averaged down to mono
// or duplicated up from mono; any other channel change is rejected. Sample
// rate conversion is linear interpolation, which is enough for narration and
// background beds.
func Convert(t *Track, sampleRate, channels int) (*Track, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid target format %d Hz x %d", sampleRate, channels)
	}
	out, err := remap(t, channels)
	if err != nil {
		return nil, err
	}
	if out.SampleRate != sampleRate {
		out = resample(out, sampleRate)
	}
	return out, nil
}

func remap(t *Track, channels int) (*Track, error) {
	frames := t.Frames()
	switch {
	case t.Channels == channels:
		return &Track{SampleRate: t.SampleRate, Channels: channels, Samples: append([]float64(nil), t.Samples...)}, nil
	case channels == 1:
		out := Silence(t.SampleRate, 1, frames)
		for f := 0; f < frames; f++ {
			var sum float64
			for c := 0; c < t.Channels; c++ {
				sum += t.Samples[f*t.Channels+c]
			}
			out.Samples[f] = sum / float64(t.Channels)
		}
		return out, nil
	case t.Channels == 1:
		out := Silence(t.SampleRate, channels, frames)
		for f := 0; f < frames; f++ {
			for c := 0; c < channels; c++ {
				out.Samples[f*channels+c] = t.Samples[f]
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: cannot map %d channels to %d", ErrFormatMismatch, t.Channels, channels)
	}
}

func resample(t *Track, rate int) *Track {
	frames := t.Frames()
	n := int(int64(frames) * int64(rate) / int64(t.SampleRate))
	out := Silence(rate, t.Channels, n)
	if frames == 0 {
		return out
	}
	step := float64(t.SampleRate) / float64(rate)
	for f := 0; f < n; f++ {
		pos := float64(f) * step
		i := int(pos)
		frac := pos - float64(i)
		j := i + 1
		if j >= frames {
			j = frames - 1
		}
		for c := 0; c < t.Channels; c++ {
			a := t.Samples[i*t.Channels+c]
			b := t.Samples[j*t.Channels+c]
			out.Samples[f*t.Channels+c] = a + (b-a)*frac
		}
	}
	return out
}
