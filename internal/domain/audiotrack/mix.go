package audiotrack

// Mix sums already normalized tracks sample by sample. Nil entries are
// skipped. It returns nil for no tracks and the track itself for one.
// Tracks must share format and length; Mix never pads or trims.
func Mix(tracks ...*Track) (*Track, error) {
	var in []*Track
	for _, t := range tracks {
		if t != nil {
			in = append(in, t)
		}
	}
	switch len(in) {
	case 0:
		return nil, nil
	case 1:
		return in[0], nil
	}

	base := in[0]
	for _, t := range in[1:] {
		if !t.sameFormat(base) {
			return nil, ErrFormatMismatch
		}
		if len(t.Samples) != len(base.Samples) {
			return nil, ErrLengthMismatch
		}
	}

	out := &Track{SampleRate: base.SampleRate, Channels: base.Channels, Samples: make([]float64, len(base.Samples))}
	for _, t := range in {
		for i, v := range t.Samples {
			out.Samples[i] += v
		}
	}
	return out, nil
}
