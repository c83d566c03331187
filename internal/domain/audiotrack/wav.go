package audiotrack

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// ReadWAV decodes a PCM WAV file into a Track at its native rate and layout.
func ReadWAV(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("read wav %s: not a valid wav file", path)
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read wav %s: %w", path, err)
	}
	if buf == nil || buf.Format == nil {
		return nil, fmt.Errorf("read wav %s: missing format", path)
	}

	depth := int(d.BitDepth)
	if depth <= 0 {
		depth = buf.SourceBitDepth
	}
	if depth <= 0 || depth > 32 {
		return nil, fmt.Errorf("read wav %s: unsupported bit depth %d", path, depth)
	}

	t := &Track{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		Samples:    make([]float64, len(buf.Data)),
	}
	full := float64(int64(1) << (depth - 1))
	for i, v := range buf.Data {
		if depth == 8 {
			// 8-bit PCM is unsigned.
			v -= 128
		}
		t.Samples[i] = float64(v) / full
	}
	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("read wav %s: %w", path, err)
	}
	return t, nil
}

// WriteWAV encodes t as 16-bit PCM, hard-clipping anything outside [-1, 1].
func WriteWAV(path string, t *Track) (err error) {
	if t == nil {
		return errors.New("write wav: nil track")
	}
	if err := t.validate(); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	full := float64(int64(1)<<(wavBitDepth-1)) - 1
	data := make([]int, len(t.Samples))
	for i, v := range t.Samples {
		v = math.Max(-1, math.Min(1, v))
		data[i] = int(math.Round(v * full))
	}

	enc := wav.NewEncoder(f, t.SampleRate, wavBitDepth, t.Channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: t.Channels, SampleRate: t.SampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("write wav %s: %w", path, err)
	}
	return nil
}
