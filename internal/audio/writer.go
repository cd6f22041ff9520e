package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// canonicalPrecision is bytes per sample for the temporary WAV (16-bit PCM)
const canonicalPrecision = 2

// WriteWAV encodes the clip as 16-bit PCM WAV at its own rate and channel count.
func WriteWAV(path string, clip *Clip) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create wav file: %w", err)
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(clip.SampleRate),
		NumChannels: clip.Channels,
		Precision:   canonicalPrecision,
	}
	if err := wav.Encode(f, clip.Streamer(), format); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode wav: %w", err)
	}

	return f.Close()
}

// Normalize decodes any supported input and re-exports it as a canonical WAV in
// dir (the system temp dir when empty). Every call gets its own uuid-named
// file; the returned cleanup removes it and is safe to call more than once.
func Normalize(inputPath, dir string) (string, func(), error) {
	clip, err := Load(inputPath)
	if err != nil {
		return "", func() {}, err
	}

	if dir == "" {
		dir = os.TempDir()
	}
	out := filepath.Join(dir, "speakscore-"+uuid.NewString()+".wav")

	if err := WriteWAV(out, clip); err != nil {
		return "", func() {}, err
	}

	return out, func() { os.Remove(out) }, nil
}

// Mono returns the clip downmixed to a single channel
func (c *Clip) Mono() []float64 {
	out := make([]float64, len(c.Frames))
	if c.Channels <= 1 {
		for i, f := range c.Frames {
			out[i] = f[0]
		}
		return out
	}
	for i, f := range c.Frames {
		out[i] = (f[0] + f[1]) / 2
	}
	return out
}

// Resample converts the clip to a new sample rate using beep's resampler.
// The channel count is preserved.
func (c *Clip) Resample(rate int) (*Clip, error) {
	if rate == c.SampleRate {
		return c, nil
	}
	if rate <= 0 {
		return nil, fmt.Errorf("invalid target sample rate %d", rate)
	}

	r := beep.Resample(4, beep.SampleRate(c.SampleRate), beep.SampleRate(rate), c.Streamer())
	frames, err := drain(r, make([][2]float64, 0, int(float64(len(c.Frames))*float64(rate)/float64(c.SampleRate))+1))
	if err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}

	return &Clip{Frames: frames, SampleRate: rate, Channels: c.Channels}, nil
}

// PCM16Mono renders the clip as little-endian signed 16-bit mono samples.
func (c *Clip) PCM16Mono() []byte {
	mono := c.Mono()
	out := make([]byte, len(mono)*2)
	for i, s := range mono {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(math.Round(s*math.MaxInt16))))
	}
	return out
}
