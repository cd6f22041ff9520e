// Package audio provides audio file I/O using beep
package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"
	tmp3 "github.com/tcolgate/mp3"
)

var (
	// ErrDecode is returned when an input cannot be opened or decoded as audio.
	ErrDecode = errors.New("audio decode failed")

	// ErrUnsupportedFormat is returned for container formats we have no decoder for.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrTooLong is returned by CheckDuration for recordings over the limit.
	ErrTooLong = errors.New("recording too long")
)

// Format identifies a supported container
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// FormatFromPath maps a file extension to a Format. Returns "" when unknown.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	default:
		return ""
	}
}

// Metadata contains audio file metadata
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	Format     Format
	BitDepth   int
}

// CheckDuration rejects metadata longer than maxSeconds. Zero disables the check.
func (m *Metadata) CheckDuration(maxSeconds float64) error {
	if maxSeconds > 0 && m.Duration > maxSeconds {
		return fmt.Errorf("%w: %.1fs exceeds the %.0fs limit", ErrTooLong, m.Duration, maxSeconds)
	}
	return nil
}

// Clip is a fully decoded recording. Frames use beep's stereo layout; for mono
// sources only the first slot carries signal and the second mirrors it.
type Clip struct {
	Frames     [][2]float64
	SampleRate int
	Channels   int
}

// Len returns the number of frames in the clip
func (c *Clip) Len() int {
	return len(c.Frames)
}

// DurationMs returns the clip length in whole milliseconds, rounded half to even.
func (c *Clip) DurationMs() int {
	if c.SampleRate <= 0 {
		return 0
	}
	return int(math.RoundToEven(1000 * float64(len(c.Frames)) / float64(c.SampleRate)))
}

// FrameAt converts a millisecond position to a frame index, clamped to the clip.
func (c *Clip) FrameAt(ms int) int {
	idx := int(float64(ms) * float64(c.SampleRate) / 1000)
	if idx < 0 {
		return 0
	}
	if idx > len(c.Frames) {
		return len(c.Frames)
	}
	return idx
}

// Streamer returns a beep.Streamer that replays the clip from the start.
func (c *Clip) Streamer() beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(c.Frames) {
			return 0, false
		}
		n := copy(samples, c.Frames[pos:])
		pos += n
		return n, true
	})
}

// Load decodes an entire audio file into memory.
// Any open or decode failure is reported as ErrDecode (or ErrUnsupportedFormat).
func Load(filename string) (*Clip, error) {
	streamer, format, err := openStream(filename)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	clip := &Clip{
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
	}
	if clip.SampleRate <= 0 || clip.Channels <= 0 {
		return nil, fmt.Errorf("%w: invalid stream format in file: %s", ErrDecode, filename)
	}
	if n := streamer.Len(); n > 0 {
		clip.Frames = make([][2]float64, 0, n)
	}

	clip.Frames, err = drain(streamer, clip.Frames)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, filename, err)
	}

	if FormatFromPath(filename) == FormatWAV {
		if k := wavDecodeScale(format.Precision); k != 1 {
			for i := range clip.Frames {
				clip.Frames[i][0] *= k
				clip.Frames[i][1] *= k
			}
		}
	}

	return clip, nil
}

// wavDecodeScale restores full scale for beep/wav, which divides n-bit PCM
// by 2^n-1 rather than 2^(n-1). The MP3 decoder is not affected.
func wavDecodeScale(precision int) float64 {
	switch precision {
	case 2:
		return float64(1<<16-1) / (1 << 15)
	case 3:
		return float64(1<<24-1) / (1 << 23)
	default:
		return 1
	}
}

// Probe reads stream headers without decoding the samples.
// MP3 durations are measured by walking the frame headers.
func Probe(filename string) (*Metadata, error) {
	streamer, format, err := openStream(filename)
	if err != nil {
		return nil, err
	}
	defer streamer.Close()

	meta := &Metadata{
		SampleRate: int(format.SampleRate),
		Channels:   format.NumChannels,
		Format:     FormatFromPath(filename),
		BitDepth:   format.Precision * 8,
	}

	switch meta.Format {
	case FormatMP3:
		dur, err := mp3DurationByFrames(filename)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDecode, filename, err)
		}
		meta.Duration = dur.Seconds()
	default:
		if meta.SampleRate > 0 {
			meta.Duration = float64(streamer.Len()) / float64(meta.SampleRate)
		}
	}

	return meta, nil
}

func openStream(filename string) (beep.StreamSeekCloser, beep.Format, error) {
	kind := FormatFromPath(filename)
	if kind == "" {
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("%w: failed to open input file: %v", ErrDecode, err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch kind {
	case FormatWAV:
		streamer, format, err = wav.Decode(f)
	case FormatMP3:
		streamer, format, err = mp3.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("%w: %s: %v", ErrDecode, filename, err)
	}

	return streamer, format, nil
}

// drain reads a streamer to exhaustion, appending to dst.
func drain(s beep.Streamer, dst [][2]float64) ([][2]float64, error) {
	buf := make([][2]float64, 4096)
	for {
		n, ok := s.Stream(buf)
		dst = append(dst, buf[:n]...)
		if !ok {
			break
		}
	}
	return dst, s.Err()
}

func mp3DurationByFrames(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := tmp3.NewDecoder(f)
	var (
		frame   tmp3.Frame
		skipped int
		total   time.Duration
	)
	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return 0, err
		}
		total += frame.Duration()
	}
	return total, nil
}
