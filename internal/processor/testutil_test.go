package processor

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/linuxmatters/speakscore/internal/audio"
	"github.com/linuxmatters/speakscore/internal/transcribe"
)

const testSampleRate = 16000

// segment is a stretch of synthetic audio: a 440 Hz tone at LevelDB, or digital silence
type segment struct {
	Ms      int
	Tone    bool
	LevelDB float64 // Tone level in dBFS (default -6)
}

func silence(ms int) segment { return segment{Ms: ms} }
func tone(ms int) segment    { return segment{Ms: ms, Tone: true} }

// buildClip concatenates segments into a clip. Each tone segment starts at
// phase zero, and whole-millisecond 440 Hz segments at 16 kHz end on a zero
// crossing, so tone edges sit exactly on the segment boundaries.
func buildClip(channels int, segs ...segment) *audio.Clip {
	perMs := testSampleRate / 1000
	var frames [][2]float64
	for _, s := range segs {
		level := s.LevelDB
		if level == 0 {
			level = -6
		}
		amp := math.Pow(10, level/20)
		for n := 0; n < s.Ms*perMs; n++ {
			v := 0.0
			if s.Tone {
				v = amp * math.Sin(2*math.Pi*440*float64(n)/testSampleRate)
			}
			frames = append(frames, [2]float64{v, v})
		}
	}
	return &audio.Clip{Frames: frames, SampleRate: testSampleRate, Channels: channels}
}

// generateTestAudio writes the segments to a 16-bit mono WAV in the test's temp dir
func generateTestAudio(t *testing.T, segs ...segment) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "speech.wav")
	if err := audio.WriteWAV(path, buildClip(1, segs...)); err != nil {
		t.Fatalf("failed to write test audio: %v", err)
	}
	return path
}

// newTestScorer builds a Scorer with default config and a fixed transcriber
func newTestScorer(t *testing.T, tr transcribe.Transcriber) *Scorer {
	t.Helper()

	s, err := NewScorer(nil, tr)
	if err != nil {
		t.Fatalf("NewScorer() error = %v", err)
	}
	return s
}

// failing returns a transcriber that always reports the given status
func failing(status transcribe.Status) transcribe.Transcriber {
	return transcribe.Func(func(context.Context, string) transcribe.Result {
		if status == transcribe.StatusUnintelligible {
			return transcribe.Unintelligible(nil)
		}
		return transcribe.Unavailable(nil)
	})
}
