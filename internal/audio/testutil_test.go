package audio

import (
	"encoding/binary"
	"math"
	"os"
	"testing"
)

// TestAudioOptions configures the synthetic audio to generate
type TestAudioOptions struct {
	DurationSecs float64 // Total duration in seconds
	SampleRate   int     // Sample rate (default: 16000)
	ToneFreq     float64 // Sine wave frequency in Hz (0 = no tone)
	ToneLevel    float64 // Tone level in dBFS (e.g., -6.0)
}

// generateTestAudio creates a synthetic mono 16-bit WAV file for testing.
// The file is removed automatically when the test ends.
func generateTestAudio(t *testing.T, opts TestAudioOptions) string {
	t.Helper()

	if opts.SampleRate == 0 {
		opts.SampleRate = 16000
	}
	if opts.DurationSecs == 0 {
		opts.DurationSecs = 1.0
	}

	totalSamples := int(opts.DurationSecs * float64(opts.SampleRate))
	samples := make([]int16, totalSamples)

	toneAmp := 0.0
	if opts.ToneFreq > 0 && opts.ToneLevel < 0 {
		toneAmp = math.Pow(10.0, opts.ToneLevel/20.0)
	}

	for i := range samples {
		s := toneAmp * math.Sin(2.0*math.Pi*opts.ToneFreq*float64(i)/float64(opts.SampleRate))
		samples[i] = int16(s * math.MaxInt16)
	}

	tmpFile, err := os.CreateTemp(t.TempDir(), "speakscore-test-*.wav")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	if err := writeWAV(tmpFile, samples, opts.SampleRate); err != nil {
		tmpFile.Close()
		t.Fatalf("failed to write WAV file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		t.Fatalf("failed to close temp file: %v", err)
	}

	return tmpFile.Name()
}

// writeWAV writes a mono 16-bit WAV file
func writeWAV(f *os.File, samples []int16, sampleRate int) error {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)

	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := len(samples) * 2
	fileSize := 36 + dataSize

	header := []any{
		[]byte("RIFF"), uint32(fileSize), []byte("WAVE"),
		[]byte("fmt "), uint32(16), uint16(1), uint16(numChannels),
		uint32(sampleRate), uint32(byteRate), uint16(blockAlign), uint16(bitsPerSample),
		[]byte("data"), uint32(dataSize),
	}
	for _, v := range header {
		if err := binary.Write(f, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	return binary.Write(f, binary.LittleEndian, samples)
}
