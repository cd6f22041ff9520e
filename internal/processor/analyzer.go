package processor

import (
	"log/slog"
	"math"

	"github.com/linuxmatters/speakscore/internal/audio"
)

// Interval is a contiguous span of a clip in milliseconds, end exclusive
type Interval struct {
	StartMs int `json:"start_ms"`
	EndMs   int `json:"end_ms"`
}

// DurationMs returns the interval length
func (i Interval) DurationMs() int {
	return i.EndMs - i.StartMs
}

// ActivityMeasurements contains the results of speech-activity analysis
type ActivityMeasurements struct {
	DurationMs int        // Total clip length
	Intervals  []Interval // Non-silent spans in order
	SpokenMs   int        // Sum of non-silent span lengths
	Threshold  float64    // Linear RMS threshold used (full scale = 1.0)
}

// DurationSeconds returns the clip length in seconds
func (a *ActivityMeasurements) DurationSeconds() float64 {
	return float64(a.DurationMs) / 1000
}

// SpokenSeconds returns the non-silent length in seconds
func (a *ActivityMeasurements) SpokenSeconds() float64 {
	return float64(a.SpokenMs) / 1000
}

// AnalyzeActivity runs silence detection over a clip and sums the spoken time.
func AnalyzeActivity(clip *audio.Clip, cfg SilenceConfig) *ActivityMeasurements {
	m := &ActivityMeasurements{
		DurationMs: clip.DurationMs(),
		Intervals:  DetectNonsilent(clip, cfg),
		Threshold:  DbToLinear(cfg.ThreshDBFS),
	}
	for _, iv := range m.Intervals {
		m.SpokenMs += iv.DurationMs()
	}

	slog.Debug("activity analysed",
		"duration_ms", m.DurationMs,
		"intervals", len(m.Intervals),
		"spoken_ms", m.SpokenMs)

	return m
}

// DetectNonsilent returns the non-silent spans of a clip: the complement of
// DetectSilence. A clip shorter than one window is treated as entirely
// non-silent; a clip that is silent throughout yields no spans.
func DetectNonsilent(clip *audio.Clip, cfg SilenceConfig) []Interval {
	segLen := clip.DurationMs()
	silent := DetectSilence(clip, cfg)

	if len(silent) == 0 {
		if segLen == 0 {
			return nil
		}
		return []Interval{{StartMs: 0, EndMs: segLen}}
	}
	if silent[0].StartMs == 0 && silent[0].EndMs == segLen {
		return nil
	}

	var spans []Interval
	prevEnd := 0
	for _, s := range silent {
		spans = append(spans, Interval{StartMs: prevEnd, EndMs: s.StartMs})
		prevEnd = s.EndMs
	}
	if last := silent[len(silent)-1]; last.EndMs != segLen {
		spans = append(spans, Interval{StartMs: prevEnd, EndMs: segLen})
	}

	// A clip opening with silence produces a zero-length leading span
	if spans[0] == (Interval{}) {
		spans = spans[1:]
	}
	return spans
}

// DetectSilence returns the silent spans of a clip.
//
// A window of MinSilenceMs slides across the clip in SeekStepMs hops (the
// final window is always evaluated). A window is silent when the RMS of all
// its channel samples is at or below ThreshDBFS relative to full scale.
// Silent windows whose starts are adjacent, or overlap, merge into one span
// running from the first window start to the last window end.
func DetectSilence(clip *audio.Clip, cfg SilenceConfig) []Interval {
	segLen := clip.DurationMs()
	minSilence := cfg.MinSilenceMs
	step := cfg.SeekStepMs
	if step <= 0 {
		step = 1
	}
	if minSilence <= 0 || segLen < minSilence {
		return nil
	}

	thresh := DbToLinear(cfg.ThreshDBFS)
	energy := prefixEnergy(clip)
	channels := clip.Channels
	if channels < 1 {
		channels = 1
	} else if channels > 2 {
		channels = 2
	}

	isSilent := func(startMs int) bool {
		a := clip.FrameAt(startMs)
		b := clip.FrameAt(startMs + minSilence)
		n := b - a
		if n <= 0 {
			return true
		}
		sum := energy[b] - energy[a]
		if sum < 0 {
			sum = 0
		}
		return math.Sqrt(sum/float64(n*channels)) <= thresh
	}

	lastStart := segLen - minSilence
	var starts []int
	for i := 0; i <= lastStart; i += step {
		if isSilent(i) {
			starts = append(starts, i)
		}
	}
	if lastStart%step != 0 && isSilent(lastStart) {
		starts = append(starts, lastStart)
	}
	if len(starts) == 0 {
		return nil
	}

	var ranges []Interval
	prev := starts[0]
	rangeStart := prev
	for _, s := range starts[1:] {
		continuous := s == prev+step
		hasGap := s > prev+minSilence
		if !continuous && hasGap {
			ranges = append(ranges, Interval{StartMs: rangeStart, EndMs: prev + minSilence})
			rangeStart = s
		}
		prev = s
	}
	ranges = append(ranges, Interval{StartMs: rangeStart, EndMs: prev + minSilence})

	return ranges
}

// prefixEnergy returns cumulative sums of squared samples per frame across the
// clip's channels; entry i covers frames [0, i).
func prefixEnergy(clip *audio.Clip) []float64 {
	energy := make([]float64, len(clip.Frames)+1)
	stereo := clip.Channels >= 2
	for i, f := range clip.Frames {
		e := f[0] * f[0]
		if stereo {
			e += f[1] * f[1]
		}
		energy[i+1] = energy[i] + e
	}
	return energy
}
