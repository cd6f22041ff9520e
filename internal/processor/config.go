// Package processor handles speech-activity analysis and proficiency scoring
package processor

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned by Validate for out-of-range parameters
var ErrInvalidConfig = errors.New("invalid scoring config")

// SilenceConfig holds the activity detection parameters
type SilenceConfig struct {
	MinSilenceMs int     `toml:"min_silence_ms"` // Shortest gap that counts as silence
	ThreshDBFS   float64 `toml:"thresh_dbfs"`    // Window RMS at or below this is silent (dBFS)
	SeekStepMs   int     `toml:"seek_step_ms"`   // Window hop
}

// SpeakingWeights weights the sub-scores in the speaking composite
type SpeakingWeights struct {
	Content       float64 `toml:"content"`
	Fluency       float64 `toml:"fluency"`
	Pronunciation float64 `toml:"pronunciation"`
}

// ReadingWeights weights the sub-scores in the reading composite.
// Fluency is excluded: a read passage sets its own pace.
type ReadingWeights struct {
	Content       float64 `toml:"content"`
	Pronunciation float64 `toml:"pronunciation"`
}

// FluencyConfig describes the speech-rate curve.
// Inside [PlateauLowWPM, PlateauHighWPM] the score is Cap; outside it falls
// one point per WPM away from TargetWPM, clamped to [Floor, Cap].
type FluencyConfig struct {
	PlateauLowWPM  float64 `toml:"plateau_low_wpm"`
	PlateauHighWPM float64 `toml:"plateau_high_wpm"`
	TargetWPM      float64 `toml:"target_wpm"`
	Floor          int     `toml:"floor"`
	Cap            int     `toml:"cap"`
}

// ScoringConfig holds every tunable used by the Scorer
type ScoringConfig struct {
	Silence SilenceConfig `toml:"silence"`
	Fluency FluencyConfig `toml:"fluency"`

	// ContentScale caps the content score; content alone cannot reach 100.
	ContentScale float64 `toml:"content_scale"`

	// Pronunciation is a fixed placeholder; no acoustic model is applied.
	Pronunciation int `toml:"pronunciation"`

	Speaking SpeakingWeights `toml:"speaking"`
	Reading  ReadingWeights  `toml:"reading"`
}

// DefaultScoringConfig returns the calibrated default configuration
func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		Silence: SilenceConfig{
			MinSilenceMs: 200,
			ThreshDBFS:   -40,
			SeekStepMs:   1,
		},
		Fluency: FluencyConfig{
			PlateauLowWPM:  180,
			PlateauHighWPM: 200,
			TargetWPM:      190,
			Floor:          40,
			Cap:            90,
		},
		ContentScale:  90,
		Pronunciation: 70,
		Speaking: SpeakingWeights{
			Content:       0.4,
			Fluency:       0.3,
			Pronunciation: 0.3,
		},
		Reading: ReadingWeights{
			Content:       0.6,
			Pronunciation: 0.4,
		},
	}
}

// weightTolerance absorbs float error when checking that weights sum to one
const weightTolerance = 1e-9

// Validate checks that every score stays within [0, 100] for any input.
func (cfg *ScoringConfig) Validate() error {
	s := cfg.Silence
	if s.MinSilenceMs <= 0 {
		return fmt.Errorf("%w: silence.min_silence_ms must be positive, got %d", ErrInvalidConfig, s.MinSilenceMs)
	}
	if s.SeekStepMs <= 0 {
		return fmt.Errorf("%w: silence.seek_step_ms must be positive, got %d", ErrInvalidConfig, s.SeekStepMs)
	}
	if s.ThreshDBFS > 0 {
		return fmt.Errorf("%w: silence.thresh_dbfs must be <= 0, got %.1f", ErrInvalidConfig, s.ThreshDBFS)
	}

	f := cfg.Fluency
	if f.PlateauLowWPM > f.PlateauHighWPM {
		return fmt.Errorf("%w: fluency plateau %.0f-%.0f is inverted", ErrInvalidConfig, f.PlateauLowWPM, f.PlateauHighWPM)
	}
	if f.Floor < 0 || f.Cap > 100 || f.Floor > f.Cap {
		return fmt.Errorf("%w: fluency floor/cap %d/%d must satisfy 0 <= floor <= cap <= 100", ErrInvalidConfig, f.Floor, f.Cap)
	}

	if cfg.ContentScale < 0 || cfg.ContentScale > 100 {
		return fmt.Errorf("%w: content_scale must be in [0, 100], got %.1f", ErrInvalidConfig, cfg.ContentScale)
	}
	if cfg.Pronunciation < 0 || cfg.Pronunciation > 100 {
		return fmt.Errorf("%w: pronunciation must be in [0, 100], got %d", ErrInvalidConfig, cfg.Pronunciation)
	}

	if err := checkWeights("speaking", cfg.Speaking.Content, cfg.Speaking.Fluency, cfg.Speaking.Pronunciation); err != nil {
		return err
	}
	return checkWeights("reading", cfg.Reading.Content, cfg.Reading.Pronunciation)
}

// checkWeights requires a convex combination: non-negative and summing to one
func checkWeights(name string, weights ...float64) error {
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("%w: %s weights must be non-negative", ErrInvalidConfig, name)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: %s weights must sum to 1, got %.4f", ErrInvalidConfig, name, sum)
	}
	return nil
}

// DbToLinear converts decibel value to linear amplitude.
func DbToLinear(db float64) float64 {
	return math.Pow(10, db/20.0)
}
