// Package config loads speakscore settings from a TOML file over the built-in defaults.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/linuxmatters/speakscore/internal/processor"
)

// ErrInvalid is returned when a config file cannot be decoded or holds out-of-range values
var ErrInvalid = errors.New("invalid config")

// Transcription backend names
const (
	BackendGoogle  = "google"
	BackendWhisper = "whisper"
	BackendStatic  = "static"
)

// DefaultMaxDurationSeconds rejects recordings longer than ten minutes
const DefaultMaxDurationSeconds = 600

// Scoring holds the [scoring] table and its [scoring.*] sub-tables
type Scoring struct {
	Fluency       processor.FluencyConfig   `toml:"fluency"`
	ContentScale  float64                   `toml:"content_scale"`
	Pronunciation int                       `toml:"pronunciation"`
	Speaking      processor.SpeakingWeights `toml:"speaking"`
	Reading       processor.ReadingWeights  `toml:"reading"`
}

// Transcription holds the [transcription] table
type Transcription struct {
	Backend      string `toml:"backend"`  // google, whisper or static
	Language     string `toml:"language"` // Empty derives it from the system timezone
	GoogleURL    string `toml:"google_url"`
	WhisperURL   string `toml:"whisper_url"`
	WhisperModel string `toml:"whisper_model"`
	Retries      uint64 `toml:"retries"` // Extra attempts when the service is unavailable
}

// Limits holds the [limits] table
type Limits struct {
	MaxDurationSeconds float64 `toml:"max_duration_seconds"` // 0 disables the check
}

// Config is the complete file configuration
type Config struct {
	Silence       processor.SilenceConfig `toml:"silence"`
	Scoring       Scoring                 `toml:"scoring"`
	Transcription Transcription           `toml:"transcription"`
	Limits        Limits                  `toml:"limits"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	sc := processor.DefaultScoringConfig()
	return &Config{
		Silence: sc.Silence,
		Scoring: Scoring{
			Fluency:       sc.Fluency,
			ContentScale:  sc.ContentScale,
			Pronunciation: sc.Pronunciation,
			Speaking:      sc.Speaking,
			Reading:       sc.Reading,
		},
		Transcription: Transcription{
			Backend: BackendGoogle,
		},
		Limits: Limits{
			MaxDurationSeconds: DefaultMaxDurationSeconds,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	return finish(cfg, md, path)
}

// Parse decodes TOML text over the defaults
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return finish(cfg, md, "config")
}

func finish(cfg *Config, md toml.MetaData, source string) (*Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: %s: unknown keys %s", ErrInvalid, source, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.ScoringConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	switch c.Transcription.Backend {
	case BackendGoogle, BackendWhisper, BackendStatic:
	default:
		return fmt.Errorf("%w: transcription.backend must be google, whisper or static, got %q", ErrInvalid, c.Transcription.Backend)
	}

	if c.Limits.MaxDurationSeconds < 0 {
		return fmt.Errorf("%w: limits.max_duration_seconds must be >= 0, got %.1f", ErrInvalid, c.Limits.MaxDurationSeconds)
	}
	return nil
}

// ScoringConfig assembles the processor configuration
func (c *Config) ScoringConfig() *processor.ScoringConfig {
	return &processor.ScoringConfig{
		Silence:       c.Silence,
		Fluency:       c.Scoring.Fluency,
		ContentScale:  c.Scoring.ContentScale,
		Pronunciation: c.Scoring.Pronunciation,
		Speaking:      c.Scoring.Speaking,
		Reading:       c.Scoring.Reading,
	}
}
