package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/linuxmatters/speakscore/internal/audio"
	"github.com/linuxmatters/speakscore/internal/config"
	"github.com/linuxmatters/speakscore/internal/locale"
	"github.com/linuxmatters/speakscore/internal/logging"
	"github.com/linuxmatters/speakscore/internal/processor"
	"github.com/linuxmatters/speakscore/internal/transcribe"
)

// errNoReference is returned when neither --text nor --text-file supplies a passage
var errNoReference = errors.New("a reference passage is required (--text or --text-file)")

// runner scores files one at a time against a single reference passage
type runner struct {
	cfg       *config.Config
	scorer    *processor.Scorer
	reference string
	backend   string
	language  string
	logs      bool
	tempDir   string // empty uses the system temp dir
}

// fileResult is everything produced for one input
type fileResult struct {
	Metadata   *audio.Metadata
	Report     *processor.ScoreReport
	ReportPath string
}

// newRunner applies CLI overrides to cfg and wires the transcription backend
func newRunner(cliArgs *CLI, cfg *config.Config) (*runner, error) {
	reference, err := readReference(cliArgs.Text, cliArgs.TextFile)
	if err != nil {
		return nil, err
	}

	if cliArgs.Backend != "" {
		cfg.Transcription.Backend = strings.ToLower(cliArgs.Backend)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	language := resolveLanguage(cliArgs.Language, cfg.Transcription.Language)
	tr, err := buildTranscriber(cliArgs, cfg, language)
	if err != nil {
		return nil, err
	}

	scorer, err := processor.NewScorer(cfg.ScoringConfig(), tr)
	if err != nil {
		return nil, err
	}

	slog.Debug("runner ready",
		"backend", cfg.Transcription.Backend,
		"language", language,
		"retries", cfg.Transcription.Retries,
		"reference_words", processor.WordCount(reference))

	return &runner{
		cfg:       cfg,
		scorer:    scorer,
		reference: reference,
		backend:   cfg.Transcription.Backend,
		language:  language,
		logs:      cliArgs.Logs,
	}, nil
}

// readReference returns the passage from --text, or the contents of --text-file
func readReference(text, textFile string) (string, error) {
	if textFile != "" {
		b, err := os.ReadFile(textFile)
		if err != nil {
			return "", fmt.Errorf("failed to read reference passage: %w", err)
		}
		text = string(b)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errNoReference
	}
	return text, nil
}

// resolveLanguage prefers the flag, then the config file, then the system timezone
func resolveLanguage(flagValue, configValue string) string {
	switch {
	case flagValue != "":
		return flagValue
	case configValue != "":
		return configValue
	default:
		return locale.RecognitionLanguage()
	}
}

// buildTranscriber constructs the configured backend. Network backends are
// wrapped to retry while the service is unavailable.
func buildTranscriber(cliArgs *CLI, cfg *config.Config, language string) (transcribe.Transcriber, error) {
	t := cfg.Transcription

	switch t.Backend {
	case config.BackendStatic:
		return transcribe.Static(cliArgs.Transcript), nil

	case config.BackendGoogle:
		g, err := transcribe.NewGoogle(transcribe.GoogleConfig{
			URL:      t.GoogleURL,
			Key:      cliArgs.GoogleKey,
			Language: language,
		})
		if err != nil {
			return nil, err
		}
		return transcribe.NewRetrying(g, t.Retries), nil

	case config.BackendWhisper:
		baseURL := cliArgs.WhisperURL
		if baseURL == "" {
			baseURL = t.WhisperURL
		}
		w, err := transcribe.NewWhisper(transcribe.WhisperConfig{
			BaseURL:  baseURL,
			APIKey:   cliArgs.OpenAIKey,
			Model:    t.WhisperModel,
			Language: locale.BaseLanguage(language),
		})
		if err != nil {
			return nil, err
		}
		return transcribe.NewRetrying(w, t.Retries), nil
	}

	return nil, fmt.Errorf("%w: unknown backend %q", config.ErrInvalid, t.Backend)
}

// scoreFile probes, normalises and scores one input. progress may be nil.
func (r *runner) scoreFile(ctx context.Context, inputPath string, progress processor.ProgressFunc) (*fileResult, error) {
	start := time.Now()

	meta, err := audio.Probe(inputPath)
	if err != nil {
		return nil, err
	}
	if err := meta.CheckDuration(r.cfg.Limits.MaxDurationSeconds); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(inputPath), err)
	}

	wavPath, cleanup, err := audio.Normalize(inputPath, r.tempDir)
	defer cleanup()
	if err != nil {
		return nil, err
	}

	scorer := r.scorer
	if progress != nil {
		scorer = scorer.WithProgress(progress)
	}

	report, err := scorer.Score(ctx, wavPath, r.reference)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(inputPath), err)
	}

	result := &fileResult{Metadata: meta, Report: report}

	if r.logs {
		reportID := uuid.NewString()
		path, err := logging.GenerateReport(logging.ReportData{
			ReportID:  reportID,
			InputPath: inputPath,
			Reference: r.reference,
			Backend:   r.backend,
			Language:  r.language,
			StartTime: start,
			EndTime:   time.Now(),
			Metadata:  meta,
			Config:    r.scorer.Config(),
			Report:    report,
		})
		if err != nil {
			// The score stands without its text report
			slog.Error("failed to write score report", "path", inputPath, "error", err)
		} else {
			result.ReportPath = path
			slog.Debug("score report written", "report_id", reportID, "path", path)
		}
	}

	return result, nil
}
