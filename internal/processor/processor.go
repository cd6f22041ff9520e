package processor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linuxmatters/speakscore/internal/audio"
	"github.com/linuxmatters/speakscore/internal/transcribe"
)

// Stage identifies a step of the scoring pipeline for progress reporting
type Stage int

const (
	StageDecoding Stage = iota + 1
	StageDetecting
	StageTranscribing
	StageScoring
	StageDone
)

// String returns the display name of a stage
func (s Stage) String() string {
	switch s {
	case StageDecoding:
		return "Decoding"
	case StageDetecting:
		return "Detecting speech"
	case StageTranscribing:
		return "Transcribing"
	case StageScoring:
		return "Scoring"
	case StageDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// ProgressFunc receives stage transitions. Activity is nil until detection has run.
type ProgressFunc func(stage Stage, activity *ActivityMeasurements)

// Scores holds the sub-scores and composites of a report
type Scores struct {
	Content                int     `json:"content"`
	Fluency                int     `json:"fluency"`
	Pronunciation          int     `json:"pronunciation"`
	EstimatedSpeakingScore float64 `json:"estimated_speaking_score"`
	EstimatedReadingScore  float64 `json:"estimated_reading_score"`
}

// ScoreReport is the result of scoring one recording against a reference passage
type ScoreReport struct {
	DurationSeconds     float64           `json:"duration_seconds"`
	SpokenDuration      float64           `json:"spoken_duration"`
	SpeechRateWPM       float64           `json:"speech_rate_wpm"`
	Transcription       string            `json:"transcription"`
	TranscriptionStatus transcribe.Status `json:"transcription_status"`
	WordCount           int               `json:"word_count"`
	MatchedWords        int               `json:"matched_words"`
	Scores              Scores            `json:"scores"`

	// Not serialised: detail for text reports and the UI
	Activity      *ActivityMeasurements `json:"-"`
	ContentMatch  ContentMatch          `json:"-"`
	TranscribeErr error                 `json:"-"`
}

// Scorer turns an audio file and a reference passage into a ScoreReport
type Scorer struct {
	config      *ScoringConfig
	transcriber transcribe.Transcriber
	progress    ProgressFunc
}

// NewScorer creates a Scorer. A nil config uses DefaultScoringConfig.
func NewScorer(config *ScoringConfig, transcriber transcribe.Transcriber) (*Scorer, error) {
	if config == nil {
		config = DefaultScoringConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if transcriber == nil {
		return nil, fmt.Errorf("scorer requires a transcriber")
	}
	return &Scorer{config: config, transcriber: transcriber}, nil
}

// WithProgress returns a copy of the Scorer that reports stage transitions to fn
func (s *Scorer) WithProgress(fn ProgressFunc) *Scorer {
	c := *s
	c.progress = fn
	return &c
}

// Config returns the scoring configuration in use
func (s *Scorer) Config() *ScoringConfig {
	return s.config
}

// Score decodes audioPath, measures speech activity, transcribes the audio
// and scores it against referenceText. It returns an error in two cases:
// a decode failure, wrapping audio.ErrDecode, and a ctx cancelled by the
// time transcription returns, wrapping ctx.Err(). No report is produced
// for either. Transcription failures are recorded in the report and never
// abort it.
func (s *Scorer) Score(ctx context.Context, audioPath, referenceText string) (*ScoreReport, error) {
	s.report(StageDecoding, nil)
	clip, err := audio.Load(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", audioPath, err)
	}
	return s.ScoreClip(ctx, clip, audioPath, referenceText)
}

// ScoreClip scores an already decoded clip. audioPath is handed to the
// transcriber, which reads the recording itself. Its only error is
// cancellation of ctx.
func (s *Scorer) ScoreClip(ctx context.Context, clip *audio.Clip, audioPath, referenceText string) (*ScoreReport, error) {
	cfg := s.config

	s.report(StageDetecting, nil)
	activity := AnalyzeActivity(clip, cfg.Silence)
	spoken := activity.SpokenSeconds()

	wordCount := WordCount(referenceText)
	wpm := SpeechRate(wordCount, spoken)

	s.report(StageTranscribing, activity)
	result := s.transcriber.Transcribe(ctx, audioPath)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scoring %s: %w", audioPath, err)
	}
	transcript := strings.ToLower(result.Transcript())
	slog.Debug("transcription finished", "path", audioPath, "status", result.Status, "chars", len(transcript))

	s.report(StageScoring, activity)
	// Failure text is for display only and never counts towards content
	spokenText := ""
	if result.Status == transcribe.StatusOK {
		spokenText = transcript
	}
	match := MatchContent(spokenText, referenceText)
	content := ContentScore(match.Accuracy, cfg.ContentScale)
	fluency := FluencyScore(wpm, cfg.Fluency)
	pronunciation := cfg.Pronunciation

	rep := &ScoreReport{
		DurationSeconds:     roundHalfEven(activity.DurationSeconds(), 2),
		SpokenDuration:      roundHalfEven(spoken, 2),
		SpeechRateWPM:       roundHalfEven(wpm, 2),
		Transcription:       transcript,
		TranscriptionStatus: result.Status,
		WordCount:           wordCount,
		MatchedWords:        match.Matched,
		Scores: Scores{
			Content:                content,
			Fluency:                fluency,
			Pronunciation:          pronunciation,
			EstimatedSpeakingScore: SpeakingScore(content, fluency, pronunciation, cfg.Speaking),
			EstimatedReadingScore:  ReadingScore(content, pronunciation, cfg.Reading),
		},
		Activity:      activity,
		ContentMatch:  match,
		TranscribeErr: result.Err,
	}

	slog.Debug("scored",
		"path", audioPath,
		"wpm", rep.SpeechRateWPM,
		"content", content,
		"fluency", fluency,
		"speaking", rep.Scores.EstimatedSpeakingScore,
		"reading", rep.Scores.EstimatedReadingScore)

	s.report(StageDone, activity)
	return rep, nil
}

func (s *Scorer) report(stage Stage, activity *ActivityMeasurements) {
	if s.progress != nil {
		s.progress(stage, activity)
	}
}
