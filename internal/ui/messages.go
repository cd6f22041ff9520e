package ui

import (
	"time"

	"github.com/linuxmatters/speakscore/internal/processor"
)

// ProgressMsg represents a stage transition reported by the scorer
type ProgressMsg struct {
	Stage    processor.Stage
	Activity *processor.ActivityMeasurements // nil until speech detection has run
}

// FileStartMsg indicates a new file has started scoring
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileCompleteMsg indicates a file has finished scoring
type FileCompleteMsg struct {
	FileIndex  int
	Report     *processor.ScoreReport
	ReportPath string // set when --logs wrote a text report
	Error      error
}

// AllCompleteMsg indicates all files have been scored
type AllCompleteMsg struct{}

// tickMsg is sent for spinner/timer animation
type tickMsg time.Time
