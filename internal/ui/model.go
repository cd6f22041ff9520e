// Package ui provides the Bubbletea terminal user interface for speakscore
package ui

import (
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/speakscore/internal/processor"
)

// Spinner frames for the active file
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// FileStatus represents the scoring state of a single file
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusDecoding
	StatusDetecting
	StatusTranscribing
	StatusScoring
	StatusComplete
	StatusError
)

// Active reports whether the file is somewhere in the pipeline
func (s FileStatus) Active() bool {
	return s > StatusQueued && s < StatusComplete
}

// statusForStage maps a scorer stage onto the file status shown in the queue
func statusForStage(stage processor.Stage) FileStatus {
	switch stage {
	case processor.StageDecoding:
		return StatusDecoding
	case processor.StageDetecting:
		return StatusDetecting
	case processor.StageTranscribing:
		return StatusTranscribing
	case processor.StageScoring, processor.StageDone:
		return StatusScoring
	default:
		return StatusQueued
	}
}

// FileProgress tracks progress for a single audio file
type FileProgress struct {
	InputPath string
	Status    FileStatus
	Stage     processor.Stage

	StartTime   time.Time
	ElapsedTime time.Duration

	// Speech activity, available once detection has run
	Activity *processor.ActivityMeasurements

	// Completion results
	Report     *processor.ScoreReport
	ReportPath string

	Error error
}

// Model is the Bubbletea model for the scoring UI
type Model struct {
	// File queue
	Files          []FileProgress
	CurrentIndex   int
	TotalFiles     int
	CompletedFiles int
	FailedFiles    int

	// Global state
	StartTime time.Time
	Done      bool

	spinnerIndex int

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new UI model with the given input files
func NewModel(inputFiles []string) Model {
	files := make([]FileProgress, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = FileProgress{
			InputPath: path,
			Status:    StatusQueued,
		}
	}

	return Model{
		Files:        files,
		CurrentIndex: -1, // No file scoring yet
		TotalFiles:   len(inputFiles),
		StartTime:    time.Now(),
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick message every 100ms
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case tickMsg:
		if m.Done {
			return m, nil
		}
		m.spinnerIndex = (m.spinnerIndex + 1) % len(spinnerFrames)
		if m.validIndex(m.CurrentIndex) {
			fp := &m.Files[m.CurrentIndex]
			if fp.Status.Active() {
				fp.ElapsedTime = time.Since(fp.StartTime)
			}
		}
		return m, tickCmd()

	case ProgressMsg:
		slog.Debug("ui progress", "stage", msg.Stage.String(), "file", m.CurrentIndex)
		if m.validIndex(m.CurrentIndex) {
			m.Files[m.CurrentIndex] = updateFileProgress(m.Files[m.CurrentIndex], msg)
		}

	case FileStartMsg:
		slog.Debug("ui file start", "index", msg.FileIndex, "file", msg.FileName)
		if !m.validIndex(msg.FileIndex) {
			return m, nil
		}
		m.CurrentIndex = msg.FileIndex
		m.Files[m.CurrentIndex].Status = StatusDecoding
		m.Files[m.CurrentIndex].Stage = processor.StageDecoding
		m.Files[m.CurrentIndex].StartTime = time.Now()

	case FileCompleteMsg:
		slog.Debug("ui file complete", "index", msg.FileIndex, "error", msg.Error)
		if !m.validIndex(msg.FileIndex) {
			return m, nil
		}
		fp := &m.Files[msg.FileIndex]
		fp.ElapsedTime = time.Since(fp.StartTime)
		fp.Report = msg.Report
		fp.ReportPath = msg.ReportPath
		fp.Error = msg.Error
		if msg.Error != nil {
			fp.Status = StatusError
			m.FailedFiles++
		} else {
			fp.Status = StatusComplete
			fp.Stage = processor.StageDone
			m.CompletedFiles++
		}

	case AllCompleteMsg:
		slog.Debug("ui all complete", "completed", m.CompletedFiles, "failed", m.FailedFiles)
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return fmt.Sprintf("Initializing...\nFiles: %d\n", len(m.Files))
	}

	if m.Done {
		return renderCompletionSummary(m)
	}

	return renderProcessingView(m)
}

func (m Model) validIndex(i int) bool {
	return i >= 0 && i < len(m.Files)
}

// updateFileProgress updates a FileProgress based on a ProgressMsg
func updateFileProgress(fp FileProgress, msg ProgressMsg) FileProgress {
	fp.Stage = msg.Stage
	fp.Status = statusForStage(msg.Stage)
	fp.ElapsedTime = time.Since(fp.StartTime)
	if msg.Activity != nil {
		fp.Activity = msg.Activity
	}
	return fp
}
