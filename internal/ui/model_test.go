package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/speakscore/internal/processor"
	"github.com/linuxmatters/speakscore/internal/transcribe"
)

func testActivity() *processor.ActivityMeasurements {
	return &processor.ActivityMeasurements{
		DurationMs: 3000,
		SpokenMs:   2000,
		Intervals:  []processor.Interval{{StartMs: 500, EndMs: 2500}},
	}
}

func testReport() *processor.ScoreReport {
	return &processor.ScoreReport{
		DurationSeconds:     3,
		SpokenDuration:      2,
		SpeechRateWPM:       180,
		TranscriptionStatus: transcribe.StatusOK,
		Scores:              processor.Scores{Content: 90, Fluency: 90, Pronunciation: 70, EstimatedSpeakingScore: 84.0, EstimatedReadingScore: 82.0},
	}
}

// send applies msgs in order and returns the final model and last command
func send(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func TestStatusForStage(t *testing.T) {
	tests := []struct {
		stage processor.Stage
		want  FileStatus
	}{
		{processor.StageDecoding, StatusDecoding},
		{processor.StageDetecting, StatusDetecting},
		{processor.StageTranscribing, StatusTranscribing},
		{processor.StageScoring, StatusScoring},
		{processor.StageDone, StatusScoring},
		{processor.Stage(0), StatusQueued},
	}
	for _, tt := range tests {
		t.Run(tt.stage.String(), func(t *testing.T) {
			if got := statusForStage(tt.stage); got != tt.want {
				t.Errorf("statusForStage(%v) = %v, want %v", tt.stage, got, tt.want)
			}
		})
	}
}

func TestFileStatusActive(t *testing.T) {
	for _, s := range []FileStatus{StatusDecoding, StatusDetecting, StatusTranscribing, StatusScoring} {
		if !s.Active() {
			t.Errorf("%d should be active", s)
		}
	}
	for _, s := range []FileStatus{StatusQueued, StatusComplete, StatusError} {
		if s.Active() {
			t.Errorf("%d should not be active", s)
		}
	}
}

func TestModelLifecycle(t *testing.T) {
	m := NewModel([]string{"/rec/first.wav", "/rec/second.mp3"})
	if m.CurrentIndex != -1 || m.TotalFiles != 2 {
		t.Fatalf("NewModel() = index %d, total %d", m.CurrentIndex, m.TotalFiles)
	}

	m, _ = send(m, FileStartMsg{FileIndex: 0, FileName: "/rec/first.wav"})
	if m.CurrentIndex != 0 || m.Files[0].Status != StatusDecoding {
		t.Fatalf("after start: index %d, status %d", m.CurrentIndex, m.Files[0].Status)
	}

	m, _ = send(m, ProgressMsg{Stage: processor.StageTranscribing, Activity: testActivity()})
	if m.Files[0].Status != StatusTranscribing {
		t.Errorf("status = %d, want StatusTranscribing", m.Files[0].Status)
	}
	if m.Files[0].Activity == nil {
		t.Error("activity should be kept from the progress message")
	}

	// A later message without activity keeps the earlier measurements
	m, _ = send(m, ProgressMsg{Stage: processor.StageScoring})
	if m.Files[0].Activity == nil {
		t.Error("activity should survive a message without one")
	}

	m, _ = send(m,
		FileCompleteMsg{FileIndex: 0, Report: testReport(), ReportPath: "/rec/first-score.log"},
		FileStartMsg{FileIndex: 1, FileName: "/rec/second.mp3"},
		FileCompleteMsg{FileIndex: 1, Error: errors.New("audio decode failed")},
	)
	if m.Files[0].Status != StatusComplete || m.Files[1].Status != StatusError {
		t.Errorf("statuses = %d, %d", m.Files[0].Status, m.Files[1].Status)
	}
	if m.CompletedFiles != 1 || m.FailedFiles != 1 {
		t.Errorf("completed %d, failed %d, want 1 and 1", m.CompletedFiles, m.FailedFiles)
	}

	m, cmd := send(m, AllCompleteMsg{})
	if !m.Done {
		t.Error("model should be done")
	}
	if cmd == nil {
		t.Error("AllCompleteMsg should quit the program")
	}
}

func TestModelIgnoresUnknownIndex(t *testing.T) {
	m := NewModel([]string{"a.wav"})
	m, _ = send(m,
		FileStartMsg{FileIndex: 5},
		FileCompleteMsg{FileIndex: -1, Error: errors.New("x")},
		ProgressMsg{Stage: processor.StageScoring},
	)
	if m.CurrentIndex != -1 || m.FailedFiles != 0 || m.Files[0].Status != StatusQueued {
		t.Errorf("out-of-range messages changed the model: %+v", m)
	}
}

func TestModelQuitKey(t *testing.T) {
	m := NewModel([]string{"a.wav"})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("q should quit")
	}
}

func TestTickAdvancesSpinner(t *testing.T) {
	m := NewModel([]string{"a.wav"})
	m, cmd := send(m, tickMsg(time.Now()))
	if m.spinnerIndex != 1 || cmd == nil {
		t.Errorf("spinner = %d, cmd nil = %v", m.spinnerIndex, cmd == nil)
	}

	m.Done = true
	if _, cmd = send(m, tickMsg(time.Now())); cmd != nil {
		t.Error("ticks should stop once done")
	}
}

func TestView(t *testing.T) {
	m := NewModel([]string{"/rec/first.wav", "/rec/second.wav"})
	if got := m.View(); !strings.HasPrefix(got, "Initializing...") {
		t.Errorf("View() before sizing = %q", got)
	}

	m, _ = send(m,
		tea.WindowSizeMsg{Width: 100, Height: 40},
		FileStartMsg{FileIndex: 0, FileName: "/rec/first.wav"},
		ProgressMsg{Stage: processor.StageTranscribing, Activity: testActivity()},
	)
	out := m.View()
	for _, want := range []string{
		"Speakscore",
		"Scoring 2 file(s)",
		"first.wav",
		"Stage 3/4: Transcribing",
		"Spoken: 2.00s of 3.00s in 1 phrase(s)",
		"Queued...",
		"Scoring file 1 of 2 (0 complete)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("processing view missing %q\n%s", want, out)
		}
	}

	m, _ = send(m,
		FileCompleteMsg{FileIndex: 0, Report: testReport(), ReportPath: "/rec/first-score.log"},
		FileStartMsg{FileIndex: 1},
		FileCompleteMsg{FileIndex: 1, Error: errors.New("boom")},
		AllCompleteMsg{},
	)
	out = m.View()
	for _, want := range []string{
		"Scoring finished with 1 failure(s)",
		"Speaking: 84.0 | Reading: 82.0 | 180 wpm",
		"Content: 90 | Fluency: 90 | Pronunciation: 70",
		"Transcription: ok",
		"Report: /rec/first-score.log",
		"Error: boom",
		"Scored 1 of 2 file(s)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		progress float64
		want     string
	}{
		{0, "  0%"},
		{0.5, " 50%"},
		{1, "100%"},
		{1.5, "100%"},
	}
	for _, tt := range tests {
		if got := renderProgressBar(tt.progress, 10); !strings.HasSuffix(got, tt.want) {
			t.Errorf("renderProgressBar(%v) = %q, want suffix %q", tt.progress, got, tt.want)
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00"},
		{1500 * time.Millisecond, "00:02"},
		{75 * time.Second, "01:15"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
