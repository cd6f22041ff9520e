package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/speakscore/internal/processor"
	"github.com/linuxmatters/speakscore/internal/transcribe"
)

// pipelineStages is the number of stages shown in the stage bar
const pipelineStages = int(processor.StageScoring)

const contentWidth = 60

var (
	accentColor = lipgloss.Color("#1F6FB2")
	okColor     = lipgloss.Color("#00AA00")
	warnColor   = lipgloss.Color("#FFA500")
	failColor   = lipgloss.Color("#A40000")
	mutedColor  = lipgloss.Color("#888888")
	trackColor  = lipgloss.Color("#444444")
)

// renderProcessingView renders the main scoring view
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	b.WriteString(renderFileQueue(m))
	b.WriteString("\n\n")

	b.WriteString(renderOverallProgress(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Render("Speakscore 🎙 - Reading Assessment")

	subtitle := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true).
		Render(fmt.Sprintf("Scoring %d file(s)", m.TotalFiles))

	return title + "\n" + subtitle
}

// renderFileQueue renders the list of files with their status
func renderFileQueue(m Model) string {
	var b strings.Builder

	for _, file := range m.Files {
		b.WriteString(renderFileEntry(file, m.spinnerIndex))
		b.WriteString("\n")
	}

	return b.String()
}

// renderFileEntry renders a single file entry in the queue
func renderFileEntry(file FileProgress, spinnerIndex int) string {
	fileName := filepath.Base(file.InputPath)

	switch {
	case file.Status == StatusComplete:
		icon := lipgloss.NewStyle().Foreground(okColor).Render("✓")
		return fmt.Sprintf(" %s %s\n   %s", icon, fileName, scoreSummary(file.Report))

	case file.Status.Active():
		icon := lipgloss.NewStyle().Foreground(warnColor).Render(spinnerFrames[spinnerIndex%len(spinnerFrames)])
		return fmt.Sprintf(" %s %s\n%s", icon, fileName, renderFileDetails(file))

	case file.Status == StatusError:
		icon := lipgloss.NewStyle().Foreground(failColor).Render("✗")
		return fmt.Sprintf(" %s %s\n   Error: %v", icon, fileName, file.Error)

	default:
		icon := lipgloss.NewStyle().Foreground(mutedColor).Render("○")
		return fmt.Sprintf(" %s %s\n   Queued...", icon, fileName)
	}
}

// renderFileDetails renders the stage box for the active file
func renderFileDetails(file FileProgress) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 1).
		Width(contentWidth)

	var content strings.Builder

	step := min(int(file.Stage), pipelineStages)
	content.WriteString(fmt.Sprintf("Stage %d/%d: %s\n", step, pipelineStages, file.Stage))
	content.WriteString(renderProgressBar(float64(step)/float64(pipelineStages), 40))
	content.WriteString("\n\n")

	content.WriteString(fmt.Sprintf("⏱  Elapsed: %s", formatElapsed(file.ElapsedTime)))

	if a := file.Activity; a != nil {
		content.WriteString(fmt.Sprintf("\n🗣  Spoken: %.2fs of %.2fs in %d phrase(s)",
			a.SpokenSeconds(), a.DurationSeconds(), len(a.Intervals)))
	}

	return box.Render(content.String())
}

// renderProgressBar renders a progress bar
func renderProgressBar(progress float64, width int) string {
	progress = max(0, min(progress, 1))
	filled := int(progress * float64(width))
	empty := width - filled

	filledStyle := lipgloss.NewStyle().Foreground(accentColor)
	emptyStyle := lipgloss.NewStyle().Foreground(trackColor)

	bar := filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("━", empty))

	return fmt.Sprintf("%s %3d%%", bar, int(progress*100))
}

// renderOverallProgress renders the overall progress footer
func renderOverallProgress(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(0, 1).
		Width(contentWidth)

	var content string
	if m.CurrentIndex >= 0 && m.CurrentIndex < len(m.Files) {
		content = fmt.Sprintf("Scoring file %d of %d (%d complete)",
			m.CurrentIndex+1, m.TotalFiles, m.CompletedFiles)
	} else {
		content = fmt.Sprintf("Overall Progress: %d/%d complete", m.CompletedFiles, m.TotalFiles)
	}

	return box.Render(content)
}

// renderCompletionSummary renders the final completion summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	headerColor := okColor
	headerText := "✨ Scoring Complete!"
	if m.FailedFiles > 0 {
		headerColor = warnColor
		headerText = fmt.Sprintf("Scoring finished with %d failure(s)", m.FailedFiles)
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(headerColor).Render(headerText))
	b.WriteString("\n\n")

	for _, file := range m.Files {
		switch file.Status {
		case StatusComplete:
			b.WriteString(renderCompletedFile(file))
			b.WriteString("\n")
		case StatusError:
			b.WriteString(renderFileEntry(file, 0))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", contentWidth))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Scored %d of %d file(s) in %s\n",
		m.CompletedFiles, m.TotalFiles, formatElapsed(time.Since(m.StartTime))))

	return b.String()
}

// renderCompletedFile renders a summary for a completed file
func renderCompletedFile(file FileProgress) string {
	fileName := filepath.Base(file.InputPath)
	icon := lipgloss.NewStyle().Foreground(okColor).Render("✓")

	var b strings.Builder
	b.WriteString(fmt.Sprintf(" %s %s\n   %s", icon, fileName, scoreSummary(file.Report)))

	if r := file.Report; r != nil {
		s := r.Scores
		b.WriteString(fmt.Sprintf("\n   Content: %d | Fluency: %d | Pronunciation: %d | %s",
			s.Content, s.Fluency, s.Pronunciation, transcriptionLabel(r.TranscriptionStatus)))
	}
	if file.ReportPath != "" {
		b.WriteString(fmt.Sprintf("\n   Report: %s", file.ReportPath))
	}
	return b.String()
}

// scoreSummary is the one-line composite summary for a scored file
func scoreSummary(r *processor.ScoreReport) string {
	if r == nil {
		return "No score"
	}
	return fmt.Sprintf("Speaking: %.1f | Reading: %.1f | %.0f wpm",
		r.Scores.EstimatedSpeakingScore, r.Scores.EstimatedReadingScore, r.SpeechRateWPM)
}

// transcriptionLabel colours the transcription status
func transcriptionLabel(status transcribe.Status) string {
	color := okColor
	switch status {
	case transcribe.StatusUnintelligible:
		color = warnColor
	case transcribe.StatusUnavailable:
		color = failColor
	}
	return lipgloss.NewStyle().Foreground(color).Render("Transcription: " + string(status))
}

// formatElapsed formats elapsed time as MM:SS or HH:MM:SS
func formatElapsed(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
