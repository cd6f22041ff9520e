// Package logging handles generation of score reports for assessed recordings

package logging

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/speakscore/internal/audio"
	"github.com/linuxmatters/speakscore/internal/processor"
	"github.com/linuxmatters/speakscore/internal/transcribe"
)

// ============================================================================
// Interpretation Functions
// ============================================================================
// These turn raw measurements into short human-readable descriptions for the
// interpretation column of the report tables.

// interpretPace describes a speech rate against the fluency curve.
func interpretPace(wpm float64, f processor.FluencyConfig) string {
	switch {
	case wpm == 0:
		return "no measurable speech"
	case wpm >= f.PlateauLowWPM && wpm <= f.PlateauHighWPM:
		return "ideal pace"
	case wpm > f.PlateauHighWPM+paceFastMargin:
		return "much too fast"
	case wpm > f.PlateauHighWPM:
		return "a little fast"
	case wpm < f.PlateauLowWPM-paceSlowMargin:
		return "much too slow"
	default:
		return "a little slow"
	}
}

// interpretSpokenRatio describes how much of the recording is speech.
func interpretSpokenRatio(ratio float64) string {
	switch {
	case ratio == 0:
		return "silent"
	case ratio < 0.5:
		return "mostly silence"
	case ratio < 0.8:
		return "natural pauses"
	default:
		return "continuous speech"
	}
}

// interpretContent describes a content sub-score on its own scale.
func interpretContent(accuracy float64, status transcribe.Status) string {
	if status != transcribe.StatusOK {
		return "not recognised"
	}
	switch {
	case accuracy >= 0.9:
		return "passage fully covered"
	case accuracy >= 0.7:
		return "most words recognised"
	case accuracy >= 0.4:
		return "many words missed"
	default:
		return "few words recognised"
	}
}

// interpretComposite describes an estimated composite score.
func interpretComposite(score float64) string {
	switch {
	case score >= 80:
		return "strong"
	case score >= 65:
		return "competent"
	case score >= 50:
		return "developing"
	default:
		return "needs work"
	}
}

// =============================================================================
// Report Section Formatting Helpers
// =============================================================================

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// ReportData contains all the information needed to generate a score report
type ReportData struct {
	ReportID  string // Unique id, repeated in the debug log
	InputPath string
	Reference string
	Backend   string
	Language  string
	StartTime time.Time
	EndTime   time.Time
	Metadata  *audio.Metadata // Optional; file details are omitted when nil
	Config    *processor.ScoringConfig
	Report    *processor.ScoreReport
}

// ReportPath returns the report filename for an input: talk.mp3 → talk-score.log
func ReportPath(inputPath string) string {
	return strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + "-score.log"
}

// GenerateReport writes a score report alongside the input file and returns its path.
//
// Report structure:
// 1. Header - file info, backend and timestamp
// 2. Speech Activity - duration, spoken time and rate
// 3. Transcription - status, recognised text and word match
// 4. Scores - sub-scores with their composite weights
// 5. Tips - prioritised speaking advice
// 6. Diagnostic - detected speech intervals
func GenerateReport(data ReportData) (string, error) {
	logPath := ReportPath(data.InputPath)

	f, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	WriteReport(f, data)

	return logPath, nil
}

// WriteReport renders the full text report to w
func WriteReport(w io.Writer, data ReportData) {
	cfg := data.Config
	if cfg == nil {
		cfg = processor.DefaultScoringConfig()
	}

	writeReportHeader(w, data)

	r := data.Report
	if r == nil {
		fmt.Fprintln(w, "No score available.")
		return
	}

	writeActivityTable(w, r, cfg)
	writeTranscription(w, r)
	writeScoreTable(w, r, cfg)
	writeTips(w, GenerateSpeakingTips(r, cfg))
	writeDiagnosticIntervals(w, r.Activity, cfg)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

// channelName returns a human-readable channel name
func channelName(channels int) string {
	switch channels {
	case 1:
		return "mono"
	case 2:
		return "stereo"
	default:
		return fmt.Sprintf("%d channels", channels)
	}
}

// =============================================================================
// Report Section Writers
// =============================================================================

// writeReportHeader outputs the report header with file info and timestamp.
func writeReportHeader(w io.Writer, data ReportData) {
	fmt.Fprintln(w, "Speakscore Report")
	fmt.Fprintln(w, "=================")
	fmt.Fprintf(w, "File:      %s\n", filepath.Base(data.InputPath))
	if m := data.Metadata; m != nil {
		fmt.Fprintf(w, "Format:    %s, %d Hz, %s\n", m.Format, m.SampleRate, channelName(m.Channels))
	}
	fmt.Fprintf(w, "Reference: %d words\n", processor.WordCount(data.Reference))
	if data.Backend != "" {
		fmt.Fprintf(w, "Backend:   %s (%s)\n", data.Backend, data.Language)
	}
	if !data.EndTime.IsZero() {
		fmt.Fprintf(w, "Scored:    %s in %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"), formatDuration(data.EndTime.Sub(data.StartTime)))
	}
	if data.ReportID != "" {
		fmt.Fprintf(w, "Report ID: %s\n", data.ReportID)
	}
	fmt.Fprintln(w, "")
}

// writeActivityTable outputs duration, spoken time and speech rate.
func writeActivityTable(w io.Writer, r *processor.ScoreReport, cfg *processor.ScoringConfig) {
	writeSection(w, "Speech Activity")

	ratio := math.NaN()
	if r.DurationSeconds > 0 {
		ratio = r.SpokenDuration / r.DurationSeconds
	}

	table := NewMetricTable("Value")
	table.AddMetricRow("Duration", []float64{r.DurationSeconds}, 2, "s", "")
	table.AddRow("Spoken", []string{formatMetric(r.SpokenDuration, 2)}, "s",
		formatPercent(ratio)+" of recording, "+interpretSpokenRatio(nanToZero(ratio)))
	table.AddRow("Speech Rate", []string{formatMetric(r.SpeechRateWPM, 1)}, "wpm",
		fmt.Sprintf("%s (%s wpm from target)", interpretPace(r.SpeechRateWPM, cfg.Fluency), formatMetricSigned(r.SpeechRateWPM-cfg.Fluency.TargetWPM, 0)))
	table.AddRow("Reference", []string{fmt.Sprintf("%d", r.WordCount)}, "words", "")

	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

// writeTranscription outputs the recognised text and word match.
func writeTranscription(w io.Writer, r *processor.ScoreReport) {
	writeSection(w, "Transcription")

	fmt.Fprintf(w, "Status:  %s\n", r.TranscriptionStatus)
	fmt.Fprintf(w, "Text:    %s\n", wrapText(fmt.Sprintf("%q", r.Transcription), 70, "         "))
	if r.TranscribeErr != nil {
		fmt.Fprintf(w, "Detail:  %s\n", wrapText(r.TranscribeErr.Error(), 70, "         "))
	}
	fmt.Fprintf(w, "Matched: %d of %d distinct reference words\n", r.MatchedWords, r.ContentMatch.ReferenceWords)
	fmt.Fprintln(w, "")
}

// writeScoreTable outputs sub-scores alongside the composite weights they feed.
func writeScoreTable(w io.Writer, r *processor.ScoreReport, cfg *processor.ScoringConfig) {
	writeSection(w, "Scores")

	s := r.Scores
	table := NewMetricTable("Score", "Speaking", "Reading")
	table.AddRow("Content", []string{fmt.Sprintf("%d", s.Content), formatWeight(cfg.Speaking.Content), formatWeight(cfg.Reading.Content)}, "",
		interpretContent(r.ContentMatch.Accuracy, r.TranscriptionStatus))
	table.AddRow("Fluency", []string{fmt.Sprintf("%d", s.Fluency), formatWeight(cfg.Speaking.Fluency), formatWeight(0)}, "",
		interpretPace(r.SpeechRateWPM, cfg.Fluency))
	table.AddRow("Pronunciation", []string{fmt.Sprintf("%d", s.Pronunciation), formatWeight(cfg.Speaking.Pronunciation), formatWeight(cfg.Reading.Pronunciation)}, "",
		"fixed estimate")
	table.AddRow("Speaking", []string{formatMetric(s.EstimatedSpeakingScore, 1)}, "", interpretComposite(s.EstimatedSpeakingScore))
	table.AddRow("Reading", []string{formatMetric(s.EstimatedReadingScore, 1)}, "", interpretComposite(s.EstimatedReadingScore))

	fmt.Fprint(w, table.String())
	fmt.Fprintln(w, "")
}

// writeTips outputs numbered speaking tips, or a note when there are none.
func writeTips(w io.Writer, tips []SpeakingTip) {
	writeSection(w, "Tips")

	if len(tips) == 0 {
		fmt.Fprintln(w, "No issues found - keep it up.")
		fmt.Fprintln(w, "")
		return
	}
	for i, tip := range tips {
		fmt.Fprintf(w, "%d. %s\n", i+1, wrapText(tip.Message, 72, "   "))
	}
	fmt.Fprintln(w, "")
}

// writeDiagnosticIntervals lists each detected speech interval.
func writeDiagnosticIntervals(w io.Writer, a *processor.ActivityMeasurements, cfg *processor.ScoringConfig) {
	if a == nil {
		return
	}

	writeSection(w, "Diagnostic: Speech Intervals")
	fmt.Fprintf(w, "Threshold:   %s dBFS, min silence %d ms, step %d ms\n",
		formatMetricDB(cfg.Silence.ThreshDBFS, 1), cfg.Silence.MinSilenceMs, cfg.Silence.SeekStepMs)
	fmt.Fprintf(w, "Intervals:   %d\n", len(a.Intervals))

	for i, iv := range a.Intervals {
		fmt.Fprintf(w, "  #%d: %s - %s (%.2fs)\n", i+1,
			formatTimestamp(iv.StartMs), formatTimestamp(iv.EndMs), float64(iv.DurationMs())/1000)
	}
	fmt.Fprintln(w, "")
}

// formatTimestamp formats milliseconds as MM:SS.mmm
func formatTimestamp(ms int) string {
	return fmt.Sprintf("%02d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}

func nanToZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
