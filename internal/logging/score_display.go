// Package logging handles generation of score reports for assessed recordings.
// This file provides the console summary used by --plain mode.

package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/linuxmatters/speakscore/internal/audio"
	"github.com/linuxmatters/speakscore/internal/processor"
)

// DisplayScoreResults outputs a compact score summary to the console.
// Used by --plain mode when no interactive terminal is wanted.
func DisplayScoreResults(w io.Writer, inputPath string, metadata *audio.Metadata, r *processor.ScoreReport, config *processor.ScoringConfig) {
	if config == nil {
		config = processor.DefaultScoringConfig()
	}

	fmt.Fprintln(w, strings.Repeat("=", 70))
	fmt.Fprintf(w, "SCORE: %s\n", filepath.Base(inputPath))
	fmt.Fprintln(w, strings.Repeat("=", 70))

	if metadata != nil {
		fmt.Fprintf(w, "Duration:    %s\n", formatDurationHMS(metadata.Duration))
		fmt.Fprintf(w, "Sample Rate: %d Hz\n", metadata.SampleRate)
		fmt.Fprintf(w, "Channels:    %s\n", channelName(metadata.Channels))
		fmt.Fprintln(w)
	}

	writeAnalysisSection(w, "ACTIVITY")
	fmt.Fprintf(w, "  Spoken:         %.2fs of %.2fs\n", r.SpokenDuration, r.DurationSeconds)
	fmt.Fprintf(w, "  Speech Rate:    %s (%s)\n", formatMetricWithUnit(r.SpeechRateWPM, 1, "wpm"), interpretPace(r.SpeechRateWPM, config.Fluency))
	fmt.Fprintln(w)

	writeAnalysisSection(w, "TRANSCRIPTION")
	fmt.Fprintf(w, "  Status:         %s\n", r.TranscriptionStatus)
	fmt.Fprintf(w, "  Text:           %s\n", wrapText(r.Transcription, 50, strings.Repeat(" ", 18)))
	fmt.Fprintf(w, "  Matched:        %d words\n", r.MatchedWords)
	fmt.Fprintln(w)

	s := r.Scores
	writeAnalysisSection(w, "SCORES")
	fmt.Fprintf(w, "  Content:        %d\n", s.Content)
	fmt.Fprintf(w, "  Fluency:        %d\n", s.Fluency)
	fmt.Fprintf(w, "  Pronunciation:  %d\n", s.Pronunciation)
	fmt.Fprintf(w, "  Speaking:       %.1f (%s)\n", s.EstimatedSpeakingScore, interpretComposite(s.EstimatedSpeakingScore))
	fmt.Fprintf(w, "  Reading:        %.1f (%s)\n", s.EstimatedReadingScore, interpretComposite(s.EstimatedReadingScore))

	if tips := GenerateSpeakingTips(r, config); len(tips) > 0 {
		fmt.Fprintln(w)
		writeAnalysisSection(w, "TIPS")
		for _, tip := range tips {
			fmt.Fprintf(w, "  • %s\n", wrapText(tip.Message, 66, "    "))
		}
	}
	fmt.Fprintln(w)
}

// writeAnalysisSection writes a section header for console output.
func writeAnalysisSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
}

// formatDurationHMS formats duration as "Xh Ym Zs" or "Ym Zs" or "Z.Xs".
func formatDurationHMS(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}

	totalSeconds := int(seconds)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	}
	return fmt.Sprintf("%dm %ds", minutes, secs)
}
