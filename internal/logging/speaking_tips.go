package logging

import (
	"fmt"
	"sort"
	"strings"

	"github.com/linuxmatters/speakscore/internal/processor"
	"github.com/linuxmatters/speakscore/internal/transcribe"
)

// SpeakingTip represents a single piece of actionable speaking advice
// derived from a score report.
type SpeakingTip struct {
	Priority int    // Higher = more important (1-10)
	Message  string // Human-readable advice (1-2 sentences)
	RuleID   string // Identifier for testing/logging (e.g., "pace_too_fast")
}

// MaxSpeakingTips is the maximum number of tips to return.
const MaxSpeakingTips = 5

// Pace margins beyond the fluency plateau that escalate a tip to high priority
const (
	paceFastMargin = 40.0
	paceSlowMargin = 60.0
)

// GenerateSpeakingTips analyses a score report and returns prioritised
// speaking improvement suggestions. A nil config uses the scoring defaults.
func GenerateSpeakingTips(r *processor.ScoreReport, config *processor.ScoringConfig) []SpeakingTip {
	if r == nil {
		return nil
	}
	if config == nil {
		config = processor.DefaultScoringConfig()
	}

	var tips []SpeakingTip
	firedRules := make(map[string]bool)

	rules := []func(*processor.ScoreReport, *processor.ScoringConfig) *SpeakingTip{
		tipNoSpeech,
		tipServiceUnavailable,
		tipUnintelligible,
		tipPaceFast,
		tipPaceSlow,
		tipMissedWords,
		tipLongSilence,
		tipFragmented,
	}

	for _, rule := range rules {
		if tip := rule(r, config); tip != nil {
			tips = append(tips, *tip)
			firedRules[tip.RuleID] = true
		}
	}

	tips = applyExclusions(tips, firedRules)

	sort.SliceStable(tips, func(i, j int) bool {
		return tips[i].Priority > tips[j].Priority
	})

	if len(tips) > MaxSpeakingTips {
		tips = tips[:MaxSpeakingTips]
	}

	return tips
}

// applyExclusions removes tips made redundant by a more fundamental one.
// With no speech detected, advice about clarity or pauses is noise.
func applyExclusions(tips []SpeakingTip, fired map[string]bool) []SpeakingTip {
	var result []SpeakingTip
	for _, tip := range tips {
		switch tip.RuleID {
		case "unintelligible", "long_silence", "fragmented":
			if fired["no_speech"] {
				continue
			}
		}
		result = append(result, tip)
	}
	return result
}

// wrapText wraps text at word boundaries to fit within maxWidth columns.
// Continuation lines are prefixed with indent.
func wrapText(text string, maxWidth int, indent string) string {
	words := strings.Fields(text)
	var lines []string
	currentLine := ""

	for _, word := range words {
		if currentLine == "" {
			currentLine = word
		} else if len(currentLine)+1+len(word) <= maxWidth {
			currentLine += " " + word
		} else {
			lines = append(lines, currentLine)
			currentLine = word
		}
	}
	if currentLine != "" {
		lines = append(lines, currentLine)
	}

	return strings.Join(lines, "\n"+indent)
}

// tipNoSpeech fires when activity detection found nothing above the silence threshold.
func tipNoSpeech(r *processor.ScoreReport, cfg *processor.ScoringConfig) *SpeakingTip {
	if r.SpokenDuration > 0 || r.DurationSeconds == 0 {
		return nil
	}
	return &SpeakingTip{
		Priority: 10,
		RuleID:   "no_speech",
		Message:  fmt.Sprintf("No speech was detected above %.0f dBFS - check that your microphone is connected, unmuted and close enough to pick up your voice.", cfg.Silence.ThreshDBFS),
	}
}

// tipServiceUnavailable fires when the recogniser could not be used at all.
// Content is scored as zero in that case, so the scores understate the recording.
func tipServiceUnavailable(r *processor.ScoreReport, _ *processor.ScoringConfig) *SpeakingTip {
	if r.TranscriptionStatus != transcribe.StatusUnavailable {
		return nil
	}
	return &SpeakingTip{
		Priority: 9,
		RuleID:   "service_unavailable",
		Message:  "The recognition service could not be reached, so content was scored as zero. Check your network connection or API key and score the recording again.",
	}
}

// tipUnintelligible fires when the recogniser ran but heard no words.
func tipUnintelligible(r *processor.ScoreReport, _ *processor.ScoringConfig) *SpeakingTip {
	if r.TranscriptionStatus != transcribe.StatusUnintelligible {
		return nil
	}
	return &SpeakingTip{
		Priority: 9,
		RuleID:   "unintelligible",
		Message:  "The recogniser could not make out any words. Speak clearly towards the microphone and reduce background noise.",
	}
}

// tipPaceFast fires above the fluency plateau.
// More than paceFastMargin over the plateau is high priority.
func tipPaceFast(r *processor.ScoreReport, cfg *processor.ScoringConfig) *SpeakingTip {
	f := cfg.Fluency
	wpm := r.SpeechRateWPM
	if wpm <= f.PlateauHighWPM {
		return nil
	}
	if wpm > f.PlateauHighWPM+paceFastMargin {
		return &SpeakingTip{
			Priority: 8,
			RuleID:   "pace_too_fast",
			Message:  fmt.Sprintf("You are speaking very quickly (%.0f wpm). Slow down towards about %.0f words per minute and pause briefly between sentences.", wpm, f.TargetWPM),
		}
	}
	return &SpeakingTip{
		Priority: 5,
		RuleID:   "pace_fast",
		Message:  fmt.Sprintf("You are speaking a little quickly (%.0f wpm). Aim for %.0f-%.0f words per minute.", wpm, f.PlateauLowWPM, f.PlateauHighWPM),
	}
}

// tipPaceSlow fires below the fluency plateau. A zero rate means no speech or
// no reference words and is left to other rules.
func tipPaceSlow(r *processor.ScoreReport, cfg *processor.ScoringConfig) *SpeakingTip {
	f := cfg.Fluency
	wpm := r.SpeechRateWPM
	if wpm == 0 || wpm >= f.PlateauLowWPM {
		return nil
	}
	if wpm < f.PlateauLowWPM-paceSlowMargin {
		return &SpeakingTip{
			Priority: 8,
			RuleID:   "pace_too_slow",
			Message:  fmt.Sprintf("You are speaking very slowly (%.0f wpm). Practise the passage a few times so you can read it at about %.0f words per minute.", wpm, f.TargetWPM),
		}
	}
	return &SpeakingTip{
		Priority: 5,
		RuleID:   "pace_slow",
		Message:  fmt.Sprintf("You are speaking a little slowly (%.0f wpm). Aim for %.0f-%.0f words per minute.", wpm, f.PlateauLowWPM, f.PlateauHighWPM),
	}
}

// tipMissedWords fires when recognised text covers too little of the reference.
// Only meaningful for a successful transcription.
func tipMissedWords(r *processor.ScoreReport, _ *processor.ScoringConfig) *SpeakingTip {
	m := r.ContentMatch
	if r.TranscriptionStatus != transcribe.StatusOK || m.ReferenceWords == 0 {
		return nil
	}
	switch {
	case m.Accuracy < 0.5:
		return &SpeakingTip{
			Priority: 7,
			RuleID:   "missed_words_many",
			Message:  fmt.Sprintf("Only %d of %d reference words were recognised. Read every word of the passage and avoid skipping lines.", m.Matched, m.ReferenceWords),
		}
	case m.Accuracy < 0.9:
		return &SpeakingTip{
			Priority: 4,
			RuleID:   "missed_words_some",
			Message:  fmt.Sprintf("%d of %d reference words were not recognised. Check the passage for words you skipped or mispronounced.", m.ReferenceWords-m.Matched, m.ReferenceWords),
		}
	}
	return nil
}

// tipLongSilence fires when less than half of the recording is speech.
func tipLongSilence(r *processor.ScoreReport, _ *processor.ScoringConfig) *SpeakingTip {
	if r.DurationSeconds == 0 || r.SpokenDuration/r.DurationSeconds >= 0.5 {
		return nil
	}
	return &SpeakingTip{
		Priority: 6,
		RuleID:   "long_silence",
		Message:  "More than half of the recording is silence. Start speaking soon after you begin recording and keep pauses between phrases short.",
	}
}

// tipFragmented fires when speech is split into many phrases averaging under a second.
func tipFragmented(r *processor.ScoreReport, _ *processor.ScoringConfig) *SpeakingTip {
	a := r.Activity
	if a == nil || len(a.Intervals) < 4 {
		return nil
	}
	if a.SpokenMs/len(a.Intervals) >= 1000 {
		return nil
	}
	return &SpeakingTip{
		Priority: 4,
		RuleID:   "fragmented",
		Message:  fmt.Sprintf("Your speech is broken into %d short fragments. Try to read whole phrases in one breath.", len(a.Intervals)),
	}
}
