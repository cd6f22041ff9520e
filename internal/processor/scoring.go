package processor

import (
	"math"
	"strconv"
	"strings"
)

// WordCount returns the number of whitespace-separated tokens in text
func WordCount(text string) int {
	return len(strings.Fields(strings.TrimSpace(text)))
}

// SpeechRate returns words per minute over the spoken (non-silent) time.
// Zero spoken time yields 0 rather than dividing by zero.
func SpeechRate(wordCount int, spokenSeconds float64) float64 {
	if spokenSeconds <= 0 {
		return 0
	}
	return float64(wordCount) / spokenSeconds * 60
}

// wordSet lower-cases text and collapses its tokens into a set
func wordSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// ContentMatch holds the lexical overlap between transcript and reference
type ContentMatch struct {
	Matched        int     // Distinct reference words found in the transcript
	ReferenceWords int     // Distinct reference words
	Accuracy       float64 // Matched / ReferenceWords, 0 when the reference is empty
}

// MatchContent compares the distinct words of a transcript against the
// distinct words of the reference. Order and repetition are ignored.
func MatchContent(transcript, reference string) ContentMatch {
	spoken := wordSet(transcript)
	ref := wordSet(reference)

	m := ContentMatch{ReferenceWords: len(ref)}
	for w := range ref {
		if _, ok := spoken[w]; ok {
			m.Matched++
		}
	}
	if m.ReferenceWords > 0 {
		m.Accuracy = float64(m.Matched) / float64(m.ReferenceWords)
	}
	return m
}

// ContentScore scales content accuracy onto [0, scale], rounded half to even
func ContentScore(accuracy, scale float64) int {
	return int(roundHalfEven(accuracy*scale, 0))
}

// FluencyScore maps a speech rate onto the fluency curve
func FluencyScore(wpm float64, cfg FluencyConfig) int {
	if wpm >= cfg.PlateauLowWPM && wpm <= cfg.PlateauHighWPM {
		return cfg.Cap
	}
	score := int(math.Trunc(100 - math.Abs(cfg.TargetWPM-wpm)))
	if score > cfg.Cap {
		score = cfg.Cap
	}
	if score < cfg.Floor {
		score = cfg.Floor
	}
	return score
}

// SpeakingScore combines content, fluency and pronunciation, rounded to 1 decimal
func SpeakingScore(content, fluency, pronunciation int, w SpeakingWeights) float64 {
	return roundHalfEven(w.Content*float64(content)+w.Fluency*float64(fluency)+w.Pronunciation*float64(pronunciation), 1)
}

// ReadingScore combines content and pronunciation, rounded to 1 decimal
func ReadingScore(content, pronunciation int, w ReadingWeights) float64 {
	return roundHalfEven(w.Content*float64(content)+w.Pronunciation*float64(pronunciation), 1)
}

// roundHalfEven rounds x to the given number of decimals using the exact
// binary value of x, with exact ties going to the even digit. 2.675 rounds
// to 2.67 because its nearest float64 lies just below the tie.
func roundHalfEven(x float64, decimals int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', decimals, 64), 64)
	if err != nil {
		return x
	}
	return v
}
