// Package transcribe submits recordings to speech-recognition services.
package transcribe

import (
	"context"
	"errors"
)

// Status is the outcome kind of a transcription attempt
type Status string

const (
	StatusOK             Status = "ok"
	StatusUnintelligible Status = "unintelligible" // Service ran but recognised nothing
	StatusUnavailable    Status = "unavailable"    // Service unreachable or rejected the request
)

// Display text used in place of a transcript when recognition fails
const (
	UnintelligibleText = "Could not understand audio."
	UnavailableText    = "API unavailable."
)

var (
	// ErrNoSpeech is attached to unintelligible results that carry no service error
	ErrNoSpeech = errors.New("no speech recognised")

	// ErrUnavailable is attached to unavailable results that carry no service error
	ErrUnavailable = errors.New("recognition service unavailable")

	// ErrAudioInput marks unavailable results caused by the local recording
	// rather than the service. Retrying never repeats these.
	ErrAudioInput = errors.New("cannot read audio input")
)

// Result is the tagged outcome of a single transcription call
type Result struct {
	Status Status
	Text   string // Recognised text, set only for StatusOK
	Err    error  // Diagnostic detail for failures
}

// OK wraps recognised text
func OK(text string) Result {
	return Result{Status: StatusOK, Text: text}
}

// Unintelligible records that the service could not interpret the audio
func Unintelligible(err error) Result {
	if err == nil {
		err = ErrNoSpeech
	}
	return Result{Status: StatusUnintelligible, Err: err}
}

// Unavailable records that the service could not be used
func Unavailable(err error) Result {
	if err == nil {
		err = ErrUnavailable
	}
	return Result{Status: StatusUnavailable, Err: err}
}

// Transcript returns the recognised text, or the display text for a failure.
func (r Result) Transcript() string {
	switch r.Status {
	case StatusOK:
		return r.Text
	case StatusUnintelligible:
		return UnintelligibleText
	default:
		return UnavailableText
	}
}

// Transcriber converts a recording into text with one synchronous call.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) Result
}

// Func adapts a plain function to the Transcriber interface
type Func func(ctx context.Context, audioPath string) Result

// Transcribe calls f
func (f Func) Transcribe(ctx context.Context, audioPath string) Result {
	return f(ctx, audioPath)
}
