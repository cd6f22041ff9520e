package transcribe

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ensure this satisfies the interface
var _ Transcriber = (*Retrying)(nil)

// Retrying re-issues calls that come back StatusUnavailable with exponential
// backoff. Unintelligible results and local audio failures are final. With zero retries it makes
// exactly one call.
type Retrying struct {
	next       Transcriber
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// NewRetrying wraps next with up to maxRetries additional attempts
func NewRetrying(next Transcriber, maxRetries uint64) *Retrying {
	return &Retrying{
		next:       next,
		maxRetries: maxRetries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// Transcribe calls the wrapped backend until it stops reporting unavailability
// or the retry budget is spent, and returns the last result.
func (r *Retrying) Transcribe(ctx context.Context, audioPath string) Result {
	var last Result
	operation := func() error {
		last = r.next.Transcribe(ctx, audioPath)
		if last.Status != StatusUnavailable {
			return nil
		}
		if last.Err == nil {
			return ErrUnavailable
		}
		if errors.Is(last.Err, ErrAudioInput) {
			return backoff.Permanent(last.Err)
		}
		return last.Err
	}
	notify := func(err error, wait time.Duration) {
		slog.Warn("transcription unavailable, retrying", "path", audioPath, "error", err, "wait", wait)
	}

	b := backoff.WithMaxRetries(r.newBackOff(), r.maxRetries)
	_ = backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify)
	return last
}
