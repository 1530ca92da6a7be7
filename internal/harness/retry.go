package harness

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/kjstillabower/route-audit/internal/circuitbreaker"
)

// ErrThrottled is wrapped by the Outcome of a request the target kept answering with 429.
var ErrThrottled = errors.New("target throttled the request")

var errRateWait = errors.New("rate limit wait")

// RetryPolicy controls how a Remote harness re-sends requests that got no response.
// The zero value sends each request once.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (p RetryPolicy) attempts() int {
	if p.Attempts < 1 {
		return 1
	}
	return p.Attempts
}

// backoff returns the delay before the given retry (1-based): exponential from
// BaseDelay, capped at MaxDelay, plus up to 10% jitter.
func (p RetryPolicy) backoff(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	delay := float64(base) * math.Pow(2, float64(attempt-1))
	if delay > float64(maxDelay) {
		delay = float64(maxDelay)
	}

	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

// isRetryable reports whether another attempt could get a different answer.
func isRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, circuitbreaker.ErrOpen),
		errors.Is(err, ErrTooManyRedirects),
		errors.Is(err, errRateWait),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// isTransportFailure reports whether err means the target itself is unhealthy.
// Redirect loops are application behaviour and cancellation is ours.
func isTransportFailure(err error) bool {
	return err != nil && !errors.Is(err, ErrTooManyRedirects) && !errors.Is(err, context.Canceled)
}
