package realtime

import (
	"math"
	"math/rand"
	"time"
)

// Retryer decides how long to wait before each reconnect attempt and when
// to stop trying altogether.
type Retryer interface {
	// NextDelay returns the wait before retry number attempt (0-based) and
	// reports whether another attempt should be made at all.
	NextDelay(attempt int) (time.Duration, bool)

	// Reset clears any accumulated retry state after a successful
	// connection.
	Reset()
}

// ExponentialBackoffRetryer grows the wait between attempts by Multiplier
// up to MaxDelay, with an optional jitter spread.
type ExponentialBackoffRetryer struct {
	// InitialDelay is the wait before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the growth of the wait.
	MaxDelay time.Duration

	// Multiplier scales the wait on every further attempt.
	Multiplier float64

	// MaxRetries bounds the number of attempts; zero means retry forever.
	MaxRetries int

	// Jitter randomizes each wait so clients do not retry in lockstep.
	Jitter bool

	// JitterFactor bounds the randomization as a fraction of the wait,
	// between 0 and 1.
	JitterFactor float64
}

// NewExponentialBackoffRetryer creates an exponential backoff retryer with
// the given base delay, delay ceiling and attempt limit. Jitter is off so
// the delay schedule stays deterministic: baseDelay * 2^attempt, capped.
func NewExponentialBackoffRetryer(baseDelay, maxDelay time.Duration, maxRetries int) *ExponentialBackoffRetryer {
	return &ExponentialBackoffRetryer{
		InitialDelay: baseDelay,
		MaxDelay:     maxDelay,
		Multiplier:   2.0,
		MaxRetries:   maxRetries,
	}
}

func (r *ExponentialBackoffRetryer) NextDelay(attempt int) (time.Duration, bool) {
	if r.MaxRetries > 0 && attempt >= r.MaxRetries {
		return 0, false
	}

	delay := float64(r.InitialDelay) * math.Pow(r.Multiplier, float64(attempt))

	if delay > float64(r.MaxDelay) {
		delay = float64(r.MaxDelay)
	}

	if r.Jitter && r.JitterFactor > 0 {
		jitter := delay * r.JitterFactor * (2*rand.Float64() - 1)
		delay += jitter
		if delay < 0 {
			delay = float64(r.InitialDelay)
		}
	}

	return time.Duration(delay), true
}

// Reset is a no-op: the schedule depends only on the attempt number, which
// the caller tracks.
func (r *ExponentialBackoffRetryer) Reset() {}
