// Package retry runs an operation again with exponential backoff when it fails
// for a reason that a later attempt might not hit.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Kind classifies a failure for retry purposes.
type Kind int

const (
	// KindUnknown failures are retried.
	KindUnknown Kind = iota
	// KindClient failures are caused by the request itself and are never retried.
	KindClient
	// KindTransient failures are expected to clear up and are retried.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindClient:
		return "client"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Classifier is implemented by errors that carry their own Kind.
type Classifier interface {
	RetryKind() Kind
}

// KindOf returns the Kind of the first error in err's chain that implements Classifier.
func KindOf(err error) Kind {
	var c Classifier
	if errors.As(err, &c) {
		return c.RetryKind()
	}
	return KindUnknown
}

// Policy controls how many times and how long Do waits between attempts.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	BaseDelay  time.Duration
	// MaxJitter bounds the random delay added to every wait.
	MaxJitter time.Duration

	// Sleep waits for d or until ctx is done. Defaults to a timer-based wait.
	Sleep func(ctx context.Context, d time.Duration) error
	// Jitter returns a value in [0, max). Defaults to math/rand.
	Jitter func(max time.Duration) time.Duration
	// OnRetry is called before every wait.
	OnRetry func(attempt int, delay time.Duration, err error)
}

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultMaxJitter  = time.Second
)

// DefaultPolicy is 3 retries, 1s base delay and up to 1s of jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxJitter:  DefaultMaxJitter,
	}
}

// Delay returns the wait before retry number attempt (0-based), jitter excluded.
func (p Policy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<uint(attempt))
}

// Do calls fn until it succeeds, fails with a KindClient error, or MaxRetries
// retries have been spent. The last error is returned on exhaustion. If ctx is
// done while waiting, Do stops and returns the last error from fn.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	jitter := p.Jitter
	if jitter == nil {
		jitter = randomJitter
	}

	var lastErr error
	for attempt := 0; attempt <= p.MaxRetries; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if KindOf(err) == KindClient || attempt == p.MaxRetries {
			break
		}

		delay := p.Delay(attempt)
		if p.MaxJitter > 0 {
			delay += jitter(p.MaxJitter)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			break
		}
	}
	return zero, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomJitter(max time.Duration) time.Duration {
	return time.Duration(rand.Int63n(int64(max)))
}
