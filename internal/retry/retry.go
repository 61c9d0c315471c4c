// Package retry holds the bounded retry and timeout helpers used by the
// registration finalize sequence.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy is a fixed-delay retry policy. Delay is only waited between attempts,
// never after the last one.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

// ExhaustedError is returned when every attempt failed.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Sleeper waits for d or until ctx is done. Tests swap it to avoid real waits.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do calls fn up to p.Attempts times. attempt is 1-based.
func Do(ctx context.Context, p Policy, sleep Sleeper, fn func(ctx context.Context, attempt int) error) error {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	if sleep == nil {
		sleep = SleepContext
	}
	var last error
	for attempt := 1; attempt <= p.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		last = fn(ctx, attempt)
		if last == nil {
			return nil
		}
		if attempt == p.Attempts {
			break
		}
		if err := sleep(ctx, p.Delay); err != nil {
			return err
		}
	}
	return &ExhaustedError{Attempts: p.Attempts, Last: last}
}

// WithTimeout races fn against d. Whichever settles first wins; a result that
// arrives after the deadline is dropped into a buffered channel and discarded.
func WithTimeout[T any](ctx context.Context, d time.Duration, timeoutErr error, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded && timeoutErr != nil {
			return zero, timeoutErr
		}
		return zero, ctx.Err()
	}
}
