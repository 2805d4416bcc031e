// Package retry re-attempts backend operations that fail with transient
// session-lock contention, such as two clients racing to refresh the same
// auth session.
package retry

import (
	"context"
	"strings"
	"time"
)

const (
	DefaultRetries = 2
	DefaultDelay   = 300 * time.Millisecond
)

type Options struct {
	Retries int
	Delay   time.Duration

	// Sleep overrides the inter-attempt wait, for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

func Defaults() Options {
	return Options{Retries: DefaultRetries, Delay: DefaultDelay}
}

// IsLockError classifies transient lock/session-acquisition failures by
// their message, mirroring the error shapes the auth backend emits.
func IsLockError(err error) bool {
	if err == nil {
		return false
	}

	message := strings.ToLower(err.Error())
	if !strings.Contains(message, "lock") {
		return false
	}

	for _, token := range []string{"acquire", "session", "navigator", "refresh"} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}

// Do runs op up to opts.Retries+1 times. Only lock-class errors are
// retried, waiting Delay*(attempt+1) between attempts; any other error
// returns immediately. The final attempt's outcome is returned as-is.
func Do[T any](ctx context.Context, opts Options, op func(ctx context.Context) (T, error)) (T, error) {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = wait
	}

	var (
		value T
		err   error
	)
	for attempt := 0; ; attempt++ {
		value, err = op(ctx)
		if err == nil || !IsLockError(err) || attempt >= opts.Retries {
			return value, err
		}

		if sleepErr := sleep(ctx, opts.Delay*time.Duration(attempt+1)); sleepErr != nil {
			return value, sleepErr
		}
	}
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
