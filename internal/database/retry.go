package database

import (
	"context"
	"time"

	"github.com/careercoach/careercoach/backend/go-services/pkg/logger"
)

// Retry calls connect up to attempts times, doubling the wait after each
// failure, to ride out startup races with database containers. It gives up
// early when ctx is done and returns the last error.
func Retry[T any](ctx context.Context, what string, attempts int, backoff time.Duration, connect func(context.Context) (T, error)) (T, error) {
	var (
		v   T
		err error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		v, err = connect(ctx)
		if err == nil {
			return v, nil
		}
		logger.Warnf("attempt %d/%d: failed to connect to %s: %v", attempt, attempts, what, err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return v, err
}
