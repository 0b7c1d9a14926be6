package calendar

import (
	"context"
	"time"

	"dentaflow/utils"

	"go.uber.org/zap"
)

// WithRetry runs fn up to attempts times with linear backoff between tries.
// The last error is returned once attempts are exhausted. Context expiry
// stops retrying immediately.
func WithRetry(ctx context.Context, attempts int, op string, fn func(ctx context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	logger := utils.GetLogger()

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		if attempt < attempts {
			logger.Warn("calendar call failed, retrying",
				zap.String("op", op), zap.Int("attempt", attempt), zap.Error(err))
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				return err
			}
		}
	}
	return err
}
