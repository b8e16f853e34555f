// File path: internal/llm/retry.go
package llm

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/GH-TeamBID/gober-api/internal/common"
)

const (
	maxAttempts = 5
	baseDelay   = 2 * time.Second
	maxDelay    = 60 * time.Second
)

// WithRetry runs fn with exponential backoff and jitter. Generation calls
// hit rate limits and transient upstream failures routinely; five attempts
// with a doubling delay (capped at one minute) rides those out without
// hammering the API.
func WithRetry(ctx context.Context, label string, fn func(ctx context.Context) (string, error)) (string, error) {
	logger := common.Logger()
	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		wait := delay + time.Duration(rand.Int63n(int64(delay/2)+1))
		logger.Warn("llm: request failed, retrying",
			"label", label, "attempt", attempt, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return "", fmt.Errorf("%s failed after %d attempts: %w", label, maxAttempts, lastErr)
}
