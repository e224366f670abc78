package services

import (
	"booking-app/internal/models"
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	storeRetryAttempts = 3
	storeRetryDelay    = 200 * time.Millisecond
)

// isTransientStoreErr reports whether an error is a connectivity or timeout
// failure worth retrying. Deterministic outcomes (validation, state
// conflicts, duplicates) are never transient.
func isTransientStoreErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}
	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		return serverErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}

// withStoreRetry runs fn up to storeRetryAttempts times, pausing between
// attempts, and retries only transient store errors. The whole unit is
// re-run each time; fn must therefore be idempotent. Exhaustion surfaces as
// ErrStoreUnavailable.
func withStoreRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= storeRetryAttempts; attempt++ {
		err = fn(ctx)
		if err == nil || !isTransientStoreErr(err) {
			return err
		}
		log.Printf("[RETRY] %s attempt %d/%d failed: %v", op, attempt, storeRetryAttempts, err)
		if attempt < storeRetryAttempts {
			select {
			case <-time.After(storeRetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("%w: %s: %v", models.ErrStoreUnavailable, op, err)
}
