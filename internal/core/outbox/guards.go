// Package outbox contains the pure business logic for outbox delivery.
// Guards are pure functions that evaluate preconditions without side
// effects.
package outbox

import (
	"fmt"
	"time"

	"github.com/example/pantry/internal/core/backoff"
	"github.com/example/pantry/internal/models"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// DeliveryContext provides context for delivery eligibility guards.
type DeliveryContext struct {
	LocalID       string
	Status        string
	Terminal      bool
	Attempts      int
	LastAttemptAt time.Time
	Now           time.Time
	Backoff       backoff.Policy
	IgnoreBackoff bool // user-triggered force sync skips backoff windows
}

// CanAttemptDelivery evaluates whether an outbox entry may be
// delivered now.
// Rules:
// - Entry must not already be in flight (the in-flight status is the
//   per-entry delivery lock)
// - Synced entries are done
// - Terminal failures are not retried automatically
// - The entry's backoff window must have elapsed, unless forced
func CanAttemptDelivery(ctx DeliveryContext) GuardResult {
	switch ctx.Status {
	case models.OrderInFlight:
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("order %s already has a delivery in flight", ctx.LocalID),
		}
	case models.OrderSynced:
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("order %s is already synced", ctx.LocalID),
		}
	}

	if ctx.Terminal && !ctx.IgnoreBackoff {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("order %s failed terminally and will not be retried automatically", ctx.LocalID),
		}
	}

	if !ctx.IgnoreBackoff && !ctx.Backoff.Ready(ctx.Now, ctx.LastAttemptAt, ctx.Attempts) {
		due := ctx.Backoff.NextAttemptAt(ctx.LastAttemptAt, ctx.Attempts)
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("order %s retry not due until %s", ctx.LocalID, due.Format(time.RFC3339)),
		}
	}

	return GuardResult{Allowed: true}
}

// Outcome classifies a delivery failure.
type Outcome struct {
	Terminal bool
	Reason   string
}

// ClassifyFailure decides whether a failed delivery is worth retrying.
// Network errors and server-side statuses are transient. Client-side
// rejections are terminal, except 408 (request timeout) and 429 (rate
// limit) which are really server/network conditions.
func ClassifyFailure(statusCode int, err error) Outcome {
	if err != nil {
		return Outcome{Terminal: false, Reason: fmt.Sprintf("network failure: %v", err)}
	}
	switch {
	case statusCode >= 500:
		return Outcome{Terminal: false, Reason: fmt.Sprintf("server error %d", statusCode)}
	case statusCode == 408 || statusCode == 429:
		return Outcome{Terminal: false, Reason: fmt.Sprintf("retryable status %d", statusCode)}
	case statusCode >= 400:
		return Outcome{Terminal: true, Reason: fmt.Sprintf("rejected with status %d", statusCode)}
	default:
		return Outcome{Terminal: false, Reason: fmt.Sprintf("unexpected status %d", statusCode)}
	}
}

// IsStaleInFlight reports whether an in-flight entry has been stuck
// longer than threshold, which means the cycle that claimed it died
// before recording an outcome.
func IsStaleInFlight(entry *models.PendingOrder, now time.Time, threshold time.Duration) bool {
	if entry.Status != models.OrderInFlight {
		return false
	}
	ref := entry.LastAttemptAt
	if ref.IsZero() {
		ref = entry.CreatedAt
	}
	return now.Sub(ref) > threshold
}
