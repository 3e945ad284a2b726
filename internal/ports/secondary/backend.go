package secondary

import (
	"context"
	"fmt"

	"github.com/example/pantry/internal/models"
)

// StatusError is returned by the backend client when the server
// answered with a non-success status. It lets callers distinguish an
// HTTP rejection from a network failure.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.Code)
}

// OrderReceipt is the backend's acknowledgment of an order submission.
type OrderReceipt struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

// BackendClient is the JSON-over-HTTP surface of the remote backend.
// Every method either succeeds, returns a *StatusError, or returns a
// network-level error.
type BackendClient interface {
	Ping(ctx context.Context) error
	SubmitOrder(ctx context.Context, payload models.OrderPayload) (*OrderReceipt, error)
	FetchMenu(ctx context.Context) ([]models.Category, []models.MenuItem, error)
	PushLocation(ctx context.Context, loc *models.SavedLocation) error
	DeleteLocation(ctx context.Context, id string) error
}
