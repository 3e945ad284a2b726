package models

import "time"

// Outbox entry statuses.
const (
	OrderQueued   = "queued"
	OrderInFlight = "in_flight"
	OrderFailed   = "failed"
	OrderSynced   = "synced"
)

// PendingOrder is an order captured while the backend was unreachable,
// waiting in the outbox for delivery.
type PendingOrder struct {
	LocalID       string
	Payload       OrderPayload
	Status        string
	Terminal      bool
	Attempts      int
	ServerOrderID string
	CreatedAt     time.Time
	LastAttemptAt time.Time
}

// OrderPayload is the order submission body sent to the backend.
type OrderPayload struct {
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	Items         []OrderLine `json:"items"`
	SubtotalCents int64       `json:"subtotal_cents"`
	DiscountCents int64       `json:"discount_cents"`
	TotalCents    int64       `json:"total_cents"`
	Notes         string      `json:"notes,omitempty"`
	Latitude      *float64    `json:"latitude,omitempty"`
	Longitude     *float64    `json:"longitude,omitempty"`
}

// OrderLine is a single line item in an order.
type OrderLine struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
}
