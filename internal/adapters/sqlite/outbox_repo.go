// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/pantry/internal/models"
)

// OutboxRepository implements secondary.OutboxRepository with SQLite.
type OutboxRepository struct {
	db *sql.DB
}

// NewOutboxRepository creates a new SQLite outbox repository.
func NewOutboxRepository(db *sql.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

const outboxSelectCols = "local_id, payload, status, terminal, attempts, server_order_id, created_at, last_attempt_at"

// scanOrder scans a pending_orders row into a PendingOrder.
func scanOrder(scanner interface {
	Scan(dest ...any) error
}) (*models.PendingOrder, error) {
	var (
		payload       string
		serverOrderID sql.NullString
		createdAt     time.Time
		lastAttemptAt sql.NullTime
	)

	order := &models.PendingOrder{}
	err := scanner.Scan(
		&order.LocalID, &payload, &order.Status, &order.Terminal,
		&order.Attempts, &serverOrderID, &createdAt, &lastAttemptAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payload), &order.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode order payload: %w", err)
	}
	order.ServerOrderID = serverOrderID.String
	order.CreatedAt = createdAt
	if lastAttemptAt.Valid {
		order.LastAttemptAt = lastAttemptAt.Time
	}
	return order, nil
}

// Enqueue persists a new outbox entry.
func (r *OutboxRepository) Enqueue(ctx context.Context, order *models.PendingOrder) error {
	payload, err := json.Marshal(order.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode order payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO pending_orders (local_id, payload, status, created_at) VALUES (?, ?, ?, ?)",
		order.LocalID, string(payload), models.OrderQueued, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue order: %w", err)
	}
	return nil
}

// GetByLocalID retrieves an entry by its local id.
func (r *OutboxRepository) GetByLocalID(ctx context.Context, localID string) (*models.PendingOrder, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+outboxSelectCols+" FROM pending_orders WHERE local_id = ?",
		localID,
	)

	order, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %s not found", localID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// List returns entries oldest-first, optionally filtered by status.
func (r *OutboxRepository) List(ctx context.Context, status string) ([]*models.PendingOrder, error) {
	query := "SELECT " + outboxSelectCols + " FROM pending_orders"
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at ASC, local_id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.PendingOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// ClaimInFlight atomically marks an entry in_flight. Returns false when
// another delivery already holds the claim.
func (r *OutboxRepository) ClaimInFlight(ctx context.Context, localID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE pending_orders SET status = ?, last_attempt_at = ? WHERE local_id = ? AND status IN (?, ?)",
		models.OrderInFlight, at, localID, models.OrderQueued, models.OrderFailed,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim order: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return n == 1, nil
}

// MarkFailed records a failed delivery attempt.
func (r *OutboxRepository) MarkFailed(ctx context.Context, localID string, terminal bool, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE pending_orders SET status = ?, terminal = ?, attempts = attempts + 1, last_attempt_at = ? WHERE local_id = ?",
		models.OrderFailed, terminal, at, localID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark order failed: %w", err)
	}
	return nil
}

// MarkSynced records the server acknowledgment.
func (r *OutboxRepository) MarkSynced(ctx context.Context, localID, serverOrderID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE pending_orders SET status = ?, server_order_id = ?, attempts = attempts + 1 WHERE local_id = ?",
		models.OrderSynced, serverOrderID, localID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark order synced: %w", err)
	}
	return nil
}

// Remove deletes an entry.
func (r *OutboxRepository) Remove(ctx context.Context, localID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM pending_orders WHERE local_id = ?", localID)
	if err != nil {
		return fmt.Errorf("failed to remove order: %w", err)
	}
	return nil
}

// CountByStatus returns entry counts keyed by status.
func (r *OutboxRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM pending_orders GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// ResetStaleInFlight requeues entries stuck in_flight since before
// cutoff by marking them failed.
func (r *OutboxRepository) ResetStaleInFlight(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE pending_orders SET status = ? WHERE status = ? AND COALESCE(last_attempt_at, created_at) < ?",
		models.OrderFailed, models.OrderInFlight, cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reset stale in-flight orders: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes every outbox entry.
func (r *OutboxRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM pending_orders")
	if err != nil {
		return fmt.Errorf("failed to clear outbox: %w", err)
	}
	return nil
}
