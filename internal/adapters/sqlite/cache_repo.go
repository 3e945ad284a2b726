package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/pantry/internal/models"
)

// CacheRepository implements secondary.CacheRepository with SQLite.
type CacheRepository struct {
	db *sql.DB
}

// NewCacheRepository creates a new SQLite cache repository.
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db}
}

// EnsurePartition creates a partition row if it does not exist.
func (r *CacheRepository) EnsurePartition(ctx context.Context, p *models.CachePartition) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO cache_partitions (name, namespace, class, version) VALUES (?, ?, ?, ?) ON CONFLICT(name) DO NOTHING",
		p.Name, p.Namespace, p.Class, p.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure partition %s: %w", p.Name, err)
	}
	return nil
}

// ListPartitions enumerates partitions, optionally by namespace.
func (r *CacheRepository) ListPartitions(ctx context.Context, namespace string) ([]*models.CachePartition, error) {
	query := "SELECT name, namespace, class, version, created_at FROM cache_partitions"
	var args []any
	if namespace != "" {
		query += " WHERE namespace = ?"
		args = append(args, namespace)
	}
	query += " ORDER BY name ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}
	defer rows.Close()

	var parts []*models.CachePartition
	for rows.Next() {
		p := &models.CachePartition{}
		if err := rows.Scan(&p.Name, &p.Namespace, &p.Class, &p.Version, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan partition: %w", err)
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// DeletePartition removes a partition; its entries go with it via the
// FK cascade.
func (r *CacheRepository) DeletePartition(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM cache_partitions WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete partition %s: %w", name, err)
	}
	return nil
}

// Get retrieves a cached entry, nil when absent.
func (r *CacheRepository) Get(ctx context.Context, partition, requestKey string) (*models.CacheEntry, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT partition, request_key, status, COALESCE(content_type, ''), body, generation, stored_at FROM cache_entries WHERE partition = ? AND request_key = ?",
		partition, requestKey,
	)

	entry := &models.CacheEntry{}
	err := row.Scan(&entry.Partition, &entry.RequestKey, &entry.Status, &entry.ContentType, &entry.Body, &entry.Generation, &entry.StoredAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return entry, nil
}

// Put upserts an entry and bumps its generation.
func (r *CacheRepository) Put(ctx context.Context, entry *models.CacheEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cache_entries (partition, request_key, status, content_type, body, generation, stored_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?)
		 ON CONFLICT(partition, request_key) DO UPDATE SET
		   status = excluded.status,
		   content_type = excluded.content_type,
		   body = excluded.body,
		   generation = cache_entries.generation + 1,
		   stored_at = excluded.stored_at`,
		entry.Partition, entry.RequestKey, entry.Status, entry.ContentType, entry.Body, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

// CompareAndPut writes only while the stored generation still equals
// expected (0 meaning absent). A false result means a concurrent write
// landed first and this one was discarded.
func (r *CacheRepository) CompareAndPut(ctx context.Context, entry *models.CacheEntry, expected int64) (bool, error) {
	if expected == 0 {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO cache_entries (partition, request_key, status, content_type, body, generation, stored_at)
			 VALUES (?, ?, ?, ?, ?, 1, ?)
			 ON CONFLICT(partition, request_key) DO NOTHING`,
			entry.Partition, entry.RequestKey, entry.Status, entry.ContentType, entry.Body, time.Now().UTC(),
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert cache entry: %w", err)
		}
		n, err := res.RowsAffected()
		return n == 1, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE cache_entries SET status = ?, content_type = ?, body = ?, generation = generation + 1, stored_at = ?
		 WHERE partition = ? AND request_key = ? AND generation = ?`,
		entry.Status, entry.ContentType, entry.Body, time.Now().UTC(),
		entry.Partition, entry.RequestKey, expected,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update cache entry: %w", err)
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// DeleteExpired removes entries stored before cutoff.
func (r *CacheRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE stored_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired entries: %w", err)
	}
	return res.RowsAffected()
}

// Clear deletes every partition and entry.
func (r *CacheRepository) Clear(ctx context.Context) error {
	// Entries cascade from partitions, but be explicit in case foreign
	// keys are off on this connection.
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cache_entries"); err != nil {
		return fmt.Errorf("failed to clear cache entries: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM cache_partitions"); err != nil {
		return fmt.Errorf("failed to clear cache partitions: %w", err)
	}
	return nil
}
