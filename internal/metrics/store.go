// Package metrics persists sync bus counters to SQLite. Only aggregate
// counts are stored; change events themselves are never persisted.
package metrics

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// Store handles persistence of sync counters.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Count records one occurrence of a counter for a topic. It satisfies the
// notifier's Stats interface and must never fail the caller, so write
// errors are only logged.
func (s *Store) Count(counter, topic string) {
	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO sync_metrics (counter, topic, count, timestamp) VALUES (?, ?, 1, ?)`,
		counter, topic, time.Now().UTC())
	if err != nil {
		slog.Warn("failed to record sync metric", "counter", counter, "error", err)
	}
}

// CounterTotal represents the total for one counter name.
type CounterTotal struct {
	Counter string `json:"counter"`
	Total   int64  `json:"total"`
}

// Totals retrieves per-counter totals for the last N days.
func (s *Store) Totals(ctx context.Context, days int) ([]CounterTotal, error) {
	since := time.Now().AddDate(0, 0, -days).UTC()
	rows, err := s.db.QueryContext(ctx,
		`SELECT counter, SUM(count) FROM sync_metrics WHERE timestamp >= ? GROUP BY counter ORDER BY counter`,
		since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CounterTotal
	for rows.Next() {
		var ct CounterTotal
		if err := rows.Scan(&ct.Counter, &ct.Total); err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// Cleanup removes records older than the specified number of days.
func (s *Store) Cleanup(ctx context.Context, olderThanDays int) error {
	threshold := time.Now().AddDate(0, 0, -olderThanDays).UTC()
	_, err := s.db.ExecContext(ctx, `DELETE FROM sync_metrics WHERE timestamp < ?`, threshold)
	return err
}
