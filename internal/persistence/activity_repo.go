package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const DefaultActivityLimit = 50

// ActivityRecord is one journaled session outcome.
type ActivityRecord struct {
	ID        int64
	Operation string
	Device    string
	Message   string
	Failed    bool
	At        time.Time
}

type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Insert(ctx context.Context, rec ActivityRecord) error {
	failed := int64(0)
	if rec.Failed {
		failed = 1
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity(operation, device, message, failed, at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.Operation, rec.Device, rec.Message, failed, toUnixMillis(rec.At))
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	return nil
}

// ListRecent returns up to limit records, newest first.
func (r *ActivityRepo) ListRecent(ctx context.Context, limit int) ([]ActivityRecord, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, operation, device, message, failed, at
		FROM activity
		ORDER BY at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	var out []ActivityRecord
	for rows.Next() {
		var (
			rec    ActivityRecord
			failed int64
			atMs   int64
		)
		if err := rows.Scan(&rec.ID, &rec.Operation, &rec.Device, &rec.Message, &failed, &atMs); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		rec.Failed = failed != 0
		rec.At = fromUnixMillis(atMs)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}

	return out, nil
}

func toUnixMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromUnixMillis(v int64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(v)
}
