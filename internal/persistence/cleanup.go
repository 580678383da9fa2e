package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PruneActivity deletes journal records older than before and returns how
// many were removed. A zero before clears the whole journal and resets ids.
func PruneActivity(ctx context.Context, db *sql.DB, before time.Time) (int64, error) {
	if db == nil {
		return 0, errors.New("database is not initialized")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin prune activity tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var res sql.Result
	if before.IsZero() {
		res, err = tx.ExecContext(ctx, `DELETE FROM activity;`)
	} else {
		res, err = tx.ExecContext(ctx, `DELETE FROM activity WHERE at < ?;`, toUnixMillis(before))
	}
	if err != nil {
		return 0, fmt.Errorf("delete activity: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted activity: %w", err)
	}

	if before.IsZero() {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'activity';`); err != nil {
			return 0, fmt.Errorf("reset activity ids: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune activity tx: %w", err)
	}

	return removed, nil
}
