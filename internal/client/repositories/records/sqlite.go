// Package records provides the SQLite-backed store for the append-only
// hydration ledger.
package records

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/hydrotrack/internal/client/models"
	"github.com/dmitrijs2005/hydrotrack/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, rec *models.HydrationRecord) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO hydration_records (user_id, amount_ml, timestamp_ns, local_date)
		VALUES (?, ?, ?, ?)
	`, rec.UserID, rec.AmountMl, rec.Timestamp.UnixNano(), rec.LocalDate)
	if err != nil {
		return 0, fmt.Errorf("failed to insert record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM hydration_records WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return dbx.ExpectOne(res)
}

func (r *SQLiteRepository) SumForUserAndDate(ctx context.Context, userID, localDate string) (int, error) {
	var total int
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_ml), 0) FROM hydration_records
		WHERE user_id = ? AND local_date = ?
	`, userID, localDate).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum records: %w", err)
	}
	return total, nil
}

func (r *SQLiteRepository) ListForUser(ctx context.Context, userID string) ([]models.HydrationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, amount_ml, timestamp_ns, local_date FROM hydration_records
		WHERE user_id = ?
		ORDER BY timestamp_ns DESC, id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select records: %w", err)
	}
	defer rows.Close()

	result := []models.HydrationRecord{}
	for rows.Next() {
		var item models.HydrationRecord
		var ts int64
		if err := rows.Scan(&item.ID, &item.UserID, &item.AmountMl, &ts, &item.LocalDate); err != nil {
			return nil, fmt.Errorf("failed to scan record row: %w", err)
		}
		item.Timestamp = time.Unix(0, ts)
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate record rows: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) DeleteForUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM hydration_records WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
