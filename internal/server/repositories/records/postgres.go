package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/hydrotrack/internal/common"
	"github.com/dmitrijs2005/hydrotrack/internal/dbx"
	"github.com/dmitrijs2005/hydrotrack/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.RecordField, error) {
	query :=
		`SELECT user_id, field, value, version, updated_at FROM user_record_fields
		 WHERE user_id = $1
		 ORDER BY field
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []models.RecordField
	for rows.Next() {
		var f models.RecordField
		if err := rows.Scan(&f.UserID, &f.Field, &f.Value, &f.Version, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Upsert keeps the row with the highest version. Equal versions overwrite,
// so a retried write is idempotent.
func (r *PostgresRepository) Upsert(ctx context.Context, f models.RecordField) (bool, error) {
	query :=
		`INSERT INTO user_record_fields (user_id, field, value, version, updated_at)
		 VALUES ($1, $2, $3, $4, now())
		 ON CONFLICT (user_id, field) DO UPDATE
		 SET value = excluded.value, version = excluded.version, updated_at = excluded.updated_at
		 WHERE user_record_fields.version <= excluded.version
		 `

	res, err := r.db.ExecContext(ctx, query, f.UserID, f.Field, f.Value, f.Version)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return n == 1, nil
}

func (r *PostgresRepository) StoredVersion(ctx context.Context, userID, field string) (int64, error) {
	query :=
		`SELECT version FROM user_record_fields
		 WHERE user_id = $1 AND field = $2
		 `

	var version int64
	err := r.db.QueryRowContext(ctx, query, userID, field).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}

	return version, nil
}

func (r *PostgresRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM user_record_fields WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}
