// Package records stores user record fields in PostgreSQL.
package records

import (
	"context"

	"github.com/dmitrijs2005/hydrotrack/internal/server/models"
)

type Repository interface {
	// ListByUser returns every field of userID, ordered by field name.
	ListByUser(ctx context.Context, userID string) ([]models.RecordField, error)
	// Upsert writes f unless the stored version is newer. It reports
	// whether the write was applied.
	Upsert(ctx context.Context, f models.RecordField) (bool, error)
	// StoredVersion returns the version of one field or common.ErrorNotFound.
	StoredVersion(ctx context.Context, userID, field string) (int64, error)
	// DeleteByUser removes every field of userID and returns how many
	// rows went away.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
