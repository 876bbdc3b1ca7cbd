package records

import (
	"context"

	"github.com/dmitrijs2005/hydrotrack/internal/client/models"
)

// Repository persists HydrationRecord rows.
type Repository interface {
	// Insert stores rec and returns the assigned id. rec.ID is ignored.
	Insert(ctx context.Context, rec *models.HydrationRecord) (int64, error)

	// Delete removes the record id owned by userID, or returns
	// common.ErrorNotFound.
	Delete(ctx context.Context, userID string, id int64) error

	// SumForUserAndDate sums amounts for userID on localDate.
	SumForUserAndDate(ctx context.Context, userID, localDate string) (int, error)

	// ListForUser returns all records of userID, newest first.
	ListForUser(ctx context.Context, userID string) ([]models.HydrationRecord, error)

	// DeleteForUser removes every record of userID and returns the count.
	DeleteForUser(ctx context.Context, userID string) (int64, error)
}
