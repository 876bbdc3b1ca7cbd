// Package services holds the server's business logic on top of the
// repositories.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/hydrotrack/internal/common"
	"github.com/dmitrijs2005/hydrotrack/internal/dbx"
	pb "github.com/dmitrijs2005/hydrotrack/internal/proto"
	"github.com/dmitrijs2005/hydrotrack/internal/server/models"
	"github.com/dmitrijs2005/hydrotrack/internal/server/repositories/repomanager"
)

// SetResult tells a writer whether its value was stored and which version
// the field holds afterwards.
type SetResult struct {
	Applied       bool
	StoredVersion int64
}

type RecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewRecordService(db *sql.DB, m repomanager.RepositoryManager) *RecordService {
	return &RecordService{db: db, repomanager: m}
}

func validUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: empty user id", common.ErrorInvalidInput)
	}
	return nil
}

// Get returns the record of userID, or nil when nothing is stored.
func (s *RecordService) Get(ctx context.Context, userID string) (*models.UserRecord, error) {
	if err := validUserID(userID); err != nil {
		return nil, err
	}

	fields, err := s.repomanager.Records(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error reading record: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	rec := &models.UserRecord{UserID: userID, Fields: make(map[string]models.RecordField, len(fields))}
	for _, f := range fields {
		rec.Fields[f.Field] = f
	}
	return rec, nil
}

// SetField stores value when version is not older than the stored one.
// Only known record fields are accepted.
func (s *RecordService) SetField(ctx context.Context, userID, field, value string, version int64) (SetResult, error) {
	if err := validUserID(userID); err != nil {
		return SetResult{}, err
	}
	if !pb.IsRecordField(field) {
		return SetResult{}, fmt.Errorf("%w: unknown field %q", common.ErrorInvalidInput, field)
	}
	if version < 0 {
		return SetResult{}, fmt.Errorf("%w: negative version", common.ErrorInvalidInput)
	}

	var result SetResult
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Records(tx)

		applied, err := repo.Upsert(ctx, models.RecordField{UserID: userID, Field: field, Value: value, Version: version})
		if err != nil {
			return err
		}
		if applied {
			result = SetResult{Applied: true, StoredVersion: version}
			return nil
		}

		stored, err := repo.StoredVersion(ctx, userID, field)
		if err != nil {
			return err
		}
		result = SetResult{StoredVersion: stored}
		return nil
	})
	if err != nil {
		return SetResult{}, fmt.Errorf("error storing field: %w", err)
	}

	return result, nil
}

// Delete removes the record of userID. Deleting a missing record succeeds;
// the result reports whether anything existed.
func (s *RecordService) Delete(ctx context.Context, userID string) (bool, error) {
	if err := validUserID(userID); err != nil {
		return false, err
	}

	n, err := s.repomanager.Records(s.db).DeleteByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("error deleting record: %w", err)
	}
	return n > 0, nil
}
