// Package remote defines the authoritative user-record store consumed by
// the sync coordinator, with gRPC, S3 and in-memory implementations.
//
// A user record is a small set of named fields, each carrying a string
// value and the version it was written with. Writers send a version with
// every SetField and a store keeps the incoming value only when that
// version is not older than the stored one, so a late-arriving stale push
// can never replace a newer value.
//
// Errors: common.ErrorUnavailable for transport failures (retriable),
// common.ErrorUnauthorized for rejected credentials, common.ErrorInvalidInput
// for unknown fields.
package remote

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/hydrotrack/internal/common"
	pb "github.com/dmitrijs2005/hydrotrack/internal/proto"
)

// FieldValue is one stored field.
type FieldValue struct {
	Value   string
	Version int64
}

// UserRecord mirrors the synced subset of a user's preferences.
type UserRecord struct {
	UserID string
	Fields map[string]FieldValue
}

// Get returns the value of field and whether the record carries it.
func (r *UserRecord) Get(field string) (string, bool) {
	if r == nil {
		return "", false
	}
	fv, ok := r.Fields[field]
	return fv.Value, ok
}

// apply stores value when version is not older than the current one.
func (r *UserRecord) apply(field, value string, version int64) bool {
	if r.Fields == nil {
		r.Fields = make(map[string]FieldValue)
	}
	if cur, ok := r.Fields[field]; ok && cur.Version > version {
		return false
	}
	r.Fields[field] = FieldValue{Value: value, Version: version}
	return true
}

func (r *UserRecord) clone() *UserRecord {
	out := &UserRecord{UserID: r.UserID, Fields: make(map[string]FieldValue, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return out
}

// Store is the remote store API. All calls are idempotent.
type Store interface {
	// GetUserRecord returns nil, nil when no record exists.
	GetUserRecord(ctx context.Context, userID string) (*UserRecord, error)
	// SetField writes one field unless a newer version is already stored.
	SetField(ctx context.Context, userID, field, value string, version int64) error
	// DeleteUserRecord removes the record; a missing record is not an error.
	DeleteUserRecord(ctx context.Context, userID string) error
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}

func validate(userID, field string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", common.ErrorInvalidInput)
	}
	if !pb.IsRecordField(field) {
		return fmt.Errorf("%w: unknown field %q", common.ErrorInvalidInput, field)
	}
	return nil
}
