// Package models defines the server-side data models of the remote store.
package models

import "time"

// RecordField is one stored field of a user record.
type RecordField struct {
	UserID    string
	Field     string
	Value     string
	Version   int64
	UpdatedAt time.Time
}

// UserRecord is every stored field of one user, keyed by field name.
type UserRecord struct {
	UserID string
	Fields map[string]RecordField
}
