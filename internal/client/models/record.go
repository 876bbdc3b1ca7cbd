// Package models defines client-side data models used by the hydration
// engine.
package models

import "time"

// HydrationRecord is one ledger row. Positive amounts are intake, negative
// amounts are corrections. Rows are never updated in place.
type HydrationRecord struct {
	// ID is assigned by the database on insert and breaks timestamp ties.
	ID int64

	// UserID is the identity that owns the record.
	UserID string

	// AmountMl is the signed amount in milliliters. Never zero.
	AmountMl int

	// Timestamp is the instant the record was appended.
	Timestamp time.Time

	// LocalDate is Timestamp's calendar date (YYYY-MM-DD) in the ledger's
	// location at insert time.
	LocalDate string
}
