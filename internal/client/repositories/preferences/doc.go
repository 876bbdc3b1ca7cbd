// Package preferences provides the client-side persistence layer for
// namespaced scalar settings.
//
// # Data Model
//
// Every row is keyed by (namespace, key) and carries a string-encoded value.
// The namespace is either a user identity or the empty string, which holds
// device-wide settings. Typing and defaults live one layer up in
// internal/client/prefs; this package only stores strings.
//
// # Concurrency
//
// The repository is bound to a dbx.DBTX, so callers can run several writes
// inside one transaction:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    repo := preferences.NewSQLiteRepository(tx)
//	    return repo.Set(ctx, ns, "dailyConsumptionMl", "0")
//	})
package preferences
