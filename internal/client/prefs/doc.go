// Package prefs is the typed, observable preference store of the hydration
// engine.
//
// Values live under an explicit (Namespace, Key) pair: either a user
// identity or the device-wide Global namespace. Keys are typed (Key[T]) and
// carry their own default, so Get never fails for a missing value.
//
// # Concurrency
//
// Writes to the same (namespace, key) are serialized by a per-key mutex and
// the last one to commit wins; writes to different keys never wait for each
// other. SetMany commits several keys in one transaction.
//
// # Observation
//
// Observe and ObserveActive return a Subscription whose channel holds at
// most one pending Update: the latest one. The current value is delivered
// on subscribe and again after every committed change. ObserveActive
// follows the active namespace; SwitchNamespace re-emits every active
// observer under a single write lock, so no observer sees a value from the
// previous identity once the switch returns.
package prefs
