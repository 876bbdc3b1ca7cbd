// Package cli provides the interactive HydroTrack command-line client.
//
// It wires configuration, the local database, the remote store backend,
// the sync coordinator and the hydration engine, then runs a REPL that
// keeps working offline. Typical flow: log back in as the last identity,
// start a background connectivity watcher, and execute user commands.
//
// Key features:
//   - Login / Logout and account deletion
//   - Add / Remove water in the active display unit, History, Delete
//   - Goal, unit, profile and theme settings
//   - Sync retry and on-demand reminders
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
