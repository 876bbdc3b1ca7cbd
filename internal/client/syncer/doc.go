// Package syncer reconciles the local preference store with the
// authoritative remote user record.
//
// A Coordinator serves one session at a time. PullOnLogin copies remote
// fields over local ones, Push forwards local writes asynchronously and
// DeleteRemote removes the record on account deletion. Every push carries a
// version taken from a monotonic clock at enqueue time and each
// (session, field) pair has a single worker draining a latest-value slot,
// so the value enqueued last is the one that ends up stored remotely.
//
// EndSession cancels everything still in flight for the session. Results
// that arrive afterwards are dropped and never written locally.
package syncer
