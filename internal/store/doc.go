// Package store implements the worktrack record store.
//
// Four slots live in a kv.Store namespace:
//   - <prefix>users: JSON array of model.User
//   - <prefix>planned_tasks: JSON array of model.PlannedTask
//   - <prefix>eod_reports: JSON array of model.EODReport
//   - <prefix>current_user: JSON object (model.User), absent when logged out
//
// # Whole-collection read-modify-write
//
// Every save or delete loads the full collection, changes it in memory and
// writes the full collection back. There is no locking: when two writers race
// on the same collection the last write wins and the other change is lost.
// Callers that need more must serialise access themselves.
//
// # Absent versus corrupt
//
// A missing key, or a key holding the empty string, reads as an empty
// collection. Anything else that does not decode fails with ErrCorrupt rather
// than being replaced by an empty list.
//
// The store validates nothing. Uniqueness of (userId, date) for tasks and
// reports is the caller's responsibility (see package workflow).
package store
