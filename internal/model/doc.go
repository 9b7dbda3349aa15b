// Package model defines the records persisted by worktrack.
//
// This package contains type definitions and date helpers only. Every other
// internal package imports model; model imports nothing internal.
//
// Conventions:
//   - JSON tags are camelCase, matching the persisted layout
//   - Dates are calendar days in "YYYY-MM-DD" form (DateLayout)
//   - Timestamps are RFC 3339 strings
package model
