// Package workflow implements the submission and administration flows that
// sit between a front end and the record store.
//
// The store validates nothing and governance only advises, so the rules live
// here:
//   - A day's plan or EOD report is created with EditCount 0; every later
//     submission for the same (user, date) keeps the id and createdAt and
//     increments EditCount by one.
//   - A submission is refused once EditCount has reached governance.MaxEdits.
//   - Blank lines are dropped; at least one task must remain.
//   - Working hours must satisfy 0 < h <= 24.
//   - Every assembled record is checked against the CUE schema before save.
//
// Rejections are *Error values with a Code; storage failures are returned
// wrapped and unchanged.
package workflow
