// Package kv provides the key-value substrate that worktrack persists into.
//
// A Store maps string keys to string values. Three backends are provided:
//   - Memory: process-local map, used by tests and the scenario harness
//   - SQLite: single-file database (WAL mode, one writer connection)
//   - Redis: a shared Redis instance via go-redis
//
// Callers treat every backend as whole-value get/set. There are no
// transactions across keys.
package kv
