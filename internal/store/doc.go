// Package store records net runs in SQLite.
//
// A run is one built net instance. While it runs, every applied netcomm
// update (host writes to in channels as the net applies them, publishes of
// out channels) is appended with its cycle stamp; a fatal fault is stored
// once per run. Recorded in-updates are enough to recompute the run, so
// Replay drives a freshly assembled net through them and reports every out
// update that differs.
//
// # Ordering
//
// All queries order by cycle, then seq (insertion order). Nothing is keyed
// on wall-clock time, so two recordings of the same inputs are identical.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
