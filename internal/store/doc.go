// Package store provides SQLite-backed durable storage for all treasury
// records: accounts, credit lines and cards, loans, third parties,
// payment orders, budgets, recurring transactions with their versions and
// generated instances, payroll batches, and alerts.
//
// # Conventions
//
//   - Money columns are INTEGER euro cents, dates TEXT YYYY-MM-DD,
//     timestamps TEXT RFC 3339 UTC.
//   - Writes that derive identity from content (generated instances,
//     fired alerts, submission-keyed orders) use ON CONFLICT DO NOTHING,
//     so retries are harmless.
//   - List queries order deterministically and return empty slices, never
//     nil.
//   - Balance changes happen only inside transactions that settle an
//     order or an instance.
//
// # Database configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package store
