// Package treasury defines the domain records of the cash-management
// application: bank accounts, credit lines and cards, loans, third
// parties, payment orders, budgets, recurring transactions and their
// generated instances, payroll batches, and alerts.
//
// Records are flat structs with json tags, validated before they reach
// storage. Monetary fields are integer cents (money.Money) - floats never
// represent money.
//
// The package also provides canonical JSON serialization and
// domain-separated SHA-256 content hashes. These back the idempotency
// keys for payment-order submission and payroll-batch submission: the
// same logical submission always hashes to the same key, so a retry can
// be detected at the storage layer.
package treasury
