// Package alert loads alerting rules from CUE files and evaluates them
// against the treasury state.
package alert

import (
	"fmt"

	"tesoreria/internal/money"
	"tesoreria/internal/treasury"
)

// Kind selects the condition a rule evaluates.
type Kind string

const (
	KindLowBalance        Kind = "low_balance"
	KindCreditUtilization Kind = "credit_utilization"
	KindLoanPaymentDue    Kind = "loan_payment_due"
	KindBudgetOverrun     Kind = "budget_overrun"
)

// ValidKinds defines the rule kinds the scanner knows how to evaluate.
var ValidKinds = map[Kind]bool{
	KindLowBalance:        true,
	KindCreditUtilization: true,
	KindLoanPaymentDue:    true,
	KindBudgetOverrun:     true,
}

// Rule is one alerting rule. The kind decides which parameters apply:
// low_balance uses Threshold (and optionally AccountID to scope it),
// credit_utilization uses MaxUtilizationBps, loan_payment_due uses
// DaysAhead. budget_overrun optionally uses MaxUtilizationBps (defaults
// to 10000, i.e. alert once spending passes the full planned amount).
type Rule struct {
	ID                string
	Kind              Kind
	Severity          treasury.Severity
	Threshold         money.Money
	MaxUtilizationBps int64
	DaysAhead         int
	AccountID         string
}

func (r Rule) Validate() error {
	if r.ID == "" {
		return treasury.ValidationError{Field: "id", Message: "required"}
	}
	if !ValidKinds[r.Kind] {
		return treasury.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", r.Kind)}
	}
	if !treasury.ValidSeverities[r.Severity] {
		return treasury.ValidationError{Field: "severity", Message: fmt.Sprintf("unknown severity %q", r.Severity)}
	}
	switch r.Kind {
	case KindLowBalance:
		if r.Threshold.IsZero() || r.Threshold.IsNegative() {
			return treasury.ValidationError{Field: "threshold", Message: "must be positive"}
		}
	case KindCreditUtilization:
		if r.MaxUtilizationBps <= 0 || r.MaxUtilizationBps > 10000 {
			return treasury.ValidationError{Field: "max_utilization_bps", Message: "must be in 1..10000"}
		}
	case KindLoanPaymentDue:
		if r.DaysAhead < 1 {
			return treasury.ValidationError{Field: "days_ahead", Message: "must be at least 1"}
		}
	case KindBudgetOverrun:
		if r.MaxUtilizationBps < 0 {
			return treasury.ValidationError{Field: "max_utilization_bps", Message: "must not be negative"}
		}
	}
	return nil
}
