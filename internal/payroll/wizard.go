// Package payroll drives the monthly payroll batch through its wizard
// states and turns a reviewed batch into payment orders.
package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tesoreria/internal/treasury"
)

// ErrNotReady reports that a batch does not meet the requirements of the
// step it is trying to advance past.
var ErrNotReady = errors.New("batch not ready")

// Store is the slice of storage the wizard needs.
type Store interface {
	GetBatch(ctx context.Context, id string) (treasury.PayrollBatch, error)
	TransitionBatch(ctx context.Context, id string, from, to treasury.BatchStatus) error
	UpsertLine(ctx context.Context, l *treasury.PayrollLine) error
	DeleteLine(ctx context.Context, batchID, employeeID string) error
	ListLines(ctx context.Context, batchID string) ([]treasury.PayrollLine, error)
	GetThirdParty(ctx context.Context, id string) (treasury.ThirdParty, error)
	SubmitBatch(ctx context.Context, id string, key string, orders []treasury.PaymentOrder) error
}

// Wizard enforces the batch lifecycle
// draft -> employees -> amounts -> review -> submitted,
// with cancel allowed from any state before submission.
type Wizard struct {
	store Store
	log   *zap.Logger
}

func NewWizard(store Store, log *zap.Logger) *Wizard {
	if log == nil {
		log = zap.NewNop()
	}
	return &Wizard{store: store, log: log}
}

var forward = map[treasury.BatchStatus]treasury.BatchStatus{
	treasury.BatchDraft:     treasury.BatchEmployees,
	treasury.BatchEmployees: treasury.BatchAmounts,
	treasury.BatchAmounts:   treasury.BatchReview,
}

var backward = map[treasury.BatchStatus]treasury.BatchStatus{
	treasury.BatchEmployees: treasury.BatchDraft,
	treasury.BatchAmounts:   treasury.BatchEmployees,
	treasury.BatchReview:    treasury.BatchAmounts,
}

// Advance moves the batch one step forward. Each step gates on the work
// the previous step was supposed to complete: leaving the employees step
// requires at least one line, leaving the amounts step requires every
// line to carry a positive amount.
func (w *Wizard) Advance(ctx context.Context, id string) (treasury.PayrollBatch, error) {
	b, err := w.store.GetBatch(ctx, id)
	if err != nil {
		return treasury.PayrollBatch{}, err
	}
	to, ok := forward[b.Status]
	if !ok {
		return treasury.PayrollBatch{}, fmt.Errorf("cannot advance from %s: %w", b.Status, ErrNotReady)
	}
	switch b.Status {
	case treasury.BatchEmployees, treasury.BatchAmounts:
		lines, err := w.store.ListLines(ctx, id)
		if err != nil {
			return treasury.PayrollBatch{}, err
		}
		if len(lines) == 0 {
			return treasury.PayrollBatch{}, fmt.Errorf("batch has no employees: %w", ErrNotReady)
		}
		if b.Status == treasury.BatchAmounts {
			for _, l := range lines {
				if l.Amount.IsZero() || l.Amount.IsNegative() {
					return treasury.PayrollBatch{}, fmt.Errorf("employee %s has no amount: %w", l.EmployeeID, ErrNotReady)
				}
			}
		}
	}
	if err := w.store.TransitionBatch(ctx, id, b.Status, to); err != nil {
		return treasury.PayrollBatch{}, err
	}
	w.log.Info("payroll batch advanced",
		zap.String("batch", id),
		zap.String("from", string(b.Status)),
		zap.String("to", string(to)))
	b.Status = to
	return b, nil
}

// Back moves the batch one step backwards. Lines are kept.
func (w *Wizard) Back(ctx context.Context, id string) (treasury.PayrollBatch, error) {
	b, err := w.store.GetBatch(ctx, id)
	if err != nil {
		return treasury.PayrollBatch{}, err
	}
	to, ok := backward[b.Status]
	if !ok {
		return treasury.PayrollBatch{}, fmt.Errorf("cannot go back from %s: %w", b.Status, ErrNotReady)
	}
	if err := w.store.TransitionBatch(ctx, id, b.Status, to); err != nil {
		return treasury.PayrollBatch{}, err
	}
	b.Status = to
	return b, nil
}

// Cancel aborts the batch. Submitted batches are immutable.
func (w *Wizard) Cancel(ctx context.Context, id string) (treasury.PayrollBatch, error) {
	b, err := w.store.GetBatch(ctx, id)
	if err != nil {
		return treasury.PayrollBatch{}, err
	}
	switch b.Status {
	case treasury.BatchSubmitted:
		return treasury.PayrollBatch{}, fmt.Errorf("batch already submitted: %w", ErrNotReady)
	case treasury.BatchCancelled:
		return b, nil
	}
	if err := w.store.TransitionBatch(ctx, id, b.Status, treasury.BatchCancelled); err != nil {
		return treasury.PayrollBatch{}, err
	}
	w.log.Info("payroll batch cancelled", zap.String("batch", id))
	b.Status = treasury.BatchCancelled
	return b, nil
}

// SetLine adds or replaces an employee's line. Only allowed while the
// batch sits in the employees or amounts step, and only for third
// parties registered as employees.
func (w *Wizard) SetLine(ctx context.Context, l treasury.PayrollLine) error {
	b, err := w.store.GetBatch(ctx, l.BatchID)
	if err != nil {
		return err
	}
	if b.Status != treasury.BatchEmployees && b.Status != treasury.BatchAmounts {
		return fmt.Errorf("lines are editable in %s or %s only, batch is %s: %w",
			treasury.BatchEmployees, treasury.BatchAmounts, b.Status, ErrNotReady)
	}
	p, err := w.store.GetThirdParty(ctx, l.EmployeeID)
	if err != nil {
		return fmt.Errorf("employee %s: %w", l.EmployeeID, err)
	}
	if p.Kind != treasury.PartyEmployee {
		return treasury.ValidationError{Field: "employee_id", Message: fmt.Sprintf("%s is a %s, not an employee", p.Name, p.Kind)}
	}
	if p.IBAN == "" {
		return treasury.ValidationError{Field: "employee_id", Message: fmt.Sprintf("%s has no IBAN on file", p.Name)}
	}
	return w.store.UpsertLine(ctx, &l)
}

// RemoveLine drops an employee from the batch. Same step rules as SetLine.
func (w *Wizard) RemoveLine(ctx context.Context, batchID, employeeID string) error {
	b, err := w.store.GetBatch(ctx, batchID)
	if err != nil {
		return err
	}
	if b.Status != treasury.BatchEmployees && b.Status != treasury.BatchAmounts {
		return fmt.Errorf("lines are editable in %s or %s only, batch is %s: %w",
			treasury.BatchEmployees, treasury.BatchAmounts, b.Status, ErrNotReady)
	}
	return w.store.DeleteLine(ctx, batchID, employeeID)
}

// Submit turns a reviewed batch into one pending payment order per line,
// all inside one transaction. Every order carries a content-derived
// submission key, so submitting the same batch twice creates nothing new
// on the second attempt.
func (w *Wizard) Submit(ctx context.Context, id string) (treasury.PayrollBatch, error) {
	b, err := w.store.GetBatch(ctx, id)
	if err != nil {
		return treasury.PayrollBatch{}, err
	}
	if b.Status != treasury.BatchReview && b.Status != treasury.BatchSubmitted {
		return treasury.PayrollBatch{}, fmt.Errorf("submit requires %s, batch is %s: %w",
			treasury.BatchReview, b.Status, ErrNotReady)
	}
	lines, err := w.store.ListLines(ctx, id)
	if err != nil {
		return treasury.PayrollBatch{}, err
	}
	if len(lines) == 0 {
		return treasury.PayrollBatch{}, fmt.Errorf("batch has no lines: %w", ErrNotReady)
	}

	key, err := treasury.PayrollSubmissionKey(b.ID, b.Period, lines)
	if err != nil {
		return treasury.PayrollBatch{}, err
	}
	if b.Status == treasury.BatchSubmitted {
		// A retry of the same submission succeeds without creating
		// anything; anything else on a submitted batch is a conflict.
		if b.SubmissionKey == key {
			return b, nil
		}
		return treasury.PayrollBatch{}, fmt.Errorf("batch already submitted with different contents: %w", ErrNotReady)
	}
	due, err := periodPayDate(b.Period)
	if err != nil {
		return treasury.PayrollBatch{}, err
	}

	orders := make([]treasury.PaymentOrder, 0, len(lines))
	for _, l := range lines {
		amount := l.Amount.Neg()
		ok, err := treasury.OrderSubmissionKey("payroll:"+b.ID, l.EmployeeID, treasury.FormatDate(due), amount)
		if err != nil {
			return treasury.PayrollBatch{}, err
		}
		concept := l.Concept
		if concept == "" {
			concept = fmt.Sprintf("Nómina %s", b.Period)
		}
		orders = append(orders, treasury.PaymentOrder{
			AccountID:     b.AccountID,
			ThirdPartyID:  l.EmployeeID,
			Amount:        amount,
			Concept:       concept,
			Category:      "payroll",
			DueDate:       due,
			Status:        treasury.OrderPending,
			SubmissionKey: ok,
		})
	}
	if err := w.store.SubmitBatch(ctx, id, key, orders); err != nil {
		return treasury.PayrollBatch{}, err
	}
	w.log.Info("payroll batch submitted",
		zap.String("batch", id),
		zap.String("period", b.Period),
		zap.Int("orders", len(orders)))
	b.Status = treasury.BatchSubmitted
	b.SubmissionKey = key
	return b, nil
}

// periodPayDate returns the last day of the batch period, the usual
// Spanish payroll value date.
func periodPayDate(period string) (time.Time, error) {
	t, err := time.Parse("2006-01", period)
	if err != nil {
		return time.Time{}, treasury.ValidationError{Field: "period", Message: "must be YYYY-MM"}
	}
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC), nil
}
