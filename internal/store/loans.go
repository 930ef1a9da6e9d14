package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tesoreria/internal/money"
	"tesoreria/internal/treasury"
)

func (s *Store) CreateLoan(ctx context.Context, l *treasury.Loan) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loans
		(id, name, account_id, principal_cents, outstanding_cents, rate_bps,
		 monthly_payment_cents, payment_day, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.ID, l.Name, l.AccountID, l.Principal.Cents(), l.Outstanding.Cents(), l.RateBps,
		l.MonthlyPayment.Cents(), l.PaymentDay, fmtDate(l.Start), fmtDate(l.End))
	if err != nil {
		return fmt.Errorf("create loan: %w", err)
	}
	return nil
}

func (s *Store) GetLoan(ctx context.Context, id string) (treasury.Loan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, account_id, principal_cents, outstanding_cents, rate_bps,
		       monthly_payment_cents, payment_day, start_date, end_date
		FROM loans WHERE id = ?
	`, id)
	return scanLoan(row)
}

func (s *Store) ListLoans(ctx context.Context) ([]treasury.Loan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, account_id, principal_cents, outstanding_cents, rate_bps,
		       monthly_payment_cents, payment_day, start_date, end_date
		FROM loans ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	loans := []treasury.Loan{}
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate loans: %w", err)
	}
	return loans, nil
}

// ListLoansDueWithin returns loans whose next payment falls on or before
// now+days, ordered by name. Used by the alert scanner.
func (s *Store) ListLoansDueWithin(ctx context.Context, now time.Time, days int) ([]treasury.Loan, error) {
	loans, err := s.ListLoans(ctx)
	if err != nil {
		return nil, err
	}
	horizon := now.AddDate(0, 0, days)
	due := []treasury.Loan{}
	for _, l := range loans {
		if !l.End.IsZero() && l.End.Before(now) {
			continue
		}
		if !l.NextPayment(now).After(horizon) {
			due = append(due, l)
		}
	}
	return due, nil
}

func (s *Store) UpdateLoan(ctx context.Context, l treasury.Loan) error {
	if err := l.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE loans
		SET name = ?, account_id = ?, principal_cents = ?, outstanding_cents = ?,
		    rate_bps = ?, monthly_payment_cents = ?, payment_day = ?, start_date = ?, end_date = ?
		WHERE id = ?
	`, l.Name, l.AccountID, l.Principal.Cents(), l.Outstanding.Cents(), l.RateBps,
		l.MonthlyPayment.Cents(), l.PaymentDay, fmtDate(l.Start), fmtDate(l.End), l.ID)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	return requireRow(res, "loan")
}

func (s *Store) DeleteLoan(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM loans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	return requireRow(res, "loan")
}

func scanLoan(sc scanner) (treasury.Loan, error) {
	var l treasury.Loan
	var principal, outstanding, payment int64
	var start, end string
	err := sc.Scan(&l.ID, &l.Name, &l.AccountID, &principal, &outstanding, &l.RateBps,
		&payment, &l.PaymentDay, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return treasury.Loan{}, fmt.Errorf("loan: %w", ErrNotFound)
	}
	if err != nil {
		return treasury.Loan{}, fmt.Errorf("scan loan: %w", err)
	}
	l.Principal = money.FromCents(principal)
	l.Outstanding = money.FromCents(outstanding)
	l.MonthlyPayment = money.FromCents(payment)
	if l.Start, err = scanDate(start); err != nil {
		return treasury.Loan{}, err
	}
	if l.End, err = scanDate(end); err != nil {
		return treasury.Loan{}, err
	}
	return l, nil
}
