package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tesoreria/internal/money"
	"tesoreria/internal/treasury"
)

func (s *Store) CreateBatch(ctx context.Context, b *treasury.PayrollBatch) error {
	if b.Status == "" {
		b.Status = treasury.BatchDraft
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = newID()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = nowUTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_batches (id, name, period, account_id, status, submission_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Name, b.Period, b.AccountID, string(b.Status), b.SubmissionKey, fmtTime(b.CreatedAt))
	if err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

func (s *Store) GetBatch(ctx context.Context, id string) (treasury.PayrollBatch, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, period, account_id, status, submission_key, created_at
		FROM payroll_batches WHERE id = ?
	`, id)
	return scanBatch(row)
}

// ListBatches returns batches newest first (UUIDv7 ids are time-ordered).
func (s *Store) ListBatches(ctx context.Context) ([]treasury.PayrollBatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, period, account_id, status, submission_key, created_at
		FROM payroll_batches ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	batches := []treasury.PayrollBatch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return batches, nil
}

// TransitionBatch moves a batch from one wizard state to another. The
// expected source state guards against concurrent transitions: a batch
// that moved on since it was read yields ErrConflict.
func (s *Store) TransitionBatch(ctx context.Context, id string, from, to treasury.BatchStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE payroll_batches SET status = ? WHERE id = ? AND status = ?
	`, string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("transition batch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Distinguish missing batch from wrong state.
		if _, err := s.GetBatch(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("batch not in state %s: %w", from, ErrConflict)
	}
	return nil
}

// UpsertLine adds or replaces an employee's line in a batch.
func (s *Store) UpsertLine(ctx context.Context, l *treasury.PayrollLine) error {
	if err := l.Validate(); err != nil {
		return err
	}
	if l.ID == "" {
		l.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_lines (id, batch_id, employee_id, amount_cents, concept)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(batch_id, employee_id) DO UPDATE SET
			amount_cents = excluded.amount_cents,
			concept = excluded.concept
	`, l.ID, l.BatchID, l.EmployeeID, l.Amount.Cents(), l.Concept)
	if err != nil {
		return fmt.Errorf("upsert line: %w", err)
	}
	return nil
}

func (s *Store) DeleteLine(ctx context.Context, batchID, employeeID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM payroll_lines WHERE batch_id = ? AND employee_id = ?
	`, batchID, employeeID)
	if err != nil {
		return fmt.Errorf("delete line: %w", err)
	}
	return requireRow(res, "payroll line")
}

// ListLines returns a batch's lines ordered by employee id, the same
// order the submission key is computed in.
func (s *Store) ListLines(ctx context.Context, batchID string) ([]treasury.PayrollLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, employee_id, amount_cents, concept
		FROM payroll_lines WHERE batch_id = ?
		ORDER BY employee_id ASC
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	defer rows.Close()

	lines := []treasury.PayrollLine{}
	for rows.Next() {
		var l treasury.PayrollLine
		var amount int64
		if err := rows.Scan(&l.ID, &l.BatchID, &l.EmployeeID, &amount, &l.Concept); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		l.Amount = money.FromCents(amount)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lines: %w", err)
	}
	return lines, nil
}

// SubmitBatch atomically marks a reviewed batch submitted and creates one
// pending payment order per line. The orders carry submission keys
// derived from the batch content, so a second submit of the same batch
// creates nothing new.
func (s *Store) SubmitBatch(ctx context.Context, id string, key string, orders []treasury.PaymentOrder) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE payroll_batches SET status = ?, submission_key = ?
			WHERE id = ? AND status = ?
		`, string(treasury.BatchSubmitted), key, id, string(treasury.BatchReview))
		if err != nil {
			return fmt.Errorf("submit batch: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("batch not in state %s: %w", treasury.BatchReview, ErrConflict)
		}
		for i := range orders {
			if err := insertOrder(ctx, tx, &orders[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func scanBatch(sc scanner) (treasury.PayrollBatch, error) {
	var b treasury.PayrollBatch
	var status, created string
	err := sc.Scan(&b.ID, &b.Name, &b.Period, &b.AccountID, &status, &b.SubmissionKey, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return treasury.PayrollBatch{}, fmt.Errorf("batch: %w", ErrNotFound)
	}
	if err != nil {
		return treasury.PayrollBatch{}, fmt.Errorf("scan batch: %w", err)
	}
	b.Status = treasury.BatchStatus(status)
	if b.CreatedAt, err = scanTime(created); err != nil {
		return treasury.PayrollBatch{}, err
	}
	return b, nil
}
