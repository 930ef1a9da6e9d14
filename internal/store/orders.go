package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tesoreria/internal/money"
	"tesoreria/internal/treasury"
)

// CreateOrder inserts a payment order. Orders carrying a submission key
// are idempotent: a duplicate key is silently ignored and the stored
// order's ID is reported back through o.ID.
func (s *Store) CreateOrder(ctx context.Context, o *treasury.PaymentOrder) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.ID == "" {
		o.ID = newID()
	}
	if o.Status == "" {
		o.Status = treasury.OrderPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = nowUTC()
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return insertOrder(ctx, tx, o)
	})
}

// insertOrder does the idempotent insert inside an open transaction.
// Callers may leave the ID empty; the key lookup below replaces it with
// the stored one when the submission key already exists.
func insertOrder(ctx context.Context, tx *sql.Tx, o *treasury.PaymentOrder) error {
	if o.ID == "" {
		o.ID = newID()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = nowUTC()
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO payment_orders
		(id, account_id, third_party_id, amount_cents, concept, category,
		 due_date, status, submission_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(submission_key) WHERE submission_key != '' DO NOTHING
	`, o.ID, o.AccountID, o.ThirdPartyID, o.Amount.Cents(), o.Concept, o.Category,
		fmtDate(o.DueDate), string(o.Status), o.SubmissionKey, fmtTime(o.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	if o.SubmissionKey == "" {
		return nil
	}
	// The insert may have been a no-op; surface the stored ID either way.
	var id string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM payment_orders WHERE submission_key = ?
	`, o.SubmissionKey).Scan(&id)
	if err != nil {
		return fmt.Errorf("lookup order by submission key: %w", err)
	}
	o.ID = id
	return nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (treasury.PaymentOrder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, third_party_id, amount_cents, concept, category,
		       due_date, status, submission_key, created_at
		FROM payment_orders WHERE id = ?
	`, id)
	return scanOrder(row)
}

// ListOrders returns orders matching the filter, ordered by due date then id.
func (s *Store) ListOrders(ctx context.Context, f OrderFilter) ([]treasury.PaymentOrder, error) {
	w := f.compile()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, third_party_id, amount_cents, concept, category,
		       due_date, status, submission_key, created_at
		FROM payment_orders`+w.sql()+`
		ORDER BY due_date ASC, id ASC
	`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []treasury.PaymentOrder{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

// UpdateOrder rewrites a pending order's editable fields. Confirmed and
// rejected orders are immutable.
func (s *Store) UpdateOrder(ctx context.Context, o treasury.PaymentOrder) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		status, err := orderStatus(ctx, tx, o.ID)
		if err != nil {
			return err
		}
		if status != treasury.OrderPending {
			return fmt.Errorf("order is %s: %w", status, ErrConflict)
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE payment_orders
			SET account_id = ?, third_party_id = ?, amount_cents = ?, concept = ?,
			    category = ?, due_date = ?
			WHERE id = ?
		`, o.AccountID, o.ThirdPartyID, o.Amount.Cents(), o.Concept, o.Category,
			fmtDate(o.DueDate), o.ID)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		return nil
	})
}

// ConfirmOrder marks a pending order confirmed and applies its amount to
// the account balance, atomically.
func (s *Store) ConfirmOrder(ctx context.Context, id string) (treasury.PaymentOrder, error) {
	var out treasury.PaymentOrder
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		o, err := getOrderTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if o.Status != treasury.OrderPending {
			return fmt.Errorf("order is %s: %w", o.Status, ErrConflict)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE payment_orders SET status = ? WHERE id = ?
		`, string(treasury.OrderConfirmed), id); err != nil {
			return fmt.Errorf("confirm order: %w", err)
		}
		if err := adjustBalance(ctx, tx, o.AccountID, o.Amount); err != nil {
			return err
		}
		o.Status = treasury.OrderConfirmed
		out = o
		return nil
	})
	return out, err
}

// RejectOrder marks a pending order rejected. No balance movement.
func (s *Store) RejectOrder(ctx context.Context, id string) (treasury.PaymentOrder, error) {
	var out treasury.PaymentOrder
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		o, err := getOrderTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if o.Status != treasury.OrderPending {
			return fmt.Errorf("order is %s: %w", o.Status, ErrConflict)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE payment_orders SET status = ? WHERE id = ?
		`, string(treasury.OrderRejected), id); err != nil {
			return fmt.Errorf("reject order: %w", err)
		}
		o.Status = treasury.OrderRejected
		out = o
		return nil
	})
	return out, err
}

// DeleteOrder removes a pending order.
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		status, err := orderStatus(ctx, tx, id)
		if err != nil {
			return err
		}
		if status != treasury.OrderPending {
			return fmt.Errorf("order is %s: %w", status, ErrConflict)
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM payment_orders WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete order: %w", err)
		}
		return nil
	})
}

func orderStatus(ctx context.Context, tx *sql.Tx, id string) (treasury.OrderStatus, error) {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM payment_orders WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("order: %w", ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get order status: %w", err)
	}
	return treasury.OrderStatus(status), nil
}

func getOrderTx(ctx context.Context, tx *sql.Tx, id string) (treasury.PaymentOrder, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT id, account_id, third_party_id, amount_cents, concept, category,
		       due_date, status, submission_key, created_at
		FROM payment_orders WHERE id = ?
	`, id)
	return scanOrder(row)
}

func scanOrder(sc scanner) (treasury.PaymentOrder, error) {
	var o treasury.PaymentOrder
	var amount int64
	var due, status, created string
	err := sc.Scan(&o.ID, &o.AccountID, &o.ThirdPartyID, &amount, &o.Concept, &o.Category,
		&due, &status, &o.SubmissionKey, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return treasury.PaymentOrder{}, fmt.Errorf("order: %w", ErrNotFound)
	}
	if err != nil {
		return treasury.PaymentOrder{}, fmt.Errorf("scan order: %w", err)
	}
	o.Amount = money.FromCents(amount)
	o.Status = treasury.OrderStatus(status)
	if o.DueDate, err = scanDate(due); err != nil {
		return treasury.PaymentOrder{}, err
	}
	if o.CreatedAt, err = scanTime(created); err != nil {
		return treasury.PaymentOrder{}, err
	}
	return o, nil
}
