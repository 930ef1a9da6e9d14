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

// CreateRecurring inserts the head record and its first version in one
// transaction. The version must be 1.
func (s *Store) CreateRecurring(ctx context.Context, r *treasury.RecurringTransaction, v treasury.RecurringVersion) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = newID()
	}
	v.RecurringID = r.ID
	if v.Version == 0 {
		v.Version = 1
	}
	if v.Version != 1 {
		return fmt.Errorf("first version must be 1, got %d: %w", v.Version, ErrConflict)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO recurring (id, name, account_id, third_party_id, category, active)
			VALUES (?, ?, ?, ?, ?, ?)
		`, r.ID, r.Name, r.AccountID, r.ThirdPartyID, r.Category, boolToInt(r.Active))
		if err != nil {
			return fmt.Errorf("create recurring: %w", err)
		}
		return insertVersion(ctx, tx, v)
	})
}

func (s *Store) GetRecurring(ctx context.Context, id string) (treasury.RecurringTransaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, account_id, third_party_id, category, active
		FROM recurring WHERE id = ?
	`, id)
	return scanRecurring(row)
}

// ListRecurring returns recurring transactions, optionally only active
// ones, ordered by name.
func (s *Store) ListRecurring(ctx context.Context, activeOnly bool) ([]treasury.RecurringTransaction, error) {
	query := `
		SELECT id, name, account_id, third_party_id, category, active
		FROM recurring`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list recurring: %w", err)
	}
	defer rows.Close()

	recs := []treasury.RecurringTransaction{}
	for rows.Next() {
		r, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recurring: %w", err)
	}
	return recs, nil
}

// UpdateRecurring rewrites head fields (name, links, category, active).
// Amount and schedule changes go through AddRecurringVersion.
func (s *Store) UpdateRecurring(ctx context.Context, r treasury.RecurringTransaction) error {
	if err := r.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE recurring SET name = ?, account_id = ?, third_party_id = ?, category = ?, active = ?
		WHERE id = ?
	`, r.Name, r.AccountID, r.ThirdPartyID, r.Category, boolToInt(r.Active), r.ID)
	if err != nil {
		return fmt.Errorf("update recurring: %w", err)
	}
	return requireRow(res, "recurring transaction")
}

// AddRecurringVersion appends a new version and removes the pending
// instances the new version supersedes (due date >= EffectiveFrom).
// Settled instances are never touched. The version number is assigned
// here: latest + 1.
func (s *Store) AddRecurringVersion(ctx context.Context, v treasury.RecurringVersion) (treasury.RecurringVersion, error) {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var latest int64
		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(version), 0) FROM recurring_versions WHERE recurring_id = ?
		`, v.RecurringID).Scan(&latest)
		if err != nil {
			return fmt.Errorf("latest version: %w", err)
		}
		if latest == 0 {
			return fmt.Errorf("recurring transaction: %w", ErrNotFound)
		}
		v.Version = latest + 1
		if err := v.Validate(); err != nil {
			return err
		}
		if err := insertVersion(ctx, tx, v); err != nil {
			return err
		}
		// Pending instances from the effective date onward will be
		// regenerated under the new version.
		_, err = tx.ExecContext(ctx, `
			DELETE FROM instances
			WHERE recurring_id = ? AND status = 'pending' AND due_date >= ?
		`, v.RecurringID, fmtDate(v.EffectiveFrom))
		if err != nil {
			return fmt.Errorf("drop superseded instances: %w", err)
		}
		return nil
	})
	return v, err
}

func insertVersion(ctx context.Context, tx *sql.Tx, v treasury.RecurringVersion) error {
	end := ""
	if v.Schedule.EndDate != nil {
		end = fmtDate(*v.Schedule.EndDate)
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO recurring_versions
		(recurring_id, version, amount_cents, frequency, interval, anchor_day,
		 end_date, max_occurrences, effective_from)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, v.RecurringID, v.Version, v.Amount.Cents(), string(v.Schedule.Frequency),
		v.Schedule.Interval, v.Schedule.AnchorDay, end, v.Schedule.MaxOccurrences,
		fmtDate(v.EffectiveFrom))
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

// ListVersions returns all versions of a recurring transaction in
// ascending version order.
func (s *Store) ListVersions(ctx context.Context, recurringID string) ([]treasury.RecurringVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT recurring_id, version, amount_cents, frequency, interval, anchor_day,
		       end_date, max_occurrences, effective_from
		FROM recurring_versions WHERE recurring_id = ?
		ORDER BY version ASC
	`, recurringID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	versions := []treasury.RecurringVersion{}
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return versions, nil
}

// InsertInstance materializes one occurrence. Identity is
// (recurring_id, due_date): re-generating the same window is a no-op,
// and an instance already settled under an older version survives.
// Returns true when a row was actually created.
func (s *Store) InsertInstance(ctx context.Context, inst *treasury.Instance) (bool, error) {
	if inst.ID == "" {
		inst.ID = newID()
	}
	if inst.Status == "" {
		inst.Status = treasury.InstancePending
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO instances (id, recurring_id, version, due_date, amount_cents, status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(recurring_id, due_date) DO NOTHING
	`, inst.ID, inst.RecurringID, inst.Version, fmtDate(inst.DueDate),
		inst.Amount.Cents(), string(inst.Status))
	if err != nil {
		return false, fmt.Errorf("insert instance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListInstances returns instances matching the filter, ordered by due
// date then id.
func (s *Store) ListInstances(ctx context.Context, f InstanceFilter) ([]treasury.Instance, error) {
	w := f.compile()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recurring_id, version, due_date, amount_cents, status
		FROM instances`+w.sql()+`
		ORDER BY due_date ASC, id ASC
	`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	insts := []treasury.Instance{}
	for rows.Next() {
		i, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		insts = append(insts, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return insts, nil
}

// LastDueDate returns the latest materialized due date for a recurring
// transaction, or the zero time if none exist.
func (s *Store) LastDueDate(ctx context.Context, recurringID string) (time.Time, error) {
	var due sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(due_date) FROM instances WHERE recurring_id = ?
	`, recurringID).Scan(&due)
	if err != nil {
		return time.Time{}, fmt.Errorf("last due date: %w", err)
	}
	if !due.Valid {
		return time.Time{}, nil
	}
	return scanDate(due.String)
}

// ConfirmInstance settles a pending instance and applies its amount to
// the recurring transaction's account, atomically.
func (s *Store) ConfirmInstance(ctx context.Context, id string) (treasury.Instance, error) {
	return s.settleInstance(ctx, id, treasury.InstanceConfirmed, true)
}

// SkipInstance settles a pending instance without moving money.
func (s *Store) SkipInstance(ctx context.Context, id string) (treasury.Instance, error) {
	return s.settleInstance(ctx, id, treasury.InstanceSkipped, false)
}

func (s *Store) settleInstance(ctx context.Context, id string, to treasury.InstanceStatus, move bool) (treasury.Instance, error) {
	var out treasury.Instance
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT id, recurring_id, version, due_date, amount_cents, status
			FROM instances WHERE id = ?
		`, id)
		inst, err := scanInstance(row)
		if err != nil {
			return err
		}
		if inst.Settled() {
			return fmt.Errorf("instance is %s: %w", inst.Status, ErrConflict)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE instances SET status = ? WHERE id = ?
		`, string(to), id); err != nil {
			return fmt.Errorf("settle instance: %w", err)
		}
		if move {
			var accountID string
			err := tx.QueryRowContext(ctx, `
				SELECT account_id FROM recurring WHERE id = ?
			`, inst.RecurringID).Scan(&accountID)
			if err != nil {
				return fmt.Errorf("instance account: %w", err)
			}
			if err := adjustBalance(ctx, tx, accountID, inst.Amount); err != nil {
				return err
			}
		}
		inst.Status = to
		out = inst
		return nil
	})
	return out, err
}

func scanRecurring(sc scanner) (treasury.RecurringTransaction, error) {
	var r treasury.RecurringTransaction
	var active int
	err := sc.Scan(&r.ID, &r.Name, &r.AccountID, &r.ThirdPartyID, &r.Category, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return treasury.RecurringTransaction{}, fmt.Errorf("recurring transaction: %w", ErrNotFound)
	}
	if err != nil {
		return treasury.RecurringTransaction{}, fmt.Errorf("scan recurring: %w", err)
	}
	r.Active = active != 0
	return r, nil
}

func scanVersion(sc scanner) (treasury.RecurringVersion, error) {
	var v treasury.RecurringVersion
	var amount int64
	var freq, end, from string
	err := sc.Scan(&v.RecurringID, &v.Version, &amount, &freq, &v.Schedule.Interval,
		&v.Schedule.AnchorDay, &end, &v.Schedule.MaxOccurrences, &from)
	if errors.Is(err, sql.ErrNoRows) {
		return treasury.RecurringVersion{}, fmt.Errorf("recurring version: %w", ErrNotFound)
	}
	if err != nil {
		return treasury.RecurringVersion{}, fmt.Errorf("scan version: %w", err)
	}
	v.Amount = money.FromCents(amount)
	v.Schedule.Frequency = treasury.Frequency(freq)
	if end != "" {
		t, err := scanDate(end)
		if err != nil {
			return treasury.RecurringVersion{}, err
		}
		v.Schedule.EndDate = &t
	}
	if v.EffectiveFrom, err = scanDate(from); err != nil {
		return treasury.RecurringVersion{}, err
	}
	return v, nil
}

func scanInstance(sc scanner) (treasury.Instance, error) {
	var i treasury.Instance
	var amount int64
	var due, status string
	err := sc.Scan(&i.ID, &i.RecurringID, &i.Version, &due, &amount, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return treasury.Instance{}, fmt.Errorf("instance: %w", ErrNotFound)
	}
	if err != nil {
		return treasury.Instance{}, fmt.Errorf("scan instance: %w", err)
	}
	i.Amount = money.FromCents(amount)
	i.Status = treasury.InstanceStatus(status)
	if i.DueDate, err = scanDate(due); err != nil {
		return treasury.Instance{}, err
	}
	return i, nil
}
