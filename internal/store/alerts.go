package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tesoreria/internal/treasury"
)

// InsertAlert records a fired alert. Identity is (rule, subject, day):
// re-scanning within the same day is a no-op. Returns true when the
// alert was actually new.
func (s *Store) InsertAlert(ctx context.Context, a *treasury.Alert) (bool, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, rule_id, subject_id, severity, message, fired_on, ack)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(rule_id, subject_id, fired_on) DO NOTHING
	`, a.ID, a.RuleID, a.SubjectID, string(a.Severity), a.Message, fmtDate(a.FiredOn))
	if err != nil {
		return false, fmt.Errorf("insert alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListAlerts returns alerts newest first, optionally only unacknowledged.
func (s *Store) ListAlerts(ctx context.Context, unackedOnly bool) ([]treasury.Alert, error) {
	query := `
		SELECT id, rule_id, subject_id, severity, message, fired_on, ack
		FROM alerts`
	if unackedOnly {
		query += ` WHERE ack = 0`
	}
	query += ` ORDER BY fired_on DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	alerts := []treasury.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return alerts, nil
}

// AckAlert marks an alert acknowledged.
func (s *Store) AckAlert(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE alerts SET ack = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("ack alert: %w", err)
	}
	return requireRow(res, "alert")
}

func scanAlert(sc scanner) (treasury.Alert, error) {
	var a treasury.Alert
	var severity, firedOn string
	var ack int
	err := sc.Scan(&a.ID, &a.RuleID, &a.SubjectID, &severity, &a.Message, &firedOn, &ack)
	if errors.Is(err, sql.ErrNoRows) {
		return treasury.Alert{}, fmt.Errorf("alert: %w", ErrNotFound)
	}
	if err != nil {
		return treasury.Alert{}, fmt.Errorf("scan alert: %w", err)
	}
	a.Severity = treasury.Severity(severity)
	a.Ack = ack != 0
	if a.FiredOn, err = scanDate(firedOn); err != nil {
		return treasury.Alert{}, err
	}
	return a, nil
}
