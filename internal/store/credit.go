package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tesoreria/internal/money"
	"tesoreria/internal/treasury"
)

// Credit lines.

func (s *Store) CreateCreditLine(ctx context.Context, cl *treasury.CreditLine) error {
	if err := cl.Validate(); err != nil {
		return err
	}
	if cl.ID == "" {
		cl.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credit_lines (id, name, account_id, limit_cents, drawn_cents, maturity)
		VALUES (?, ?, ?, ?, ?, ?)
	`, cl.ID, cl.Name, cl.AccountID, cl.Limit.Cents(), cl.Drawn.Cents(), fmtDate(cl.Maturity))
	if err != nil {
		return fmt.Errorf("create credit line: %w", err)
	}
	return nil
}

func (s *Store) GetCreditLine(ctx context.Context, id string) (treasury.CreditLine, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, account_id, limit_cents, drawn_cents, maturity
		FROM credit_lines WHERE id = ?
	`, id)
	return scanCreditLine(row)
}

func (s *Store) ListCreditLines(ctx context.Context) ([]treasury.CreditLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, account_id, limit_cents, drawn_cents, maturity
		FROM credit_lines ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list credit lines: %w", err)
	}
	defer rows.Close()

	lines := []treasury.CreditLine{}
	for rows.Next() {
		cl, err := scanCreditLine(rows)
		if err != nil {
			return nil, err
		}
		lines = append(lines, cl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit lines: %w", err)
	}
	return lines, nil
}

func (s *Store) UpdateCreditLine(ctx context.Context, cl treasury.CreditLine) error {
	if err := cl.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE credit_lines
		SET name = ?, account_id = ?, limit_cents = ?, drawn_cents = ?, maturity = ?
		WHERE id = ?
	`, cl.Name, cl.AccountID, cl.Limit.Cents(), cl.Drawn.Cents(), fmtDate(cl.Maturity), cl.ID)
	if err != nil {
		return fmt.Errorf("update credit line: %w", err)
	}
	return requireRow(res, "credit line")
}

func (s *Store) DeleteCreditLine(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM credit_lines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete credit line: %w", err)
	}
	return requireRow(res, "credit line")
}

func scanCreditLine(sc scanner) (treasury.CreditLine, error) {
	var cl treasury.CreditLine
	var limit, drawn int64
	var maturity string
	err := sc.Scan(&cl.ID, &cl.Name, &cl.AccountID, &limit, &drawn, &maturity)
	if errors.Is(err, sql.ErrNoRows) {
		return treasury.CreditLine{}, fmt.Errorf("credit line: %w", ErrNotFound)
	}
	if err != nil {
		return treasury.CreditLine{}, fmt.Errorf("scan credit line: %w", err)
	}
	cl.Limit = money.FromCents(limit)
	cl.Drawn = money.FromCents(drawn)
	if cl.Maturity, err = scanDate(maturity); err != nil {
		return treasury.CreditLine{}, err
	}
	return cl, nil
}

// Credit cards.

func (s *Store) CreateCreditCard(ctx context.Context, cc *treasury.CreditCard) error {
	if err := cc.Validate(); err != nil {
		return err
	}
	if cc.ID == "" {
		cc.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credit_cards
		(id, name, account_id, pan_tail, limit_cents, outstanding_cents, settlement_day)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, cc.ID, cc.Name, cc.AccountID, cc.PANTail, cc.Limit.Cents(), cc.Outstanding.Cents(), cc.SettlementDay)
	if err != nil {
		return fmt.Errorf("create credit card: %w", err)
	}
	return nil
}

func (s *Store) GetCreditCard(ctx context.Context, id string) (treasury.CreditCard, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, account_id, pan_tail, limit_cents, outstanding_cents, settlement_day
		FROM credit_cards WHERE id = ?
	`, id)
	return scanCreditCard(row)
}

func (s *Store) ListCreditCards(ctx context.Context) ([]treasury.CreditCard, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, account_id, pan_tail, limit_cents, outstanding_cents, settlement_day
		FROM credit_cards ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list credit cards: %w", err)
	}
	defer rows.Close()

	cards := []treasury.CreditCard{}
	for rows.Next() {
		cc, err := scanCreditCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credit cards: %w", err)
	}
	return cards, nil
}

func (s *Store) UpdateCreditCard(ctx context.Context, cc treasury.CreditCard) error {
	if err := cc.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE credit_cards
		SET name = ?, account_id = ?, pan_tail = ?, limit_cents = ?, outstanding_cents = ?, settlement_day = ?
		WHERE id = ?
	`, cc.Name, cc.AccountID, cc.PANTail, cc.Limit.Cents(), cc.Outstanding.Cents(), cc.SettlementDay, cc.ID)
	if err != nil {
		return fmt.Errorf("update credit card: %w", err)
	}
	return requireRow(res, "credit card")
}

func (s *Store) DeleteCreditCard(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM credit_cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete credit card: %w", err)
	}
	return requireRow(res, "credit card")
}

func scanCreditCard(sc scanner) (treasury.CreditCard, error) {
	var cc treasury.CreditCard
	var limit, outstanding int64
	err := sc.Scan(&cc.ID, &cc.Name, &cc.AccountID, &cc.PANTail, &limit, &outstanding, &cc.SettlementDay)
	if errors.Is(err, sql.ErrNoRows) {
		return treasury.CreditCard{}, fmt.Errorf("credit card: %w", ErrNotFound)
	}
	if err != nil {
		return treasury.CreditCard{}, fmt.Errorf("scan credit card: %w", err)
	}
	cc.Limit = money.FromCents(limit)
	cc.Outstanding = money.FromCents(outstanding)
	return cc, nil
}
