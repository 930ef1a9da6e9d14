package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tesoreria/internal/treasury"
)

func (s *Store) CreateThirdParty(ctx context.Context, p *treasury.ThirdParty) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO third_parties (id, name, tax_id, kind, iban, default_category)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.TaxID, string(p.Kind), p.IBAN, p.DefaultCategory)
	if err != nil {
		return fmt.Errorf("create third party: %w", err)
	}
	return nil
}

func (s *Store) GetThirdParty(ctx context.Context, id string) (treasury.ThirdParty, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, tax_id, kind, iban, default_category
		FROM third_parties WHERE id = ?
	`, id)
	return scanThirdParty(row)
}

// ListThirdParties returns parties ordered by name, optionally filtered
// by kind ("" = all).
func (s *Store) ListThirdParties(ctx context.Context, kind treasury.PartyKind) ([]treasury.ThirdParty, error) {
	query := `
		SELECT id, name, tax_id, kind, iban, default_category
		FROM third_parties`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list third parties: %w", err)
	}
	defer rows.Close()

	parties := []treasury.ThirdParty{}
	for rows.Next() {
		p, err := scanThirdParty(rows)
		if err != nil {
			return nil, err
		}
		parties = append(parties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate third parties: %w", err)
	}
	return parties, nil
}

func (s *Store) UpdateThirdParty(ctx context.Context, p treasury.ThirdParty) error {
	if err := p.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE third_parties
		SET name = ?, tax_id = ?, kind = ?, iban = ?, default_category = ?
		WHERE id = ?
	`, p.Name, p.TaxID, string(p.Kind), p.IBAN, p.DefaultCategory, p.ID)
	if err != nil {
		return fmt.Errorf("update third party: %w", err)
	}
	return requireRow(res, "third party")
}

func (s *Store) DeleteThirdParty(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM third_parties WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete third party: %w", err)
	}
	return requireRow(res, "third party")
}

func scanThirdParty(sc scanner) (treasury.ThirdParty, error) {
	var p treasury.ThirdParty
	var kind string
	err := sc.Scan(&p.ID, &p.Name, &p.TaxID, &kind, &p.IBAN, &p.DefaultCategory)
	if errors.Is(err, sql.ErrNoRows) {
		return treasury.ThirdParty{}, fmt.Errorf("third party: %w", ErrNotFound)
	}
	if err != nil {
		return treasury.ThirdParty{}, fmt.Errorf("scan third party: %w", err)
	}
	p.Kind = treasury.PartyKind(kind)
	return p, nil
}
