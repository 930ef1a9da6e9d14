package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tesoreria/internal/money"
	"tesoreria/internal/treasury"
)

// CreateAccount inserts a new account, assigning an ID when empty.
func (s *Store) CreateAccount(ctx context.Context, acc *treasury.Account) error {
	if err := acc.Validate(); err != nil {
		return err
	}
	if acc.ID == "" {
		acc.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, bank, iban, balance, currency, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, acc.ID, acc.Name, acc.Bank, acc.IBAN, acc.Balance.Cents(), acc.Currency, boolToInt(acc.Active))
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetAccount returns the account with the given id, or ErrNotFound.
func (s *Store) GetAccount(ctx context.Context, id string) (treasury.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, bank, iban, balance, currency, active
		FROM accounts WHERE id = ?
	`, id)
	return scanAccount(row)
}

// ListAccounts returns all accounts ordered by name then id.
func (s *Store) ListAccounts(ctx context.Context) ([]treasury.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, bank, iban, balance, currency, active
		FROM accounts ORDER BY name ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := []treasury.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// UpdateAccount rewrites a stored account. The balance is NOT updated
// here; balances only move through settlement transactions.
func (s *Store) UpdateAccount(ctx context.Context, acc treasury.Account) error {
	if err := acc.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET name = ?, bank = ?, iban = ?, currency = ?, active = ?
		WHERE id = ?
	`, acc.Name, acc.Bank, acc.IBAN, acc.Currency, boolToInt(acc.Active), acc.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res, "account")
}

// DeleteAccount removes an account. Accounts referenced by other records
// are protected by foreign keys.
func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireRow(res, "account")
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(sc scanner) (treasury.Account, error) {
	var acc treasury.Account
	var balance int64
	var active int
	err := sc.Scan(&acc.ID, &acc.Name, &acc.Bank, &acc.IBAN, &balance, &acc.Currency, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return treasury.Account{}, fmt.Errorf("account: %w", ErrNotFound)
	}
	if err != nil {
		return treasury.Account{}, fmt.Errorf("scan account: %w", err)
	}
	acc.Balance = money.FromCents(balance)
	acc.Active = active != 0
	return acc, nil
}

// adjustBalance moves an account balance inside an open transaction.
func adjustBalance(ctx context.Context, tx *sql.Tx, accountID string, delta money.Money) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts SET balance = balance + ? WHERE id = ?
	`, delta.Cents(), accountID)
	if err != nil {
		return fmt.Errorf("adjust balance: %w", err)
	}
	return requireRow(res, "account")
}

// requireRow converts a zero-rows-affected result into ErrNotFound.
func requireRow(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return nil
}
