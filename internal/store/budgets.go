package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tesoreria/internal/money"
	"tesoreria/internal/treasury"
)

func (s *Store) CreateBudget(ctx context.Context, b *treasury.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.ID == "" {
		b.ID = newID()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (id, category, year, planned_cents)
		VALUES (?, ?, ?, ?)
	`, b.ID, b.Category, b.Year, b.Planned.Cents())
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, id string) (treasury.Budget, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, category, year, planned_cents FROM budgets WHERE id = ?
	`, id)
	return scanBudget(row)
}

// ListBudgets returns budgets for a year (0 = all), ordered by category.
func (s *Store) ListBudgets(ctx context.Context, year int) ([]treasury.Budget, error) {
	query := `SELECT id, category, year, planned_cents FROM budgets`
	args := []any{}
	if year != 0 {
		query += ` WHERE year = ?`
		args = append(args, year)
	}
	query += ` ORDER BY year ASC, category ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []treasury.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}

func (s *Store) UpdateBudget(ctx context.Context, b treasury.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE budgets SET category = ?, year = ?, planned_cents = ? WHERE id = ?
	`, b.Category, b.Year, b.Planned.Cents(), b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res, "budget")
}

func (s *Store) DeleteBudget(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res, "budget")
}

// SpentByCategory sums confirmed outflows per category for a year:
// confirmed payment orders plus confirmed recurring instances (through
// their head's category). Amounts are returned as positive spend.
func (s *Store) SpentByCategory(ctx context.Context, year int) (map[string]money.Money, error) {
	spent := map[string]money.Money{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, SUM(amount_cents)
		FROM payment_orders
		WHERE status = 'confirmed' AND category != ''
		  AND due_date >= ? AND due_date <= ?
		GROUP BY category
	`, fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year))
	if err != nil {
		return nil, fmt.Errorf("spent by category (orders): %w", err)
	}
	if err := sumCategories(rows, spent); err != nil {
		return nil, err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT r.category, SUM(i.amount_cents)
		FROM instances i JOIN recurring r ON r.id = i.recurring_id
		WHERE i.status = 'confirmed' AND r.category != ''
		  AND i.due_date >= ? AND i.due_date <= ?
		GROUP BY r.category
	`, fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year))
	if err != nil {
		return nil, fmt.Errorf("spent by category (instances): %w", err)
	}
	if err := sumCategories(rows, spent); err != nil {
		return nil, err
	}
	return spent, nil
}

// sumCategories folds (category, sum) rows into the map. Negative sums
// are outflows and recorded as positive spend; net inflow categories
// count as zero spend.
func sumCategories(rows *sql.Rows, spent map[string]money.Money) error {
	defer rows.Close()
	for rows.Next() {
		var category string
		var cents int64
		if err := rows.Scan(&category, &cents); err != nil {
			return fmt.Errorf("scan category sum: %w", err)
		}
		if cents < 0 {
			spent[category] = spent[category].Add(money.FromCents(-cents))
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate category sums: %w", err)
	}
	return nil
}

func scanBudget(sc scanner) (treasury.Budget, error) {
	var b treasury.Budget
	var planned int64
	err := sc.Scan(&b.ID, &b.Category, &b.Year, &planned)
	if errors.Is(err, sql.ErrNoRows) {
		return treasury.Budget{}, fmt.Errorf("budget: %w", ErrNotFound)
	}
	if err != nil {
		return treasury.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	b.Planned = money.FromCents(planned)
	return b, nil
}
