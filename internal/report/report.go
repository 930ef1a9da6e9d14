// Package report assembles the treasury position: cash per account,
// credit headroom, obligations falling due and budget consumption.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tesoreria/internal/money"
	"tesoreria/internal/store"
	"tesoreria/internal/treasury"
)

// Store is the slice of storage the report reads.
type Store interface {
	ListAccounts(ctx context.Context) ([]treasury.Account, error)
	ListCreditLines(ctx context.Context) ([]treasury.CreditLine, error)
	ListCreditCards(ctx context.Context) ([]treasury.CreditCard, error)
	ListLoans(ctx context.Context) ([]treasury.Loan, error)
	ListOrders(ctx context.Context, f store.OrderFilter) ([]treasury.PaymentOrder, error)
	ListInstances(ctx context.Context, f store.InstanceFilter) ([]treasury.Instance, error)
	GetRecurring(ctx context.Context, id string) (treasury.RecurringTransaction, error)
	ListBudgets(ctx context.Context, year int) ([]treasury.Budget, error)
	SpentByCategory(ctx context.Context, year int) (map[string]money.Money, error)
}

// AccountLine is one account's cash position.
type AccountLine struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Balance money.Money `json:"balance"`
}

// CreditLine is one facility's headroom, covering both credit lines and
// cards.
type CreditLine struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Limit          money.Money `json:"limit"`
	Used           money.Money `json:"used"`
	Available      money.Money `json:"available"`
	UtilizationBps int64       `json:"utilization_bps"`
}

// Obligation is one outflow falling due inside the report horizon.
type Obligation struct {
	Kind        string      `json:"kind"` // order, recurring, loan
	SubjectID   string      `json:"subject_id"`
	Description string      `json:"description"`
	DueDate     time.Time   `json:"due_date"`
	Amount      money.Money `json:"amount"` // negative
}

// BudgetLine is one category's planned-versus-spent for the year.
type BudgetLine struct {
	Category string      `json:"category"`
	Year     int         `json:"year"`
	Planned  money.Money `json:"planned"`
	Spent    money.Money `json:"spent"`
	UsedBps  int64       `json:"used_bps"`
}

// Position is the full treasury snapshot as of a date.
type Position struct {
	AsOf             time.Time     `json:"as_of"`
	HorizonDays      int           `json:"horizon_days"`
	Accounts         []AccountLine `json:"accounts"`
	TotalCash        money.Money   `json:"total_cash"`
	Credit           []CreditLine  `json:"credit"`
	AvailableCredit  money.Money   `json:"available_credit"`
	Obligations      []Obligation  `json:"obligations"`
	TotalObligations money.Money   `json:"total_obligations"`
	Budgets          []BudgetLine  `json:"budgets"`
}

// Build reads the current state and assembles the position as of now,
// looking horizonDays ahead for obligations.
func Build(ctx context.Context, st Store, now time.Time, horizonDays int) (Position, error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	until := day.AddDate(0, 0, horizonDays)
	pos := Position{AsOf: day, HorizonDays: horizonDays}

	accounts, err := st.ListAccounts(ctx)
	if err != nil {
		return Position{}, fmt.Errorf("report: %w", err)
	}
	for _, a := range accounts {
		if !a.Active {
			continue
		}
		pos.Accounts = append(pos.Accounts, AccountLine{ID: a.ID, Name: a.Name, Balance: a.Balance})
		pos.TotalCash = pos.TotalCash.Add(a.Balance)
	}

	lines, err := st.ListCreditLines(ctx)
	if err != nil {
		return Position{}, fmt.Errorf("report: %w", err)
	}
	for _, cl := range lines {
		pos.Credit = append(pos.Credit, CreditLine{
			ID: cl.ID, Name: cl.Name,
			Limit: cl.Limit, Used: cl.Drawn,
			Available:      cl.Available(),
			UtilizationBps: cl.Utilization(),
		})
		pos.AvailableCredit = pos.AvailableCredit.Add(cl.Available())
	}
	cards, err := st.ListCreditCards(ctx)
	if err != nil {
		return Position{}, fmt.Errorf("report: %w", err)
	}
	for _, cc := range cards {
		avail := cc.Limit.Sub(cc.Outstanding)
		util := int64(10000)
		if cc.Limit.Cents() > 0 {
			util = cc.Outstanding.Cents() * 10000 / cc.Limit.Cents()
		}
		pos.Credit = append(pos.Credit, CreditLine{
			ID: cc.ID, Name: fmt.Sprintf("%s (·%s)", cc.Name, cc.PANTail),
			Limit: cc.Limit, Used: cc.Outstanding,
			Available:      avail,
			UtilizationBps: util,
		})
		pos.AvailableCredit = pos.AvailableCredit.Add(avail)
	}

	if err := addObligations(ctx, st, &pos, day, until); err != nil {
		return Position{}, fmt.Errorf("report: %w", err)
	}

	budgets, err := st.ListBudgets(ctx, day.Year())
	if err != nil {
		return Position{}, fmt.Errorf("report: %w", err)
	}
	spent, err := st.SpentByCategory(ctx, day.Year())
	if err != nil {
		return Position{}, fmt.Errorf("report: %w", err)
	}
	for _, b := range budgets {
		used := spent[b.Category]
		bps := int64(0)
		if b.Planned.Cents() > 0 {
			bps = used.Cents() * 10000 / b.Planned.Cents()
		} else if !used.IsZero() {
			bps = 10000
		}
		pos.Budgets = append(pos.Budgets, BudgetLine{
			Category: b.Category, Year: b.Year,
			Planned: b.Planned, Spent: used, UsedBps: bps,
		})
	}
	return pos, nil
}

func addObligations(ctx context.Context, st Store, pos *Position, day, until time.Time) error {
	orders, err := st.ListOrders(ctx, store.OrderFilter{Status: treasury.OrderPending, To: until})
	if err != nil {
		return err
	}
	for _, o := range orders {
		if !o.Amount.IsNegative() {
			continue
		}
		pos.Obligations = append(pos.Obligations, Obligation{
			Kind: "order", SubjectID: o.ID,
			Description: o.Concept, DueDate: o.DueDate, Amount: o.Amount,
		})
	}

	insts, err := st.ListInstances(ctx, store.InstanceFilter{Status: treasury.InstancePending, To: until})
	if err != nil {
		return err
	}
	names := map[string]string{}
	for _, i := range insts {
		if !i.Amount.IsNegative() {
			continue
		}
		name, ok := names[i.RecurringID]
		if !ok {
			rec, err := st.GetRecurring(ctx, i.RecurringID)
			if err != nil {
				return err
			}
			name = rec.Name
			names[i.RecurringID] = name
		}
		pos.Obligations = append(pos.Obligations, Obligation{
			Kind: "recurring", SubjectID: i.ID,
			Description: name, DueDate: i.DueDate, Amount: i.Amount,
		})
	}

	loans, err := st.ListLoans(ctx)
	if err != nil {
		return err
	}
	for _, l := range loans {
		if l.Outstanding.IsZero() {
			continue
		}
		next := l.NextPayment(day)
		if next.After(until) {
			continue
		}
		pos.Obligations = append(pos.Obligations, Obligation{
			Kind: "loan", SubjectID: l.ID,
			Description: l.Name, DueDate: next, Amount: l.MonthlyPayment.Neg(),
		})
	}

	sort.Slice(pos.Obligations, func(i, j int) bool {
		a, b := pos.Obligations[i], pos.Obligations[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		return a.SubjectID < b.SubjectID
	})
	for _, o := range pos.Obligations {
		pos.TotalObligations = pos.TotalObligations.Add(o.Amount)
	}
	return nil
}
