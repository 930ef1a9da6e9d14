package alert

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tesoreria/internal/money"
	"tesoreria/internal/treasury"
)

// Store is the slice of storage the scanner reads and writes.
type Store interface {
	ListAccounts(ctx context.Context) ([]treasury.Account, error)
	ListCreditLines(ctx context.Context) ([]treasury.CreditLine, error)
	ListCreditCards(ctx context.Context) ([]treasury.CreditCard, error)
	ListLoansDueWithin(ctx context.Context, now time.Time, days int) ([]treasury.Loan, error)
	ListBudgets(ctx context.Context, year int) ([]treasury.Budget, error)
	SpentByCategory(ctx context.Context, year int) (map[string]money.Money, error)
	InsertAlert(ctx context.Context, a *treasury.Alert) (bool, error)
}

// Scanner evaluates a fixed rule set against the current treasury state.
// Fired alerts dedupe per (rule, subject, day) in the store, so running
// the scanner more than once a day is harmless.
type Scanner struct {
	store Store
	rules []Rule
	log   *zap.Logger
}

func NewScanner(store Store, rules []Rule, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{store: store, rules: rules, log: log}
}

// Scan evaluates every rule as of now and returns the number of alerts
// that actually fired.
func (s *Scanner) Scan(ctx context.Context, now time.Time) (int, error) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	fired := 0
	for _, r := range s.rules {
		n, err := s.scanRule(ctx, r, now, day)
		if err != nil {
			return fired, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		fired += n
	}
	s.log.Info("alert scan finished",
		zap.Int("rules", len(s.rules)),
		zap.Int("fired", fired),
		zap.String("day", treasury.FormatDate(day)))
	return fired, nil
}

func (s *Scanner) scanRule(ctx context.Context, r Rule, now, day time.Time) (int, error) {
	switch r.Kind {
	case KindLowBalance:
		return s.scanLowBalance(ctx, r, day)
	case KindCreditUtilization:
		return s.scanUtilization(ctx, r, day)
	case KindLoanPaymentDue:
		return s.scanLoansDue(ctx, r, now, day)
	case KindBudgetOverrun:
		return s.scanBudgets(ctx, r, now, day)
	}
	return 0, fmt.Errorf("unknown kind %q", r.Kind)
}

func (s *Scanner) scanLowBalance(ctx context.Context, r Rule, day time.Time) (int, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return 0, err
	}
	fired := 0
	for _, acc := range accounts {
		if !acc.Active {
			continue
		}
		if r.AccountID != "" && acc.ID != r.AccountID {
			continue
		}
		if acc.Balance.Cents() >= r.Threshold.Cents() {
			continue
		}
		n, err := s.fire(ctx, r, acc.ID, day,
			fmt.Sprintf("%s: balance %s below %s", acc.Name, acc.Balance, r.Threshold))
		if err != nil {
			return fired, err
		}
		fired += n
	}
	return fired, nil
}

func (s *Scanner) scanUtilization(ctx context.Context, r Rule, day time.Time) (int, error) {
	lines, err := s.store.ListCreditLines(ctx)
	if err != nil {
		return 0, err
	}
	fired := 0
	for _, cl := range lines {
		u := cl.Utilization()
		if u < r.MaxUtilizationBps {
			continue
		}
		n, err := s.fire(ctx, r, cl.ID, day,
			fmt.Sprintf("%s: %d%% of the line drawn (%s of %s)", cl.Name, u/100, cl.Drawn, cl.Limit))
		if err != nil {
			return fired, err
		}
		fired += n
	}

	cards, err := s.store.ListCreditCards(ctx)
	if err != nil {
		return fired, err
	}
	for _, cc := range cards {
		u := cardUtilization(cc)
		if u < r.MaxUtilizationBps {
			continue
		}
		n, err := s.fire(ctx, r, cc.ID, day,
			fmt.Sprintf("%s (·%s): %d%% of the card limit used (%s of %s)", cc.Name, cc.PANTail, u/100, cc.Outstanding, cc.Limit))
		if err != nil {
			return fired, err
		}
		fired += n
	}
	return fired, nil
}

func cardUtilization(cc treasury.CreditCard) int64 {
	if cc.Limit.Cents() <= 0 {
		return 10000
	}
	return cc.Outstanding.Cents() * 10000 / cc.Limit.Cents()
}

func (s *Scanner) scanLoansDue(ctx context.Context, r Rule, now, day time.Time) (int, error) {
	loans, err := s.store.ListLoansDueWithin(ctx, now, r.DaysAhead)
	if err != nil {
		return 0, err
	}
	fired := 0
	for _, l := range loans {
		n, err := s.fire(ctx, r, l.ID, day,
			fmt.Sprintf("%s: payment of %s due on %s", l.Name, l.MonthlyPayment, treasury.FormatDate(l.NextPayment(now))))
		if err != nil {
			return fired, err
		}
		fired += n
	}
	return fired, nil
}

func (s *Scanner) scanBudgets(ctx context.Context, r Rule, now, day time.Time) (int, error) {
	year := now.Year()
	budgets, err := s.store.ListBudgets(ctx, year)
	if err != nil {
		return 0, err
	}
	spent, err := s.store.SpentByCategory(ctx, year)
	if err != nil {
		return 0, err
	}
	maxBps := r.MaxUtilizationBps
	if maxBps == 0 {
		maxBps = 10000
	}
	fired := 0
	for _, b := range budgets {
		used := spent[b.Category]
		if b.Planned.Cents() <= 0 || used.Cents()*10000 <= b.Planned.Cents()*maxBps {
			continue
		}
		n, err := s.fire(ctx, r, b.ID, day,
			fmt.Sprintf("%s %d: spent %s of %s planned (%d%%)", b.Category, b.Year, used, b.Planned,
				used.Cents()*100/b.Planned.Cents()))
		if err != nil {
			return fired, err
		}
		fired += n
	}
	return fired, nil
}

func (s *Scanner) fire(ctx context.Context, r Rule, subjectID string, day time.Time, msg string) (int, error) {
	a := treasury.Alert{
		RuleID:    r.ID,
		SubjectID: subjectID,
		Severity:  r.Severity,
		Message:   msg,
		FiredOn:   day,
	}
	created, err := s.store.InsertAlert(ctx, &a)
	if err != nil {
		return 0, err
	}
	if !created {
		return 0, nil
	}
	s.log.Debug("alert fired",
		zap.String("rule", r.ID),
		zap.String("subject", subjectID),
		zap.String("severity", string(r.Severity)))
	return 1, nil
}
