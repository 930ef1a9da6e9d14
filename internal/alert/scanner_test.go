package alert

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesoreria/internal/money"
	"tesoreria/internal/store"
	"tesoreria/internal/treasury"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var scanNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func TestScan_LowBalance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	low := treasury.Account{Name: "Operativa", Currency: "EUR", Balance: money.FromCents(120000), Active: true}
	require.NoError(t, s.CreateAccount(ctx, &low))
	high := treasury.Account{Name: "Reserva", Currency: "EUR", Balance: money.FromCents(2000000), Active: true}
	require.NoError(t, s.CreateAccount(ctx, &high))
	inactive := treasury.Account{Name: "Cerrada", Currency: "EUR", Balance: money.FromCents(0), Active: false}
	require.NoError(t, s.CreateAccount(ctx, &inactive))

	rule := Rule{ID: "saldo", Kind: KindLowBalance, Severity: treasury.SeverityWarning, Threshold: money.FromCents(500000)}
	sc := NewScanner(s, []Rule{rule}, nil)

	fired, err := sc.Scan(ctx, scanNow)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	alerts, err := s.ListAlerts(ctx, true)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "saldo", alerts[0].RuleID)
	assert.Equal(t, low.ID, alerts[0].SubjectID)
	assert.Equal(t, "2026-03-10", treasury.FormatDate(alerts[0].FiredOn))

	// Same day, second scan: the dedupe absorbs it.
	fired, err = sc.Scan(ctx, scanNow.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, fired)

	// Next day it fires again.
	fired, err = sc.Scan(ctx, scanNow.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, fired)
}

func TestScan_LowBalanceScopedToAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := treasury.Account{Name: "Operativa", Currency: "EUR", Balance: money.FromCents(0), Active: true}
	require.NoError(t, s.CreateAccount(ctx, &a))
	b := treasury.Account{Name: "Impuestos", Currency: "EUR", Balance: money.FromCents(0), Active: true}
	require.NoError(t, s.CreateAccount(ctx, &b))

	rule := Rule{ID: "saldo", Kind: KindLowBalance, Severity: treasury.SeverityWarning, Threshold: money.FromCents(100000), AccountID: b.ID}
	fired, err := NewScanner(s, []Rule{rule}, nil).Scan(ctx, scanNow)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	alerts, err := s.ListAlerts(ctx, true)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, b.ID, alerts[0].SubjectID)
}

func TestScan_CreditUtilization(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc := treasury.Account{Name: "Operativa", Currency: "EUR", Active: true}
	require.NoError(t, s.CreateAccount(ctx, &acc))

	hot := treasury.CreditLine{Name: "Póliza BBVA", AccountID: acc.ID, Limit: money.FromCents(5000000), Drawn: money.FromCents(4700000), Maturity: treasury.MustDate("2027-01-01")}
	require.NoError(t, s.CreateCreditLine(ctx, &hot))
	cold := treasury.CreditLine{Name: "Póliza Sabadell", AccountID: acc.ID, Limit: money.FromCents(5000000), Drawn: money.FromCents(1000000), Maturity: treasury.MustDate("2027-01-01")}
	require.NoError(t, s.CreateCreditLine(ctx, &cold))
	card := treasury.CreditCard{Name: "Visa empresa", AccountID: acc.ID, PANTail: "4421", Limit: money.FromCents(600000), Outstanding: money.FromCents(590000), SettlementDay: 5}
	require.NoError(t, s.CreateCreditCard(ctx, &card))

	rule := Rule{ID: "util", Kind: KindCreditUtilization, Severity: treasury.SeverityCritical, MaxUtilizationBps: 9000}
	fired, err := NewScanner(s, []Rule{rule}, nil).Scan(ctx, scanNow)
	require.NoError(t, err)
	assert.Equal(t, 2, fired)

	alerts, err := s.ListAlerts(ctx, true)
	require.NoError(t, err)
	subjects := map[string]bool{}
	for _, a := range alerts {
		subjects[a.SubjectID] = true
		assert.Equal(t, treasury.SeverityCritical, a.Severity)
	}
	assert.True(t, subjects[hot.ID])
	assert.True(t, subjects[card.ID])
	assert.False(t, subjects[cold.ID])
}

func TestScan_LoanPaymentDue(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc := treasury.Account{Name: "Operativa", Currency: "EUR", Active: true}
	require.NoError(t, s.CreateAccount(ctx, &acc))

	// Pays on the 15th: five days out from March 10th.
	soon := treasury.Loan{Name: "ICO 2024", AccountID: acc.ID, Principal: money.FromCents(10000000), Outstanding: money.FromCents(6000000), RateBps: 450, MonthlyPayment: money.FromCents(95000), PaymentDay: 15, Start: treasury.MustDate("2024-01-15"), End: treasury.MustDate("2031-01-15")}
	require.NoError(t, s.CreateLoan(ctx, &soon))
	// Pays on the 28th: outside the window.
	later := treasury.Loan{Name: "Hipoteca nave", AccountID: acc.ID, Principal: money.FromCents(30000000), Outstanding: money.FromCents(22000000), RateBps: 320, MonthlyPayment: money.FromCents(140000), PaymentDay: 28, Start: treasury.MustDate("2022-06-28"), End: treasury.MustDate("2042-06-28")}
	require.NoError(t, s.CreateLoan(ctx, &later))

	rule := Rule{ID: "cuotas", Kind: KindLoanPaymentDue, Severity: treasury.SeverityInfo, DaysAhead: 7}
	fired, err := NewScanner(s, []Rule{rule}, nil).Scan(ctx, scanNow)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	alerts, err := s.ListAlerts(ctx, true)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, soon.ID, alerts[0].SubjectID)
	assert.Contains(t, alerts[0].Message, "2026-03-15")
}

func TestScan_BudgetOverrun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc := treasury.Account{Name: "Operativa", Currency: "EUR", Balance: money.FromCents(10000000), Active: true}
	require.NoError(t, s.CreateAccount(ctx, &acc))
	sup := treasury.ThirdParty{Name: "Gestoría Ruiz", Kind: treasury.PartySupplier}
	require.NoError(t, s.CreateThirdParty(ctx, &sup))

	over := treasury.Budget{Category: "asesoria", Year: 2026, Planned: money.FromCents(100000)}
	require.NoError(t, s.CreateBudget(ctx, &over))
	under := treasury.Budget{Category: "software", Year: 2026, Planned: money.FromCents(500000)}
	require.NoError(t, s.CreateBudget(ctx, &under))

	o := treasury.PaymentOrder{AccountID: acc.ID, ThirdPartyID: sup.ID, Amount: money.FromCents(-150000), Concept: "Iguala Q1", Category: "asesoria", DueDate: treasury.MustDate("2026-02-01")}
	require.NoError(t, s.CreateOrder(ctx, &o))
	_, err := s.ConfirmOrder(ctx, o.ID)
	require.NoError(t, err)

	rule := Rule{ID: "presupuesto", Kind: KindBudgetOverrun, Severity: treasury.SeverityWarning}
	fired, err := NewScanner(s, []Rule{rule}, nil).Scan(ctx, scanNow)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	alerts, err := s.ListAlerts(ctx, true)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, over.ID, alerts[0].SubjectID)
}

func TestScan_BudgetOverrunBelowFullSpend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acc := treasury.Account{Name: "Operativa", Currency: "EUR", Balance: money.FromCents(10000000), Active: true}
	require.NoError(t, s.CreateAccount(ctx, &acc))
	sup := treasury.ThirdParty{Name: "Gestoría Ruiz", Kind: treasury.PartySupplier}
	require.NoError(t, s.CreateThirdParty(ctx, &sup))

	// 90% spent: past an 80% threshold, still under the full budget.
	b := treasury.Budget{Category: "asesoria", Year: 2026, Planned: money.FromCents(100000)}
	require.NoError(t, s.CreateBudget(ctx, &b))
	o := treasury.PaymentOrder{AccountID: acc.ID, ThirdPartyID: sup.ID, Amount: money.FromCents(-90000), Concept: "Iguala Q1", Category: "asesoria", DueDate: treasury.MustDate("2026-02-01")}
	require.NoError(t, s.CreateOrder(ctx, &o))
	_, err := s.ConfirmOrder(ctx, o.ID)
	require.NoError(t, err)

	strict := Rule{ID: "presupuesto-80", Kind: KindBudgetOverrun, Severity: treasury.SeverityWarning, MaxUtilizationBps: 8000}
	fired, err := NewScanner(s, []Rule{strict}, nil).Scan(ctx, scanNow)
	require.NoError(t, err)
	assert.Equal(t, 1, fired)

	lax := Rule{ID: "presupuesto-total", Kind: KindBudgetOverrun, Severity: treasury.SeverityWarning}
	fired, err = NewScanner(s, []Rule{lax}, nil).Scan(ctx, scanNow)
	require.NoError(t, err)
	assert.Equal(t, 0, fired)
}

func TestScan_AckedAlertsStayAcked(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	low := treasury.Account{Name: "Operativa", Currency: "EUR", Balance: money.FromCents(0), Active: true}
	require.NoError(t, s.CreateAccount(ctx, &low))

	rule := Rule{ID: "saldo", Kind: KindLowBalance, Severity: treasury.SeverityWarning, Threshold: money.FromCents(100000)}
	sc := NewScanner(s, []Rule{rule}, nil)
	_, err := sc.Scan(ctx, scanNow)
	require.NoError(t, err)

	alerts, err := s.ListAlerts(ctx, true)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.NoError(t, s.AckAlert(ctx, alerts[0].ID))

	// Re-scanning the same day neither fires nor un-acks.
	_, err = sc.Scan(ctx, scanNow)
	require.NoError(t, err)
	alerts, err = s.ListAlerts(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}
