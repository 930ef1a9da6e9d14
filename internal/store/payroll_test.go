package store

import (
	"context"
	"errors"
	"testing"

	"tesoreria/internal/money"
	"tesoreria/internal/treasury"
)

func createTestBatch(t *testing.T, s *Store, acc treasury.Account) treasury.PayrollBatch {
	t.Helper()
	b := treasury.PayrollBatch{
		Name:      "Nomina enero",
		Period:    "2026-01",
		AccountID: acc.ID,
	}
	if err := s.CreateBatch(context.Background(), &b); err != nil {
		t.Fatalf("CreateBatch() failed: %v", err)
	}
	return b
}

func TestCreateBatch_StartsDraft(t *testing.T) {
	s := createTestStore(t)
	acc := createTestAccount(t, s, "Operativa", 0)
	b := createTestBatch(t, s, acc)
	if b.Status != treasury.BatchDraft {
		t.Errorf("status = %q, want draft", b.Status)
	}
}

func TestTransitionBatch_GuardsSourceState(t *testing.T) {
	s := createTestStore(t)
	acc := createTestAccount(t, s, "Operativa", 0)
	b := createTestBatch(t, s, acc)

	if err := s.TransitionBatch(context.Background(), b.ID, treasury.BatchDraft, treasury.BatchEmployees); err != nil {
		t.Fatalf("TransitionBatch() failed: %v", err)
	}

	// The batch already moved on; the same transition must now conflict.
	err := s.TransitionBatch(context.Background(), b.ID, treasury.BatchDraft, treasury.BatchEmployees)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("got %v, want ErrConflict", err)
	}

	err = s.TransitionBatch(context.Background(), "missing", treasury.BatchDraft, treasury.BatchEmployees)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestUpsertLine_ReplacesAmount(t *testing.T) {
	s := createTestStore(t)
	acc := createTestAccount(t, s, "Operativa", 0)
	emp := createTestParty(t, s, "Empleada", treasury.PartyEmployee)
	b := createTestBatch(t, s, acc)

	l := treasury.PayrollLine{BatchID: b.ID, EmployeeID: emp.ID, Amount: money.FromCents(150000)}
	if err := s.UpsertLine(context.Background(), &l); err != nil {
		t.Fatalf("first UpsertLine() failed: %v", err)
	}
	l2 := treasury.PayrollLine{BatchID: b.ID, EmployeeID: emp.ID, Amount: money.FromCents(160000)}
	if err := s.UpsertLine(context.Background(), &l2); err != nil {
		t.Fatalf("second UpsertLine() failed: %v", err)
	}

	lines, err := s.ListLines(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("ListLines() failed: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].Amount.Cents() != 160000 {
		t.Errorf("amount = %d, want 160000", lines[0].Amount.Cents())
	}
}

func TestSubmitBatch_CreatesOrdersOnce(t *testing.T) {
	s := createTestStore(t)
	acc := createTestAccount(t, s, "Operativa", 0)
	emp := createTestParty(t, s, "Empleada", treasury.PartyEmployee)
	b := createTestBatch(t, s, acc)

	// Walk the wizard to review.
	for _, step := range [][2]treasury.BatchStatus{
		{treasury.BatchDraft, treasury.BatchEmployees},
		{treasury.BatchEmployees, treasury.BatchAmounts},
		{treasury.BatchAmounts, treasury.BatchReview},
	} {
		if err := s.TransitionBatch(context.Background(), b.ID, step[0], step[1]); err != nil {
			t.Fatalf("TransitionBatch(%s->%s) failed: %v", step[0], step[1], err)
		}
	}

	key, err := treasury.OrderSubmissionKey("payroll:"+b.ID, emp.ID, "2026-01-31", money.FromCents(-150000))
	if err != nil {
		t.Fatalf("OrderSubmissionKey() failed: %v", err)
	}
	orders := []treasury.PaymentOrder{{
		AccountID:     acc.ID,
		ThirdPartyID:  emp.ID,
		Amount:        money.FromCents(-150000),
		Concept:       "Nomina 2026-01 Empleada",
		Category:      "nominas",
		DueDate:       treasury.MustDate("2026-01-31"),
		Status:        treasury.OrderPending,
		SubmissionKey: key,
		CreatedAt:     treasury.MustDate("2026-01-25"),
	}}
	batchKey, err := treasury.PayrollSubmissionKey(b.ID, b.Period, []treasury.PayrollLine{
		{EmployeeID: emp.ID, Amount: money.FromCents(150000)},
	})
	if err != nil {
		t.Fatalf("PayrollSubmissionKey() failed: %v", err)
	}

	if err := s.SubmitBatch(context.Background(), b.ID, batchKey, orders); err != nil {
		t.Fatalf("SubmitBatch() failed: %v", err)
	}

	got, err := s.GetBatch(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("GetBatch() failed: %v", err)
	}
	if got.Status != treasury.BatchSubmitted {
		t.Errorf("status = %q, want submitted", got.Status)
	}
	if got.SubmissionKey != batchKey {
		t.Errorf("submission key not stored")
	}

	// A second submit conflicts (state guard) and creates nothing.
	err = s.SubmitBatch(context.Background(), b.ID, batchKey, orders)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("second submit: got %v, want ErrConflict", err)
	}
	all, err := s.ListOrders(context.Background(), OrderFilter{Category: "nominas"})
	if err != nil {
		t.Fatalf("ListOrders() failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d payroll orders, want 1", len(all))
	}
}

// Submitted orders arrive without IDs; the store must mint one per
// order instead of colliding on the primary key.
func TestSubmitBatch_AssignsOrderIDs(t *testing.T) {
	s := createTestStore(t)
	acc := createTestAccount(t, s, "Operativa", 0)
	ana := createTestParty(t, s, "Ana", treasury.PartyEmployee)
	luis := createTestParty(t, s, "Luis", treasury.PartyEmployee)
	b := createTestBatch(t, s, acc)

	for _, step := range [][2]treasury.BatchStatus{
		{treasury.BatchDraft, treasury.BatchEmployees},
		{treasury.BatchEmployees, treasury.BatchAmounts},
		{treasury.BatchAmounts, treasury.BatchReview},
	} {
		if err := s.TransitionBatch(context.Background(), b.ID, step[0], step[1]); err != nil {
			t.Fatalf("TransitionBatch(%s->%s) failed: %v", step[0], step[1], err)
		}
	}

	var orders []treasury.PaymentOrder
	for _, emp := range []treasury.ThirdParty{ana, luis} {
		key, err := treasury.OrderSubmissionKey("payroll:"+b.ID, emp.ID, "2026-01-31", money.FromCents(-120000))
		if err != nil {
			t.Fatalf("OrderSubmissionKey() failed: %v", err)
		}
		orders = append(orders, treasury.PaymentOrder{
			AccountID:     acc.ID,
			ThirdPartyID:  emp.ID,
			Amount:        money.FromCents(-120000),
			Concept:       "Nomina 2026-01 " + emp.Name,
			Category:      "nominas",
			DueDate:       treasury.MustDate("2026-01-31"),
			Status:        treasury.OrderPending,
			SubmissionKey: key,
		})
	}
	batchKey, err := treasury.PayrollSubmissionKey(b.ID, b.Period, []treasury.PayrollLine{
		{EmployeeID: ana.ID, Amount: money.FromCents(120000)},
		{EmployeeID: luis.ID, Amount: money.FromCents(120000)},
	})
	if err != nil {
		t.Fatalf("PayrollSubmissionKey() failed: %v", err)
	}

	if err := s.SubmitBatch(context.Background(), b.ID, batchKey, orders); err != nil {
		t.Fatalf("SubmitBatch() failed: %v", err)
	}

	all, err := s.ListOrders(context.Background(), OrderFilter{Category: "nominas"})
	if err != nil {
		t.Fatalf("ListOrders() failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d payroll orders, want 2", len(all))
	}
	if all[0].ID == "" || all[1].ID == "" || all[0].ID == all[1].ID {
		t.Errorf("order IDs not assigned distinctly: %q, %q", all[0].ID, all[1].ID)
	}
}
