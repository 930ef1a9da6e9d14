package store

import (
	"strings"
	"time"

	"tesoreria/internal/treasury"
)

// OrderFilter narrows payment-order list queries. Zero values mean "any".
type OrderFilter struct {
	AccountID    string
	ThirdPartyID string
	Category     string
	Status       treasury.OrderStatus
	From         time.Time // due date lower bound, inclusive
	To           time.Time // due date upper bound, inclusive
}

// InstanceFilter narrows instance list queries. Zero values mean "any".
type InstanceFilter struct {
	RecurringID string
	Status      treasury.InstanceStatus
	From        time.Time
	To          time.Time
}

// whereClause assembles "WHERE a = ? AND b >= ?" plus its args from
// column/op/value triples, skipping zero values.
type whereClause struct {
	conds []string
	args  []any
}

func (w *whereClause) eq(col, val string) {
	if val != "" {
		w.conds = append(w.conds, col+" = ?")
		w.args = append(w.args, val)
	}
}

func (w *whereClause) dateGTE(col string, t time.Time) {
	if !t.IsZero() {
		w.conds = append(w.conds, col+" >= ?")
		w.args = append(w.args, fmtDate(t))
	}
}

func (w *whereClause) dateLTE(col string, t time.Time) {
	if !t.IsZero() {
		w.conds = append(w.conds, col+" <= ?")
		w.args = append(w.args, fmtDate(t))
	}
}

func (w *whereClause) sql() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (f OrderFilter) compile() *whereClause {
	w := &whereClause{}
	w.eq("account_id", f.AccountID)
	w.eq("third_party_id", f.ThirdPartyID)
	w.eq("category", f.Category)
	w.eq("status", string(f.Status))
	w.dateGTE("due_date", f.From)
	w.dateLTE("due_date", f.To)
	return w
}

func (f InstanceFilter) compile() *whereClause {
	w := &whereClause{}
	w.eq("recurring_id", f.RecurringID)
	w.eq("status", string(f.Status))
	w.dateGTE("due_date", f.From)
	w.dateLTE("due_date", f.To)
	return w
}
