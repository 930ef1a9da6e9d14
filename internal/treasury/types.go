package treasury

import (
	"time"

	"tesoreria/internal/money"
)

// DateLayout is the storage and wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// MustDate parses a YYYY-MM-DD date and panics on error. Test fixtures only.
func MustDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Account is a bank account.
type Account struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Bank     string      `json:"bank"`
	IBAN     string      `json:"iban"`
	Balance  money.Money `json:"balance"`
	Currency string      `json:"currency"` // ISO 4217, normally "EUR"
	Active   bool        `json:"active"`
}

// CreditLine is a revolving credit facility linked to an account.
type CreditLine struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	AccountID string      `json:"account_id"`
	Limit     money.Money `json:"limit"`
	Drawn     money.Money `json:"drawn"`
	Maturity  time.Time   `json:"maturity"`
}

// Available returns the undrawn part of the line.
func (c CreditLine) Available() money.Money {
	return c.Limit.Sub(c.Drawn)
}

// Utilization returns drawn/limit in basis points. Zero-limit lines
// report full utilization.
func (c CreditLine) Utilization() int64 {
	if c.Limit.Cents() <= 0 {
		return 10000
	}
	return c.Drawn.Cents() * 10000 / c.Limit.Cents()
}

// CreditCard is a company card settling against an account.
type CreditCard struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	AccountID     string      `json:"account_id"`
	PANTail       string      `json:"pan_tail"` // last 4 digits, never the full PAN
	Limit         money.Money `json:"limit"`
	Outstanding   money.Money `json:"outstanding"`
	SettlementDay int         `json:"settlement_day"` // day of month, 1-28
}

// Loan is an amortizing loan.
type Loan struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	AccountID      string      `json:"account_id"`
	Principal      money.Money `json:"principal"`
	Outstanding    money.Money `json:"outstanding"`
	RateBps        int64       `json:"rate_bps"` // annual nominal rate in basis points
	MonthlyPayment money.Money `json:"monthly_payment"`
	PaymentDay     int         `json:"payment_day"` // day of month, 1-28
	Start          time.Time   `json:"start"`
	End            time.Time   `json:"end"`
}

// NextPayment returns the first payment date strictly after from.
func (l Loan) NextPayment(from time.Time) time.Time {
	d := time.Date(from.Year(), from.Month(), l.PaymentDay, 0, 0, 0, 0, time.UTC)
	if !d.After(from) {
		d = d.AddDate(0, 1, 0)
	}
	return d
}

// PartyKind classifies a third party.
type PartyKind string

const (
	PartyCustomer PartyKind = "customer"
	PartySupplier PartyKind = "supplier"
	PartyEmployee PartyKind = "employee"
	PartyOther    PartyKind = "other"
)

// ValidPartyKinds defines allowed third-party kinds.
var ValidPartyKinds = map[PartyKind]bool{
	PartyCustomer: true,
	PartySupplier: true,
	PartyEmployee: true,
	PartyOther:    true,
}

// ThirdParty is a counterparty: customer, supplier or employee.
type ThirdParty struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	TaxID           string    `json:"tax_id"` // NIF/CIF
	Kind            PartyKind `json:"kind"`
	IBAN            string    `json:"iban,omitempty"`
	DefaultCategory string    `json:"default_category,omitempty"`
}

// OrderStatus is the lifecycle state of a payment order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderRejected  OrderStatus = "rejected"
)

// ValidOrderStatuses defines allowed payment-order states.
var ValidOrderStatuses = map[OrderStatus]bool{
	OrderPending:   true,
	OrderConfirmed: true,
	OrderRejected:  true,
}

// PaymentOrder is an instruction to pay a third party from an account.
// SubmissionKey is the content hash that makes creation idempotent; it is
// empty for orders entered manually through the API.
type PaymentOrder struct {
	ID            string      `json:"id"`
	AccountID     string      `json:"account_id"`
	ThirdPartyID  string      `json:"third_party_id"`
	Amount        money.Money `json:"amount"`
	Concept       string      `json:"concept"`
	Category      string      `json:"category,omitempty"`
	DueDate       time.Time   `json:"due_date"`
	Status        OrderStatus `json:"status"`
	SubmissionKey string      `json:"submission_key,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Budget is a planned yearly amount for a spending category.
type Budget struct {
	ID       string      `json:"id"`
	Category string      `json:"category"`
	Year     int         `json:"year"`
	Planned  money.Money `json:"planned"`
}

// Frequency is the repetition unit of a recurring transaction.
type Frequency string

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// ValidFrequencies defines allowed schedule frequencies.
var ValidFrequencies = map[Frequency]bool{
	Daily:     true,
	Weekly:    true,
	Monthly:   true,
	Quarterly: true,
	Yearly:    true,
}

// Schedule describes when instances of a recurring transaction fall due.
// AnchorDay is the day of month for monthly-and-up frequencies; days 29-31
// clamp to the last day of shorter months. EndDate and MaxOccurrences are
// optional end conditions; whichever is hit first wins.
type Schedule struct {
	Frequency      Frequency  `json:"frequency"`
	Interval       int        `json:"interval"` // every N units, >= 1
	AnchorDay      int        `json:"anchor_day,omitempty"`
	EndDate        *time.Time `json:"end_date,omitempty"`
	MaxOccurrences int        `json:"max_occurrences,omitempty"`
}

// RecurringTransaction is the head record; amounts and schedules live in
// versions so that edits never rewrite history.
type RecurringTransaction struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	AccountID    string `json:"account_id"`
	ThirdPartyID string `json:"third_party_id,omitempty"`
	Category     string `json:"category,omitempty"`
	Active       bool   `json:"active"`
}

// RecurringVersion is one immutable revision of a recurring transaction.
// Version numbers strictly increase; EffectiveFrom bounds the window of
// due dates this version generates.
type RecurringVersion struct {
	RecurringID   string      `json:"recurring_id"`
	Version       int64       `json:"version"`
	Amount        money.Money `json:"amount"` // negative = outflow
	Schedule      Schedule    `json:"schedule"`
	EffectiveFrom time.Time   `json:"effective_from"`
}

// InstanceStatus is the lifecycle state of a generated instance.
type InstanceStatus string

const (
	InstancePending   InstanceStatus = "pending"
	InstanceConfirmed InstanceStatus = "confirmed"
	InstanceSkipped   InstanceStatus = "skipped"
)

// ValidInstanceStatuses defines allowed instance states.
var ValidInstanceStatuses = map[InstanceStatus]bool{
	InstancePending:   true,
	InstanceConfirmed: true,
	InstanceSkipped:   true,
}

// Instance is a materialized occurrence of a recurring transaction.
// Identity is (RecurringID, DueDate), which makes generation idempotent.
type Instance struct {
	ID          string         `json:"id"`
	RecurringID string         `json:"recurring_id"`
	Version     int64          `json:"version"`
	DueDate     time.Time      `json:"due_date"`
	Amount      money.Money    `json:"amount"`
	Status      InstanceStatus `json:"status"`
}

// Settled reports whether the instance can no longer be rewritten by
// regeneration.
func (i Instance) Settled() bool {
	return i.Status != InstancePending
}

// BatchStatus is a payroll wizard state.
type BatchStatus string

const (
	BatchDraft     BatchStatus = "draft"
	BatchEmployees BatchStatus = "employees"
	BatchAmounts   BatchStatus = "amounts"
	BatchReview    BatchStatus = "review"
	BatchSubmitted BatchStatus = "submitted"
	BatchCancelled BatchStatus = "cancelled"
)

// ValidBatchStatuses defines allowed payroll batch states.
var ValidBatchStatuses = map[BatchStatus]bool{
	BatchDraft:     true,
	BatchEmployees: true,
	BatchAmounts:   true,
	BatchReview:    true,
	BatchSubmitted: true,
	BatchCancelled: true,
}

// PayrollBatch groups one month's salary payments.
// Period is YYYY-MM. SubmissionKey is set when the batch is submitted.
type PayrollBatch struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Period        string      `json:"period"`
	AccountID     string      `json:"account_id"`
	Status        BatchStatus `json:"status"`
	SubmissionKey string      `json:"submission_key,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// PayrollLine is one employee's net pay within a batch.
type PayrollLine struct {
	ID         string      `json:"id"`
	BatchID    string      `json:"batch_id"`
	EmployeeID string      `json:"employee_id"` // ThirdParty with kind=employee
	Amount     money.Money `json:"amount"`
	Concept    string      `json:"concept,omitempty"`
}

// Severity grades a fired alert.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// ValidSeverities defines allowed alert severities.
var ValidSeverities = map[Severity]bool{
	SeverityInfo:     true,
	SeverityWarning:  true,
	SeverityCritical: true,
}

// Alert is a fired alert. Identity is (RuleID, SubjectID, FiredOn), so a
// rule fires at most once per subject per day.
type Alert struct {
	ID        string    `json:"id"`
	RuleID    string    `json:"rule_id"`
	SubjectID string    `json:"subject_id"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	FiredOn   time.Time `json:"fired_on"` // date, not instant
	Ack       bool      `json:"ack"`
}
