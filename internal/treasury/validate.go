package treasury

import (
	"fmt"
	"strings"
)

// ValidationError reports a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// ValidateIBAN checks structure and the ISO 13616 mod-97 checksum.
// Spaces are tolerated; the empty string is not (callers decide whether
// IBAN is optional for their record).
func ValidateIBAN(iban string) error {
	s := strings.ToUpper(strings.ReplaceAll(iban, " ", ""))
	if len(s) < 15 || len(s) > 34 {
		return invalid("iban", "length out of range")
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return invalid("iban", fmt.Sprintf("invalid character %q", r))
		}
	}
	if s[0] < 'A' || s[0] > 'Z' || s[1] < 'A' || s[1] > 'Z' {
		return invalid("iban", "missing country code")
	}
	// Move the first 4 chars to the end, expand letters to digits, mod 97.
	rearranged := s[4:] + s[:4]
	rem := 0
	for _, r := range rearranged {
		if r >= 'A' && r <= 'Z' {
			n := int(r-'A') + 10
			rem = (rem*100 + n) % 97
		} else {
			rem = (rem*10 + int(r-'0')) % 97
		}
	}
	if rem != 1 {
		return invalid("iban", "checksum mismatch")
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return invalid("name", "required")
	}
	if a.IBAN != "" {
		if err := ValidateIBAN(a.IBAN); err != nil {
			return err
		}
	}
	if a.Currency == "" {
		return invalid("currency", "required")
	}
	if len(a.Currency) != 3 {
		return invalid("currency", "must be a 3-letter ISO 4217 code")
	}
	return nil
}

func (c CreditLine) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", "required")
	}
	if c.AccountID == "" {
		return invalid("account_id", "required")
	}
	if c.Limit.IsNegative() {
		return invalid("limit", "must not be negative")
	}
	if c.Drawn.IsNegative() {
		return invalid("drawn", "must not be negative")
	}
	return nil
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("name", "required")
	}
	if c.AccountID == "" {
		return invalid("account_id", "required")
	}
	if len(c.PANTail) != 4 {
		return invalid("pan_tail", "must be exactly 4 digits")
	}
	for _, r := range c.PANTail {
		if r < '0' || r > '9' {
			return invalid("pan_tail", "must be exactly 4 digits")
		}
	}
	if c.SettlementDay < 1 || c.SettlementDay > 28 {
		return invalid("settlement_day", "must be between 1 and 28")
	}
	return nil
}

func (l Loan) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return invalid("name", "required")
	}
	if l.AccountID == "" {
		return invalid("account_id", "required")
	}
	if l.Principal.IsNegative() || l.Principal.IsZero() {
		return invalid("principal", "must be positive")
	}
	if l.Outstanding.IsNegative() {
		return invalid("outstanding", "must not be negative")
	}
	if l.RateBps < 0 {
		return invalid("rate_bps", "must not be negative")
	}
	if l.PaymentDay < 1 || l.PaymentDay > 28 {
		return invalid("payment_day", "must be between 1 and 28")
	}
	if !l.End.IsZero() && l.End.Before(l.Start) {
		return invalid("end", "must not precede start")
	}
	return nil
}

func (p ThirdParty) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalid("name", "required")
	}
	if !ValidPartyKinds[p.Kind] {
		return invalid("kind", fmt.Sprintf("unknown kind %q", p.Kind))
	}
	if p.IBAN != "" {
		if err := ValidateIBAN(p.IBAN); err != nil {
			return err
		}
	}
	return nil
}

func (o PaymentOrder) Validate() error {
	if o.AccountID == "" {
		return invalid("account_id", "required")
	}
	if o.ThirdPartyID == "" {
		return invalid("third_party_id", "required")
	}
	if o.Amount.IsZero() {
		return invalid("amount", "must not be zero")
	}
	if strings.TrimSpace(o.Concept) == "" {
		return invalid("concept", "required")
	}
	if o.DueDate.IsZero() {
		return invalid("due_date", "required")
	}
	if o.Status != "" && !ValidOrderStatuses[o.Status] {
		return invalid("status", fmt.Sprintf("unknown status %q", o.Status))
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return invalid("category", "required")
	}
	if b.Year < 2000 || b.Year > 2100 {
		return invalid("year", "out of range")
	}
	if b.Planned.IsNegative() {
		return invalid("planned", "must not be negative")
	}
	return nil
}

func (s Schedule) Validate() error {
	if !ValidFrequencies[s.Frequency] {
		return invalid("frequency", fmt.Sprintf("unknown frequency %q", s.Frequency))
	}
	if s.Interval < 1 {
		return invalid("interval", "must be at least 1")
	}
	switch s.Frequency {
	case Monthly, Quarterly, Yearly:
		if s.AnchorDay < 1 || s.AnchorDay > 31 {
			return invalid("anchor_day", "must be between 1 and 31")
		}
	}
	if s.MaxOccurrences < 0 {
		return invalid("max_occurrences", "must not be negative")
	}
	return nil
}

func (r RecurringTransaction) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name", "required")
	}
	if r.AccountID == "" {
		return invalid("account_id", "required")
	}
	return nil
}

func (v RecurringVersion) Validate() error {
	if v.RecurringID == "" {
		return invalid("recurring_id", "required")
	}
	if v.Version < 1 {
		return invalid("version", "must be at least 1")
	}
	if v.Amount.IsZero() {
		return invalid("amount", "must not be zero")
	}
	if v.EffectiveFrom.IsZero() {
		return invalid("effective_from", "required")
	}
	return v.Schedule.Validate()
}

func (b PayrollBatch) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return invalid("name", "required")
	}
	if err := ValidatePeriod(b.Period); err != nil {
		return err
	}
	if b.AccountID == "" {
		return invalid("account_id", "required")
	}
	if b.Status != "" && !ValidBatchStatuses[b.Status] {
		return invalid("status", fmt.Sprintf("unknown status %q", b.Status))
	}
	return nil
}

// ValidatePeriod checks a YYYY-MM payroll period.
func ValidatePeriod(period string) error {
	if len(period) != 7 || period[4] != '-' {
		return invalid("period", "must be YYYY-MM")
	}
	for i, r := range period {
		if i == 4 {
			continue
		}
		if r < '0' || r > '9' {
			return invalid("period", "must be YYYY-MM")
		}
	}
	month := int(period[5]-'0')*10 + int(period[6]-'0')
	if month < 1 || month > 12 {
		return invalid("period", "month out of range")
	}
	return nil
}

func (l PayrollLine) Validate() error {
	if l.BatchID == "" {
		return invalid("batch_id", "required")
	}
	if l.EmployeeID == "" {
		return invalid("employee_id", "required")
	}
	if l.Amount.IsZero() || l.Amount.IsNegative() {
		return invalid("amount", "must be positive")
	}
	return nil
}
