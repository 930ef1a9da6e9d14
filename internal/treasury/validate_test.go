package treasury

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesoreria/internal/money"
)

func TestValidateIBAN(t *testing.T) {
	valid := []string{
		"ES9121000418450200051332",
		"ES91 2100 0418 4502 0005 1332",
		"GB82WEST12345698765432",
		"DE89370400440532013000",
	}
	for _, iban := range valid {
		assert.NoError(t, ValidateIBAN(iban), iban)
	}

	invalid := []string{
		"",
		"ES91",
		"ES9121000418450200051333", // checksum off by one
		"1234567890123456",         // no country code
		"ES91-2100-0418-4502-0005-1332",
	}
	for _, iban := range invalid {
		assert.Error(t, ValidateIBAN(iban), iban)
	}
}

// Callers match validation failures with errors.As against a
// value-typed target; every validator must produce errors that satisfy
// that, whether built directly or via wrapping.
func TestValidationErrorMatchesByValue(t *testing.T) {
	err := ValidateIBAN("ES91")
	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "iban", verr.Field)

	wrapped := fmt.Errorf("account: %w", Account{}.Validate())
	verr = ValidationError{}
	require.True(t, errors.As(wrapped, &verr))
	assert.NotEmpty(t, verr.Field)
	assert.Contains(t, wrapped.Error(), verr.Message)
}

func TestAccountValidate(t *testing.T) {
	acc := Account{Name: "Operativa", Bank: "Caixa", IBAN: "ES9121000418450200051332", Currency: "EUR"}
	require.NoError(t, acc.Validate())

	acc.Name = " "
	assert.Error(t, acc.Validate())

	acc.Name = "Operativa"
	acc.Currency = "EURO"
	assert.Error(t, acc.Validate())
}

func TestScheduleValidate(t *testing.T) {
	s := Schedule{Frequency: Monthly, Interval: 1, AnchorDay: 31}
	require.NoError(t, s.Validate())

	s.Interval = 0
	assert.Error(t, s.Validate())

	s = Schedule{Frequency: "fortnightly", Interval: 1}
	assert.Error(t, s.Validate())

	// Daily schedules don't need an anchor day.
	s = Schedule{Frequency: Daily, Interval: 1}
	assert.NoError(t, s.Validate())

	s = Schedule{Frequency: Monthly, Interval: 1, AnchorDay: 0}
	assert.Error(t, s.Validate())
}

func TestPaymentOrderValidate(t *testing.T) {
	o := PaymentOrder{
		AccountID:    "acc1",
		ThirdPartyID: "tp1",
		Amount:       money.FromCents(-5000),
		Concept:      "Alquiler oficina",
		DueDate:      MustDate("2026-02-01"),
	}
	require.NoError(t, o.Validate())

	o.Amount = 0
	assert.Error(t, o.Validate())

	o.Amount = money.FromCents(100)
	o.Concept = ""
	assert.Error(t, o.Validate())
}

func TestValidatePeriod(t *testing.T) {
	assert.NoError(t, ValidatePeriod("2026-01"))
	assert.NoError(t, ValidatePeriod("2026-12"))
	assert.Error(t, ValidatePeriod("2026-13"))
	assert.Error(t, ValidatePeriod("2026-00"))
	assert.Error(t, ValidatePeriod("202601"))
	assert.Error(t, ValidatePeriod("26-01"))
}

func TestLoanNextPayment(t *testing.T) {
	l := Loan{PaymentDay: 5}
	from := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	// Payment day itself is not "after".
	assert.Equal(t, time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC), l.NextPayment(from))

	from = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), l.NextPayment(from))
}

func TestCreditLineUtilization(t *testing.T) {
	c := CreditLine{Limit: money.FromCents(1000000), Drawn: money.FromCents(850000)}
	assert.Equal(t, int64(8500), c.Utilization())
	assert.Equal(t, money.FromCents(150000), c.Available())

	c.Limit = 0
	assert.Equal(t, int64(10000), c.Utilization())
}
