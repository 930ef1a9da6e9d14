package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tesoreria/internal/alert"
	"tesoreria/internal/money"
	"tesoreria/internal/ratelimit"
	"tesoreria/internal/store"
	"tesoreria/internal/treasury"
)

const testToken = "secreto-de-prueba"

type testServer struct {
	store   *store.Store
	handler http.Handler
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	rules := []alert.Rule{
		{ID: "saldo", Kind: alert.KindLowBalance, Severity: treasury.SeverityWarning, Threshold: money.FromCents(100000)},
	}
	srv := NewServer(s, alert.NewScanner(s, rules, nil), nil)
	return &testServer{store: s, handler: srv.Handler(opts)}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, r)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, Options{})
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBearerAuth(t *testing.T) {
	ts := newTestServer(t, Options{Token: testToken})

	r := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	ts.handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/v1/accounts", nil).Code)
}

func TestAccountCRUD(t *testing.T) {
	ts := newTestServer(t, Options{Token: testToken})

	w := ts.do(t, http.MethodPost, "/api/v1/accounts", treasury.Account{
		Name: "Operativa", IBAN: "ES9121000418450200051332", Currency: "EUR", Active: true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[treasury.Account](t, w)
	require.NotEmpty(t, created.ID)

	w = ts.do(t, http.MethodGet, "/api/v1/accounts/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Operativa", decodeBody[treasury.Account](t, w).Name)

	created.Name = "Operativa BBVA"
	w = ts.do(t, http.MethodPut, "/api/v1/accounts/"+created.ID, created)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodGet, "/api/v1/accounts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]treasury.Account](t, w), 1)

	w = ts.do(t, http.MethodDelete, "/api/v1/accounts/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/accounts/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAccount_ValidationError(t *testing.T) {
	ts := newTestServer(t, Options{Token: testToken})

	w := ts.do(t, http.MethodPost, "/api/v1/accounts", treasury.Account{Name: "", Currency: "EUR"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name", decodeBody[map[string]string](t, w)["field"])

	w = ts.do(t, http.MethodPost, "/api/v1/accounts", treasury.Account{
		Name: "Mala", IBAN: "ES0000000000000000000000", Currency: "EUR",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownFieldRejected(t *testing.T) {
	ts := newTestServer(t, Options{Token: testToken})
	w := ts.do(t, http.MethodPost, "/api/v1/accounts", map[string]any{
		"name": "X", "currency": "EUR", "sorpresa": true,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderLifecycle(t *testing.T) {
	ts := newTestServer(t, Options{Token: testToken})
	ctx := context.Background()

	acc := treasury.Account{Name: "Operativa", Currency: "EUR", Balance: money.FromCents(1000000), Active: true}
	require.NoError(t, ts.store.CreateAccount(ctx, &acc))
	sup := treasury.ThirdParty{Name: "Proveedor SL", Kind: treasury.PartySupplier}
	require.NoError(t, ts.store.CreateThirdParty(ctx, &sup))

	w := ts.do(t, http.MethodPost, "/api/v1/payment-orders", treasury.PaymentOrder{
		AccountID: acc.ID, ThirdPartyID: sup.ID, Amount: money.FromCents(-250000),
		Concept: "Factura 123", DueDate: treasury.MustDate("2026-04-10"),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decodeBody[treasury.PaymentOrder](t, w)
	assert.Equal(t, treasury.OrderPending, order.Status)

	w = ts.do(t, http.MethodPost, "/api/v1/payment-orders/"+order.ID+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, treasury.OrderConfirmed, decodeBody[treasury.PaymentOrder](t, w).Status)

	got, err := ts.store.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(750000), got.Balance.Cents())

	// Confirming twice is a state conflict.
	w = ts.do(t, http.MethodPost, "/api/v1/payment-orders/"+order.ID+"/confirm", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Confirmed orders cannot be deleted.
	w = ts.do(t, http.MethodDelete, "/api/v1/payment-orders/"+order.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPayrollWizardOverHTTP(t *testing.T) {
	ts := newTestServer(t, Options{Token: testToken})
	ctx := context.Background()

	acc := treasury.Account{Name: "Operativa", Currency: "EUR", Balance: money.FromCents(2000000), Active: true}
	require.NoError(t, ts.store.CreateAccount(ctx, &acc))
	emp := treasury.ThirdParty{Name: "Ana García", Kind: treasury.PartyEmployee, IBAN: "ES9121000418450200051332"}
	require.NoError(t, ts.store.CreateThirdParty(ctx, &emp))

	w := ts.do(t, http.MethodPost, "/api/v1/payroll-batches", treasury.PayrollBatch{
		Name: "Nóminas abril", Period: "2026-04", AccountID: acc.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	batch := decodeBody[treasury.PayrollBatch](t, w)
	base := "/api/v1/payroll-batches/" + batch.ID

	// Advancing past the employees step without lines is a conflict.
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, base+"/advance", nil).Code)
	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, base+"/advance", nil).Code)

	w = ts.do(t, http.MethodPut, base+"/lines", treasury.PayrollLine{
		EmployeeID: emp.ID, Amount: money.FromCents(185000),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, base+"/advance", nil).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, base+"/advance", nil).Code)

	w = ts.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, treasury.BatchSubmitted, decodeBody[treasury.PayrollBatch](t, w).Status)

	w = ts.do(t, http.MethodGet, "/api/v1/payment-orders?status=pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]treasury.PaymentOrder](t, w), 1)

	// Submitted batches cannot be cancelled.
	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, base+"/cancel", nil).Code)
}

func TestGenerateAndSettleInstances(t *testing.T) {
	ts := newTestServer(t, Options{Token: testToken})
	ctx := context.Background()

	acc := treasury.Account{Name: "Operativa", Currency: "EUR", Balance: money.FromCents(500000), Active: true}
	require.NoError(t, ts.store.CreateAccount(ctx, &acc))

	w := ts.do(t, http.MethodPost, "/api/v1/recurring", map[string]any{
		"name":       "Alquiler",
		"account_id": acc.ID,
		"active":     true,
		"first_version": map[string]any{
			"amount":         -80000,
			"schedule":       map[string]any{"frequency": "monthly", "interval": 1, "anchor_day": 1},
			"effective_from": "2026-01-01T00:00:00Z",
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decodeBody[treasury.RecurringTransaction](t, w)

	w = ts.do(t, http.MethodPost, "/api/v1/recurring/generate", map[string]string{"horizon": "2026-03-31"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 3, decodeBody[map[string]int](t, w)["created"])

	w = ts.do(t, http.MethodGet, "/api/v1/recurring/instances?recurring_id="+rec.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	insts := decodeBody[[]treasury.Instance](t, w)
	require.Len(t, insts, 3)

	w = ts.do(t, http.MethodPost, "/api/v1/recurring/instances/"+insts[0].ID+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)

	got, err := ts.store.GetAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(420000), got.Balance.Cents())

	// Re-settling is a conflict.
	assert.Equal(t, http.StatusConflict, ts.do(t, http.MethodPost, "/api/v1/recurring/instances/"+insts[0].ID+"/skip", nil).Code)
}

func TestAlertScanEndpoint(t *testing.T) {
	ts := newTestServer(t, Options{Token: testToken})
	ctx := context.Background()

	acc := treasury.Account{Name: "Operativa", Currency: "EUR", Balance: money.FromCents(5000), Active: true}
	require.NoError(t, ts.store.CreateAccount(ctx, &acc))

	w := ts.do(t, http.MethodPost, "/api/v1/alerts/scan", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decodeBody[map[string]int](t, w)["fired"])

	w = ts.do(t, http.MethodGet, "/api/v1/alerts?unacked=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	alerts := decodeBody[[]treasury.Alert](t, w)
	require.Len(t, alerts, 1)

	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodPost, "/api/v1/alerts/"+alerts[0].ID+"/ack", nil).Code)
}

func TestPositionReportEndpoint(t *testing.T) {
	ts := newTestServer(t, Options{Token: testToken})
	ctx := context.Background()

	acc := treasury.Account{Name: "Operativa", Currency: "EUR", Balance: money.FromCents(1234500), Active: true}
	require.NoError(t, ts.store.CreateAccount(ctx, &acc))

	w := ts.do(t, http.MethodGet, "/api/v1/reports/position", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pos struct {
		TotalCash int64 `json:"total_cash"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pos))
	assert.Equal(t, int64(1234500), pos.TotalCash)

	w = ts.do(t, http.MethodGet, "/api/v1/reports/position?horizon_days=0", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, Options{
		Token:   testToken,
		Limiter: ratelimit.NewStore(1, 2),
	})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/v1/accounts", nil).Code, fmt.Sprintf("request %d", i))
	}
	w := ts.do(t, http.MethodGet, "/api/v1/accounts", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}
