package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func request(h http.Handler, remote string, headers map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	r.RemoteAddr = remote
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_BurstThenDeny(t *testing.T) {
	store := NewStore(1, 2)
	h := Middleware(Options{Store: store, RetryAfter: 3 * time.Second})(okHandler())

	assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:1234", nil).Code)
	assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:1234", nil).Code)

	w := request(h, "10.0.0.1:1234", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3", w.Header().Get("Retry-After"))
}

func TestMiddleware_KeysAreIndependent(t *testing.T) {
	store := NewStore(1, 1)
	h := Middleware(Options{Store: store})(okHandler())

	assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:1234", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, request(h, "10.0.0.1:9999", nil).Code)
	assert.Equal(t, http.StatusOK, request(h, "10.0.0.2:1234", nil).Code)
}

func TestMiddleware_KeyHeaderWins(t *testing.T) {
	store := NewStore(1, 1)
	h := Middleware(Options{Store: store, KeyHeader: "X-Api-Key"})(okHandler())

	assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:1234", map[string]string{"X-Api-Key": "alice"}).Code)
	// Same IP, different key: fresh bucket.
	assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:1234", map[string]string{"X-Api-Key": "bob"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, request(h, "10.0.0.2:1234", map[string]string{"X-Api-Key": "alice"}).Code)
}

func TestMiddleware_XForwardedFor(t *testing.T) {
	store := NewStore(1, 1)
	h := Middleware(Options{Store: store, TrustXForwardedFor: true})(okHandler())

	xff := map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}
	assert.Equal(t, http.StatusOK, request(h, "10.0.0.1:1234", xff).Code)
	assert.Equal(t, http.StatusTooManyRequests, request(h, "10.0.0.9:5678", xff).Code)
}

func TestMiddleware_RecordsStats(t *testing.T) {
	store := NewStore(1, 1)
	stats := NewMemoryStats()
	h := Middleware(Options{Store: store, Stats: stats})(okHandler())

	request(h, "10.0.0.1:1234", nil)
	request(h, "10.0.0.1:1234", nil)

	total := stats.Total()
	assert.Equal(t, int64(1), total.Allowed)
	assert.Equal(t, int64(1), total.Denied)

	byRoute := stats.ByRoute()
	require.Contains(t, byRoute, "GET /api/v1/accounts")
	assert.Equal(t, int64(1), byRoute["GET /api/v1/accounts"].Allowed)
}

func TestStore_CleanupDropsIdle(t *testing.T) {
	store := NewStore(1, 1, WithIdleTTL(time.Nanosecond))
	store.Get("a")
	store.Get("b")
	require.Equal(t, 2, store.size())

	time.Sleep(time.Millisecond)
	store.Cleanup()
	assert.Equal(t, 0, store.size())
}

func TestDefaultKeyFunc_Fallbacks(t *testing.T) {
	fn := DefaultKeyFunc("", false)
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	r.RemoteAddr = "192.0.2.4:5555"
	assert.Equal(t, "192.0.2.4", fn(r))

	r.RemoteAddr = "192.0.2.4"
	assert.Equal(t, "192.0.2.4", fn(r))

	r.RemoteAddr = ""
	assert.Equal(t, "unknown", fn(r))
}
