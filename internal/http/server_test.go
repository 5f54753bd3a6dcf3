package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pfm/internal/core"
	"pfm/internal/log"
	"pfm/internal/middleware/trace"
	"pfm/internal/provider/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.NewReference(memory.WithLatency(false), memory.WithSeed(42))
	srv := NewServer(Config{Addr: ":0", RateLimitRPM: 1000, FetchTimeout: 2 * time.Second}, store, log.Discard())
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, store
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := get(t, srv, path)
		assert.Equal(t, http.StatusOK, rr.Code, path)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	}
}

func TestReadyFailsWhenProviderFails(t *testing.T) {
	srv, store := newTestServer(t)
	store.Fail(memory.OpCurrentUser, errors.New("backend down"))

	rr := get(t, srv, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "backend down")
}

func TestIndexRendersShell(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(t, srv, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `/static/home.js`)
	assert.Contains(t, body, `class="period selected" data-period="1M"`)
	for _, p := range core.AllPeriods() {
		assert.Contains(t, body, `data-period="`+p.Label()+`"`)
	}

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/nope").Code)
}

func TestStaticAssets(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(t, srv, "/static/home.js")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "public, max-age=3600", rr.Header().Get("Cache-Control"))
}

func TestMiddlewareChain(t *testing.T) {
	srv, _ := newTestServer(t)

	rr := get(t, srv, "/healthz")
	assert.True(t, strings.HasPrefix(rr.Header().Get(trace.RequestIDHeader), "req_"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
}

func TestRateLimit(t *testing.T) {
	store := memory.NewReference(memory.WithLatency(false))
	srv := NewServer(Config{RateLimitRPM: 2}, store, log.Discard())
	defer srv.Shutdown(context.Background())

	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, srv, "/healthz").Code)
}

func TestAPI(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("user", func(t *testing.T) {
		rr := get(t, srv, "/api/user")
		require.Equal(t, http.StatusOK, rr.Code)
		user := decode[userView](t, rr)
		assert.Equal(t, "John", user.Name)
		assert.Equal(t, int64(1355300), user.BalanceCents)
		assert.Equal(t, "$13,553.00", user.BalanceFormatted)
	})

	t.Run("recipients", func(t *testing.T) {
		rr := get(t, srv, "/api/recipients")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decode[[]recipientView](t, rr), 7)
	})

	t.Run("categories", func(t *testing.T) {
		rr := get(t, srv, "/api/categories")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Len(t, decode[[]categoryView](t, rr), 7)
	})

	t.Run("recent transactions", func(t *testing.T) {
		rr := get(t, srv, "/api/transactions/recent")
		require.Equal(t, http.StatusOK, rr.Code)
		txns := decode[[]transactionView](t, rr)
		require.Len(t, txns, 8)
		assert.Equal(t, "txn_1", txns[0].ID)
		assert.NotEmpty(t, txns[0].RelativeTime)
	})

	t.Run("filters", func(t *testing.T) {
		tests := []struct {
			query string
			want  int
		}{
			{"", 8},
			{"?type=CREDIT", 3},
			{"?type=debit", 5},
			{"?category=" + memory.CategoryFood, 2},
			{"?category=" + memory.CategoryFood + "&type=CREDIT", 0},
			{"?category=cat_unknown", 0},
		}
		for _, tt := range tests {
			rr := get(t, srv, "/api/transactions"+tt.query)
			require.Equal(t, http.StatusOK, rr.Code, tt.query)
			assert.Len(t, decode[[]transactionView](t, rr), tt.want, tt.query)
		}
	})

	t.Run("bad type", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/transactions?type=REFUND").Code)
	})

	t.Run("single transaction", func(t *testing.T) {
		rr := get(t, srv, "/api/transactions/txn_5")
		require.Equal(t, http.StatusOK, rr.Code)
		tx := decode[transactionView](t, rr)
		assert.Equal(t, "Salary", tx.Title)
		assert.Equal(t, "+ 3,500.00", tx.AmountFormatted)
		assert.Nil(t, tx.Recipient)

		assert.Equal(t, http.StatusNotFound, get(t, srv, "/api/transactions/txn_404").Code)
	})

	t.Run("balance", func(t *testing.T) {
		rr := get(t, srv, "/api/balance")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int64(1420076), decode[balanceView](t, rr).BalanceCents)
	})

	t.Run("history", func(t *testing.T) {
		rr := get(t, srv, "/api/history?period=1Y")
		require.Equal(t, http.StatusOK, rr.Code)
		h := decode[historyView](t, rr)
		assert.Equal(t, "1Y", h.Period)
		assert.Len(t, h.Points, core.OneYear.Points())

		rr = get(t, srv, "/api/history")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "1M", decode[historyView](t, rr).Period)

		assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/history?period=7D").Code)
	})
}

func TestAPIProviderFailure(t *testing.T) {
	srv, store := newTestServer(t)
	store.Fail(memory.OpRecipients, errors.New("timeout talking to upstream"))

	rr := get(t, srv, "/api/recipients")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "data provider error", decode[errorResponse](t, rr).Error)
}

func TestTransactionLookupCache(t *testing.T) {
	srv, store := newTestServer(t)

	require.Equal(t, http.StatusOK, get(t, srv, "/api/transactions/txn_2").Code)

	// Served from cache even though the provider now fails.
	store.Fail(memory.OpTransactionByID, errors.New("down"))
	assert.Equal(t, http.StatusOK, get(t, srv, "/api/transactions/txn_2").Code)
	assert.Equal(t, int64(1), srv.metrics.cacheHits)
	assert.Equal(t, int64(1), srv.metrics.cacheMisses)

	assert.Equal(t, http.StatusBadGateway, get(t, srv, "/api/transactions/txn_3").Code)

	metrics := get(t, srv, "/metrics").Body.String()
	assert.Contains(t, metrics, "lookup_cache_hits_total 1")
	assert.Contains(t, metrics, "home_sessions 0")
}
