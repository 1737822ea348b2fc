package common_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-kasir/internal/common"
	"github.com/noah-isme/toko-kasir/internal/resilience"
)

func newIdem(t *testing.T) (common.Idem, *miniredis.Miniredis) {
	t.Helper()
	srv, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(srv.Close)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return common.Idem{R: client, TTL: time.Minute, Logger: zerolog.Nop()}, srv
}

func doPost(h http.Handler, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdemReplaysStoredResponse(t *testing.T) {
	idem, _ := newIdem(t)
	calls := 0
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		common.Data(w, http.StatusOK, map[string]any{"change": "6.92"})
	}))

	first := doPost(h, "/api/v1/register/payments", "abc")
	require.Equal(t, http.StatusOK, first.Code)

	second := doPost(h, "/api/v1/register/payments", "abc")
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	require.Equal(t, "application/json", second.Header().Get("Content-Type"))
	require.JSONEq(t, first.Body.String(), second.Body.String())
	require.Equal(t, 1, calls)

	other := doPost(h, "/api/v1/register/items", "abc")
	require.Equal(t, http.StatusOK, other.Code)
	require.Equal(t, 2, calls)
}

func TestIdemWithoutKeyPassesThrough(t *testing.T) {
	idem, _ := newIdem(t)
	calls := 0
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))
	doPost(h, "/api/v1/register/items", "")
	doPost(h, "/api/v1/register/items", "")
	require.Equal(t, 2, calls)
}

func TestIdemInProgressConflict(t *testing.T) {
	idem, _ := newIdem(t)
	var nested *httptest.ResponseRecorder
	var h http.Handler
	h = idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if nested == nil {
			nested = doPost(h, r.URL.Path, "dup")
		}
		w.WriteHeader(http.StatusOK)
	}))
	doPost(h, "/api/v1/register/payments", "dup")
	require.NotNil(t, nested)
	require.Equal(t, http.StatusConflict, nested.Code)
	require.Contains(t, nested.Body.String(), "IDEMPOTENCY_IN_PROGRESS")
}

func TestIdemServerErrorReleasesKey(t *testing.T) {
	idem, _ := newIdem(t)
	calls := 0
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	require.Equal(t, http.StatusInternalServerError, doPost(h, "/api/v1/register/payments", "k").Code)
	require.Equal(t, http.StatusOK, doPost(h, "/api/v1/register/payments", "k").Code)
	require.Equal(t, 2, calls)
}

func TestIdemFailsOpenWhenStoreDown(t *testing.T) {
	idem, srv := newIdem(t)
	srv.Close()
	calls := 0
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	require.Equal(t, http.StatusOK, doPost(h, "/api/v1/register/payments", "k").Code)
	require.Equal(t, 1, calls)
}

func TestIdemOpenBreakerSkipsStore(t *testing.T) {
	idem, srv := newIdem(t)
	idem.Breaker = resilience.NewBreaker(resilience.BreakerConfig{Target: "idempotency", MinRequests: 1, OpenFor: time.Hour})
	srv.Close()

	calls := 0
	h := idem.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	doPost(h, "/api/v1/register/payments", "k")
	require.Equal(t, resilience.Open, idem.Breaker.State())

	doPost(h, "/api/v1/register/payments", "k")
	require.Equal(t, 2, calls)
	require.Equal(t, resilience.Open, idem.Breaker.State())
}
