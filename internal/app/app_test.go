package app_test

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-kasir/internal/app"
	"github.com/noah-isme/toko-kasir/internal/config"
	"github.com/noah-isme/toko-kasir/internal/obs"
	"github.com/noah-isme/toko-kasir/internal/pricing"
)

type fixture struct {
	server  *httptest.Server
	metrics *obs.RegisterMetrics
}

func newFixture(t *testing.T, withRedis bool) fixture {
	t.Helper()
	cfg := &config.Config{
		AppEnv:         "test",
		BodyLimitBytes: 1 << 16,
		Pricing:        pricing.DefaultRules(),
		Obs:            config.ObsConfig{MetricsNamespace: "kasir"},
	}
	logger := zerolog.Nop()
	registry := prometheus.NewRegistry()
	metrics := obs.NewRegisterMetrics("kasir", registry)

	reg, err := app.NewRegister(cfg, app.NewBus(logger, metrics))
	require.NoError(t, err)

	deps := app.Dependencies{Config: cfg, Logger: logger, Register: reg, Registry: registry, Metrics: metrics}
	if withRedis {
		mr, err := miniredis.Run()
		require.NoError(t, err)
		t.Cleanup(mr.Close)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		deps.Redis = client
	}

	router, err := app.NewRouter(deps)
	require.NoError(t, err)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return fixture{server: srv, metrics: metrics}
}

func (f fixture) do(t *testing.T, method, path, body string, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestRouterSaleFlow(t *testing.T) {
	f := newFixture(t, true)

	resp, body := f.do(t, http.MethodGet, "/api/v1/catalog", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Data []map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list.Data, 10)

	for _, item := range []string{
		`{"query":"101","quantity":"2"}`,
		`{"query":"201","quantity":"5"}`,
		`{"query":"102","quantity":"1"}`,
		`{"query":"501","quantity":"1"}`,
	} {
		resp, body = f.do(t, http.MethodPost, "/api/v1/register/items", item, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	resp, body = f.do(t, http.MethodGet, "/api/v1/register", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `"total":"23.09"`)

	pay := map[string]string{"Idempotency-Key": "till-1-sale-1"}
	resp, first := f.do(t, http.MethodPost, "/api/v1/register/payments", `{"amountPaid":"30"}`, pay)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(first))
	require.Contains(t, string(first), `"change":"6.92"`)

	resp, second := f.do(t, http.MethodPost, "/api/v1/register/payments", `{"amountPaid":"30"}`, pay)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "true", resp.Header.Get("Idempotent-Replayed"))
	require.JSONEq(t, string(first), string(second))
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.SalesTotal))

	resp, _ = f.do(t, http.MethodPost, "/api/v1/register/payments", `{"amountPaid":"30"}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body = f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "kasir_register_sales_total 1")
	require.Contains(t, string(body), `kasir_register_failures_total{kind="payment_failure",operation="pay"} 1`)
	require.Contains(t, string(body), "kasir_http_requests_total")
	require.Contains(t, string(body), `kasir_breaker_state{target="idempotency"} 0`)
}

func TestRouterErrorsAndHealth(t *testing.T) {
	f := newFixture(t, false)

	resp, body := f.do(t, http.MethodPost, "/api/v1/register/items", `{"query":"ch","quantity":1}`, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var failure struct {
		Error struct {
			Code    string         `json:"code"`
			Kind    string         `json:"kind"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &failure))
	require.Equal(t, "AMBIGUOUS", failure.Error.Code)
	require.Equal(t, "resolution_failure", failure.Error.Kind)
	require.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CatalogLookups.WithLabelValues("ambiguous")))

	resp, _ = f.do(t, http.MethodGet, "/api/v1/catalog/lookup?q=milk", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/nowhere", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body = f.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `"catalog":"ok"`)
	require.NotContains(t, string(body), "redis")

	resp, _ = f.do(t, http.MethodPost, "/api/v1/register/items", `{"query":"`+strings.Repeat("x", 1<<17)+`","quantity":1}`, nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)

	resp, body = f.do(t, http.MethodDelete, "/api/v1/register/items", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `"state":"empty"`)
}

func TestRouterSettlesHugeQuantities(t *testing.T) {
	f := newFixture(t, true)

	for i := 0; i < 2; i++ {
		resp, body := f.do(t, http.MethodPost, "/api/v1/register/items", `{"query":"101","quantity":"9223372036854775807"}`, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	}

	resp, body := f.do(t, http.MethodPost, "/api/v1/register/payments", `{"amountPaid":"1e30"}`, map[string]string{"Idempotency-Key": "big-sale"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	require.Equal(t, float64(math.MaxInt64), testutil.ToFloat64(f.metrics.UnitsSold))

	resp, body = f.do(t, http.MethodGet, "/api/v1/register", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `"state":"empty"`)
}

func TestRouterNegativePaymentIsInsufficient(t *testing.T) {
	f := newFixture(t, false)

	resp, _ := f.do(t, http.MethodPost, "/api/v1/register/items", `{"query":"101","quantity":"1"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := f.do(t, http.MethodPost, "/api/v1/register/payments", `{"amountPaid":"-5"}`, nil)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, string(body), `"code":"PAYMENT_FAILED"`)
}

func TestNewRouterRequiresRegister(t *testing.T) {
	_, err := app.NewRouter(app.Dependencies{Config: &config.Config{}})
	require.Error(t, err)
}
