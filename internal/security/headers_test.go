package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHeaders(t *testing.T) {
	cases := []struct {
		name    string
		headers Headers
		url     string
		tls     bool
		want    map[string]string
	}{
		{
			name:    "register api over tls",
			headers: Headers{Enable: true, EnableHSTS: true, HSTSIncludeSubdomains: true, NoStorePrefix: "/api/"},
			url:     "https://till.example/api/v1/register",
			tls:     true,
			want: map[string]string{
				"X-Content-Type-Options":    "nosniff",
				"X-Frame-Options":           "DENY",
				"Cache-Control":             "no-store",
				"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
			},
		},
		{
			name:    "health stays cacheable and plain http gets no hsts",
			headers: Headers{Enable: true, EnableHSTS: true, NoStorePrefix: "/api/"},
			url:     "http://till.example/health/live",
			want: map[string]string{
				"X-Content-Type-Options":    "nosniff",
				"Cache-Control":             "",
				"Strict-Transport-Security": "",
			},
		},
		{
			name:    "disabled",
			headers: Headers{EnableHSTS: true, NoStorePrefix: "/api/"},
			url:     "https://till.example/api/v1/register",
			tls:     true,
			want: map[string]string{
				"X-Content-Type-Options":    "",
				"Cache-Control":             "",
				"Strict-Transport-Security": "",
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			if tc.tls {
				req.TLS = &tls.ConnectionState{}
			}
			rr := httptest.NewRecorder()
			tc.headers.Middleware(okHandler()).ServeHTTP(rr, req)
			for key, value := range tc.want {
				require.Equal(t, value, rr.Header().Get(key), key)
			}
		})
	}
}

func preflight(handler http.Handler, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodOptions, "http://localhost/api/v1/register/items", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Idempotency-Key")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestCORSAllowlist(t *testing.T) {
	handler := CORS([]string{"https://till.example"})(okHandler())

	rr := preflight(handler, "https://till.example")
	require.Equal(t, "https://till.example", rr.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	rr = preflight(handler, "https://elsewhere.example")
	require.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWithoutAllowlistDropsCredentials(t *testing.T) {
	rr := preflight(CORS(nil)(okHandler()), "https://any.example")
	require.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, rr.Header().Get("Access-Control-Allow-Credentials"))
}
