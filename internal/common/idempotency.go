package common

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-kasir/internal/resilience"
)

const idemPending = "pending"

// Idem provides an Idempotency-Key middleware backed by Redis. The first
// response for a key is stored and replayed for retries within TTL. An open
// Breaker skips the store entirely.
type Idem struct {
	R       redis.Cmdable
	TTL     time.Duration
	Logger  zerolog.Logger
	Breaker *resilience.Breaker
}

type idemRecord struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// storeKey scopes the client key to the route so one key cannot replay a
// different operation.
func storeKey(r *http.Request, key string) string {
	sum := sha256.Sum256([]byte(r.Method + " " + r.URL.Path + " " + key))
	return "idem:" + hex.EncodeToString(sum[:])
}

// Middleware enforces idempotency semantics for write endpoints. Store
// failures are logged and the request proceeds without protection.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := r.Context()
		if i.Breaker != nil && !i.Breaker.Allow(ctx) {
			next.ServeHTTP(w, r)
			return
		}
		key := storeKey(r, header)
		ok, err := i.R.SetNX(ctx, key, idemPending, i.ttl()).Result()
		if i.Breaker != nil {
			i.Breaker.Report(ctx, err == nil)
		}
		if err != nil {
			i.Logger.Warn().Err(err).Str("path", r.URL.Path).Msg("idempotency store unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			i.replay(ctx, w, key)
			return
		}

		capture := &responseCapture{ResponseWriter: w, status: http.StatusOK}
		completed := false
		defer func() {
			if completed && capture.status < http.StatusInternalServerError {
				i.store(key, capture)
				return
			}
			// let the client retry after a server failure or panic
			_ = i.R.Del(context.Background(), key).Err()
		}()
		next.ServeHTTP(capture, r)
		completed = true
	})
}

func (i Idem) replay(ctx context.Context, w http.ResponseWriter, key string) {
	raw, err := i.R.Get(ctx, key).Bytes()
	if err != nil || string(raw) == idemPending {
		JSONError(w, http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "a request with this idempotency key is still in progress", nil)
		return
	}
	var rec idemRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		i.Logger.Warn().Err(err).Msg("idempotency record unreadable")
		JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
		return
	}
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(rec.Status)
	_, _ = w.Write(rec.Body)
}

func (i Idem) store(key string, capture *responseCapture) {
	payload, err := json.Marshal(idemRecord{
		Status:      capture.status,
		ContentType: capture.Header().Get("Content-Type"),
		Body:        capture.body.Bytes(),
	})
	if err != nil {
		return
	}
	if err := i.R.Set(context.Background(), key, payload, i.ttl()).Err(); err != nil {
		i.Logger.Warn().Err(err).Msg("idempotency record not saved")
	}
}

func (i Idem) ttl() time.Duration {
	if i.TTL <= 0 {
		return 24 * time.Hour
	}
	return i.TTL
}

type responseCapture struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(p []byte) (int, error) {
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}
