// Package app assembles the register, its observers and the HTTP router.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-kasir/internal/catalog"
	"github.com/noah-isme/toko-kasir/internal/common"
	"github.com/noah-isme/toko-kasir/internal/config"
	"github.com/noah-isme/toko-kasir/internal/events"
	"github.com/noah-isme/toko-kasir/internal/health"
	"github.com/noah-isme/toko-kasir/internal/obs"
	"github.com/noah-isme/toko-kasir/internal/register"
	"github.com/noah-isme/toko-kasir/internal/resilience"
	"github.com/noah-isme/toko-kasir/internal/security"
)

// Dependencies enumerates what the router needs. Redis and the metrics
// registry are optional.
type Dependencies struct {
	Config         *config.Config
	Logger         zerolog.Logger
	Register       *register.Register
	Redis          redis.Cmdable
	Registry       *prometheus.Registry
	Metrics        *obs.RegisterMetrics
	TracingEnabled bool
}

// NewBus returns an event bus that logs every register event and, when
// metrics are given, folds them into Prometheus collectors.
func NewBus(logger zerolog.Logger, metrics *obs.RegisterMetrics) *events.Bus {
	notifiers := []events.Notifier{obs.LogNotifier{Logger: logger}}
	if metrics != nil {
		notifiers = append(notifiers, obs.MetricsNotifier{Metrics: metrics})
	}
	return &events.Bus{
		Notifiers: notifiers,
		OnError: func(ev events.Event, err error) {
			logger.Warn().Err(err).Str("topic", ev.Topic).Str("event_id", ev.ID).Msg("event notifier failed")
		},
	}
}

// NewRegister builds a register over the default catalog using cfg's pricing rules.
func NewRegister(cfg *config.Config, bus register.Publisher) (*register.Register, error) {
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	return register.New(register.Config{
		Catalog: catalog.Default(),
		Rules:   cfg.Pricing,
		Events:  bus,
	})
}

// NewRouter wires middleware and routes.
func NewRouter(deps Dependencies) (http.Handler, error) {
	if deps.Config == nil || deps.Register == nil {
		return nil, errors.New("app: config and register are required")
	}
	cfg := deps.Config
	logger := deps.Logger

	var httpMetrics *obs.HTTPMetrics
	if deps.Registry != nil {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.HistogramBuckets), deps.Registry)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if deps.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.CORS(cfg.CORSAllowedOrigins))
	r.Use(security.Headers{Enable: true, EnableHSTS: cfg.AppEnv == "production", NoStorePrefix: "/api/"}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{Registry: deps.Registry}))
	}

	checks := map[string]health.Check{
		"catalog": func(context.Context) error {
			if deps.Register.Catalog().Len() == 0 {
				return errors.New("catalog is empty")
			}
			return nil
		},
	}
	if deps.Redis != nil {
		checks["redis"] = func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}
	}
	healthHandler := health.Handler{Checks: checks}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	var recorder register.Recorder
	var lookupRecorder catalog.LookupRecorder
	if deps.Metrics != nil {
		recorder = deps.Metrics
		lookupRecorder = deps.Metrics
	}
	registerHandler := &register.Handler{Register: deps.Register, Recorder: recorder}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Catalog: deps.Register.Catalog(), Recorder: lookupRecorder})
	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL, Logger: logger}
	if deps.Redis != nil {
		var breakerMetrics *resilience.BreakerMetrics
		if deps.Registry != nil {
			breakerMetrics = resilience.NewBreakerMetrics(cfg.Obs.MetricsNamespace, deps.Registry)
		}
		idem.Breaker = resilience.NewBreaker(resilience.BreakerConfig{
			Target:       "idempotency",
			MinRequests:  5,
			FailureRatio: 0.5,
			OpenFor:      30 * time.Second,
			Logger:       logger,
			Metrics:      breakerMetrics,
		})
	}

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/catalog", catalogHandler.List)
		v.Get("/catalog/lookup", catalogHandler.Lookup)

		v.Route("/register", func(reg chi.Router) {
			reg.Get("/", registerHandler.Get)
			reg.Delete("/items", registerHandler.Clear)
			reg.Group(func(g chi.Router) {
				g.Use(idem.Middleware)
				g.Post("/items", registerHandler.AddItem)
				g.Post("/payments", registerHandler.Pay)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})
	return r, nil
}
