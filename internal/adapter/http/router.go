package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/creditledger/internal/adapter/http/handler"
	"github.com/iho/creditledger/internal/adapter/http/middleware"
	"github.com/iho/creditledger/internal/infrastructure/auth"
	"github.com/iho/creditledger/internal/infrastructure/metrics"
	"github.com/iho/creditledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	LedgerHandler      *handler.LedgerHandler
	ConsistencyHandler *handler.ConsistencyHandler
	HealthHandler      *handler.HealthHandler
	// AuthHandler is only mounted when JWTManager is set.
	AuthHandler *handler.AuthHandler

	// JWTManager enables bearer authentication on /api/v1. Nil disables it.
	JWTManager       *auth.JWTManager
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *metrics.Metrics
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
	Logger         zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			var recorder middleware.AuthFailureRecorder
			if cfg.Metrics != nil {
				recorder = cfg.Metrics
			}
			r.Use(middleware.AuthMiddleware(cfg.JWTManager, recorder))
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		r.Route("/customers/{customerID}", func(r chi.Router) {
			r.Post("/credit", cfg.LedgerHandler.Credit)
			r.Post("/debit", cfg.LedgerHandler.Debit)
			r.Get("/balance", cfg.LedgerHandler.Balance)
			r.Get("/history", cfg.LedgerHandler.DebitHistory)
			r.Get("/credits", cfg.LedgerHandler.CreditHistory)
			r.Get("/reconciliation", cfg.ConsistencyHandler.Customer)
		})

		r.Get("/ledger/consistency", cfg.ConsistencyHandler.Check)

		if cfg.JWTManager != nil && cfg.AuthHandler != nil {
			r.Post("/auth/tokens", cfg.AuthHandler.IssueToken)
		}
	})

	return r
}
