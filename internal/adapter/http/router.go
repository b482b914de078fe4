package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/voucherledger/internal/adapter/http/handler"
	"github.com/iho/voucherledger/internal/adapter/http/middleware"
	"github.com/iho/voucherledger/internal/infrastructure/metrics"
	"github.com/iho/voucherledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	CompanyHandler *handler.CompanyHandler
	VehicleHandler *handler.VehicleHandler
	VoucherHandler *handler.VoucherHandler
	ReportHandler  *handler.ReportHandler
	MergeHandler   *handler.MergeHandler
	HealthHandler  *handler.HealthHandler

	Logger zerolog.Logger
	// Optional
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	RateLimiter      *middleware.RateLimiter
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
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
	} else if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		r.Route("/companies", func(r chi.Router) {
			r.Post("/", cfg.CompanyHandler.Create)
			r.Get("/", cfg.CompanyHandler.List)
			r.Get("/{id}", cfg.CompanyHandler.Get)
			r.Post("/{id}/deactivate", cfg.CompanyHandler.Deactivate)
			r.Get("/{id}/next-voucher-number", cfg.CompanyHandler.NextVoucherNumber)
			r.Post("/{id}/voucher-number", cfg.CompanyHandler.CommitVoucherNumber)
			r.Get("/{id}/vehicles", cfg.VehicleHandler.ListByCompany)
			r.Get("/{id}/vouchers", cfg.VoucherHandler.ListByCompany)
			r.Get("/{id}/trial-balance", cfg.ReportHandler.TrialBalance)
			r.Get("/{id}/recovery", cfg.ReportHandler.Recovery)
		})

		r.Route("/vehicles", func(r chi.Router) {
			r.Post("/", cfg.VehicleHandler.Create)
			r.Get("/{id}", cfg.VehicleHandler.Get)
			r.Delete("/{id}", cfg.VehicleHandler.Delete)
			r.Post("/{id}/deactivate", cfg.VehicleHandler.Deactivate)
			r.Get("/{id}/vouchers", cfg.VoucherHandler.ListByVehicle)
			r.Get("/{id}/balance", cfg.ReportHandler.Balance)
			r.Get("/{id}/ledger", cfg.ReportHandler.Ledger)
			r.Get("/{id}/reconciliation", cfg.ReportHandler.Reconciliation)
			r.Post("/{id}/merge", cfg.MergeHandler.Merge)
		})

		r.Route("/vouchers", func(r chi.Router) {
			r.Post("/", cfg.VoucherHandler.Create)
			r.Get("/{id}", cfg.VoucherHandler.Get)
			r.Patch("/{id}", cfg.VoucherHandler.Update)
			r.Delete("/{id}", cfg.VoucherHandler.Delete)
		})
	})

	return r
}
