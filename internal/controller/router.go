package controller

import (
	"time"

	"github.com/finadigital/wifipass/internal/infrastructure/config"
	"github.com/finadigital/wifipass/internal/infrastructure/observability"
	customMW "github.com/finadigital/wifipass/internal/middleware"
	"github.com/finadigital/wifipass/internal/service"
	"github.com/finadigital/wifipass/internal/store"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterDeps struct {
	Storefront *service.Storefront
	Sessions   *store.SessionStore
	Metrics    *observability.Metrics
	Config     *config.Config
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: deps.Config.Server.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Sessions)
	catalogH := NewCatalogController(deps.Storefront, deps.Config.Checkout)
	sessionH := NewSessionController(deps.Storefront, deps.Config.Portal)
	codeH := NewCodeController(deps.Storefront, deps.Config.Portal)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/passes", catalogH.List)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionH.Create)
			r.Get("/{id}", sessionH.Get)
			r.Post("/{id}/select", sessionH.SelectPass)
			r.Post("/{id}/checkout", sessionH.BeginCheckout)
			r.Post("/{id}/complete", sessionH.Complete)
			r.Post("/{id}/cancel", sessionH.Cancel)
			r.Post("/{id}/manual", sessionH.Manual)
			r.Post("/{id}/reset", sessionH.Reset)
			r.Get("/{id}/code", sessionH.Code)
		})

		// The lookup hits the upstream webhook on every call, so it gets
		// its own per-IP budget.
		r.With(customMW.RateLimit(deps.Config.Server.RateLimitPerMin)).
			Post("/code/lookup", codeH.Lookup)
	})

	return r
}
