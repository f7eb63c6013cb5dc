/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/aggregate        Aggregation (cached)
  /api/periods/*        Named periods
  /api/persons/*        Person ingestion and breakdown
  /api/series/*         Weekly series
  /api/calendar         Calendar days
  /api/whatif           Scenario comparison
  /api/alerts/*         Alerts and resolutions
  /api/scenarios/*      Demo datasets
  /api/refresh/*        Background refresh status
  /metrics              Prometheus scrape endpoint
  /health               Liveness

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/capacity-engine/metrics"
)

// NewRouter creates a new router with all routes configured. sched may be
// nil when the refresh scheduler is not running.
func NewRouter(h *Handler, sched *RefreshScheduler, origins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/aggregate", h.Aggregate)
		r.Get("/periods/{kind}", h.GetPeriod)
		r.Get("/series/weekly", h.GetWeeklySeries)
		r.Post("/whatif", h.WhatIf)
		r.Get("/config", h.GetConfig)
		r.Get("/presets", h.ListPresets)

		// Record routes
		r.Route("/persons", func(r chi.Router) {
			r.Post("/", h.CreatePerson)
			r.Get("/{id}/breakdown", h.GetPersonBreakdown)
		})
		r.Post("/units", h.CreateUnit)
		r.Post("/work-items", h.CreateWorkItem)
		r.Post("/time-log", h.AppendTimeLog)
		r.Post("/plans", h.CreatePlan)
		r.Post("/import", h.ImportSnapshot)

		// Calendar routes
		r.Route("/calendar", func(r chi.Router) {
			r.Get("/", h.ListCalendar)
			r.Post("/", h.ImportCalendar)
		})

		// Alert routes
		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", h.ListAlerts)
			r.Post("/{id}/resolve", h.ResolveAlert)
			r.Post("/{id}/unresolve", h.UnresolveAlert)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetStore)
		})

		if sched != nil {
			r.Route("/refresh", func(r chi.Router) {
				r.Get("/last", sched.GetLastRun)
				r.Post("/run", sched.TriggerRun)
			})
		}
	})

	return r
}
