package main

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	authhandler "landregistry/internal/auth/handler"
	authservice "landregistry/internal/auth/service"
	"landregistry/internal/dashboard"
	"landregistry/internal/lookup"
	"landregistry/internal/platform/config"
	"landregistry/internal/platform/metrics"
	"landregistry/internal/platform/middleware"
	workflowhandler "landregistry/internal/workflow/handler"
	workflow "landregistry/internal/workflow/service"
	"landregistry/pkg/platform/httputil"
	"landregistry/pkg/platform/middleware/auth"
	"landregistry/pkg/platform/middleware/device"
	"landregistry/pkg/platform/middleware/metadata"
	"landregistry/pkg/platform/middleware/ratelimit"
	"landregistry/pkg/platform/middleware/request"
	"landregistry/pkg/platform/middleware/requesttime"
	"landregistry/pkg/platform/middleware/reviewer"
)

type routerDeps struct {
	cfg       *config.Config
	log       *zap.Logger
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	db        *sql.DB
	auth      *authservice.Service
	workflow  *workflow.Service
	uploads   workflowhandler.FileStore
	dashboard *dashboard.Service
	lookup    *lookup.Service
}

// newRouter mounts three groups: public, citizen (bearer token) and
// reviewer (bearer token plus government domain).
func newRouter(d routerDeps) http.Handler {
	devMode := d.cfg.Server.DevelopmentMode
	limiter := ratelimit.New(d.cfg.RateLimit.RequestsPerSecond, d.cfg.RateLimit.Burst)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Recovery(d.log))
	r.Use(middleware.Logger(d.log))
	r.Use(middleware.Latency(d.metrics))
	r.Use(device.Middleware(d.log))
	r.Use(limiter.Middleware(d.log))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := d.db.PingContext(req.Context()); err != nil {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))

	authhandler.New(d.auth, d.log, devMode).Register(r)
	lookups := lookup.NewHandler(d.lookup, d.log, devMode)
	lookups.RegisterPublic(r)

	requests := workflowhandler.New(d.workflow, d.uploads, d.log, devMode)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(d.auth, d.log))
		requests.RegisterRequests(r)
		lookups.RegisterOwner(r)

		r.Group(func(r chi.Router) {
			r.Use(reviewer.RequireReviewer(d.cfg.Auth.GovernmentDomain, d.log))
			requests.RegisterReview(r)
			dashboard.NewHandler(d.dashboard, d.log, devMode).Register(r)
			lookups.RegisterReview(r)
		})
	})
	return r
}
