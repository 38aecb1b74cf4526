// Package server exposes the registration pipeline over HTTP.
package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"

	"meduhub/internal/config"
	"meduhub/internal/metrics"
	"meduhub/internal/services"
)

// Options controls optional parts of the handler chain
type Options struct {
	// Metrics mounts /metrics and records per-request Prometheus metrics
	Metrics bool
}

// New builds the HTTP handler.
// Chain: security headers -> request id -> CORS -> logging -> metrics -> routes.
func New(cfg *config.Config, registrations *services.RegistrationService, health *services.HealthService, log *logrus.Logger, opts Options) http.Handler {
	mux := goahttp.NewMuxer()
	h := &handlers{
		registrations: registrations,
		health:        health,
		vars:          mux.Vars,
		log:           log.WithField("component", "http"),
	}
	h.mount(mux)

	var root http.Handler = middleware.PopulateRequestContext()(mux)
	if opts.Metrics {
		routes := root
		promHandler := promhttp.Handler()
		root = metrics.PrometheusMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/metrics" {
				promHandler.ServeHTTP(w, r)
				return
			}
			routes.ServeHTTP(w, r)
		}))
	}

	handler := requestLogging(root, h.log)
	handler = cors(handler, cfg)
	handler = requestIDHeader(handler)
	handler = middleware.RequestID(middleware.UseXRequestIDHeaderOption(true))(handler)
	return securityHeaders(handler, cfg)
}
