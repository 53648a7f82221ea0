// internal/server/ops.go
//
// Operational HTTP endpoint.
//
// Context
// -------
// The bot itself speaks only the messaging platform; this small chi router
// exposes the process to infrastructure: Prometheus scrapes /metrics, and
// the orchestrator probes /healthz, which is backed by a live database
// ping so a wedged pool flips the probe.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const healthPingTimeout = 2 * time.Second

// OpsHandler returns the router for the operational endpoint.
func OpsHandler(db *sqlx.DB) http.Handler {
	r := chi.NewRouter()

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), healthPingTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			zap.S().Warnw("health probe failed", "err", err)
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return r
}
