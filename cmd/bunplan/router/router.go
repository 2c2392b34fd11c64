// Package router configures the bunplan HTTP API.
//
// Routes:
//   - GET /forecast/current?location=<name> - Latest order-plan snapshot
//   - GET /healthz - Health check
//   - GET /metrics - Prometheus metrics
//
// The snapshot endpoint returns the full pipeline output as JSON: the 7-day
// plan with point and safety-stock quantities, the evaluation of the model
// that produced it, and the feature importance map. Snapshots older than
// the stale threshold carry an X-Bunplan-Stale header so the reporting
// layer can warn rather than silently display old numbers.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zkovac/bunplan/pkg/httpx"
	"github.com/zkovac/bunplan/pkg/storage"
)

// SetupRoutes configures the HTTP endpoints.
func SetupRoutes(store storage.Store, staleAfter time.Duration, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("/healthz", httpx.HealthHandler())
	mux.HandleFunc("/forecast/current", handleGetSnapshot(store, staleAfter, logger))
	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

// handleGetSnapshot returns a handler for GET /forecast/current?location=<name>.
func handleGetSnapshot(store storage.Store, staleAfter time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		location := r.URL.Query().Get("location")
		if location == "" {
			httpx.WriteErrorMessage(w, http.StatusBadRequest, "location parameter required")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		snapshot, found, err := store.GetLatest(ctx, location)
		if err != nil {
			logger.Error("failed to get snapshot", "location", location, "error", err)
			httpx.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error")
			return
		}

		if !found {
			httpx.WriteErrorMessage(w, http.StatusNotFound, fmt.Sprintf("no forecast for location %q", location))
			return
		}

		if time.Since(snapshot.GeneratedAt) > staleAfter {
			w.Header().Set("X-Bunplan-Stale", "true")
		}

		if err := httpx.WriteJSON(w, http.StatusOK, snapshot); err != nil {
			logger.Error("failed to write snapshot", "location", location, "error", err)
		}
	}
}
