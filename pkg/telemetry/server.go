package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Readiness is flipped by the runner once the fleet is seeded. The zero value
// reports not ready.
type Readiness struct {
	ready atomic.Bool
}

func (r *Readiness) SetReady(v bool) { r.ready.Store(v) }
func (r *Readiness) Ready() bool     { return r.ready.Load() }

// NewMux serves /metrics, /healthz and /readyz. A nil readiness is always ready.
func NewMux(readiness *Readiness) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if readiness != nil && !readiness.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// StartMetricsServer serves NewMux on addr in a background goroutine and
// shuts it down gracefully when ctx is cancelled. An empty addr disables it.
func StartMetricsServer(ctx context.Context, addr string, readiness *Readiness, logger *slog.Logger) {
	if addr == "" {
		return
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      NewMux(readiness),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server error", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()
}
