package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/asavelyev/sentinel-bridge/internal/logger"
)

// shutdownTimeout bounds the graceful stop of the metrics server.
const shutdownTimeout = 5 * time.Second

// Metrics bundles the bridge's Prometheus instruments.
type Metrics struct {
	// registry backs the /metrics handler.
	registry *prometheus.Registry

	// LoginAttempts counts login attempts by result (ok, auth_error,
	// otp_required, connection_error, error).
	LoginAttempts *prometheus.CounterVec
	// Commands counts arm/disarm commands by command and result.
	Commands *prometheus.CounterVec
	// CacheHits counts installation metadata served from the cache.
	CacheHits prometheus.Counter
	// CacheMisses counts installation metadata fetched upstream.
	CacheMisses prometheus.Counter
	// PollErrors counts failed status poll cycles.
	PollErrors prometheus.Counter
}

// New creates a metrics bundle on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentinel",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sentinel",
			Name:      "commands_total",
			Help:      "Arm/disarm commands by command and result.",
		}, []string{"command", "result"}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sentinel",
			Name:      "installation_cache_hits_total",
			Help:      "Installation metadata served from the cache.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sentinel",
			Name:      "installation_cache_misses_total",
			Help:      "Installation metadata fetched upstream.",
		}),
		PollErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "sentinel",
			Name:      "poll_errors_total",
			Help:      "Failed alarm status poll cycles.",
		}),
	}
}

// Handler returns the /metrics HTTP handler for this bundle.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on the given address until the context is
// cancelled. An empty address disables the endpoint.
func (m *Metrics) Serve(ctx context.Context, address string) error {
	if address == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: shutdownTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.InfoKV(ctx, "Metrics endpoint started", "address", address)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	}
}
