// Package telemetry exports recorded samples as Prometheus metrics.
package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter observes operation latencies into a private registry and serves
// them on /metrics.
type Exporter struct {
	registry  *prometheus.Registry
	durations *prometheus.HistogramVec

	server   *http.Server
	listener net.Listener
}

// NewExporter registers booker_operation_duration_seconds{operation}.
func NewExporter() *Exporter {
	registry := prometheus.NewRegistry()
	durations := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "booker_operation_duration_seconds",
			Help:    "Latency of restful-booker operations issued by the load generators",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)
	registry.MustRegister(durations)

	return &Exporter{registry: registry, durations: durations}
}

// Observe records one sample.
func (e *Exporter) Observe(operation string, elapsed time.Duration) {
	e.durations.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Registry exposes the registry for tests and extra collectors.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Start listens on addr and serves /metrics in the background.
func (e *Exporter) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	e.listener = ln
	e.server = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			ln.Close()
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Start.
func (e *Exporter) Addr() string {
	if e.listener == nil {
		return ""
	}
	return e.listener.Addr().String()
}

// Shutdown stops the server started by Start.
func (e *Exporter) Shutdown(ctx context.Context) error {
	if e.server == nil {
		return nil
	}
	return e.server.Shutdown(ctx)
}
