package adapters

import (
	"context"
	"errors"
	"net/http"
	"time"

	"regadera/application"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type PrometheusMetrics struct {
	registry *prometheus.Registry

	pollCycles   *prometheus.CounterVec
	pumpCommands *prometheus.CounterVec
}

func NewPrometheusMetrics() *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		pollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regadera_poll_cycles_total",
			Help: "Telemetry poll cycles by outcome.",
		}, []string{"outcome"}),
		pumpCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regadera_pump_commands_total",
			Help: "Pump commands by action and outcome.",
		}, []string{"action", "outcome"}),
	}

	m.registry.MustRegister(m.pollCycles, m.pumpCommands)
	return m
}

func (m *PrometheusMetrics) ObservePoll(outcome string) {
	m.pollCycles.WithLabelValues(outcome).Inc()
}

func (m *PrometheusMetrics) ObserveCommand(action application.PumpAction, outcome string) {
	m.pumpCommands.WithLabelValues(action.String(), outcome).Inc()
}

func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *PrometheusMetrics) Serve(ctx context.Context, addr string, log zerolog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Msgf("serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

var _ application.Metrics = &PrometheusMetrics{}
