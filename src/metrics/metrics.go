package metrics

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records per-stage timings and per-iteration outcomes.
type Metrics struct {
	registry        *prometheus.Registry
	StageDuration   *prometheus.HistogramVec
	StageErrors     *prometheus.CounterVec
	IterationsTotal *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "translator_stage_duration_seconds",
				Help:    "Duration of pipeline stages.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 20},
			},
			[]string{"stage"},
		),
		StageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "translator_stage_errors_total",
				Help: "Total number of failed pipeline stages.",
			},
			[]string{"stage"},
		),
		IterationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "translator_iterations_total",
				Help: "Total number of menu iterations by outcome.",
			},
			[]string{"outcome"}, // translated, no_text, failed
		),
	}
}

func (m *Metrics) ObserveStage(stage string, d time.Duration, err error) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	if err != nil {
		m.StageErrors.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) ObserveOutcome(outcome string) {
	m.IterationsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
