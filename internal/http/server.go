// Package http serves health, readiness and Prometheus metrics for a running
// client.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tunedrop/internal/core"
	"tunedrop/internal/flood"
)

const shutdownTimeout = 10 * time.Second

// ReadinessFunc reports whether the client has finished its first playlist load.
type ReadinessFunc func() bool

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
}

func NewServer(config *core.ServerConfig, metrics *Metrics, ready ReadinessFunc, logger *zap.Logger) *Server {
	logger = logger.Named("http")
	mux := setupRoutes(metrics, ready, logger)

	return &Server{
		config:  config,
		logger:  logger,
		server:  createHTTPServer(config, mux),
		metrics: metrics,
	}
}

func createHTTPServer(config *core.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func setupRoutes(metrics *Metrics, ready ReadinessFunc, logger *zap.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok", logger)
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if ready != nil && !ready() {
			writeStatus(w, http.StatusServiceUnavailable, "loading", logger)
			return
		}
		writeStatus(w, http.StatusOK, "ready", logger)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", homeHandler(logger))

	return mux
}

func writeStatus(w http.ResponseWriter, code int, status string, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := fmt.Fprintf(w, `{"status":%q,"service":"tunedrop"}`, status); err != nil {
		logger.Debug("Failed to write status response", zap.Error(err))
	}
}

func homeHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(homePage)); err != nil {
			logger.Debug("Failed to write home page", zap.Error(err))
		}
	}
}

const homePage = `<!DOCTYPE html>
<html>
<head>
    <title>TuneDrop</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        .endpoint { margin: 10px 0; }
        .endpoint a { text-decoration: none; color: #1db954; }
    </style>
</head>
<body>
    <h1>TuneDrop</h1>
    <p>Suggest a song for the shared playlist.</p>

    <h2>Endpoints</h2>
    <div class="endpoint"><a href="/metrics">Metrics</a> - Prometheus metrics</div>
    <div class="endpoint"><a href="/healthz">Health</a> - Health check</div>
    <div class="endpoint"><a href="/readyz">Ready</a> - First playlist load finished</div>
</body>
</html>`

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Metrics implements core.Recorder with Prometheus collectors on a private
// registry.
type Metrics struct {
	registry *prometheus.Registry

	SearchesTotal         *prometheus.CounterVec
	SearchDiscardedTotal  prometheus.Counter
	AddsTotal             *prometheus.CounterVec
	NotificationsTotal    *prometheus.CounterVec
	ColorExtractionsTotal *prometheus.CounterVec
	PlaylistSize          prometheus.Gauge
}

func NewMetrics() *Metrics {
	metrics := &Metrics{
		registry: prometheus.NewRegistry(),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunedrop_searches_total",
				Help: "Total number of committed search results",
			},
			[]string{"status"},
		),
		SearchDiscardedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tunedrop_search_discarded_total",
				Help: "Total number of search results dropped because a newer query superseded them",
			},
		),
		AddsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunedrop_adds_total",
				Help: "Total number of add attempts by outcome",
			},
			[]string{"outcome"},
		),
		NotificationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunedrop_notifications_total",
				Help: "Total number of notifications shown",
			},
			[]string{"kind"},
		),
		ColorExtractionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunedrop_color_extractions_total",
				Help: "Total number of cover color extractions by result",
			},
			[]string{"status"},
		),
		PlaylistSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tunedrop_playlist_size",
				Help: "Current number of entries in the local playlist",
			},
		),
	}

	metrics.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		metrics.SearchesTotal,
		metrics.SearchDiscardedTotal,
		metrics.AddsTotal,
		metrics.NotificationsTotal,
		metrics.ColorExtractionsTotal,
		metrics.PlaylistSize,
	)

	return metrics
}

func (m *Metrics) RecordSearch(status string) {
	m.SearchesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordSearchDiscarded() {
	m.SearchDiscardedTotal.Inc()
}

func (m *Metrics) RecordAdd(outcome string) {
	m.AddsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordNotification(kind string) {
	m.NotificationsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordColorExtraction(status string) {
	m.ColorExtractionsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) SetPlaylistSize(size int) {
	m.PlaylistSize.Set(float64(size))
}

// RegisterThrottle publishes the submission throttle state. stats is read on
// every scrape.
func (m *Metrics) RegisterThrottle(stats func() flood.Stats) {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "tunedrop_throttle_active_contributors",
				Help: "Nicknames seen by the submission throttle in the last idle period",
			},
			func() float64 { return float64(stats().ActiveContributors) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "tunedrop_throttle_limit_per_minute",
				Help: "Submissions allowed per nickname within the window, 0 when disabled",
			},
			func() float64 { return float64(stats().LimitPerMinute) },
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "tunedrop_throttle_window_seconds",
				Help: "Length of the sliding submission window",
			},
			func() float64 { return float64(stats().WindowSeconds) },
		),
	)
}
