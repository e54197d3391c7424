package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// MetricsNamespace is the namespace for all feedpulse metrics.
	MetricsNamespace = "feedpulse"

	// MetricsSubsystem is the subsystem for extraction metrics.
	MetricsSubsystem = "extract"
)

// PromObserver exports pipeline events as Prometheus metrics.
type PromObserver struct {
	FragmentsSeen      prometheus.Counter
	CandidatesDropped  *prometheus.CounterVec
	RecordsEmitted     prometheus.Counter
	LoadIterations     *prometheus.HistogramVec
	LoadFinishedTotals *prometheus.CounterVec
}

// NewPromObserver creates and registers the metrics on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPromObserver(reg prometheus.Registerer) *PromObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PromObserver{
		FragmentsSeen: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "fragments_seen_total",
			Help:      "Total post fragments located",
		}),
		CandidatesDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "candidates_discarded_total",
			Help:      "Total candidates discarded, by reason",
		}, []string{"reason"}),
		RecordsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "records_emitted_total",
			Help:      "Total records appended to the dataset",
		}),
		LoadIterations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "load_iterations",
			Help:      "Growth iterations used per load, by stop reason",
			Buckets:   prometheus.LinearBuckets(0, 5, 10),
		}, []string{"reason"}),
		LoadFinishedTotals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "loads_total",
			Help:      "Total finished loads, by stop reason",
		}, []string{"reason"}),
	}
}

// FragmentSeen implements Observer.
func (p *PromObserver) FragmentSeen() { p.FragmentsSeen.Inc() }

// CandidateDiscarded implements Observer.
func (p *PromObserver) CandidateDiscarded(reason string) {
	p.CandidatesDropped.WithLabelValues(reason).Inc()
}

// RecordEmitted implements Observer.
func (p *PromObserver) RecordEmitted() { p.RecordsEmitted.Inc() }

// LoadFinished implements Observer.
func (p *PromObserver) LoadFinished(iterations int, reason string) {
	p.LoadIterations.WithLabelValues(reason).Observe(float64(iterations))
	p.LoadFinishedTotals.WithLabelValues(reason).Inc()
}

// Server exposes metrics and a health check over HTTP.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer builds the metrics HTTP server for gatherer.
func NewServer(port int, path string, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	return &Server{
		srv: &http.Server{
			Addr:              ":" + strconv.Itoa(port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With("component", "metrics_server"),
	}
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	s.logger.Info("metrics server starting", "addr", s.srv.Addr)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server error", "error", err)
		}
	}()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
