// Package metrics exposes Prometheus counters for updates, handlers and
// outbound sends, plus an optional /metrics listener.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/studiobot/core/logger"
)

const namespace = "studiobot"

// Metrics groups the collectors registered on one registry.
type Metrics struct {
	reg *prometheus.Registry

	Updates  *prometheus.CounterVec
	Handled  *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Sends    *prometheus.CounterVec
	Photos   prometheus.Counter
}

// New registers fresh collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "updates_total",
			Help: "Updates received, by kind.",
		}, []string{"kind"}),
		Handled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "handled_total",
			Help: "Handler invocations, by handler and status.",
		}, []string{"handler", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "handler_seconds",
			Help:    "Time from update receipt to handler return.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"handler"}),
		Sends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sends_total",
			Help: "Outbound Telegram calls, by outcome.",
		}, []string{"outcome"}),
		Photos: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "photos_watermarked_total",
			Help: "Photos stamped with the logo.",
		}),
	}
	m.reg.MustRegister(
		m.Updates, m.Handled, m.Duration, m.Sends, m.Photos,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Default is the process-wide set used by the package functions.
var Default = New()

func Update(kind string) { Default.Updates.WithLabelValues(kind).Inc() }

func Handled(handler, status string, took time.Duration) {
	Default.Handled.WithLabelValues(handler, status).Inc()
	Default.Duration.WithLabelValues(handler).Observe(took.Seconds())
}

// Send records an outbound call outcome: ok, retried or failed.
func Send(outcome string) { Default.Sends.WithLabelValues(outcome).Inc() }

func Photos(n int) { Default.Photos.Add(float64(n)) }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Server serves /metrics on addr until Shutdown.
type Server struct {
	srv  *http.Server
	addr string
	done chan error
}

// Addr is the bound address, useful when addr asked for port 0.
func (s *Server) Addr() string { return s.addr }

// Start begins serving in the background. A bind failure is returned at once.
func Start(addr string, m *Metrics) (*Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	s := &Server{
		srv:  &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		done: make(chan error, 1),
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s.addr = ln.Addr().String()
	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()
	logger.L.Info("metrics listening", slog.String("component", "metrics"), slog.String("event", "metrics.listen"), slog.String("addr", s.addr))
	return s, nil
}

// Shutdown stops the listener and waits for in-flight scrapes.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.done
}
