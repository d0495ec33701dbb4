// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "checkin"

// Login results recorded by LoginAttempts.
const (
	LoginSuccess = "success"
	LoginFailure = "failure"
)

// Metrics holds the collectors on a private registry so tests can create
// as many instances as they need.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	VisitorsCreated  prometheus.Counter
	VisitorsDeleted  prometheus.Counter
	LoginAttempts    *prometheus.CounterVec
	TokenRejections  *prometheus.CounterVec
	VisitorsInMemory prometheus.GaugeFunc
}

// New registers all collectors. visitorCount backs the stored-visitors gauge
// and may be nil.
func New(visitorCount func() float64) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		VisitorsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visitors_created_total",
			Help:      "Visitor check-ins accepted.",
		}),
		VisitorsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "visitors_deleted_total",
			Help:      "Visitor records deleted by admins.",
		}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Admin login attempts by result.",
		}, []string{"result"}),
		TokenRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_rejections_total",
			Help:      "Admin requests rejected by the bearer token check, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.VisitorsCreated,
		m.VisitorsDeleted,
		m.LoginAttempts,
		m.TokenRejections,
	)

	if visitorCount != nil {
		m.VisitorsInMemory = prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "visitors_stored",
			Help:      "Visitor records currently held by the store.",
		}, visitorCount)
		reg.MustRegister(m.VisitorsInMemory)
	}

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
