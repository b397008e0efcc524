package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "leadhub"

// Metrics holds the collectors of one service on its own registry.
type Metrics struct {
	registry *prometheus.Registry
	service  string

	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	AuthAttempts     *prometheus.CounterVec
	InvitationEvents *prometheus.CounterVec
	RecordMutations  *prometheus.CounterVec
	EventsPublished  *prometheus.CounterVec
	EventsConsumed   *prometheus.CounterVec
}

// New registers all collectors for service.
func New(service string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		service:  service,
		RequestCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"service", "method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "method", "route"}),
		AuthAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_attempts_total",
			Help:      "Sign-in, sign-up and refresh attempts by outcome",
		}, []string{"operation", "outcome"}),
		InvitationEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invitations_total",
			Help:      "Invitation lifecycle transitions",
		}, []string{"status"}),
		RecordMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crm_record_mutations_total",
			Help:      "Created, updated and deleted CRM records",
		}, []string{"resource", "operation"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Events published to the broker",
		}, []string{"type", "outcome"}),
		EventsConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      "Events handled by consumers",
		}, []string{"type", "outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestCounter,
		m.RequestDuration,
		m.AuthAttempts,
		m.InvitationEvents,
		m.RecordMutations,
		m.EventsPublished,
		m.EventsConsumed,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request count and latency labelled by chi route pattern,
// so /contacts/{id} is one series regardless of the id.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := routePattern(r)

		m.RequestCounter.WithLabelValues(m.service, r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(m.service, r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// Outcome labels a result as "success" or "error".
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// The helpers below accept a nil receiver so components can run without metrics.

// ObservePublish counts a publish attempt.
func (m *Metrics) ObservePublish(eventType string, err error) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType, Outcome(err)).Inc()
}

// ObserveConsume counts a handled event.
func (m *Metrics) ObserveConsume(eventType string, err error) {
	if m == nil {
		return
	}
	m.EventsConsumed.WithLabelValues(eventType, Outcome(err)).Inc()
}

// ObserveAuth counts an authentication attempt.
func (m *Metrics) ObserveAuth(operation string, err error) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(operation, Outcome(err)).Inc()
}

// ObserveInvitation counts an invitation transition.
func (m *Metrics) ObserveInvitation(status string) {
	if m == nil {
		return
	}
	m.InvitationEvents.WithLabelValues(status).Inc()
}

// ObserveMutation counts a CRM record change.
func (m *Metrics) ObserveMutation(resource, operation string) {
	if m == nil {
		return
	}
	m.RecordMutations.WithLabelValues(resource, operation).Inc()
}
