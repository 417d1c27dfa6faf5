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

const namespace = "ecobazaar"

type Metrics struct {
	registry *prometheus.Registry

	DashboardBuilds   *prometheus.CounterVec
	DashboardDuration *prometheus.HistogramVec
	OrdersPlaced      *prometheus.CounterVec
	CartCache         *prometheus.CounterVec
	OutboxDispatched  *prometheus.CounterVec
	OrderEvents       *prometheus.CounterVec
	OrderedCarbon     prometheus.Counter
	OrderTransitions  *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, so tests can build as
// many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		DashboardBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_builds_total",
			Help:      "Dashboards assembled, by role and outcome.",
		}, []string{"role", "outcome"}),
		DashboardDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dashboard_build_seconds",
			Help:      "Time spent loading and assembling a dashboard.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"role"}),
		OrdersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders placed, by payment method.",
		}, []string{"payment_method"}),
		CartCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_cache_requests_total",
			Help:      "Cart cache lookups, by result (hit, miss, stale, error).",
		}, []string{"result"}),
		OutboxDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_total",
			Help:      "Outbox events handed to the broker, by outcome.",
		}, []string{"outcome"}),
		OrderEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_events_consumed_total",
			Help:      "Order events read back from the broker, by event type.",
		}, []string{"type"}),
		OrderedCarbon: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ordered_carbon_kg_total",
			Help:      "Carbon footprint of placed orders as seen on the event stream.",
		}),
		OrderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Order status changes, by target status.",
		}, []string{"to"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP latency by route pattern, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.DashboardBuilds,
		m.DashboardDuration,
		m.OrdersPlaced,
		m.CartCache,
		m.OutboxDispatched,
		m.OrderEvents,
		m.OrderedCarbon,
		m.OrderTransitions,
		m.HTTPDuration,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveDashboard records one dashboard build started at start.
func (m *Metrics) ObserveDashboard(role string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.DashboardBuilds.WithLabelValues(role, outcome).Inc()
	m.DashboardDuration.WithLabelValues(role).Observe(time.Since(start).Seconds())
}

// Middleware labels by chi route pattern rather than raw path to keep
// cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPDuration.WithLabelValues(route, r.Method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
