// Package metrics описывает метрики Prometheus сервиса.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор счётчиков и гистограмм сервиса.
type Metrics struct {
	PurchasesInitiated *prometheus.CounterVec
	PurchasesCompleted *prometheus.CounterVec
	WebhookEvents      *prometheus.CounterVec
	ProgressUpdates    *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PurchasesInitiated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "learnify",
			Name:      "purchases_initiated_total",
			Help:      "Number of started course purchases by gateway.",
		}, []string{"gateway"}),
		PurchasesCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "learnify",
			Name:      "purchases_completed_total",
			Help:      "Number of purchases switched to completed by gateway.",
		}, []string{"gateway"}),
		WebhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "learnify",
			Name:      "webhook_events_total",
			Help:      "Stripe webhook events by type and outcome.",
		}, []string{"type", "outcome"}),
		ProgressUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "learnify",
			Name:      "progress_updates_total",
			Help:      "Progress mutations by kind.",
		}, []string{"kind"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "learnify",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		m.PurchasesInitiated,
		m.PurchasesCompleted,
		m.WebhookEvents,
		m.ProgressUpdates,
		m.RequestDuration,
	)
	return m
}

// NewNop создаёт метрики без регистрации, для тестов.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Middleware измеряет длительность запросов. Маршрут берётся из шаблона chi.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
