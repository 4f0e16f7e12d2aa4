// Package metrics holds the Prometheus collectors shared by the services.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "evcharge"

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	SessionTransitions *prometheus.CounterVec
	GeofenceRejections prometheus.Counter
	ReceiptParses      *prometheus.CounterVec
	CarbonSaved        prometheus.Counter

	SyncRuns     *prometheus.CounterVec
	SyncPages    prometheus.Counter
	SyncItems    *prometheus.CounterVec
	SyncDuration prometheus.Histogram
}

// New registers the collectors on a fresh registry labelled with the service name.
func New(service string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	f := promauto.With(prometheus.WrapRegistererWith(prometheus.Labels{"service": service}, reg))
	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		SessionTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_transitions_total",
				Help:      "Charging session lifecycle transitions",
			},
			[]string{"transition"},
		),
		GeofenceRejections: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geofence_rejections_total",
				Help:      "Session starts rejected for distance",
			},
		),
		ReceiptParses: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "receipt_parses_total",
				Help:      "Receipt OCR requests by result",
			},
			[]string{"result"},
		),
		CarbonSaved: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "carbon_saved_kg_total",
				Help:      "Carbon saved across finalized sessions",
			},
		),
		SyncRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_sync_runs_total",
				Help:      "Catalog sync runs by result",
			},
			[]string{"result"},
		),
		SyncPages: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_sync_pages_total",
				Help:      "Feed pages committed",
			},
		),
		SyncItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_sync_items_total",
				Help:      "Feed items by outcome",
			},
			[]string{"outcome"},
		),
		SyncDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "catalog_sync_duration_seconds",
				Help:      "Catalog sync run duration",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// RecordTransition counts a session lifecycle transition (started, completed, cancelled).
func (m *Metrics) RecordTransition(transition string) {
	if m == nil {
		return
	}
	m.SessionTransitions.WithLabelValues(transition).Inc()
}

// RecordGeofenceRejection counts a start refused for distance.
func (m *Metrics) RecordGeofenceRejection() {
	if m == nil {
		return
	}
	m.GeofenceRejections.Inc()
}

// RecordReceiptParse counts an OCR attempt.
func (m *Metrics) RecordReceiptParse(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.ReceiptParses.WithLabelValues(result).Inc()
}

// AddCarbonSaved adds kilograms of saved CO2. Negative values are ignored.
func (m *Metrics) AddCarbonSaved(kg float64) {
	if m == nil || kg <= 0 {
		return
	}
	m.CarbonSaved.Add(kg)
}

// RecordSync records one sync run.
func (m *Metrics) RecordSync(pages, upserted, skipped int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SyncRuns.WithLabelValues(result).Inc()
	m.SyncPages.Add(float64(pages))
	m.SyncItems.WithLabelValues("upserted").Add(float64(upserted))
	m.SyncItems.WithLabelValues("skipped").Add(float64(skipped))
	m.SyncDuration.Observe(elapsed.Seconds())
}
