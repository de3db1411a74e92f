package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"xerpihan-dashboard/internal/dataset"
	"xerpihan-dashboard/internal/presenter"
)

const namespace = "xerpihan"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	loadDuration prometheus.Histogram
	loadFailures *prometheus.CounterVec
	lastLoad     prometheus.Gauge
	tableRows    *prometheus.GaugeVec
	slotFailures *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dataset_load_duration_seconds",
			Help:      "Time taken to load all source tables.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),
		loadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_load_failures_total",
			Help:      "Failed dataset loads by error kind.",
		}, []string{"kind"}),
		lastLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_last_load_timestamp_seconds",
			Help:      "Unix time of the last successful load.",
		}),
		tableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_table_rows",
			Help:      "Rows per table in the current snapshot.",
		}, []string{"table"}),
		slotFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "presenter_slot_failures_total",
			Help:      "Chart slots and KPI tiles that could not be computed.",
		}, []string{"page", "slot", "kind"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.latency,
		m.loadDuration,
		m.loadFailures,
		m.lastLoad,
		m.tableRows,
		m.slotFailures,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveLoad implements dataset.LoadObserver.
func (m *Metrics) ObserveLoad(d time.Duration, ts *dataset.TableSet, err error) {
	m.loadDuration.Observe(d.Seconds())
	if err != nil {
		kind := string(dataset.KindOf(err))
		if kind == "" {
			kind = "unknown"
		}
		m.loadFailures.WithLabelValues(kind).Inc()
		return
	}

	m.lastLoad.Set(float64(ts.LoadedAt().Unix()))
	for _, s := range dataset.Sources {
		m.tableRows.WithLabelValues(string(s.ID)).Set(float64(ts.Table(s.ID).Len()))
	}
}

// ObserveSlotFailure implements presenter.SlotObserver.
func (m *Metrics) ObserveSlotFailure(page presenter.PageID, slot string, kind dataset.Kind) {
	m.slotFailures.WithLabelValues(string(page), slot, string(kind)).Inc()
}
