package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawler.
type Metrics struct {
	Registry            *prometheus.Registry
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     prometheus.Histogram
	ItemsScrapedTotal   *prometheus.CounterVec
	ErrorsTotal         *prometheus.CounterVec
	RotationsTotal      *prometheus.CounterVec
	CategoriesCompleted *prometheus.CounterVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Listing page requests by outcome.",
		},
		[]string{"outcome"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for listing pages.",
			Buckets: prometheus.DefBuckets,
		},
	)
	itemsScraped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_items_scraped_total",
			Help: "Titles written to the sink.",
		},
		[]string{"category"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Failed page fetches by error type.",
		},
		[]string{"error_type"},
	)
	rotations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_rotations_total",
			Help: "Identity and session rotations.",
		},
		[]string{"kind"},
	)
	categories := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_categories_completed_total",
			Help: "Category runs that stopped, by reason.",
		},
		[]string{"reason"},
	)

	registry.MustRegister(requests, requestDuration, itemsScraped, errorsTotal, rotations, categories)

	return &Metrics{
		Registry:            registry,
		RequestsTotal:       requests,
		RequestDuration:     requestDuration,
		ItemsScrapedTotal:   itemsScraped,
		ErrorsTotal:         errorsTotal,
		RotationsTotal:      rotations,
		CategoriesCompleted: categories,
	}
}

// IncRequest increments the requests counter for an outcome label.
func (m *Metrics) IncRequest(outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// AddItems adds n written titles for a category.
func (m *Metrics) AddItems(category string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ItemsScrapedTotal.WithLabelValues(category).Add(float64(n))
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncRotation counts an identity or session rotation.
func (m *Metrics) IncRotation(kind string) {
	if m == nil {
		return
	}
	m.RotationsTotal.WithLabelValues(kind).Inc()
}

// IncCategory counts a finished category run.
func (m *Metrics) IncCategory(reason string) {
	if m == nil {
		return
	}
	m.CategoriesCompleted.WithLabelValues(reason).Inc()
}
