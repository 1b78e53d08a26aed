// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scraperAPIRequestsTotal *prometheus.CounterVec
	scraperCommentsTotal    prometheus.Counter
	scraperDocketsTotal     prometheus.Counter
	scraperDocumentsTotal   prometheus.Counter
	scraperExtractionsTotal *prometheus.CounterVec
	scraperShortfallsTotal  prometheus.Counter
	scraperRunsTotal        *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scraperAPIRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_api_requests_total",
				Help: "Total regulations.gov API requests, labeled by endpoint and status.",
			},
			[]string{"endpoint", "status"},
		)

		scraperCommentsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_comments_total",
				Help: "Total number of comments written to the database.",
			},
		)

		scraperDocketsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_dockets_total",
				Help: "Total number of dockets written to the database.",
			},
		)

		scraperDocumentsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_documents_total",
				Help: "Total number of documents written to the database.",
			},
		)

		scraperExtractionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_extractions_total",
				Help: "Total attachment extraction outcomes, labeled by status.",
			},
			[]string{"status"},
		)

		scraperShortfallsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scraper_harvest_shortfalls_total",
				Help: "Total runs where harvested IDs fell short of the reported total.",
			},
		)

		scraperRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_runs_total",
				Help: "Total scrape runs, labeled by outcome.",
			},
			[]string{"outcome"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveAPIRequest increments the API request counter.
func ObserveAPIRequest(endpoint, status string) {
	scraperAPIRequestsTotal.WithLabelValues(endpoint, status).Inc()
}

// ObserveIngest adds the written record counts for one run.
func ObserveIngest(comments, dockets, documents int) {
	scraperCommentsTotal.Add(float64(comments))
	scraperDocketsTotal.Add(float64(dockets))
	scraperDocumentsTotal.Add(float64(documents))
}

// ObserveExtraction increments the extraction counter for the given status.
func ObserveExtraction(status string) {
	scraperExtractionsTotal.WithLabelValues(status).Inc()
}

// ObserveShortfall increments the harvest shortfall counter.
func ObserveShortfall() {
	scraperShortfallsTotal.Inc()
}

// ObserveRun increments the run counter for the given outcome.
func ObserveRun(outcome string) {
	scraperRunsTotal.WithLabelValues(outcome).Inc()
}
