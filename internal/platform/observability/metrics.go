package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aipulse_records_ingested_total",
		Help: "The total number of records upserted per scraper",
	}, []string{"scraper"})

	RecordsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aipulse_records_skipped_total",
		Help: "The total number of records skipped as incomplete per scraper",
	}, []string{"scraper"})

	ScrapeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aipulse_scrape_duration_seconds",
		Help:    "Duration of a full scraper run",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"scraper"})

	NLPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aipulse_nlp_request_duration_seconds",
		Help:    "Duration of NLP boundary requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "aipulse_http_requests_total",
		Help: "The total number of handled HTTP requests",
	}, []string{"route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "aipulse_http_request_duration_seconds",
		Help:    "Duration of HTTP request handling",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})

	StoredArticles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aipulse_stored_articles",
		Help: "Number of article rows in the store",
	})

	StoredScientificArticles = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aipulse_stored_scientific_articles",
		Help: "Number of scientific article rows in the store",
	})

	StoredVideos = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "aipulse_stored_videos",
		Help: "Number of video rows in the store",
	})

	AlertsMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "aipulse_alerts_matched_total",
		Help: "The total number of preference matches found by the alert sweep",
	})
)
