package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ScansTotal counts pipeline runs by outcome
	ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exposuregraph",
			Name:      "scans_total",
			Help:      "Total number of reconnaissance scans executed",
		},
		[]string{"status"},
	)

	// SubdomainsDiscovered counts subdomains found per scan target
	SubdomainsDiscovered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exposuregraph",
			Name:      "subdomains_discovered_total",
			Help:      "Total number of subdomains discovered across all scans",
		},
	)

	// ServicesScored counts risk assessments produced
	ServicesScored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exposuregraph",
			Name:      "services_scored_total",
			Help:      "Total number of web services assigned a risk score",
		},
	)

	// ScanPhaseDuration measures how long each pipeline phase takes
	ScanPhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "exposuregraph",
			Name:      "scan_phase_duration_seconds",
			Help:      "Duration of each scan pipeline phase",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"phase"},
	)

	// LLMRequests counts query-agent model calls by outcome
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exposuregraph",
			Name:      "llm_requests_total",
			Help:      "Total number of language model requests by the query agent",
		},
		[]string{"outcome"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry
// This function is idempotent and can be called multiple times safely
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(ScansTotal)
		prometheus.DefaultRegisterer.Register(SubdomainsDiscovered)
		prometheus.DefaultRegisterer.Register(ServicesScored)
		prometheus.DefaultRegisterer.Register(ScanPhaseDuration)
		prometheus.DefaultRegisterer.Register(LLMRequests)
	})
}
