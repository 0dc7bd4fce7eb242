package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce             sync.Once
	httpRequestsTotal        *prometheus.CounterVec
	httpLatencySeconds       *prometheus.HistogramVec
	mintRequestsCreatedTotal prometheus.Counter
	signaturesTotal          *prometheus.CounterVec
	reclaimRunsTotal         prometheus.Counter
	treasuryMissingTransfers prometheus.Gauge
)

// RegisterMetrics initialises the Prometheus collectors used by the settlement engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_http_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "settlement_http_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		mintRequestsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_mint_requests_created_total",
			Help: "Total number of mint requests created.",
		})

		signaturesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "settlement_signatures_total",
			Help: "Governance signature attempts by outcome.",
		}, []string{"result"})

		reclaimRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_reclaim_runs_total",
			Help: "Total number of batch reclamation runs.",
		})

		treasuryMissingTransfers = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "settlement_treasury_missing_transfers",
			Help: "Unreconciled on-chain transfers found by the last treasury scan.",
		})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			mintRequestsCreatedTotal,
			signaturesTotal,
			reclaimRunsTotal,
			treasuryMissingTransfers,
		)
	})
}

// HTTPRequests exposes the counter for API requests.
func HTTPRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// HTTPLatency exposes the latency histogram for API requests.
func HTTPLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// MintRequestsCreated exposes the mint request creation counter.
func MintRequestsCreated() prometheus.Counter {
	RegisterMetrics()
	return mintRequestsCreatedTotal
}

// Signatures exposes the signature outcome counter.
func Signatures() *prometheus.CounterVec {
	RegisterMetrics()
	return signaturesTotal
}

// ReclaimRuns exposes the reclamation run counter.
func ReclaimRuns() prometheus.Counter {
	RegisterMetrics()
	return reclaimRunsTotal
}

// TreasuryMissingTransfers exposes the reconciliation gap gauge.
func TreasuryMissingTransfers() prometheus.Gauge {
	RegisterMetrics()
	return treasuryMissingTransfers
}
