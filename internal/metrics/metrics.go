package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Radar counters, partitioned by mode ("dry_run" or "live").

const (
	ModeDryRun = "dry_run"
	ModeLive   = "live"
)

var (
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "revokeradar",
		Subsystem: "cycle",
		Name:      "runs_total",
		Help:      "Total scan-and-revoke cycles started",
	}, []string{"mode"})

	CycleErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "revokeradar",
		Subsystem: "cycle",
		Name:      "errors_total",
		Help:      "Total cycles that ended with an error",
	}, []string{"mode"})

	CycleLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "revokeradar",
		Subsystem: "cycle",
		Name:      "duration_seconds",
		Help:      "Scan-and-revoke cycle duration",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
	}, []string{"mode"})

	// Scanner
	PairsScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "revokeradar",
		Subsystem: "scanner",
		Name:      "pairs_scanned_total",
		Help:      "Total (token, spender) allowance reads",
	}, []string{"mode"})

	TokensDiscovered = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "revokeradar",
		Subsystem: "scanner",
		Name:      "tokens",
		Help:      "Tokens reported by the indexer in the latest cycle",
	}, []string{"mode"})

	// Revoker
	AllowancesFound = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "revokeradar",
		Subsystem: "revoker",
		Name:      "allowances_found_total",
		Help:      "Total positive allowances found",
	}, []string{"mode"})

	RevocationsBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "revokeradar",
		Subsystem: "revoker",
		Name:      "revocations_built_total",
		Help:      "Total approve(spender, 0) transactions built",
	}, []string{"mode"})

	RevocationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "revokeradar",
		Subsystem: "revoker",
		Name:      "revocations_sent_total",
		Help:      "Total revocations signed and broadcast",
	}, []string{"mode"})

	// RPC
	RPCCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "revokeradar",
		Subsystem: "rpc",
		Name:      "calls_total",
		Help:      "Total chain RPC calls by method and outcome",
	}, []string{"method", "status"})

	RPCRateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "revokeradar",
		Subsystem: "rpc",
		Name:      "rate_limit_waits_total",
		Help:      "Total RPC calls delayed by the client-side rate limiter",
	})
)

// Mode maps the dry-run flag to its label value.
func Mode(dryRun bool) string {
	if dryRun {
		return ModeDryRun
	}
	return ModeLive
}
