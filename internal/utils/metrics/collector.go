// internal/utils/metrics/collector.go
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records orchestration outcomes and pool state.
type Collector struct{}

var registerOnce sync.Once

// NewCollector returns the process collector, registering the metrics on
// first use.
func NewCollector() *Collector {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			orchestrationCounter,
			orchestrationDuration,
			approvalCounter,
			poolLiquidity,
		)
	})
	return &Collector{}
}

// RecordOrchestration records one orchestration run. A cancelled context is
// recorded as its own status, matching what the caller observed.
func (c *Collector) RecordOrchestration(ctx context.Context, op string, duration time.Duration, success bool) {
	select {
	case <-ctx.Done():
		orchestrationCounter.WithLabelValues("cancelled", op).Inc()
		return
	default:
	}

	status := "success"
	if !success {
		status = "failed"
	}
	orchestrationCounter.WithLabelValues(status, op).Inc()
	orchestrationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordApproval counts an allowance check by result.
func (c *Collector) RecordApproval(tokenSymbol string, issued bool) {
	result := "already_sufficient"
	if issued {
		result = "issued"
	}
	approvalCounter.WithLabelValues(tokenSymbol, result).Inc()
}

// UpdatePoolLiquidity updates the reserve gauge for one side of a pair.
func (c *Collector) UpdatePoolLiquidity(pair, tokenSymbol string, amount float64) {
	poolLiquidity.WithLabelValues(pair, tokenSymbol).Set(amount)
}

// Reset clears all metrics (useful for testing).
func (c *Collector) Reset() {
	orchestrationCounter.Reset()
	orchestrationDuration.Reset()
	approvalCounter.Reset()
	poolLiquidity.Reset()
}

var (
	orchestrationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swapkit",
			Name:      "orchestrations_total",
			Help:      "Total number of orchestration runs",
		},
		[]string{"status", "op"},
	)

	orchestrationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "swapkit",
			Name:      "orchestration_duration_seconds",
			Help:      "Orchestration duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"op"},
	)

	approvalCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "swapkit",
			Name:      "approvals_total",
			Help:      "Allowance checks by outcome",
		},
		[]string{"token", "result"},
	)

	poolLiquidity = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "swapkit",
			Name:      "pool_liquidity",
			Help:      "Current pool reserves by pair and token",
		},
		[]string{"pair", "token"},
	)
)
