package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Claim outcomes used as the "outcome" label.
const (
	ClaimOutcomeSuccess    = "success"
	ClaimOutcomeRejected   = "rejected"
	ClaimOutcomeContention = "contention"
	ClaimOutcomeError      = "error"
)

// RedPacketMetrics instruments issuance, claims and refunds.
type RedPacketMetrics struct {
	issued        *prometheus.CounterVec
	claims        *prometheus.CounterVec
	claimDuration prometheus.Histogram
	lockWait      prometheus.Histogram
	seedFailures  prometheus.Counter
	refunded      prometheus.Counter
	leakedShares  prometheus.Counter
}

// NewRedPacketMetrics registers the red packet metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewRedPacketMetrics(reg prometheus.Registerer) *RedPacketMetrics {
	if reg == nil {
		return &RedPacketMetrics{}
	}
	m := &RedPacketMetrics{
		issued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "red_packet",
			Name:      "issued_total",
			Help:      "Red packets issued, by type.",
		}, []string{"type"}),
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "red_packet",
			Name:      "claims_total",
			Help:      "Claim attempts by outcome.",
		}, []string{"outcome"}),
		claimDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "red_packet",
			Name:      "claim_duration_seconds",
			Help:      "End to end duration of claim attempts.",
			Buckets:   prometheus.DefBuckets,
		}),
		lockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "red_packet",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for the per-packet claim lock.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		seedFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "red_packet",
			Name:      "pool_seed_failures_total",
			Help:      "Packets committed without a seeded share pool.",
		}),
		refunded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "red_packet",
			Name:      "refunded_amount_total",
			Help:      "Minor units returned to issuers after expiry.",
		}),
		leakedShares: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "red_packet",
			Name:      "leaked_shares_total",
			Help:      "Shares popped from a pool whose claim transaction failed.",
		}),
	}
	reg.MustRegister(m.issued, m.claims, m.claimDuration, m.lockWait, m.seedFailures, m.refunded, m.leakedShares)
	return m
}

func (m *RedPacketMetrics) IncIssued(packetType string) {
	if m == nil || m.issued == nil {
		return
	}
	m.issued.WithLabelValues(normalizeLabel(packetType)).Inc()
}

// ObserveClaim records the outcome and duration of one claim attempt.
func (m *RedPacketMetrics) ObserveClaim(outcome string, duration time.Duration) {
	if m == nil || m.claims == nil {
		return
	}
	m.claims.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.claimDuration.Observe(duration.Seconds())
}

func (m *RedPacketMetrics) ObserveLockWait(duration time.Duration) {
	if m == nil || m.lockWait == nil {
		return
	}
	m.lockWait.Observe(duration.Seconds())
}

func (m *RedPacketMetrics) IncSeedFailure() {
	if m == nil || m.seedFailures == nil {
		return
	}
	m.seedFailures.Inc()
}

func (m *RedPacketMetrics) IncLeakedShare() {
	if m == nil || m.leakedShares == nil {
		return
	}
	m.leakedShares.Inc()
}

func (m *RedPacketMetrics) AddRefunded(amount int64) {
	if m == nil || m.refunded == nil || amount <= 0 {
		return
	}
	m.refunded.Add(float64(amount))
}
