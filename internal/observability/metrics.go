package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine.
// Tests pass a nil *Metrics; every call site guards against that, so unit
// tests never register collectors against the default registry.
type Metrics struct {
	// --- Record processing ---
	RecordsApplied   *prometheus.CounterVec
	RecordsRejected  *prometheus.CounterVec
	RecordsMalformed prometheus.Counter
	RecordDuration   *prometheus.HistogramVec
	EngineSequence   prometheus.Gauge

	// --- Account state ---
	AccountsTracked prometheus.Gauge
	DisputesOpen    prometheus.Gauge
	AccountsLocked  prometheus.Counter

	// --- Ingestion ---
	StreamRecordsReceived prometheus.Counter
	StreamPullLatency     prometheus.Histogram

	// --- Snapshot ---
	SnapshotAccounts prometheus.Gauge
	SnapshotDuration prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	latencyBuckets := []float64{
		0.000001, 0.000005, 0.00001, 0.000025, 0.00005,
		0.0001, 0.00025, 0.0005, 0.001, 0.002, 0.005, 0.01,
	}

	return &Metrics{
		RecordsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pay_records_applied_total",
			Help: "Records accepted and applied by the engine",
		}, []string{"kind"}),
		RecordsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pay_records_rejected_total",
			Help: "Records rejected by business rules, by kind and reason",
		}, []string{"kind", "reason"}),
		RecordsMalformed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pay_records_malformed_total",
			Help: "Input rows/messages dropped before reaching the engine",
		}),
		RecordDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pay_record_duration_seconds",
			Help:    "Per-record processing duration",
			Buckets: latencyBuckets,
		}, []string{"kind"}),
		EngineSequence: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pay_engine_sequence",
			Help: "Records processed so far in this run (accepted + rejected)",
		}),

		AccountsTracked: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pay_accounts_tracked",
			Help: "Accounts ever referenced in this run",
		}),
		DisputesOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pay_disputes_open",
			Help: "Transactions currently under dispute",
		}),
		AccountsLocked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pay_accounts_locked_total",
			Help: "Accounts locked by a chargeback",
		}),

		StreamRecordsReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pay_stream_records_received_total",
			Help: "Raw records received on the stream ingestion path",
		}),
		StreamPullLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pay_stream_pull_latency_seconds",
			Help:    "Receive-to-enqueue latency on the stream ingestion path",
			Buckets: latencyBuckets,
		}),

		SnapshotAccounts: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "pay_snapshot_accounts",
			Help: "Accounts in the last produced snapshot",
		}),
		SnapshotDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pay_snapshot_duration_seconds",
			Help:    "Time to produce and order the account snapshot",
			Buckets: latencyBuckets,
		}),
	}
}
