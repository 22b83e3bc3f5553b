package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of a ledger run.
type Metrics struct {
	// Ingestion metrics
	EntriesDecoded prometheus.Counter
	DecodeErrors   *prometheus.CounterVec

	// Engine metrics
	EntriesApplied  *prometheus.CounterVec
	EntriesRejected *prometheus.CounterVec
	ApplyDuration   prometheus.Histogram

	// Account metrics
	AccountsCreated prometheus.Counter
	AccountsLocked  prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Ingestion metrics
		EntriesDecoded: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerproc_entries_decoded_total",
			Help: "Total number of entries decoded from the input",
		}),
		DecodeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerproc_decode_errors_total",
				Help: "Total number of input rows skipped because they could not be decoded",
			},
			[]string{"reason"},
		),

		// Engine metrics
		EntriesApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerproc_entries_applied_total",
				Help: "Total number of entries applied to the ledger by kind",
			},
			[]string{"kind"},
		),
		EntriesRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgerproc_entries_rejected_total",
				Help: "Total number of entries rejected by business rules",
			},
			[]string{"kind", "reason"},
		),
		ApplyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgerproc_apply_duration_seconds",
			Help:    "Time spent applying a single entry",
			Buckets: []float64{.000001, .000005, .00001, .00005, .0001, .0005, .001, .005},
		}),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerproc_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountsLocked: factory.NewCounter(prometheus.CounterOpts{
			Name: "ledgerproc_accounts_locked_total",
			Help: "Total number of accounts locked by a chargeback",
		}),
	}
}

// WriteTextfile writes everything gathered from g to path in the text
// exposition format, for pickup by the node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
