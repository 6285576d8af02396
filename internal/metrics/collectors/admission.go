package collectors

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/liftedinit/tally/internal/ledger"
)

// AdmissionRecorder counts blocks submitted to the chain, by outcome.
type AdmissionRecorder struct {
	committed prometheus.Counter
	rejected  *prometheus.CounterVec
	applied   prometheus.Counter
}

func NewAdmissionRecorder() *AdmissionRecorder {
	return &AdmissionRecorder{
		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tally",
			Subsystem: "blocks",
			Name:      "committed_total",
			Help:      "Blocks appended to the chain",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tally",
			Subsystem: "blocks",
			Name:      "rejected_total",
			Help:      "Blocks rejected by the chain, by reason",
		}, []string{"reason"}),
		applied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tally",
			Subsystem: "transactions",
			Name:      "applied_total",
			Help:      "Transactions of committed blocks",
		}),
	}
}

// BlockCommitted records a block of txs transactions appended to the chain.
func (r *AdmissionRecorder) BlockCommitted(txs int) {
	r.committed.Inc()
	r.applied.Add(float64(txs))
}

// BlockRejected records a block refused with err.
func (r *AdmissionRecorder) BlockRejected(err error) {
	r.rejected.WithLabelValues(ledger.Reason(err)).Inc()
}

func (r *AdmissionRecorder) Describe(ch chan<- *prometheus.Desc) {
	r.committed.Describe(ch)
	r.rejected.Describe(ch)
	r.applied.Describe(ch)
}

func (r *AdmissionRecorder) Collect(ch chan<- prometheus.Metric) {
	r.committed.Collect(ch)
	r.rejected.Collect(ch)
	r.applied.Collect(ch)
}
