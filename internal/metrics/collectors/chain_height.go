package collectors

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ChainHeightCollector reports the number of committed blocks and the size
// of the pending pool.
type ChainHeightCollector struct {
	ledger  Ledger
	height  *prometheus.Desc
	pending *prometheus.Desc
}

func NewChainHeightCollector(l Ledger) *ChainHeightCollector {
	return &ChainHeightCollector{
		ledger: l,
		height: prometheus.NewDesc(
			prometheus.BuildFQName("tally", "chain", "height"),
			"Number of committed blocks",
			nil,
			prometheus.Labels{"source": "ledger"},
		),
		pending: prometheus.NewDesc(
			prometheus.BuildFQName("tally", "chain", "pending_transactions"),
			"Transactions waiting to be batched into a block",
			nil,
			prometheus.Labels{"source": "ledger"},
		),
	}
}

func (c *ChainHeightCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.height
	ch <- c.pending
}

func (c *ChainHeightCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.height, prometheus.GaugeValue, float64(c.ledger.Height()))
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(len(c.ledger.PendingTransactions())))
}

func init() {
	RegisterCollectorFactory(func(l Ledger, extraParams ...interface{}) (prometheus.Collector, error) {
		return NewChainHeightCollector(l), nil
	})
}
