package collectors

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AccountsCollector reports the number of accounts and the token supply
// held by them.
type AccountsCollector struct {
	ledger        Ledger
	totalAccounts *prometheus.Desc
	totalSupply   *prometheus.Desc
}

func NewAccountsCollector(l Ledger) *AccountsCollector {
	return &AccountsCollector{
		ledger: l,
		totalAccounts: prometheus.NewDesc(
			prometheus.BuildFQName("tally", "accounts", "total_count"),
			"Total account count",
			nil,
			prometheus.Labels{"source": "ledger"},
		),
		totalSupply: prometheus.NewDesc(
			prometheus.BuildFQName("tally", "tokenomics", "total_supply"),
			"Sum of all account balances",
			nil,
			prometheus.Labels{"source": "ledger"},
		),
	}
}

func (c *AccountsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalAccounts
	ch <- c.totalSupply
}

func (c *AccountsCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.totalAccounts, prometheus.GaugeValue, float64(len(c.ledger.Accounts())))
	ch <- prometheus.MustNewConstMetric(c.totalSupply, prometheus.GaugeValue, float64(c.ledger.TotalSupply()))
}

func init() {
	RegisterCollectorFactory(func(l Ledger, extraParams ...interface{}) (prometheus.Collector, error) {
		return NewAccountsCollector(l), nil
	})
}
