package sql

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

const ExportedCountsQuery = `
	SELECT
		(SELECT COUNT(*) FROM api.blocks_raw) AS block_count,
		(SELECT COUNT(*) FROM api.transactions_raw) AS tx_count
`

// ExportedCountsCollector is a Prometheus collector that counts the blocks
// and transactions exported to PostgreSQL. It lags the chain while the
// export is in flight.
type ExportedCountsCollector struct {
	db           *sql.DB
	totalBlocks  *prometheus.Desc
	totalTxCount *prometheus.Desc
}

func NewExportedCountsCollector(db *sql.DB) *ExportedCountsCollector {
	return &ExportedCountsCollector{
		db: db,
		totalBlocks: prometheus.NewDesc(
			prometheus.BuildFQName("tally", "blocks", "exported_count"),
			"Total exported block count",
			nil,
			prometheus.Labels{"source": "postgres"},
		),
		totalTxCount: prometheus.NewDesc(
			prometheus.BuildFQName("tally", "transactions", "exported_count"),
			"Total exported transaction count",
			nil,
			prometheus.Labels{"source": "postgres"},
		),
	}
}

func (c *ExportedCountsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalBlocks
	ch <- c.totalTxCount
}

func (c *ExportedCountsCollector) Collect(ch chan<- prometheus.Metric) {
	var blockCount, txCount int64
	err := c.db.QueryRow(ExportedCountsQuery).Scan(&blockCount, &txCount)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.totalBlocks, err)
		ch <- prometheus.NewInvalidMetric(c.totalTxCount, err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.totalBlocks, prometheus.CounterValue, float64(blockCount))
	ch <- prometheus.MustNewConstMetric(c.totalTxCount, prometheus.CounterValue, float64(txCount))
}

func init() {
	RegisterCollectorFactory(func(db *sql.DB, extraParams ...interface{}) (prometheus.Collector, error) {
		return NewExportedCountsCollector(db), nil
	})
}
