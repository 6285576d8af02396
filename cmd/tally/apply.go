package tally

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/liftedinit/tally/internal/blockfile"
	"github.com/liftedinit/tally/internal/config"
	"github.com/liftedinit/tally/internal/ledger"
	"github.com/liftedinit/tally/internal/metrics"
	"github.com/liftedinit/tally/internal/metrics/collectors"
	"github.com/liftedinit/tally/internal/output"
	"github.com/liftedinit/tally/internal/processing"
)

var ApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a block file to the ledger and export the result",
	Long:  `Admit the blocks of a JSON block file into the ledger and export the committed blocks and balances in the specified format.`,
}

func init() {
	ApplyCmd.PersistentFlags().UintP("max-concurrency", "c", 100, "Maximum block export concurrency (advanced)")
	ApplyCmd.PersistentFlags().Bool("skip-invalid", false, "Skip rejected blocks instead of stopping at the first one")
	ApplyCmd.PersistentFlags().Bool("seal", false, "Compute missing block hashes and link each block to its predecessor")
	ApplyCmd.PersistentFlags().Bool("apply-genesis", false, "Apply the transactions of the genesis block")
	ApplyCmd.PersistentFlags().Bool("enable-prometheus", false, "Enable Prometheus metrics server")
	ApplyCmd.PersistentFlags().String("prometheus-addr", "0.0.0.0:2112", "Address and port of the Prometheus metrics server")

	if err := viper.BindPFlags(ApplyCmd.PersistentFlags()); err != nil {
		slog.Error("Failed to bind ApplyCmd flags", "error", err)
	}

	ApplyCmd.AddCommand(jsonCmd)
	ApplyCmd.AddCommand(tsvCmd)
	ApplyCmd.AddCommand(postgresCmd)
}

// apply admits the blocks of path into a new chain and exports them through
// outputHandler. extraCollectors are served next to the ledger collectors
// when Prometheus is enabled.
func apply(cmd *cobra.Command, path string, outputHandler output.OutputHandler, extraCollectors ...prometheus.Collector) error {
	applyConfig := config.LoadApplyConfigFromCLI()
	if err := applyConfig.Validate(); err != nil {
		return fmt.Errorf("invalid Apply configuration: %w", err)
	}
	slog.Debug("Command-line arguments", "applyConfig", applyConfig)

	blocks, err := loadBlocks(path, applyConfig.Seal)
	if err != nil {
		return err
	}

	chain := newChain(applyConfig.ApplyGenesis)
	recorder := collectors.NewAdmissionRecorder()

	if applyConfig.EnablePrometheus {
		ledgerCollectors, err := collectors.DefaultRegistry.CreateCollectors(chain)
		if err != nil {
			return fmt.Errorf("failed to create ledger collectors: %w", err)
		}
		all := append(ledgerCollectors, recorder)
		all = append(all, extraCollectors...)

		server, err := metrics.CreateMetricsServer(applyConfig.PrometheusAddr, all...)
		if err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				slog.Warn("Failed to shut down metrics server", "error", err)
			}
		}()
	}

	ctx := cmd.Context()
	slog.Info("Starting apply", "file", path, "blocks", len(blocks))
	summary, err := processing.NewProcessor(chain, outputHandler, recorder, applyConfig).Process(ctx, blocks)
	if err != nil {
		return fmt.Errorf("failed to apply %s: %w", path, err)
	}

	slog.Info("Apply finished", "committed", summary.Committed, "rejected", summary.Rejected, "height", summary.Height, "supply", chain.TotalSupply())
	return nil
}

func loadBlocks(path string, seal bool) ([]*ledger.Block, error) {
	blocks, err := blockfile.Load(path)
	if err != nil {
		return nil, err
	}
	if seal {
		blockfile.Seal(nil, blocks)
	}
	return blocks, nil
}

func newChain(applyGenesis bool) *ledger.Blockchain {
	if applyGenesis {
		return ledger.NewBlockchain(ledger.WithGenesisApply())
	}
	return ledger.NewBlockchain()
}
