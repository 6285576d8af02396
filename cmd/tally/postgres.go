package tally

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/liftedinit/tally/internal/config"
	"github.com/liftedinit/tally/internal/metrics/collectors/sql"
	"github.com/liftedinit/tally/internal/output/postgresql"
)

var postgresCmd = &cobra.Command{
	Use:   "postgres [blocks-file] [psql-connection-string]",
	Short: "Apply a block file and export to a PostgreSQL database",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var connString string
		if len(args) > 1 {
			connString = args[1]
		}
		postgresConfig := config.LoadPostgresConfig(connString)
		if err := postgresConfig.Validate(); err != nil {
			return fmt.Errorf("invalid PostgreSQL configuration: %w", err)
		}

		outputHandler, err := postgresql.NewPostgresOutputHandler(postgresConfig.ConnString, viper.GetUint("max-concurrency"))
		if err != nil {
			return fmt.Errorf("failed to create PostgreSQL output handler: %w", err)
		}
		defer outputHandler.Close()

		latestBlock, err := outputHandler.GetLatestBlock(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get the latest block: %w", err)
		}
		if latestBlock != nil {
			slog.Warn("Existing export found, committed blocks will overwrite it", "height", latestBlock.ID)
		}

		db := outputHandler.DB()
		defer db.Close()
		sqlCollectors, err := sql.DefaultSqlRegistry.CreateSqlCollectors(db)
		if err != nil {
			return fmt.Errorf("failed to create SQL collectors: %w", err)
		}

		return apply(cmd, args[0], outputHandler, sqlCollectors...)
	},
}

func init() {
	postgresCmd.Flags().String("postgres-conn", "", "PostgreSQL connection string, when not given as an argument")
	if err := viper.BindPFlags(postgresCmd.Flags()); err != nil {
		slog.Error("Failed to bind postgresCmd flags", "error", err)
	}
}
