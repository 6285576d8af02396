package tally

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liftedinit/tally/internal/config"
	"github.com/liftedinit/tally/internal/models"
	"github.com/liftedinit/tally/internal/processing"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [blocks-file] [flags]",
	Short: "Admit a block file without exporting it and print the resulting balances",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seal, _ := cmd.Flags().GetBool("seal")
		applyGenesis, _ := cmd.Flags().GetBool("apply-genesis")
		skipInvalid, _ := cmd.Flags().GetBool("skip-invalid")

		blocks, err := loadBlocks(args[0], seal)
		if err != nil {
			return err
		}

		chain := newChain(applyGenesis)
		cfg := config.ApplyConfig{MaxConcurrency: 1, SkipInvalid: skipInvalid}
		summary, err := processing.NewProcessor(chain, nil, nil, cfg).Process(cmd.Context(), blocks)
		if err != nil {
			return err
		}
		if err := chain.Verify(); err != nil {
			return fmt.Errorf("chain verification failed: %w", err)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "height: %d\n", summary.Height)
		fmt.Fprintf(w, "rejected: %d\n", summary.Rejected)
		if last := chain.LastHash(); last != nil {
			fmt.Fprintf(w, "last hash: %s\n", last)
		}
		printBalances(cmd, models.NewAccounts(chain.Accounts()))
		return nil
	},
}

func printBalances(cmd *cobra.Command, accounts []*models.Account) {
	for _, account := range accounts {
		fmt.Fprintf(cmd.OutOrStdout(), "%q\t%d\n", account.ID, account.Tokens)
	}
}

func init() {
	// Read with cmd.Flags(): the apply flags of the same names own the viper keys.
	verifyCmd.Flags().Bool("seal", false, "Compute missing block hashes and link each block to its predecessor")
	verifyCmd.Flags().Bool("apply-genesis", false, "Apply the transactions of the genesis block")
	verifyCmd.Flags().Bool("skip-invalid", false, "Skip rejected blocks instead of stopping at the first one")
}
