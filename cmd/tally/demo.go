package tally

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/liftedinit/tally/internal/ledger"
	"github.com/liftedinit/tally/internal/models"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a two-account scenario and print the balances",
	Long: `Fund alice in the genesis block, send 300 tokens to bob, then try to
overdraw alice with a 1000 token send. The last block is rejected and the
balances are left unchanged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		chain := ledger.NewBlockchain(ledger.WithGenesisApply())

		genesis := ledger.NewBlock(nil,
			ledger.NewTransaction(0, ledger.CreateUserAccount{ID: "alice"}, nil),
			ledger.NewTransaction(1, ledger.CreateUserAccount{ID: "bob"}, nil),
			ledger.NewTransaction(2, ledger.MintTokens{To: "alice", Amount: 500}, nil),
		)
		genesis.Seal(nil)
		if err := chain.AddBlock(genesis); err != nil {
			return fmt.Errorf("genesis rejected: %w", err)
		}

		send := ledger.NewBlock(chain.LastHash(),
			ledger.NewTransaction(3, ledger.SendTokens{To: "bob", Amount: 300}, ledger.From("alice")),
		)
		send.Seal(chain.LastHash())
		if err := chain.AddBlock(send); err != nil {
			return fmt.Errorf("send rejected: %w", err)
		}

		overdraw := ledger.NewBlock(chain.LastHash(),
			ledger.NewTransaction(4, ledger.SendTokens{To: "bob", Amount: 1000}, ledger.From("alice")),
		)
		overdraw.Seal(chain.LastHash())
		err := chain.AddBlock(overdraw)
		if err == nil {
			return fmt.Errorf("overdraw was accepted")
		}
		fmt.Fprintf(w, "block rejected: %s\n", ledger.Reason(err))

		fmt.Fprintf(w, "height: %d\n", chain.Height())
		printBalances(cmd, models.NewAccounts(chain.Accounts()))
		return nil
	},
}
