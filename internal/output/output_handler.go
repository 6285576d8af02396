package output

import (
	"context"

	"github.com/liftedinit/tally/internal/models"
)

// OutputHandler exports committed blocks and the final world state.
// WriteBlockWithTransactions may be called concurrently for different blocks.
type OutputHandler interface {
	WriteBlockWithTransactions(ctx context.Context, block *models.Block, transactions []*models.Transaction) error
	WriteAccounts(ctx context.Context, accounts []*models.Account) error
	Close() error
}
