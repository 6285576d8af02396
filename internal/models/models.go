package models

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/liftedinit/tally/internal/ledger"
)

// Block represents a committed block.
type Block struct {
	ID   uint64
	Hash string
	Data []byte
}

// Transaction represents a transaction of a committed block.
type Transaction struct {
	Hash    string
	BlockID uint64
	Index   int
	Data    []byte
}

// Account represents an account balance.
type Account struct {
	ID     string
	Tokens uint64
}

// NewBlockWithTransactions converts the block committed at height into
// output rows. Heights start at 1.
func NewBlockWithTransactions(height uint64, block *ledger.Block) (*Block, []*Transaction, error) {
	if block.Hash == nil {
		return nil, nil, fmt.Errorf("block %d is not sealed", height)
	}

	blockData, err := json.Marshal(block)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal block %d: %w", height, err)
	}

	transactions := make([]*Transaction, 0, len(block.Transactions))
	for i, tx := range block.Transactions {
		txData, err := json.Marshal(tx)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal transaction %d of block %d: %w", i, height, err)
		}
		transactions = append(transactions, &Transaction{
			Hash:    tx.CalculateHash().String(),
			BlockID: height,
			Index:   i,
			Data:    txData,
		})
	}

	return &Block{
		ID:   height,
		Hash: block.Hash.String(),
		Data: blockData,
	}, transactions, nil
}

// NewAccounts converts a world state into rows sorted by account ID.
func NewAccounts(accounts map[ledger.AccountID]ledger.Account) []*Account {
	rows := make([]*Account, 0, len(accounts))
	for id, account := range accounts {
		rows = append(rows, &Account{ID: id.String(), Tokens: account.Tokens})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].ID < rows[j].ID
	})
	return rows
}
