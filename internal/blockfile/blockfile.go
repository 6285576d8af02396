// Package blockfile reads and writes blocks as a JSON array.
package blockfile

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/liftedinit/tally/internal/ledger"
)

// Load reads the blocks stored at path.
func Load(path string) ([]*ledger.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to read block file")
	}

	var blocks []*ledger.Block
	if err := json.Unmarshal(data, &blocks); err != nil {
		return nil, errors.WithMessagef(err, "failed to decode block file %s", path)
	}
	for i, block := range blocks {
		if block == nil {
			return nil, errors.Errorf("block %d of %s is null", i, path)
		}
		for j, tx := range block.Transactions {
			if tx == nil {
				return nil, errors.Errorf("transaction %d of block %d of %s is null", j, i, path)
			}
		}
	}
	return blocks, nil
}

// Save writes blocks to path.
func Save(path string, blocks []*ledger.Block) error {
	data, err := json.MarshalIndent(blocks, "", "  ")
	if err != nil {
		return errors.WithMessage(err, "failed to encode blocks")
	}
	return errors.WithMessage(os.WriteFile(path, data, 0644), "failed to write block file")
}

// Seal links every block to the one before it and computes the hashes that
// are missing. Blocks that already carry a hash keep it, so a file can mix
// hand-sealed blocks with unsealed ones; the first block is linked to
// previous.
func Seal(previous *ledger.Hash, blocks []*ledger.Block) {
	for _, block := range blocks {
		if block.Hash == nil {
			block.Seal(previous)
		}
		previous = block.Hash
	}
}
