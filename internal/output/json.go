package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/liftedinit/tally/internal/models"
)

const (
	jsonBlockDir    = "block"
	jsonTxDir       = "txs"
	jsonAccountFile = "accounts.json"
)

// JSONOutputHandler writes one file per block and per transaction, plus a
// balances file. Files are written to a temporary name and renamed, so an
// interrupted export never leaves a truncated file behind.
type JSONOutputHandler struct {
	outDir string
}

func NewJSONOutputHandler(outDir string) (*JSONOutputHandler, error) {
	for _, dir := range []string{jsonBlockDir, jsonTxDir} {
		if err := os.MkdirAll(filepath.Join(outDir, dir), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", dir, err)
		}
	}
	return &JSONOutputHandler{outDir: outDir}, nil
}

func (h *JSONOutputHandler) WriteBlockWithTransactions(ctx context.Context, block *models.Block, transactions []*models.Transaction) error {
	for _, tx := range transactions {
		if err := ctx.Err(); err != nil {
			return err
		}
		// Identical transactions share a hash, so files are named by position.
		name := filepath.Join(jsonTxDir, fmt.Sprintf("tx_%010d_%d.json", tx.BlockID, tx.Index))
		if err := h.writeFile(name, tx.Data); err != nil {
			return fmt.Errorf("failed to write transaction %d of block %d: %w", tx.Index, block.ID, err)
		}
	}

	// The block goes last: its presence means the whole block was exported.
	name := filepath.Join(jsonBlockDir, fmt.Sprintf("block_%010d.json", block.ID))
	if err := h.writeFile(name, block.Data); err != nil {
		return fmt.Errorf("failed to write block %d: %w", block.ID, err)
	}
	return nil
}

// WriteAccounts writes the balances as a single object keyed by account ID.
func (h *JSONOutputHandler) WriteAccounts(_ context.Context, accounts []*models.Account) error {
	balances := make(map[string]uint64, len(accounts))
	for _, account := range accounts {
		balances[account.ID] = account.Tokens
	}
	data, err := json.MarshalIndent(balances, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}
	if err := h.writeFile(jsonAccountFile, data); err != nil {
		return fmt.Errorf("failed to write accounts: %w", err)
	}
	return nil
}

func (h *JSONOutputHandler) writeFile(name string, data []byte) error {
	path := filepath.Join(h.outDir, name)
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (h *JSONOutputHandler) Close() error {
	return nil
}
