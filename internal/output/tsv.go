package output

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/liftedinit/tally/internal/models"
)

type TSVOutputHandler struct {
	mu          sync.Mutex
	outDir      string
	blockFile   *os.File
	txFile      *os.File
	blockWriter *bufio.Writer
	txWriter    *bufio.Writer
}

const (
	blocksTSV   = "blocks.tsv"
	txsTSV      = "transactions.tsv"
	accountsTSV = "accounts.tsv"
)

func NewTSVOutputHandler(outDir string) (*TSVOutputHandler, error) {
	err := os.MkdirAll(outDir, 0755)
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create output directory")
	}

	blockFile, err := os.Create(filepath.Join(outDir, blocksTSV))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create blocks TSV file")
	}

	txFile, err := os.Create(filepath.Join(outDir, txsTSV))
	if err != nil {
		blockFile.Close()
		return nil, errors.WithMessage(err, "failed to create transactions TSV file")
	}

	return &TSVOutputHandler{
		outDir:      outDir,
		blockFile:   blockFile,
		txFile:      txFile,
		blockWriter: bufio.NewWriter(blockFile),
		txWriter:    bufio.NewWriter(txFile),
	}, nil
}

func (h *TSVOutputHandler) WriteBlockWithTransactions(_ context.Context, block *models.Block, transactions []*models.Transaction) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	line := fmt.Sprintf("%d\t%s\t%s\n", block.ID, block.Hash, string(block.Data))
	if _, err := h.blockWriter.WriteString(line); err != nil {
		return errors.WithMessage(err, "failed to write block")
	}

	for _, tx := range transactions {
		line := fmt.Sprintf("%s\t%d\t%d\t%s\n", tx.Hash, tx.BlockID, tx.Index, string(tx.Data))
		if _, err := h.txWriter.WriteString(line); err != nil {
			return errors.WithMessage(err, "failed to write transaction")
		}
	}
	return nil
}

func (h *TSVOutputHandler) WriteAccounts(_ context.Context, accounts []*models.Account) error {
	f, err := os.Create(filepath.Join(h.outDir, accountsTSV))
	if err != nil {
		return errors.WithMessage(err, "failed to create accounts TSV file")
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, account := range accounts {
		// Any string is a valid account ID, tabs and newlines included.
		if _, err := fmt.Fprintf(w, "%q\t%d\n", account.ID, account.Tokens); err != nil {
			return errors.WithMessage(err, "failed to write account")
		}
	}
	return w.Flush()
}

func (h *TSVOutputHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.blockWriter.Flush(); err != nil {
		slog.Error("failed to flush block writer", "errors", err)
		return err
	}
	if err := h.txWriter.Flush(); err != nil {
		slog.Error("failed to flush tx writer", "errors", err)
		return err
	}
	if err := h.blockFile.Close(); err != nil {
		slog.Error("failed to close block file", "errors", err)
		return err
	}
	if err := h.txFile.Close(); err != nil {
		slog.Error("failed to close tx file", "errors", err)
		return err
	}
	return nil
}
