package processing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/liftedinit/tally/internal/config"
	"github.com/liftedinit/tally/internal/ledger"
	"github.com/liftedinit/tally/internal/models"
	"github.com/liftedinit/tally/internal/output"
)

// exportTimeout bounds the export that follows a cancelled admission.
const exportTimeout = 30 * time.Second

// Recorder observes admission outcomes.
type Recorder interface {
	BlockCommitted(txs int)
	BlockRejected(err error)
}

// Summary reports the outcome of a Process call.
type Summary struct {
	Committed int
	Rejected  int
	Height    int
}

// Processor admits blocks into a chain and exports the committed ones.
// The chain has a single writer: blocks are admitted in order, one at a time.
type Processor struct {
	chain    *ledger.Blockchain
	out      output.OutputHandler
	recorder Recorder
	cfg      config.ApplyConfig
}

// NewProcessor returns a processor feeding chain. out and recorder may be nil,
// in which case nothing is exported or recorded.
func NewProcessor(chain *ledger.Blockchain, out output.OutputHandler, recorder Recorder, cfg config.ApplyConfig) *Processor {
	return &Processor{
		chain:    chain,
		out:      out,
		recorder: recorder,
		cfg:      cfg,
	}
}

type committedBlock struct {
	height uint64
	block  *ledger.Block
}

// Process admits blocks in order. A rejected block stops processing unless
// SkipInvalid is set. Blocks committed before a stop or a cancellation of
// ctx are still exported.
func (p *Processor) Process(ctx context.Context, blocks []*ledger.Block) (Summary, error) {
	var summary Summary
	if len(blocks) == 0 {
		slog.Warn("No blocks to process")
		summary.Height = p.chain.Height()
		return summary, p.exportAccounts(ctx)
	}

	slog.Info("Processing blocks", "count", len(blocks), "height", p.chain.Height())

	bar, err := newProgressBar(len(blocks))
	if err != nil {
		return summary, err
	}

	committed, admitErr := p.admitBlocks(ctx, blocks, bar, &summary)
	summary.Height = p.chain.Height()

	if bar != nil {
		if err := bar.Finish(); err != nil {
			return summary, fmt.Errorf("failed to finish progress bar: %w", err)
		}
	}

	// Blocks committed before a cancellation are still exported.
	exportCtx := ctx
	if ctx.Err() != nil && p.out != nil {
		slog.Info("Exporting committed blocks after cancellation", "committed", len(committed))
		var cancel context.CancelFunc
		exportCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), exportTimeout)
		defer cancel()
	}

	if err := p.exportBlocks(exportCtx, committed); err != nil {
		return summary, errors.Join(admitErr, fmt.Errorf("failed to export blocks: %w", err))
	}
	if err := p.exportAccounts(exportCtx); err != nil {
		return summary, errors.Join(admitErr, err)
	}

	slog.Info("Processing done", "committed", summary.Committed, "rejected", summary.Rejected, "height", summary.Height)
	return summary, admitErr
}

func (p *Processor) admitBlocks(ctx context.Context, blocks []*ledger.Block, bar *progressbar.ProgressBar, summary *Summary) ([]committedBlock, error) {
	committed := make([]committedBlock, 0, len(blocks))

	for i, block := range blocks {
		if ctx.Err() != nil {
			slog.Info("Processing cancelled by user")
			return committed, ctx.Err()
		}

		if err := p.chain.AddBlock(block); err != nil {
			summary.Rejected++
			if p.recorder != nil {
				p.recorder.BlockRejected(err)
			}
			slog.Warn("Block rejected", "index", i, "reason", ledger.Reason(err), "error", err)
			if !p.cfg.SkipInvalid {
				return committed, fmt.Errorf("block %d rejected: %w", i, err)
			}
		} else {
			height := uint64(p.chain.Height())
			committed = append(committed, committedBlock{height: height, block: block})
			summary.Committed++
			if p.recorder != nil {
				p.recorder.BlockCommitted(len(block.Transactions))
			}
			slog.Debug("Block committed", "index", i, "height", height, "txs", len(block.Transactions), "hash", block.Hash.String())
		}

		if bar != nil {
			if err := bar.Add(1); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		}
	}

	return committed, nil
}

// exportBlocks writes committed blocks to the output handler in parallel.
func (p *Processor) exportBlocks(ctx context.Context, committed []committedBlock) error {
	if p.out == nil || len(committed) == 0 {
		return nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(int(p.cfg.MaxConcurrency))

	for _, c := range committed {
		eg.Go(func() error {
			block, txs, err := models.NewBlockWithTransactions(c.height, c.block)
			if err != nil {
				return err
			}
			if err := p.out.WriteBlockWithTransactions(ctx, block, txs); err != nil {
				if !errors.Is(err, context.Canceled) {
					slog.Error("Block export error", "height", c.height, "error", err)
				}
				return fmt.Errorf("failed to write block %d: %w", c.height, err)
			}
			return nil
		})
	}

	return eg.Wait()
}

func (p *Processor) exportAccounts(ctx context.Context) error {
	if p.out == nil {
		return nil
	}
	accounts := models.NewAccounts(p.chain.Accounts())
	if err := p.out.WriteAccounts(ctx, accounts); err != nil {
		return fmt.Errorf("failed to write accounts: %w", err)
	}
	slog.Info("Accounts exported", "count", len(accounts))
	return nil
}

// newProgressBar returns nil for a single block.
func newProgressBar(n int) (*progressbar.ProgressBar, error) {
	if n < 2 {
		return nil, nil
	}
	bar := progressbar.NewOptions(
		n,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetDescription("Processing blocks..."),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	if err := bar.RenderBlank(); err != nil {
		return nil, fmt.Errorf("failed to render progress bar: %w", err)
	}
	return bar, nil
}
