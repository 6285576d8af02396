package postgresql

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/big"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/liftedinit/tally/internal/models"
)

//go:embed migrations/*
var migrationsFS embed.FS

type PostgresOutputHandler struct {
	pool *pgxpool.Pool
}

func (h *PostgresOutputHandler) GetPool() *pgxpool.Pool {
	return h.pool
}

// DB returns a database/sql handle backed by the pool. Closing it does not
// close the pool.
func (h *PostgresOutputHandler) DB() *sql.DB {
	return stdlib.OpenDBFromPool(h.pool)
}

func NewPostgresOutputHandler(connString string, maxConcurrency uint) (*PostgresOutputHandler, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PostgreSQL connection string: %w", err)
	}

	if maxConcurrency > math.MaxInt32 {
		return nil, fmt.Errorf("max concurrency exceeds maximum int32 value")
	}
	if maxConcurrency > 0 {
		config.MaxConns = int32(maxConcurrency)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	handler := &PostgresOutputHandler{
		pool: pool,
	}

	// Run migrations. This is idempotent.
	if err = handler.runMigrations(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return handler, nil
}

// GetLatestBlock returns the highest exported block, nil when none.
func (h *PostgresOutputHandler) GetLatestBlock(ctx context.Context) (*models.Block, error) {
	var block models.Block
	err := h.pool.QueryRow(ctx, `
		SELECT id, hash
		FROM api.blocks_raw
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&block.ID, &block.Hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No rows found
		}
		return nil, fmt.Errorf("failed to get the latest block: %w", err)
	}
	return &block, nil
}

func (h *PostgresOutputHandler) WriteBlockWithTransactions(ctx context.Context, block *models.Block, transactions []*models.Transaction) error {
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Ensure rollback if commit is not reached

	// Write block
	_, err = tx.Exec(ctx, `
		INSERT INTO api.blocks_raw (id, hash, data) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET hash = EXCLUDED.hash, data = EXCLUDED.data;
	`, block.ID, block.Hash, block.Data)
	if err != nil {
		return fmt.Errorf("failed to write ledger block: %w", err)
	}

	// Write transactions
	for _, txData := range transactions {
		_, err = tx.Exec(ctx, `
			INSERT INTO api.transactions_raw (id, block_id, tx_index, data) VALUES ($1, $2, $3, $4)
			ON CONFLICT (block_id, tx_index) DO UPDATE SET id = EXCLUDED.id, data = EXCLUDED.data;
		`, txData.Hash, txData.BlockID, txData.Index, txData.Data)
		if err != nil {
			return fmt.Errorf("failed to write ledger transaction: %w", err)
		}
	}

	// Drop rows left by an earlier export of a longer block at this height
	_, err = tx.Exec(ctx, `
		DELETE FROM api.transactions_raw WHERE block_id = $1 AND tx_index >= $2;
	`, block.ID, len(transactions))
	if err != nil {
		return fmt.Errorf("failed to clear stale ledger transactions: %w", err)
	}

	// Commit transaction
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// WriteAccounts replaces the exported balances with accounts.
func (h *PostgresOutputHandler) WriteAccounts(ctx context.Context, accounts []*models.Account) error {
	tx, err := h.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, `DELETE FROM api.accounts`); err != nil {
		return fmt.Errorf("failed to clear accounts: %w", err)
	}

	rows := make([][]any, 0, len(accounts))
	for _, account := range accounts {
		// NUMERIC(20, 0) holds every uint64, BIGINT does not
		tokens := pgtype.Numeric{Int: new(big.Int).SetUint64(account.Tokens), Valid: true}
		rows = append(rows, []any{account.ID, tokens})
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"api", "accounts"},
		[]string{"id", "tokens"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("failed to write accounts: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (h *PostgresOutputHandler) runMigrations() error {
	// Create tables if they don't exist
	slog.Info("Running PostgreSQL migrations...")

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := migratepgx.WithInstance(stdlib.OpenDBFromPool(h.pool), &migratepgx.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer m.Close()

	// Run migrations
	if err = m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (h *PostgresOutputHandler) Close() error {
	slog.Info("Closing PostgreSQL connection pool")
	h.pool.Close()
	slog.Info("PostgreSQL connection pool closed")
	return nil
}
