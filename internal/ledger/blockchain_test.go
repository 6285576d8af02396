package ledger_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liftedinit/tally/internal/ledger"
)

func sealed(previous *ledger.Hash, txs ...*ledger.Transaction) *ledger.Block {
	block := ledger.NewBlock(nil, txs...)
	block.Seal(previous)
	return block
}

// startedChain returns a chain past genesis with the given funded accounts.
// Funds are minted directly against the chain while it is still in genesis.
func startedChain(t *testing.T, balances map[ledger.AccountID]ledger.Amount) *ledger.Blockchain {
	t.Helper()
	chain := ledger.NewBlockchain()
	for id, amount := range balances {
		require.NoError(t, createUser(chain, id))
		require.NoError(t, mintTokens(chain, id, amount))
	}
	require.NoError(t, chain.AddBlock(sealed(nil)))
	require.False(t, chain.IsGenesis())
	return chain
}

func TestAddBlock(t *testing.T) {
	chain := ledger.NewBlockchain()
	block := ledger.NewBlock(nil, &ledger.Transaction{
		Nonce:     0,
		From:      ledger.From("hello"),
		Record:    ledger.CreateUserAccount{ID: "world"},
		Signature: "signature",
	})
	block.Seal(nil)
	require.NoError(t, chain.AddBlock(block))
	assert.Equal(t, 1, chain.Height())
	assert.Equal(t, block.Hash, chain.LastHash())
}

func TestCannotCreateDuplicateAccounts(t *testing.T) {
	chain := ledger.NewBlockchain()
	require.NoError(t, chain.AddAccount("someone"))
	require.ErrorIs(t, chain.AddAccount("someone"), ledger.ErrAccountAlreadyExists)
}

func TestAddBlockInvalidHash(t *testing.T) {
	chain := ledger.NewBlockchain()

	unsealed := ledger.NewBlock(nil, ledger.NewTransaction(0, ledger.CreateUserAccount{ID: "a"}, nil))
	require.ErrorIs(t, chain.AddBlock(unsealed), ledger.ErrInvalidHash)

	tampered := sealed(nil, ledger.NewTransaction(0, ledger.CreateUserAccount{ID: "a"}, nil))
	tampered.Transactions[0].Nonce++
	require.ErrorIs(t, chain.AddBlock(tampered), ledger.ErrInvalidHash)

	require.ErrorIs(t, chain.AddBlock(nil), ledger.ErrInvalidHash)
	assert.True(t, chain.IsGenesis())
}

func TestGenesisBypass(t *testing.T) {
	chain := ledger.NewBlockchain()
	require.NoError(t, chain.AddAccount("alice"))

	genesis := sealed(nil,
		ledger.NewTransaction(0, ledger.CreateUserAccount{ID: "bob"}, nil),
		ledger.NewTransaction(1, ledger.MintTokens{To: "alice", Amount: 500}, nil),
	)
	require.NoError(t, chain.AddBlock(genesis))

	// the first block is committed but none of its transactions are applied
	assert.Equal(t, 1, chain.Height())
	assert.Equal(t, ledger.Amount(0), balance(t, chain, "alice"))
	_, err := chain.LookupAccount("bob")
	require.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestGenesisBypassAcceptsUnapplicableBlock(t *testing.T) {
	chain := ledger.NewBlockchain()
	genesis := sealed(nil, ledger.NewTransaction(0, ledger.SendTokens{To: "nobody", Amount: 1}, nil))
	require.NoError(t, chain.AddBlock(genesis))
	assert.Empty(t, chain.Accounts())
}

func TestGenesisApply(t *testing.T) {
	t.Run("Applied", func(t *testing.T) {
		chain := ledger.NewBlockchain(ledger.WithGenesisApply())
		genesis := sealed(nil,
			ledger.NewTransaction(0, ledger.CreateUserAccount{ID: "alice"}, nil),
			ledger.NewTransaction(1, ledger.CreateUserAccount{ID: "bob"}, nil),
			ledger.NewTransaction(2, ledger.MintTokens{To: "alice", Amount: 500}, nil),
		)
		require.NoError(t, chain.AddBlock(genesis))
		assert.Equal(t, ledger.Amount(500), balance(t, chain, "alice"))
		assert.Equal(t, ledger.Amount(0), balance(t, chain, "bob"))
	})

	t.Run("RejectedAndRolledBack", func(t *testing.T) {
		chain := ledger.NewBlockchain(ledger.WithGenesisApply())
		genesis := sealed(nil,
			ledger.NewTransaction(0, ledger.CreateUserAccount{ID: "alice"}, nil),
			ledger.NewTransaction(1, ledger.MintTokens{To: "bob", Amount: 500}, nil),
		)
		err := chain.AddBlock(genesis)

		var txErr *ledger.TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.Equal(t, 1, txErr.Index)
		require.ErrorIs(t, err, ledger.ErrAccountNotFound)
		assert.True(t, chain.IsGenesis())
		assert.Empty(t, chain.Accounts())
	})
}

func TestAddBlockInvalidPreviousHash(t *testing.T) {
	chain := ledger.NewBlockchain()
	first := sealed(nil)
	require.NoError(t, chain.AddBlock(first))

	t.Run("Missing", func(t *testing.T) {
		require.ErrorIs(t, chain.AddBlock(sealed(nil)), ledger.ErrInvalidPreviousHash)
	})

	t.Run("Wrong", func(t *testing.T) {
		wrong := ledger.HashBytes([]byte("not the first block"))
		block := sealed(&wrong, ledger.NewTransaction(0, ledger.CreateUserAccount{ID: "a"}, nil))
		require.True(t, block.IsHashValid())
		require.ErrorIs(t, chain.AddBlock(block), ledger.ErrInvalidPreviousHash)
		assert.Empty(t, chain.Accounts())
	})

	t.Run("InvalidHashCheckedFirst", func(t *testing.T) {
		block := ledger.NewBlock(nil)
		require.ErrorIs(t, chain.AddBlock(block), ledger.ErrInvalidHash)
	})

	assert.Equal(t, 1, chain.Height())
	require.NoError(t, chain.AddBlock(sealed(first.Hash)))
	assert.Equal(t, 2, chain.Height())
}

func TestAddBlockRollback(t *testing.T) {
	chain := startedChain(t, map[ledger.AccountID]ledger.Amount{"alice": 100, "bob": 50})
	before := chain.Accounts()

	block := sealed(chain.LastHash(),
		ledger.NewTransaction(0, ledger.CreateUserAccount{ID: "carol"}, nil),
		ledger.NewTransaction(1, ledger.SendTokens{To: "bob", Amount: 60}, ledger.From("alice")),
		ledger.NewTransaction(2, ledger.SendTokens{To: "carol", Amount: 10}, ledger.From("bob")),
		ledger.NewTransaction(3, ledger.SendTokens{To: "carol", Amount: 500}, ledger.From("alice")),
		ledger.NewTransaction(4, ledger.CreateUserAccount{ID: "dave"}, nil),
	)
	err := chain.AddBlock(block)

	var txErr *ledger.TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, 3, txErr.Index)
	require.ErrorIs(t, err, ledger.ErrNotEnoughTokens)
	assert.Equal(t, "not_enough_tokens", ledger.Reason(err))

	assert.Equal(t, before, chain.Accounts())
	assert.Equal(t, 1, chain.Height())
}

func TestAddBlockRollbackOnCreditOverflow(t *testing.T) {
	chain := startedChain(t, map[ledger.AccountID]ledger.Amount{"alice": 10, "bob": math.MaxUint64})
	before := chain.Accounts()

	block := sealed(chain.LastHash(),
		ledger.NewTransaction(0, ledger.SendTokens{To: "bob", Amount: 1}, ledger.From("alice")),
	)
	err := chain.AddBlock(block)
	require.ErrorIs(t, err, ledger.ErrTooManyTokens)
	assert.Equal(t, before, chain.Accounts())
}

func TestMintAfterGenesisInBlock(t *testing.T) {
	chain := startedChain(t, map[ledger.AccountID]ledger.Amount{"alice": 0})
	block := sealed(chain.LastHash(),
		ledger.NewTransaction(0, ledger.MintTokens{To: "alice", Amount: 500}, nil),
	)
	err := chain.AddBlock(block)
	require.ErrorIs(t, err, ledger.ErrMintAfterGenesis)
	assert.Equal(t, ledger.Amount(0), balance(t, chain, "alice"))
}

func TestAliceAndBob(t *testing.T) {
	t.Run("MintInSecondBlockIsRejected", func(t *testing.T) {
		chain := ledger.NewBlockchain()
		require.NoError(t, chain.AddAccount("alice"))
		require.NoError(t, chain.AddAccount("bob"))
		require.NoError(t, chain.AddBlock(sealed(nil,
			ledger.NewTransaction(0, ledger.MintTokens{To: "alice", Amount: 500}, nil),
		)))
		assert.Equal(t, ledger.Amount(0), balance(t, chain, "alice"))
		assert.Equal(t, ledger.Amount(0), balance(t, chain, "bob"))

		err := chain.AddBlock(sealed(chain.LastHash(),
			ledger.NewTransaction(1, ledger.MintTokens{To: "alice", Amount: 500}, nil),
			ledger.NewTransaction(2, ledger.SendTokens{To: "bob", Amount: 300}, ledger.From("alice")),
		))
		var txErr *ledger.TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.Equal(t, 0, txErr.Index)
		require.ErrorIs(t, err, ledger.ErrMintAfterGenesis)
		assert.Equal(t, ledger.Amount(0), balance(t, chain, "alice"))
		assert.Equal(t, ledger.Amount(0), balance(t, chain, "bob"))
	})

	t.Run("FundedBeforeGenesis", func(t *testing.T) {
		chain := startedChain(t, map[ledger.AccountID]ledger.Amount{"alice": 500, "bob": 0})

		require.NoError(t, chain.AddBlock(sealed(chain.LastHash(),
			ledger.NewTransaction(1, ledger.SendTokens{To: "bob", Amount: 300}, ledger.From("alice")),
		)))
		assert.Equal(t, ledger.Amount(200), balance(t, chain, "alice"))
		assert.Equal(t, ledger.Amount(300), balance(t, chain, "bob"))

		err := chain.AddBlock(sealed(chain.LastHash(),
			ledger.NewTransaction(2, ledger.SendTokens{To: "bob", Amount: 1000}, ledger.From("alice")),
		))
		require.ErrorIs(t, err, ledger.ErrNotEnoughTokens)
		assert.Equal(t, ledger.Amount(200), balance(t, chain, "alice"))
		assert.Equal(t, ledger.Amount(300), balance(t, chain, "bob"))
		assert.Equal(t, 2, chain.Height())
	})

	t.Run("GenesisApply", func(t *testing.T) {
		chain := ledger.NewBlockchain(ledger.WithGenesisApply())
		require.NoError(t, chain.AddBlock(sealed(nil,
			ledger.NewTransaction(0, ledger.CreateUserAccount{ID: "alice"}, nil),
			ledger.NewTransaction(1, ledger.CreateUserAccount{ID: "bob"}, nil),
			ledger.NewTransaction(2, ledger.MintTokens{To: "alice", Amount: 500}, nil),
		)))
		require.NoError(t, chain.AddBlock(sealed(chain.LastHash(),
			ledger.NewTransaction(3, ledger.SendTokens{To: "bob", Amount: 300}, ledger.From("alice")),
		)))
		assert.Equal(t, ledger.Amount(200), balance(t, chain, "alice"))
		assert.Equal(t, ledger.Amount(300), balance(t, chain, "bob"))
		assert.Equal(t, ledger.Amount(500), chain.TotalSupply())
	})
}

func TestVerify(t *testing.T) {
	chain := startedChain(t, map[ledger.AccountID]ledger.Amount{"alice": 10, "bob": 0})
	require.NoError(t, chain.AddBlock(sealed(chain.LastHash(),
		ledger.NewTransaction(1, ledger.SendTokens{To: "bob", Amount: 5}, ledger.From("alice")),
	)))
	require.NoError(t, chain.Verify())

	// Blocks hands out copies; tampering with them leaves the chain intact
	blocks := chain.Blocks()
	require.Len(t, blocks, 2)
	blocks[1].Transactions[0].Nonce++
	*blocks[1].Transactions[0].From = "mallory"
	blocks[1].Transactions = append(blocks[1].Transactions, ledger.NewTransaction(9, ledger.CreateUserAccount{ID: "x"}, nil))
	require.NoError(t, chain.Verify())

	again := chain.Blocks()
	assert.Len(t, again[1].Transactions, 1)
	assert.Equal(t, ledger.Nonce(1), again[1].Transactions[0].Nonce)
	assert.Equal(t, ledger.AccountID("alice"), *again[1].Transactions[0].From)
}

func TestAddBlockCopiesBlock(t *testing.T) {
	chain := ledger.NewBlockchain()
	genesis := sealed(nil)
	require.NoError(t, chain.AddBlock(genesis))

	second := sealed(chain.LastHash())
	require.NoError(t, chain.AddBlock(second))

	// rewriting the submitted blocks does not rewrite history
	second.Transactions = append(second.Transactions, ledger.NewTransaction(0, ledger.CreateUserAccount{ID: "alice"}, nil))
	second.Seal(chain.LastHash())
	genesis.Hash[0] ^= 0xff

	require.NoError(t, chain.Verify())
	blocks := chain.Blocks()
	require.Len(t, blocks, 2)
	assert.Empty(t, blocks[1].Transactions)
	assert.True(t, blocks[0].IsHashValid())
	assert.Equal(t, blocks[0].Hash, chain.Blocks()[1].PreviousHash)
}

func TestAddBlockNilTransaction(t *testing.T) {
	chain := ledger.NewBlockchain()
	block := sealed(nil, ledger.NewTransaction(0, ledger.CreateUserAccount{ID: "alice"}, nil))
	block.Transactions = append(block.Transactions, nil)
	require.ErrorIs(t, chain.AddBlock(block), ledger.ErrInvalidHash)
	assert.Equal(t, 0, chain.Height())
}

func TestPendingTransactions(t *testing.T) {
	chain := startedChain(t, map[ledger.AccountID]ledger.Amount{"alice": 10, "bob": 0})
	chain.AddPendingTransaction(ledger.NewTransaction(1, ledger.SendTokens{To: "bob", Amount: 4}, ledger.From("alice")))
	chain.AddPendingTransaction(ledger.NewTransaction(2, ledger.SendTokens{To: "bob", Amount: 3}, ledger.From("alice")))
	assert.Len(t, chain.PendingTransactions(), 2)

	// the pool holds copies
	chain.PendingTransactions()[0].Nonce = 42

	block := chain.BuildBlock()
	assert.Empty(t, chain.PendingTransactions())
	assert.Equal(t, ledger.Nonce(1), block.Transactions[0].Nonce)
	assert.Len(t, block.Transactions, 2)
	assert.True(t, block.IsHashValid())

	require.NoError(t, chain.AddBlock(block))
	assert.Equal(t, ledger.Amount(3), balance(t, chain, "alice"))
	assert.Equal(t, ledger.Amount(7), balance(t, chain, "bob"))
}

func TestTotalSupplySaturates(t *testing.T) {
	chain := startedChain(t, map[ledger.AccountID]ledger.Amount{"alice": math.MaxUint64, "bob": 1})
	assert.Equal(t, ledger.Amount(math.MaxUint64), chain.TotalSupply())
}

func TestConcurrentReaders(t *testing.T) {
	chain := startedChain(t, map[ledger.AccountID]ledger.Amount{"alice": 1000, "bob": 0})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = chain.AddBlock(sealed(chain.LastHash(),
				ledger.NewTransaction(ledger.Nonce(i), ledger.SendTokens{To: "bob", Amount: 1}, ledger.From("alice")),
			))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			accounts := chain.Accounts()
			assert.Equal(t, ledger.Amount(1000), accounts["alice"].Tokens+accounts["bob"].Tokens)
		}
	}()
	wg.Wait()
	assert.Equal(t, ledger.Amount(1000), chain.TotalSupply())
	assert.Equal(t, 101, chain.Height())
}

func TestReason(t *testing.T) {
	assert.Equal(t, "", ledger.Reason(nil))
	assert.Equal(t, "invalid_hash", ledger.Reason(ledger.ErrInvalidHash))
	assert.Equal(t, "mint_after_genesis", ledger.Reason(&ledger.TransactionError{Index: 2, Err: ledger.ErrMintAfterGenesis}))
	assert.Equal(t, "unknown", ledger.Reason(errors.New("boom")))
}
