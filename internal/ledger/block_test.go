package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liftedinit/tally/internal/ledger"
)

// blake3 of no input
const emptyBlockHash = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"

func fixedTx(nonce ledger.Nonce, record ledger.Record, from *ledger.AccountID) *ledger.Transaction {
	return &ledger.Transaction{
		Nonce:     nonce,
		From:      from,
		Record:    record,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, int(nonce), time.UTC),
	}
}

func TestBlockHash(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		block := ledger.NewBlock(nil)
		assert.Equal(t, emptyBlockHash, block.CalculateHash().String())
	})

	t.Run("Deterministic", func(t *testing.T) {
		a := ledger.NewBlock(nil, fixedTx(1, ledger.CreateUserAccount{ID: "alice"}, nil))
		b := ledger.NewBlock(nil, fixedTx(1, ledger.CreateUserAccount{ID: "alice"}, nil))
		assert.Equal(t, a.CalculateHash(), b.CalculateHash())
	})

	t.Run("OrderDependent", func(t *testing.T) {
		tx1 := fixedTx(1, ledger.CreateUserAccount{ID: "alice"}, nil)
		tx2 := fixedTx(2, ledger.CreateUserAccount{ID: "bob"}, nil)
		assert.NotEqual(t,
			ledger.NewBlock(nil, tx1, tx2).CalculateHash(),
			ledger.NewBlock(nil, tx2, tx1).CalculateHash())
	})

	t.Run("PreviousHashNotHashed", func(t *testing.T) {
		prev := ledger.HashBytes([]byte("previous"))
		tx := fixedTx(1, ledger.CreateUserAccount{ID: "alice"}, nil)
		assert.Equal(t,
			ledger.NewBlock(nil, tx).CalculateHash(),
			ledger.NewBlock(&prev, tx).CalculateHash())
	})
}

func TestBlockIsHashValid(t *testing.T) {
	block := ledger.NewBlock(nil, fixedTx(1, ledger.CreateUserAccount{ID: "alice"}, nil))
	assert.False(t, block.IsHashValid(), "unsealed block")

	block.Seal(nil)
	require.NotNil(t, block.Hash)
	assert.True(t, block.IsHashValid())

	block.Transactions = append(block.Transactions, fixedTx(2, ledger.CreateUserAccount{ID: "bob"}, nil))
	assert.False(t, block.IsHashValid(), "modified after sealing")

	empty := ledger.NewBlock(nil)
	empty.Seal(nil)
	assert.True(t, empty.IsHashValid())
}

func TestBlockSeal(t *testing.T) {
	prev := ledger.HashBytes([]byte("previous"))
	block := ledger.NewBlock(nil)
	block.Seal(&prev)

	require.NotNil(t, block.PreviousHash)
	assert.Equal(t, prev, *block.PreviousHash)

	prev[0]++
	assert.NotEqual(t, prev, *block.PreviousHash, "seal copies the previous hash")
}

func TestHashText(t *testing.T) {
	h := ledger.HashBytes([]byte("data"))
	parsed, err := ledger.ParseHash(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)

	_, err = ledger.ParseHash("zz")
	assert.Error(t, err)
	_, err = ledger.ParseHash("abcd")
	assert.ErrorContains(t, err, "hash must be 32 bytes, got 2")

	assert.True(t, ledger.HashEqual(nil, nil))
	assert.False(t, ledger.HashEqual(&h, nil))
	assert.True(t, ledger.HashEqual(&h, &parsed))
}
