package ledger

import "github.com/zeebo/blake3"

// Block is an ordered batch of transactions. It is only valid in the context
// of a chain: PreviousHash must match the hash of the block before it.
type Block struct {
	// Transactions contained in this block, in application order.
	Transactions []*Transaction
	// Hash of the full block, i.e. the fold-hash of all transaction hashes.
	Hash *Hash
	// PreviousHash is the hash of the previous block, nil for the first one.
	PreviousHash *Hash
}

// NewBlock creates an unsealed block linked to previous.
func NewBlock(previous *Hash, transactions ...*Transaction) *Block {
	return &Block{
		Transactions: transactions,
		PreviousHash: CopyHash(previous),
	}
}

// CalculateHash feeds every transaction hash, in order, into a single
// hasher. A block without transactions hashes to the digest of no input.
func (b *Block) CalculateHash() Hash {
	hasher := blake3.New()
	for _, tx := range b.Transactions {
		h := tx.CalculateHash()
		_, _ = hasher.Write(h[:])
	}
	var sum Hash
	copy(sum[:], hasher.Sum(nil))
	return sum
}

// IsHashValid reports whether Hash is set and matches the block contents.
// A block holding a nil transaction has no valid hash.
func (b *Block) IsHashValid() bool {
	if b.Hash == nil {
		return false
	}
	for _, tx := range b.Transactions {
		if tx == nil {
			return false
		}
	}
	return *b.Hash == b.CalculateHash()
}

// Clone returns a deep copy of the block: the hashes, the transaction slice
// and every transaction are copied.
func (b *Block) Clone() *Block {
	var transactions []*Transaction
	if b.Transactions != nil {
		transactions = make([]*Transaction, len(b.Transactions))
		for i, tx := range b.Transactions {
			transactions[i] = tx.Clone()
		}
	}
	return &Block{
		Transactions: transactions,
		Hash:         CopyHash(b.Hash),
		PreviousHash: CopyHash(b.PreviousHash),
	}
}

// Seal links the block to previous and freezes its hash. Changing the
// transactions afterwards invalidates the block.
func (b *Block) Seal(previous *Hash) {
	b.PreviousHash = CopyHash(previous)
	h := b.CalculateHash()
	b.Hash = &h
}
