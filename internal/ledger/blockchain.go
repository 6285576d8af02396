package ledger

import (
	"fmt"
	"math"
	"sync"
)

// Option configures a Blockchain.
type Option func(*Blockchain)

// WithGenesisApply makes AddBlock apply the transactions of the first block
// instead of appending it unchecked. While they are applied the chain is
// still in its genesis, so the first block may mint tokens.
func WithGenesisApply() Option {
	return func(c *Blockchain) {
		c.applyGenesis = true
	}
}

// Blockchain holds the blocks and the current world state. It is safe for
// concurrent use: AddBlock runs start to finish under the write lock, reads
// share the read lock.
type Blockchain struct {
	mu sync.RWMutex

	// blocks composing the chain, oldest first.
	blocks []*Block
	// accounts is the current world state.
	accounts map[AccountID]*Account
	// pending transactions waiting to be batched into a block.
	pending []*Transaction

	applyGenesis bool
}

// NewBlockchain creates an empty chain.
func NewBlockchain(opts ...Option) *Blockchain {
	c := &Blockchain{
		blocks:   make([]*Block, 0),
		accounts: make(map[AccountID]*Account),
		pending:  make([]*Transaction, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddBlock validates a block and, if it is correct, applies its
// transactions and appends it to the chain. The block is all-or-nothing:
// when any transaction fails the accounts are restored to what they were
// before the call and a *TransactionError is returned.
//
// The first block is appended without applying its transactions unless the
// chain was created WithGenesisApply.
//
// The chain stores a copy of block: changing the block after the call does
// not affect the committed history.
func (c *Blockchain) AddBlock(block *Block) error {
	if block == nil {
		return ErrInvalidHash
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	block = block.Clone()
	if !block.IsHashValid() {
		return ErrInvalidHash
	}

	if c.isGenesis() {
		if c.applyGenesis {
			if err := c.applyTransactions(block); err != nil {
				return err
			}
		}
		c.blocks = append(c.blocks, block)
		return nil
	}

	if !HashEqual(block.PreviousHash, c.lastHash()) {
		return fmt.Errorf("expected %s, got %s: %w",
			formatHash(c.lastHash()), formatHash(block.PreviousHash), ErrInvalidPreviousHash)
	}

	if err := c.applyTransactions(block); err != nil {
		return err
	}
	c.blocks = append(c.blocks, block)
	return nil
}

// applyTransactions applies every transaction of block or none of them.
// Caller must hold the write lock.
func (c *Blockchain) applyTransactions(block *Block) error {
	snapshot := cloneAccounts(c.accounts)
	state := lockedState{c}
	for i, tx := range block.Transactions {
		if err := tx.Apply(state); err != nil {
			c.accounts = snapshot
			return &TransactionError{Index: i, Err: err}
		}
	}
	return nil
}

// Verify re-checks the hash of every committed block and its link to the
// block before it.
func (c *Blockchain) Verify() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i, block := range c.blocks {
		if !block.IsHashValid() {
			return fmt.Errorf("block %d: %w", i, ErrInvalidHash)
		}
		if i == 0 {
			continue
		}
		if !HashEqual(block.PreviousHash, c.blocks[i-1].Hash) {
			return fmt.Errorf("block %d: %w", i, ErrInvalidPreviousHash)
		}
	}
	return nil
}

// Height returns the number of committed blocks.
func (c *Blockchain) Height() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.blocks)
}

// LastHash returns the hash of the last committed block, nil on an empty chain.
func (c *Blockchain) LastHash() *Hash {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CopyHash(c.lastHash())
}

// Blocks returns copies of the committed blocks, oldest first.
func (c *Blockchain) Blocks() []*Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	blocks := make([]*Block, len(c.blocks))
	for i, block := range c.blocks {
		blocks[i] = block.Clone()
	}
	return blocks
}

// Accounts returns a copy of the world state.
func (c *Blockchain) Accounts() map[AccountID]Account {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return flattenAccounts(c.accounts)
}

// TotalSupply returns the sum of all balances, saturating at math.MaxUint64.
func (c *Blockchain) TotalSupply() Amount {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total Amount
	for _, account := range c.accounts {
		sum, ok := checkedAdd(total, account.Tokens)
		if !ok {
			return math.MaxUint64
		}
		total = sum
	}
	return total
}

// AddPendingTransaction queues a copy of tx for the next BuildBlock. A nil
// tx is ignored.
func (c *Blockchain) AddPendingTransaction(tx *Transaction) {
	if tx == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, tx.Clone())
}

// PendingTransactions returns copies of the queued transactions.
func (c *Blockchain) PendingTransactions() []*Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	pending := make([]*Transaction, len(c.pending))
	for i, tx := range c.pending {
		pending[i] = tx.Clone()
	}
	return pending
}

// BuildBlock drains the pending transactions into a block sealed against
// the current last hash. The block is not submitted and shares no memory
// with the chain.
func (c *Blockchain) BuildBlock() *Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	block := NewBlock(nil, c.pending...)
	block.Seal(c.lastHash())
	c.pending = make([]*Transaction, 0)
	return block
}

// IsGenesis reports whether no block has been committed yet.
func (c *Blockchain) IsGenesis() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isGenesis()
}

func (c *Blockchain) LookupAccount(id AccountID) (Account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lockedState{c}.LookupAccount(id)
}

// MutableAccount returns the stored account. Updates through the returned
// pointer bypass the chain's lock and rollback; it exists so transactions
// can be applied directly to a chain.
func (c *Blockchain) MutableAccount(id AccountID) (*Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lockedState{c}.MutableAccount(id)
}

func (c *Blockchain) AddAccount(id AccountID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return lockedState{c}.AddAccount(id)
}

func (c *Blockchain) isGenesis() bool {
	return len(c.blocks) == 0
}

func (c *Blockchain) lastHash() *Hash {
	if len(c.blocks) == 0 {
		return nil
	}
	return c.blocks[len(c.blocks)-1].Hash
}

// lockedState is the WorldState of a chain whose lock is already held.
type lockedState struct {
	c *Blockchain
}

func (s lockedState) IsGenesis() bool {
	return s.c.isGenesis()
}

func (s lockedState) LookupAccount(id AccountID) (Account, error) {
	account, err := lookupAccount(s.c.accounts, id)
	if err != nil {
		return Account{}, err
	}
	return *account, nil
}

func (s lockedState) MutableAccount(id AccountID) (*Account, error) {
	return lookupAccount(s.c.accounts, id)
}

func (s lockedState) AddAccount(id AccountID) error {
	return addAccount(s.c.accounts, id)
}

func formatHash(h *Hash) string {
	if h == nil {
		return "<nil>"
	}
	return h.String()
}
