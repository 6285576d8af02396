package ledger

import "fmt"

// WorldState is the set of capabilities transaction application needs from
// a ledger-like container.
type WorldState interface {
	// LookupAccount returns a copy of an existing account.
	LookupAccount(id AccountID) (Account, error)

	// MutableAccount returns the stored account so it can be updated in place.
	MutableAccount(id AccountID) (*Account, error)

	// AddAccount registers a new zero-balance account.
	AddAccount(id AccountID) error

	// IsGenesis reports whether the world is still being created, i.e. no
	// block has been committed yet.
	IsGenesis() bool
}

// MemoryState is a map-backed WorldState without blocks.
type MemoryState struct {
	accounts map[AccountID]*Account
	genesis  bool
}

// NewMemoryState creates an empty world in its genesis.
func NewMemoryState() *MemoryState {
	return &MemoryState{
		accounts: make(map[AccountID]*Account),
		genesis:  true,
	}
}

// SetGenesis sets what IsGenesis reports.
func (s *MemoryState) SetGenesis(genesis bool) {
	s.genesis = genesis
}

func (s *MemoryState) IsGenesis() bool {
	return s.genesis
}

func (s *MemoryState) LookupAccount(id AccountID) (Account, error) {
	account, err := lookupAccount(s.accounts, id)
	if err != nil {
		return Account{}, err
	}
	return *account, nil
}

func (s *MemoryState) MutableAccount(id AccountID) (*Account, error) {
	return lookupAccount(s.accounts, id)
}

func (s *MemoryState) AddAccount(id AccountID) error {
	return addAccount(s.accounts, id)
}

// Accounts returns a copy of every account.
func (s *MemoryState) Accounts() map[AccountID]Account {
	return flattenAccounts(s.accounts)
}

func lookupAccount(accounts map[AccountID]*Account, id AccountID) (*Account, error) {
	account, ok := accounts[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, ErrAccountNotFound)
	}
	return account, nil
}

func addAccount(accounts map[AccountID]*Account, id AccountID) error {
	if _, exists := accounts[id]; exists {
		return fmt.Errorf("%q: %w", id, ErrAccountAlreadyExists)
	}
	accounts[id] = NewAccount()
	return nil
}

func flattenAccounts(accounts map[AccountID]*Account) map[AccountID]Account {
	flat := make(map[AccountID]Account, len(accounts))
	for id, account := range accounts {
		flat[id] = *account
	}
	return flat
}
