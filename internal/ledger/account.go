package ledger

// Amount is a number of tokens.
type Amount = uint64

// Nonce is a number only used once. It is hashed but never validated.
type Nonce = uint64

// Account holds tokens. It is owned by the account map of a WorldState and
// is never deleted individually.
type Account struct {
	Tokens Amount `json:"tokens"`
}

// NewAccount returns an account with a zero balance.
func NewAccount() *Account {
	return &Account{Tokens: 0}
}

// cloneAccounts deep-copies an account map.
func cloneAccounts(accounts map[AccountID]*Account) map[AccountID]*Account {
	cloned := make(map[AccountID]*Account, len(accounts))
	for id, account := range accounts {
		accountCopy := *account
		cloned[id] = &accountCopy
	}
	return cloned
}
