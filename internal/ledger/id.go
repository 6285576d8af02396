package ledger

// AccountID identifies an account. Equality is byte-exact: no trimming, no
// case folding, and the empty string is a valid id.
type AccountID string

// NewAccountID creates an AccountID
func NewAccountID(id string) AccountID {
	return AccountID(id)
}

func (id AccountID) String() string {
	return string(id)
}

// From returns a pointer to id, for use as a transaction sender.
func From(id AccountID) *AccountID {
	return &id
}
