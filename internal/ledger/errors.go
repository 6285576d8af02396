package ledger

import (
	"errors"
	"fmt"
)

// Errors
var (
	// Structural: the block does not attach to the chain.
	ErrInvalidHash         = errors.New("invalid hash")
	ErrInvalidPreviousHash = errors.New("invalid previous hash")

	// Account state.
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")

	// Ledger policy.
	ErrUsersCannotMint    = errors.New("users cannot mint tokens")
	ErrMintAfterGenesis   = errors.New("cannot mint tokens after genesis")
	ErrMissingFromAccount = errors.New("missing from account")

	// Checked arithmetic.
	ErrNotEnoughTokens = errors.New("not enough tokens")
	ErrTooManyTokens   = errors.New("too many tokens")
)

// TransactionError reports which transaction of a block failed to apply.
type TransactionError struct {
	Index int
	Err   error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %d: %v", e.Index, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

var reasons = []struct {
	err    error
	reason string
}{
	{ErrInvalidHash, "invalid_hash"},
	{ErrInvalidPreviousHash, "invalid_previous_hash"},
	{ErrAccountNotFound, "account_not_found"},
	{ErrAccountAlreadyExists, "account_already_exists"},
	{ErrUsersCannotMint, "users_cannot_mint"},
	{ErrMintAfterGenesis, "mint_after_genesis"},
	{ErrMissingFromAccount, "missing_from_account"},
	{ErrNotEnoughTokens, "not_enough_tokens"},
	{ErrTooManyTokens, "too_many_tokens"},
}

// Reason returns a stable label for err, suitable for logs and metric
// labels. Errors outside the ledger's closed set map to "unknown".
func Reason(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "unknown"
}
