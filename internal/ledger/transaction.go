package ledger

import (
	"fmt"
	"strconv"
	"time"
)

// RecordType names a transaction record variant.
type RecordType string

const (
	RecordCreateUserAccount RecordType = "create_user_account"
	RecordMintTokens        RecordType = "mint_tokens"
	RecordSendTokens        RecordType = "send_tokens"
)

// Record describes the action a transaction executes against the world
// state. The set of records is closed: CreateUserAccount, MintTokens and
// SendTokens.
type Record interface {
	Type() RecordType
	String() string
	isRecord()
}

// CreateUserAccount registers a new account.
type CreateUserAccount struct {
	ID AccountID
}

// MintTokens creates tokens out of thin air. Only allowed during genesis and
// without a sender.
type MintTokens struct {
	To     AccountID
	Amount Amount
}

// SendTokens moves tokens from the transaction's sender to another account.
type SendTokens struct {
	To     AccountID
	Amount Amount
}

func (CreateUserAccount) Type() RecordType { return RecordCreateUserAccount }
func (MintTokens) Type() RecordType        { return RecordMintTokens }
func (SendTokens) Type() RecordType        { return RecordSendTokens }

func (r CreateUserAccount) String() string {
	return fmt.Sprintf("CreateUserAccount(%q)", string(r.ID))
}

func (r MintTokens) String() string {
	return fmt.Sprintf("MintTokens{to: %q, amount: %d}", string(r.To), r.Amount)
}

func (r SendTokens) String() string {
	return fmt.Sprintf("SendTokens{to: %q, amount: %d}", string(r.To), r.Amount)
}

func (CreateUserAccount) isRecord() {}
func (MintTokens) isRecord()        {}
func (SendTokens) isRecord()        {}

// Transaction is a change of state in the ledger.
type Transaction struct {
	// Nonce is a "number only used once".
	Nonce Nonce
	// From is the account that initiated the transaction, nil for system
	// transactions such as mints.
	From *AccountID
	// Record is what the transaction does.
	Record Record
	// Signature is an opaque signed hash. Empty when unsigned.
	Signature string
	// CreatedAt is the local time of creation.
	CreatedAt time.Time
}

// NewTransaction creates an unsigned transaction stamped with the current time.
func NewTransaction(nonce Nonce, record Record, from *AccountID) *Transaction {
	return &Transaction{
		Nonce:     nonce,
		From:      from,
		Record:    record,
		CreatedAt: time.Now(),
	}
}

// Clone returns a copy of the transaction that shares no memory with it.
// Records are values, so only the sender needs copying. A nil transaction
// clones to nil.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	if t.From != nil {
		c.From = From(*t.From)
	}
	return &c
}

// Sign attaches a signature. It does not change the transaction hash.
func (t *Transaction) Sign(signature string) {
	t.Signature = signature
}

// CalculateHash computes the hash of the record, nonce, sender and creation
// time. The signature is not part of the hash.
func (t *Transaction) CalculateHash() Hash {
	return HashBytes([]byte(t.hashInput()))
}

func (t *Transaction) hashInput() string {
	from := "<nil>"
	if t.From != nil {
		from = strconv.Quote(string(*t.From))
	}
	record := "<nil>"
	if t.Record != nil {
		record = t.Record.String()
	}
	return fmt.Sprintf("%s_%d_%s_%s",
		record,
		t.Nonce,
		from,
		t.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
}

// Apply executes the transaction against a world state. On error the world
// state is left as it was.
func (t *Transaction) Apply(ws WorldState) error {
	switch record := t.Record.(type) {
	case CreateUserAccount:
		return t.applyCreateUserAccount(ws, record)
	case MintTokens:
		return t.applyMintTokens(ws, record)
	case SendTokens:
		return t.applySendTokens(ws, record)
	default:
		return fmt.Errorf("unknown transaction record %T", t.Record)
	}
}

func (t *Transaction) applyCreateUserAccount(ws WorldState, record CreateUserAccount) error {
	if _, err := ws.LookupAccount(record.ID); err == nil {
		return fmt.Errorf("%q: %w", record.ID, ErrAccountAlreadyExists)
	}
	return ws.AddAccount(record.ID)
}

func (t *Transaction) applyMintTokens(ws WorldState, record MintTokens) error {
	if t.From != nil {
		return ErrUsersCannotMint
	}
	if !ws.IsGenesis() {
		return ErrMintAfterGenesis
	}
	to, err := ws.MutableAccount(record.To)
	if err != nil {
		return err
	}
	tokens, ok := checkedAdd(to.Tokens, record.Amount)
	if !ok {
		return fmt.Errorf("%q: %w", record.To, ErrTooManyTokens)
	}
	to.Tokens = tokens
	return nil
}

// applySendTokens checks the debit before the credit, and both before
// writing either, so a failed send never leaves a half-applied transfer.
func (t *Transaction) applySendTokens(ws WorldState, record SendTokens) error {
	if t.From == nil {
		return ErrMissingFromAccount
	}
	from, err := ws.MutableAccount(*t.From)
	if err != nil {
		return fmt.Errorf("from account: %w", err)
	}
	debited, ok := checkedSub(from.Tokens, record.Amount)
	if !ok {
		return fmt.Errorf("%q has %d, needs %d: %w", *t.From, from.Tokens, record.Amount, ErrNotEnoughTokens)
	}
	to, err := ws.MutableAccount(record.To)
	if err != nil {
		return fmt.Errorf("to account: %w", err)
	}
	if record.To == *t.From {
		return nil
	}
	credited, ok := checkedAdd(to.Tokens, record.Amount)
	if !ok {
		return fmt.Errorf("%q: %w", record.To, ErrTooManyTokens)
	}
	from.Tokens = debited
	to.Tokens = credited
	return nil
}

func checkedAdd(a, b Amount) (Amount, bool) {
	sum := a + b
	return sum, sum >= a
}

func checkedSub(a, b Amount) (Amount, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}
