package ledger

import (
	"encoding/json"
	"fmt"
	"time"
)

type recordJSON struct {
	Type   RecordType `json:"type"`
	ID     *AccountID `json:"id,omitempty"`
	To     *AccountID `json:"to,omitempty"`
	Amount *Amount    `json:"amount,omitempty"`
}

type transactionJSON struct {
	Hash      *Hash      `json:"hash,omitempty"`
	Nonce     Nonce      `json:"nonce"`
	From      *AccountID `json:"from,omitempty"`
	Record    recordJSON `json:"record"`
	Signature string     `json:"signature,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type blockJSON struct {
	Hash         *Hash          `json:"hash,omitempty"`
	PreviousHash *Hash          `json:"previous_hash,omitempty"`
	Transactions []*Transaction `json:"transactions"`
}

// MarshalJSON encodes the transaction with its record tagged by type. The
// transaction hash is included for readers; it is ignored when decoding.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	h := t.CalculateHash()
	out := transactionJSON{
		Hash:      &h,
		Nonce:     t.Nonce,
		From:      t.From,
		Signature: t.Signature,
		CreatedAt: t.CreatedAt,
	}
	switch record := t.Record.(type) {
	case CreateUserAccount:
		out.Record = recordJSON{Type: record.Type(), ID: &record.ID}
	case MintTokens:
		out.Record = recordJSON{Type: record.Type(), To: &record.To, Amount: &record.Amount}
	case SendTokens:
		out.Record = recordJSON{Type: record.Type(), To: &record.To, Amount: &record.Amount}
	default:
		return nil, fmt.Errorf("unknown transaction record %T", t.Record)
	}
	return json.Marshal(out)
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var in transactionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	record, err := in.Record.decode()
	if err != nil {
		return err
	}
	*t = Transaction{
		Nonce:     in.Nonce,
		From:      in.From,
		Record:    record,
		Signature: in.Signature,
		CreatedAt: in.CreatedAt,
	}
	return nil
}

func (r recordJSON) decode() (Record, error) {
	switch r.Type {
	case RecordCreateUserAccount:
		if r.ID == nil {
			return nil, fmt.Errorf("%s record: missing id", r.Type)
		}
		return CreateUserAccount{ID: *r.ID}, nil
	case RecordMintTokens, RecordSendTokens:
		if r.To == nil {
			return nil, fmt.Errorf("%s record: missing to", r.Type)
		}
		if r.Amount == nil {
			return nil, fmt.Errorf("%s record: missing amount", r.Type)
		}
		if r.Type == RecordMintTokens {
			return MintTokens{To: *r.To, Amount: *r.Amount}, nil
		}
		return SendTokens{To: *r.To, Amount: *r.Amount}, nil
	default:
		return nil, fmt.Errorf("unknown record type %q", r.Type)
	}
}

func (b *Block) MarshalJSON() ([]byte, error) {
	transactions := b.Transactions
	if transactions == nil {
		transactions = []*Transaction{}
	}
	return json.Marshal(blockJSON{
		Hash:         b.Hash,
		PreviousHash: b.PreviousHash,
		Transactions: transactions,
	})
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var in blockJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*b = Block{
		Transactions: in.Transactions,
		Hash:         in.Hash,
		PreviousHash: in.PreviousHash,
	}
	return nil
}
