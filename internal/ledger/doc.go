// Package ledger implements the transaction-application and chain-validation
// core of tally: an in-memory, single-writer ledger of account balances.
//
// # Core Types
//
// AccountID: opaque account key, compared byte for byte.
//
// Account: a token balance. Balances only change through Transaction.Apply.
//
// WorldState: the capability set transaction application runs against.
// Blockchain implements it; MemoryState is a bare map-backed stand-in.
//
// Transaction: a single state-change intent (create account, mint, send)
// with a BLAKE3 content hash over its record, nonce, sender and creation
// time. Signatures are carried but never verified.
//
// Block: an ordered batch of transactions, a fold-hash over their hashes and
// a link to the previous block's hash.
//
// Blockchain: owns the block list and the account map, validates and
// applies blocks all-or-nothing.
//
// # Block Admission
//
//  1. The block's own hash must match its contents.
//  2. The first block is appended without applying its transactions,
//     unless the chain was built WithGenesisApply.
//  3. Every later block must link to the last committed hash.
//  4. Transactions are applied in order against a snapshot of the accounts;
//     the first failure restores the snapshot and rejects the whole block.
//
// # Usage Example
//
//	chain := ledger.NewBlockchain(ledger.WithGenesisApply())
//
//	genesis := ledger.NewBlock(nil,
//	    ledger.NewTransaction(0, ledger.CreateUserAccount{ID: "alice"}, nil),
//	    ledger.NewTransaction(1, ledger.MintTokens{To: "alice", Amount: 500}, nil),
//	)
//	genesis.Seal(nil)
//	if err := chain.AddBlock(genesis); err != nil {
//	    return err
//	}
//
//	account, err := chain.LookupAccount("alice")
package ledger
