package ledger

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// HashSize is the size of a hash in bytes
const HashSize = 32

// Hash is a BLAKE3-256 digest.
type Hash [HashSize]byte

// HashBytes computes the BLAKE3-256 hash of data
func HashBytes(data []byte) Hash {
	return Hash(blake3.Sum256(data))
}

// ParseHash decodes a hex-encoded hash.
func ParseHash(s string) (Hash, error) {
	var h Hash
	data, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("invalid hash encoding: %w", err)
	}
	if len(data) != HashSize {
		return h, fmt.Errorf("hash must be %d bytes, got %d", HashSize, len(data))
	}
	copy(h[:], data)
	return h, nil
}

// String returns the hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// HashEqual compares two optional hashes. Two nil hashes are equal.
func HashEqual(a, b *Hash) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// CopyHash creates a copy of an optional hash.
func CopyHash(h *Hash) *Hash {
	if h == nil {
		return nil
	}
	hashCopy := *h
	return &hashCopy
}
