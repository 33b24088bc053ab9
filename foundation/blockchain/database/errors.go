package database

import "errors"

// Set of reasons a block or chain is rejected. Every validation error wraps
// exactly one of these so callers can use errors.Is.
var (
	ErrInvalidStructure    = errors.New("invalid structure")
	ErrInvalidIndex        = errors.New("invalid index")
	ErrInvalidPreviousHash = errors.New("invalid previous hash")
	ErrInvalidTimestamp    = errors.New("invalid timestamp")
	ErrInvalidHash         = errors.New("invalid hash")
	ErrInvalidDifficulty   = errors.New("invalid difficulty")
	ErrInvalidGenesis      = errors.New("invalid genesis block")
	ErrNotHeavier          = errors.New("chain does not carry more accumulated difficulty")
)

// ErrEmptyChain is returned when a chain has no blocks. The database can
// never be in this state, so seeing it there means the chain is corrupted.
var ErrEmptyChain = errors.New("chain is empty")

// reasons maps the rejection errors to a short label.
var reasons = []struct {
	err   error
	label string
}{
	{ErrInvalidStructure, "structure"},
	{ErrInvalidIndex, "index"},
	{ErrInvalidPreviousHash, "previousHash"},
	{ErrInvalidTimestamp, "timestamp"},
	{ErrInvalidHash, "hash"},
	{ErrInvalidDifficulty, "difficulty"},
	{ErrInvalidGenesis, "genesis"},
	{ErrEmptyChain, "empty"},
	{ErrNotHeavier, "notHeavier"},
}

// Reason returns a short label for the rejection reason carried by err,
// or an empty string if err is not a rejection.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.label
		}
	}
	return ""
}
