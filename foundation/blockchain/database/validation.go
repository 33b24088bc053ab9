package database

import (
	"fmt"
	"time"

	"github.com/ardanlabs/powchain/foundation/validate"
)

// maxTimestampDrift is the number of seconds a block's timestamp may trail
// its parent or lead the local clock.
const maxTimestampDrift = 60

// ValidateBlockStructure checks every field of the block is well formed.
// It runs before any other check and does no hashing.
func ValidateBlockStructure(b Block) error {
	if !validate.IsHash256(b.Hash) {
		return fmt.Errorf("%w: hash %q is not a 64 character lowercase hex digest", ErrInvalidStructure, b.Hash)
	}

	switch {
	case b.Index == 0 && b.PreviousHash != "":
		return fmt.Errorf("%w: genesis previous hash must be empty", ErrInvalidStructure)

	case b.Index > 0 && !validate.IsHash256(b.PreviousHash):
		return fmt.Errorf("%w: previous hash %q is not a 64 character lowercase hex digest", ErrInvalidStructure, b.PreviousHash)
	}

	if b.Timestamp < 0 {
		return fmt.Errorf("%w: negative timestamp %d", ErrInvalidStructure, b.Timestamp)
	}

	return nil
}

// IsValidBlockStructure is the boolean form of ValidateBlockStructure.
func IsValidBlockStructure(b Block) bool {
	return ValidateBlockStructure(b) == nil
}

// ValidateNewBlock takes a block and validates it can follow the previous
// block. The checks run in order and stop at the first failure.
func ValidateNewBlock(candidate Block, previous Block, evHandler func(v string, args ...any)) error {
	return validateNewBlock(candidate, previous, time.Now().Unix(), evHandler)
}

// IsValidNewBlock is the boolean form of ValidateNewBlock.
func IsValidNewBlock(candidate Block, previous Block) bool {
	return ValidateNewBlock(candidate, previous, nil) == nil
}

func validateNewBlock(candidate Block, previous Block, now int64, evHandler func(v string, args ...any)) error {
	ev := eventHandler(evHandler)

	ev("database: ValidateNewBlock: validate: blk[%d]: check: block structure", candidate.Index)

	if err := ValidateBlockStructure(candidate); err != nil {
		return err
	}

	ev("database: ValidateNewBlock: validate: blk[%d]: check: block index is the next index", candidate.Index)

	if candidate.Index != previous.Index+1 {
		return fmt.Errorf("%w: got %d, exp %d", ErrInvalidIndex, candidate.Index, previous.Index+1)
	}

	ev("database: ValidateNewBlock: validate: blk[%d]: check: previous hash does match parent block", candidate.Index)

	if candidate.PreviousHash != previous.Hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrInvalidPreviousHash, candidate.PreviousHash, previous.Hash)
	}

	ev("database: ValidateNewBlock: validate: blk[%d]: check: timestamp is within drift of parent and local clock", candidate.Index)

	if candidate.Timestamp <= previous.Timestamp-maxTimestampDrift {
		return fmt.Errorf("%w: block %d is too far behind parent %d", ErrInvalidTimestamp, candidate.Timestamp, previous.Timestamp)
	}

	if candidate.Timestamp >= now+maxTimestampDrift {
		return fmt.Errorf("%w: block %d is too far ahead of now %d", ErrInvalidTimestamp, candidate.Timestamp, now)
	}

	ev("database: ValidateNewBlock: validate: blk[%d]: check: hash does match block content", candidate.Index)

	if hash := candidate.CalculateHash(); hash != candidate.Hash {
		return fmt.Errorf("%w: got %s, exp %s", ErrInvalidHash, candidate.Hash, hash)
	}

	ev("database: ValidateNewBlock: validate: blk[%d]: check: hash has been solved for difficulty", candidate.Index)

	if !HashMatchesDifficulty(candidate.Hash, candidate.Difficulty) {
		return fmt.Errorf("%w: hash %s does not have %d leading zero bits", ErrInvalidDifficulty, candidate.Hash, candidate.Difficulty)
	}

	return nil
}

// ValidateChain validates a complete chain starting from the genesis block.
func ValidateChain(chain []Block, evHandler func(v string, args ...any)) error {
	return validateChain(chain, time.Now().Unix(), evHandler)
}

// IsValidChain is the boolean form of ValidateChain.
func IsValidChain(chain []Block) bool {
	return ValidateChain(chain, nil) == nil
}

func validateChain(chain []Block, now int64, evHandler func(v string, args ...any)) error {
	if len(chain) == 0 {
		return ErrEmptyChain
	}

	if chain[0] != genesisBlock {
		return fmt.Errorf("%w: got %s", ErrInvalidGenesis, chain[0].Hash)
	}

	for i := 1; i < len(chain); i++ {
		if err := validateNewBlock(chain[i], chain[i-1], now, evHandler); err != nil {
			return fmt.Errorf("block[%d]: %w", i, err)
		}
	}

	return nil
}

// eventHandler returns a handler that is safe to call when none is provided.
func eventHandler(evHandler func(v string, args ...any)) func(v string, args ...any) {
	if evHandler == nil {
		return func(string, ...any) {}
	}
	return evHandler
}
