// Package database handles all the lower level support for maintaining the
// blockchain in memory: the block model, hashing, validation, difficulty,
// proof of work and fork choice.
package database

import (
	"fmt"
	"math/big"
	"slices"
	"sync"
	"sync/atomic"
)

// Database owns the authoritative chain. Writers are serialized by a mutex
// and every write stores a brand new slice, so readers load the current
// slice without locking and never see a partial update.
type Database struct {
	mu        sync.Mutex
	chain     atomic.Pointer[[]Block]
	evHandler func(v string, args ...any)
}

// New constructs a database holding only the genesis block.
func New(evHandler func(v string, args ...any)) *Database {
	db := Database{
		evHandler: eventHandler(evHandler),
	}

	chain := []Block{genesisBlock}
	db.chain.Store(&chain)

	return &db
}

// Chain returns a copy of the current chain.
func (db *Database) Chain() []Block {
	return slices.Clone(*db.chain.Load())
}

// LatestBlock returns the last block in the chain.
func (db *Database) LatestBlock() (Block, error) {
	chain := *db.chain.Load()
	if len(chain) == 0 {
		return Block{}, ErrEmptyChain
	}

	return chain[len(chain)-1], nil
}

// BlockByIndex returns the block at the specified index.
func (db *Database) BlockByIndex(index uint64) (Block, error) {
	chain := *db.chain.Load()
	if index >= uint64(len(chain)) {
		return Block{}, fmt.Errorf("block %d does not exist, chain length %d", index, len(chain))
	}

	return chain[index], nil
}

// BlocksByRange returns the blocks from index to index inclusive. The range
// is trimmed to the blocks that exist.
func (db *Database) BlocksByRange(from uint64, to uint64) []Block {
	chain := *db.chain.Load()

	l := uint64(len(chain))
	if from >= l || from > to {
		return nil
	}
	if to >= l {
		to = l - 1
	}

	return slices.Clone(chain[from : to+1])
}

// AccumulatedDifficulty returns the accumulated difficulty of the chain.
func (db *Database) AccumulatedDifficulty() *big.Int {
	return AccumulatedDifficulty(*db.chain.Load())
}

// CurrentDifficulty returns the difficulty the next block must be mined at.
func (db *Database) CurrentDifficulty() (uint, error) {
	return CurrentDifficulty(*db.chain.Load())
}

// Append adds the block to the end of the chain if it is a valid next block.
// On failure the chain is untouched and the rejection reason is returned.
func (db *Database) Append(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	chain := *db.chain.Load()
	if len(chain) == 0 {
		return ErrEmptyChain
	}

	if err := ValidateNewBlock(block, chain[len(chain)-1], db.evHandler); err != nil {
		db.evHandler("database: Append: REJECTED: %s: %s", block, err)
		return err
	}

	next := make([]Block, len(chain), len(chain)+1)
	copy(next, chain)
	next = append(next, block)

	db.chain.Store(&next)
	db.evHandler("database: Append: ACCEPTED: %s", block)

	return nil
}

// ReplaceWith swaps the whole chain for the candidate if the candidate is a
// valid chain carrying more accumulated difficulty. On failure the chain is
// untouched and the rejection reason is returned.
func (db *Database) ReplaceWith(candidate []Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	current := *db.chain.Load()

	if err := ValidateReplacement(candidate, current, db.evHandler); err != nil {
		db.evHandler("database: ReplaceWith: REJECTED: blocks[%d]: %s", len(candidate), err)
		return err
	}

	next := slices.Clone(candidate)

	db.chain.Store(&next)
	db.evHandler("database: ReplaceWith: ACCEPTED: blocks[%d]: latest[%s]", len(next), next[len(next)-1].Hash)

	return nil
}
