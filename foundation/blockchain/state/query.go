package state

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// QueryBlockByIndex returns the block at the specified index.
func (s *State) QueryBlockByIndex(index uint64) (database.Block, error) {
	return s.db.BlockByIndex(index)
}

// QueryBlocksByRange returns the set of blocks between the from and to
// indexes inclusive. Use QueryLatest for to when the range runs to the
// latest block.
func (s *State) QueryBlocksByRange(from uint64, to uint64) []database.Block {
	return s.db.BlocksByRange(from, to)
}
