package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// ErrChainForked is returned when a peer block does not link to the latest
// block. The caller must ask the peer for its full chain.
var ErrChainForked = errors.New("blockchain forked, request the full chain")

// Set of status values a node reports back for a proposed block.
const (
	StatusAccepted = "accepted"
	StatusForked   = "forked"
	StatusIgnored  = "ignored"
)

// ProcessProposedBlock takes a block received from a peer and appends it if
// it links to the latest block. A block this node already holds is ignored.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: %s", block)
	defer s.evHandler("state: ProcessProposedBlock: completed: %s", block)

	if known, err := s.db.BlockByIndex(block.Index); err == nil && known.Hash == block.Hash {
		s.evHandler("state: ProcessProposedBlock: already known: %s", block)
		return nil
	}

	latest, err := s.db.LatestBlock()
	if err != nil {
		return err
	}

	if block.PreviousHash != latest.Hash {
		return fmt.Errorf("%w: peer %s: latest blk[%d]", ErrChainForked, block, latest.Index)
	}

	if err := s.db.Append(block); err != nil {
		return err
	}

	s.signalCancelMining(ErrMiningCancelled)
	s.Worker.SignalBroadcastLatest()

	return nil
}

// ProcessProposedChain takes a full chain received from a peer and adopts
// it when it is valid and carries more accumulated difficulty.
func (s *State) ProcessProposedChain(chain []database.Block) error {
	s.evHandler("state: ProcessProposedChain: started: blocks[%d]", len(chain))
	defer s.evHandler("state: ProcessProposedChain: completed")

	if err := s.db.ReplaceWith(chain); err != nil {
		return err
	}

	s.signalCancelMining(ErrMiningCancelled)
	s.Worker.SignalBroadcastLatest()

	return nil
}
