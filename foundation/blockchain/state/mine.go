package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Set of error variables for mining.
var (
	ErrMiningCancelled = errors.New("mining cancelled, the latest block changed")
	ErrShutdown        = errors.New("node is shutting down")
)

// MineNewBlock mines a block carrying the data on top of the current latest
// block and appends it. A successful block is broadcast to the known peers.
// If the latest block changes while mining, the round is abandoned and
// ErrMiningCancelled is returned.
func (s *State) MineNewBlock(ctx context.Context, data string) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: started")
	defer s.evHandler("state: MineNewBlock: MINING: completed")

	s.miningMu.Lock()
	defer s.miningMu.Unlock()

	ctx, cancel := context.WithCancelCause(ctx)
	s.setCancelMining(cancel)
	defer func() {
		s.setCancelMining(nil)
		cancel(nil)
	}()

	// Capture a single snapshot so the latest block and the difficulty
	// agree with each other.
	chain := s.db.Chain()
	latest := chain[len(chain)-1]

	difficulty, err := database.CurrentDifficulty(chain)
	if err != nil {
		return database.Block{}, err
	}

	args := database.POWArgs{
		Index:        latest.Index + 1,
		PreviousHash: latest.Hash,
		Timestamp:    time.Now().Unix(),
		Data:         data,
		Difficulty:   difficulty,
		Workers:      s.minerWorkers,
		EvHandler:    s.evHandler,
	}

	block, err := database.POW(ctx, args)
	if err != nil {
		return database.Block{}, miningError(ctx, err)
	}

	// The tip may have moved between solving and getting here.
	if ctx.Err() != nil {
		return database.Block{}, miningError(ctx, ctx.Err())
	}

	if err := s.db.Append(block); err != nil {
		s.evHandler("state: MineNewBlock: MINING: discarded: %s: %s", block, err)
		return database.Block{}, fmt.Errorf("mined block discarded: %w", err)
	}

	s.evHandler("state: MineNewBlock: MINING: SOLVED: %s", block)

	s.Worker.SignalBroadcastLatest()

	return block, nil
}

// miningError reports why a mining round stopped, preferring the cause
// registered by the node over the raw context error.
func miningError(ctx context.Context, err error) error {
	cause := context.Cause(ctx)
	switch {
	case errors.Is(cause, ErrMiningCancelled), errors.Is(cause, ErrShutdown):
		return cause
	}

	return err
}
