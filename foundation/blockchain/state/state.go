// Package state is the core API for the blockchain and implements all the
// business rules for mining, accepting peer blocks and resolving forks.
package state

import (
	"context"
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for peer updates and block broadcasting.
type Worker interface {
	Shutdown()
	Sync()
	SignalBroadcastLatest()
}

// nopWorker is used until a real worker registers itself.
type nopWorker struct{}

func (nopWorker) Shutdown()              {}
func (nopWorker) Sync()                  {}
func (nopWorker) SignalBroadcastLatest() {}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	Host         string
	MinerWorkers int
	KnownPeers   *peer.PeerSet
	EvHandler    EventHandler
}

// State manages the blockchain database.
type State struct {
	host         string
	minerWorkers int
	evHandler    EventHandler

	knownPeers *peer.PeerSet
	db         *database.Database

	// miningMu serializes local mining rounds so each round builds on the
	// tip it observed when it started.
	miningMu sync.Mutex

	cancelMu     sync.Mutex
	cancelMining context.CancelCauseFunc

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	workers := cfg.MinerWorkers
	if workers < 1 {
		workers = 1
	}

	state := State{
		host:         cfg.Host,
		minerWorkers: workers,
		evHandler:    ev,

		knownPeers: knownPeers,
		db:         database.New(ev),

		Worker: nopWorker{},
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop any mining round in flight.
	s.signalCancelMining(ErrShutdown)

	// Stop all peer activity.
	s.Worker.Shutdown()

	return nil
}

// =============================================================================

// setCancelMining registers the cancel function of the mining round
// in flight.
func (s *State) setCancelMining(cancel context.CancelCauseFunc) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()

	s.cancelMining = cancel
}

// signalCancelMining stops the mining round in flight, if any.
func (s *State) signalCancelMining(cause error) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()

	if s.cancelMining != nil {
		s.evHandler("state: signalCancelMining: MINING: CANCEL: %s", cause)
		s.cancelMining(cause)
	}
}
