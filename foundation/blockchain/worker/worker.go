// Package worker implements peer updates, chain sync and block broadcasting
// for the blockchain.
package worker

import (
	"sync"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/state"
)

// defaultPeerUpdateInterval is used when no interval is configured.
const defaultPeerUpdateInterval = time.Minute

// =============================================================================

// Worker manages the background workflows for the node.
type Worker struct {
	state     *state.State
	wg        sync.WaitGroup
	ticker    *time.Ticker
	shut      chan struct{}
	broadcast chan bool
	evHandler state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, peerUpdateInterval time.Duration, evHandler state.EventHandler) *Worker {
	if peerUpdateInterval <= 0 {
		peerUpdateInterval = defaultPeerUpdateInterval
	}

	w := Worker{
		state:     st,
		ticker:    time.NewTicker(peerUpdateInterval),
		shut:      make(chan struct{}),
		broadcast: make(chan bool, 1),
		evHandler: evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Update this node before starting any support G's.
	w.Sync()

	// Load the set of operations we need to run.
	operations := []func(){
		w.peerOperations,
		w.broadcastOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalBroadcastLatest asks for the latest block to be sent to the known
// peers. If a signal is already pending, the pending broadcast will pick up
// the latest block so this one is dropped.
func (w *Worker) SignalBroadcastLatest() {
	select {
	case w.broadcast <- true:
		w.evHandler("worker: SignalBroadcastLatest: broadcast signaled")
	default:
		w.evHandler("worker: SignalBroadcastLatest: broadcast already pending")
	}
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
