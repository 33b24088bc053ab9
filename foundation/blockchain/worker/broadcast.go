package worker

// broadcastOperations handles sending the latest block to the peers.
func (w *Worker) broadcastOperations() {
	w.evHandler("worker: broadcastOperations: G started")
	defer w.evHandler("worker: broadcastOperations: G completed")

	for {
		select {
		case <-w.broadcast:
			if !w.isShutdown() {
				w.runBroadcastOperation()
			}
		case <-w.shut:
			w.evHandler("worker: broadcastOperations: received shut signal")
			return
		}
	}
}

// runBroadcastOperation sends the latest block to every known peer.
func (w *Worker) runBroadcastOperation() {
	w.evHandler("worker: runBroadcastOperation: started")
	defer w.evHandler("worker: runBroadcastOperation: completed")

	if err := w.state.NetSendLatestToPeers(); err != nil {
		w.evHandler("worker: runBroadcastOperation: WARNING: %s", err)
	}
}
