package worker

import (
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

// Sync updates the peer list and adopts the heaviest chain known
// to the peers.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(pr)
		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		w.syncChain(pr, peerStatus)
	}
}

// syncChain pulls the peer's chain when the peer reports more accumulated
// difficulty than this node holds.
func (w *Worker) syncChain(pr peer.Peer, peerStatus peer.PeerStatus) {
	peerWork := peerStatus.Work()
	ourWork := w.state.RetrieveAccumulatedDifficulty()

	if peerWork.Cmp(ourWork) <= 0 {
		return
	}

	w.evHandler("worker: syncChain: %s: peer work[%s] > our work[%s]", pr.Host, peerWork, ourWork)

	chain, err := w.state.NetRequestPeerChain(pr)
	if err != nil {
		w.evHandler("worker: syncChain: retrievePeerChain: %s: ERROR: %s", pr.Host, err)
		return
	}

	if err := w.state.ProcessProposedChain(chain); err != nil {
		w.evHandler("worker: syncChain: processProposedChain: %s: ERROR: %s", pr.Host, err)
	}
}
