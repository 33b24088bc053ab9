package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

const baseURL = "http://%s/v1/node"

// netTimeout bounds every node to node request.
const netTimeout = 10 * time.Second

// NetSendLatestToPeers sends the latest block to all known peers.
func (s *State) NetSendLatestToPeers() error {
	s.evHandler("state: NetSendLatestToPeers: started")
	defer s.evHandler("state: NetSendLatestToPeers: completed")

	block, err := s.db.LatestBlock()
	if err != nil {
		return err
	}

	var errs []error
	for _, pr := range s.RetrieveKnownPeers() {
		if err := s.NetSendBlockToPeer(pr, block); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", pr.Host, err))
			continue
		}

		s.evHandler("state: NetSendLatestToPeers: sent to peer[%s]", pr)
	}

	return errors.Join(errs...)
}

// NetSendBlockToPeer proposes the block to the specified peer. When the peer
// reports the block does not link to its chain, the full chain is sent so
// the peer can run fork choice.
func (s *State) NetSendBlockToPeer(pr peer.Peer, block database.Block) error {
	url := fmt.Sprintf("%s/block/propose", fmt.Sprintf(baseURL, pr.Host))

	var status struct {
		Status string `json:"status"`
	}

	if err := send(http.MethodPost, url, block, &status); err != nil {
		return err
	}

	if status.Status != StatusForked {
		return nil
	}

	s.evHandler("state: NetSendBlockToPeer: peer[%s] forked: sending chain", pr)

	url = fmt.Sprintf("%s/chain/propose", fmt.Sprintf(baseURL, pr.Host))
	return send(http.MethodPost, url, s.db.Chain(), &status)
}

// NetRequestPeerStatus looks for new nodes on the blockchain by asking
// known nodes for their peer list and chain status.
func (s *State) NetRequestPeerStatus(pr peer.Peer) (peer.PeerStatus, error) {
	s.evHandler("state: NetRequestPeerStatus: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerStatus: completed: %s", pr)

	url := fmt.Sprintf("%s/status", fmt.Sprintf(baseURL, pr.Host))

	var ps peer.PeerStatus
	if err := send(http.MethodGet, url, nil, &ps); err != nil {
		return peer.PeerStatus{}, err
	}

	s.evHandler("state: NetRequestPeerStatus: peer-node[%s]: latest-blk[%d]: work[%s]: peer-list[%s]", pr, ps.LatestBlockIndex, ps.AccumulatedDifficulty, ps.KnownPeers)

	return ps, nil
}

// NetRequestPeerChain asks the peer for its full chain. Every block is
// checked for structure while decoding.
func (s *State) NetRequestPeerChain(pr peer.Peer) ([]database.Block, error) {
	s.evHandler("state: NetRequestPeerChain: started: %s", pr)
	defer s.evHandler("state: NetRequestPeerChain: completed: %s", pr)

	url := fmt.Sprintf("%s/chain", fmt.Sprintf(baseURL, pr.Host))

	var bds []database.BlockData
	if err := send(http.MethodGet, url, nil, &bds); err != nil {
		return nil, err
	}

	chain, err := database.ToChain(bds)
	if err != nil {
		return nil, err
	}

	s.evHandler("state: NetRequestPeerChain: found blocks[%d]", len(chain))

	return chain, nil
}

// NetRequestAddPeer lets the peer know this node is available.
func (s *State) NetRequestAddPeer(pr peer.Peer) error {
	url := fmt.Sprintf("%s/peers", fmt.Sprintf(baseURL, pr.Host))
	return send(http.MethodPost, url, peer.New(s.host), nil)
}

// =============================================================================

// send is a helper function to send an HTTP request to a node.
func send(method string, url string, dataSend any, dataRecv any) error {
	var body io.Reader
	if dataSend != nil {
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := http.Client{Timeout: netTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
