package state

import (
	"math/big"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
)

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveGenesis returns the genesis block.
func (s *State) RetrieveGenesis() database.Block {
	return database.Genesis()
}

// RetrieveChain returns a copy of the full chain.
func (s *State) RetrieveChain() []database.Block {
	return s.db.Chain()
}

// RetrieveLatestBlock returns a copy of the current latest block.
func (s *State) RetrieveLatestBlock() (database.Block, error) {
	return s.db.LatestBlock()
}

// RetrieveAccumulatedDifficulty returns the work carried by the chain.
func (s *State) RetrieveAccumulatedDifficulty() *big.Int {
	return s.db.AccumulatedDifficulty()
}

// RetrieveCurrentDifficulty returns the difficulty the next block must
// be mined at.
func (s *State) RetrieveCurrentDifficulty() (uint, error) {
	return s.db.CurrentDifficulty()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveStatus returns the status this node reports to its peers.
func (s *State) RetrieveStatus() (peer.PeerStatus, error) {
	chain := s.db.Chain()
	latest := chain[len(chain)-1]

	ps := peer.PeerStatus{
		LatestBlockHash:       latest.Hash,
		LatestBlockIndex:      latest.Index,
		AccumulatedDifficulty: database.AccumulatedDifficulty(chain).String(),
		KnownPeers:            s.RetrieveKnownPeers(),
	}

	return ps, nil
}
