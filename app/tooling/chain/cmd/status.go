package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/powchain/foundation/blockchain/peer"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the difficulty and peers of the node.",
	Run:   statusRun,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func statusRun(cmd *cobra.Command, args []string) {
	var diff struct {
		LatestIndex           uint64 `json:"latest_index"`
		CurrentDifficulty     uint   `json:"current_difficulty"`
		AccumulatedDifficulty string `json:"accumulated_difficulty"`
	}
	if err := call(http.MethodGet, "/v1/difficulty", nil, &diff); err != nil {
		log.Fatal(err)
	}

	var peers []peer.Peer
	if err := call(http.MethodGet, "/v1/peers", nil, &peers); err != nil {
		log.Fatal(err)
	}

	fmt.Println("Latest Index:          ", diff.LatestIndex)
	fmt.Println("Current Difficulty:    ", diff.CurrentDifficulty)
	fmt.Println("Accumulated Difficulty:", diff.AccumulatedDifficulty)
	fmt.Println("Known Peers:           ", peers)
}
