package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var verifyFile string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Validate a chain from a JSON file or from the node.",
	Run:   verifyRun,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVarP(&verifyFile, "file", "f", "", "Path to a JSON file holding a chain.")
}

func verifyRun(cmd *cobra.Command, args []string) {
	var data []byte

	switch verifyFile {
	case "":
		var chain []database.Block
		if err := call(http.MethodGet, "/v1/blocks/list", nil, &chain); err != nil {
			log.Fatal(err)
		}
		var err error
		if data, err = json.Marshal(chain); err != nil {
			log.Fatal(err)
		}

	default:
		var err error
		if data, err = os.ReadFile(verifyFile); err != nil {
			log.Fatal(err)
		}
	}

	rpt, err := verifyChain(data)
	if err != nil {
		fmt.Printf("INVALID: %s: %s\n", database.Reason(err), err)
		os.Exit(1)
	}

	fmt.Println("VALID")
	fmt.Println("Blocks:                ", rpt.Blocks)
	fmt.Println("Latest Hash:           ", rpt.LatestHash)
	fmt.Println("Next Difficulty:       ", rpt.NextDifficulty)
	fmt.Println("Accumulated Difficulty:", rpt.Work)
}

// =============================================================================

// report describes a chain that passed validation.
type report struct {
	Blocks         int
	LatestHash     string
	NextDifficulty uint
	Work           *big.Int
}

// verifyChain parses and validates a JSON chain document.
func verifyChain(data []byte) (report, error) {
	chain, err := database.ParseChain(data)
	if err != nil {
		return report{}, err
	}

	if err := database.ValidateChain(chain, nil); err != nil {
		return report{}, err
	}

	next, err := database.CurrentDifficulty(chain)
	if err != nil {
		return report{}, err
	}

	rpt := report{
		Blocks:         len(chain),
		LatestHash:     chain[len(chain)-1].Hash,
		NextDifficulty: next,
		Work:           database.AccumulatedDifficulty(chain),
	}

	return rpt, nil
}
