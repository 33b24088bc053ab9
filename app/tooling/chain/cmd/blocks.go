package cmd

import (
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	blockIndex int64
	blockFull  bool
)

var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "Print the blocks held by the node.",
	Run:   blocksRun,
}

func init() {
	rootCmd.AddCommand(blocksCmd)
	blocksCmd.Flags().Int64VarP(&blockIndex, "index", "i", -1, "Index of a single block to print.")
	blocksCmd.Flags().BoolVarP(&blockFull, "full", "f", false, "Print the blocks as JSON.")
}

func blocksRun(cmd *cobra.Command, args []string) {
	var blocks []database.Block

	switch {
	case blockIndex >= 0:
		var block database.Block
		if err := call(http.MethodGet, fmt.Sprintf("/v1/blocks/index/%d", blockIndex), nil, &block); err != nil {
			log.Fatal(err)
		}
		blocks = append(blocks, block)

	default:
		if err := call(http.MethodGet, "/v1/blocks/list", nil, &blocks); err != nil {
			log.Fatal(err)
		}
	}

	if blockFull {
		if err := printJSON(blocks); err != nil {
			log.Fatal(err)
		}
		return
	}

	for _, block := range blocks {
		fmt.Println(block)
	}
}
