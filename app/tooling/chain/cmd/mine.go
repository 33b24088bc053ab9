package cmd

import (
	"log"
	"net/http"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var mineData string

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "Ask the node to mine a block carrying the data.",
	Run:   mineRun,
}

func init() {
	rootCmd.AddCommand(mineCmd)
	mineCmd.Flags().StringVarP(&mineData, "data", "d", "", "Data to store in the block.")
}

func mineRun(cmd *cobra.Command, args []string) {
	req := struct {
		Data string `json:"data"`
	}{
		Data: mineData,
	}

	var block database.Block
	if err := call(http.MethodPost, "/v1/blocks/mine", req, &block); err != nil {
		log.Fatal(err)
	}

	if err := printJSON(block); err != nil {
		log.Fatal(err)
	}
}
