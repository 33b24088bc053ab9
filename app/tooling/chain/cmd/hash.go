package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	hashIndex      uint64
	hashPrevious   string
	hashTimestamp  int64
	hashData       string
	hashDifficulty uint
	hashNonce      uint64
)

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Compute the hash of a block from its fields.",
	Run:   hashRun,
}

func init() {
	rootCmd.AddCommand(hashCmd)
	hashCmd.Flags().Uint64VarP(&hashIndex, "index", "i", 0, "Index of the block.")
	hashCmd.Flags().StringVarP(&hashPrevious, "previous", "p", "", "Hash of the previous block.")
	hashCmd.Flags().Int64VarP(&hashTimestamp, "timestamp", "t", 0, "Timestamp of the block in seconds.")
	hashCmd.Flags().StringVarP(&hashData, "data", "d", "", "Data of the block.")
	hashCmd.Flags().UintVarP(&hashDifficulty, "difficulty", "f", 0, "Difficulty of the block.")
	hashCmd.Flags().Uint64VarP(&hashNonce, "nonce", "n", 0, "Nonce of the block.")
}

func hashRun(cmd *cobra.Command, args []string) {
	hash := database.CalculateHash(hashIndex, hashPrevious, hashTimestamp, hashData, hashDifficulty, hashNonce)

	binary, err := database.HexToBinary(hash)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("Hash:   ", hash)
	fmt.Println("Binary: ", binary)
	fmt.Println("Solved: ", database.HashMatchesDifficulty(hash, hashDifficulty))
}
