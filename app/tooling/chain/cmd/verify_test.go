package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_VerifyChain(t *testing.T) {
	block, err := database.POW(context.Background(), database.POWArgs{
		Index:        1,
		PreviousHash: database.Genesis().Hash,
		Timestamp:    time.Now().Unix(),
		Data:         "verify me",
		Difficulty:   2,
		Workers:      2,
	})
	if err != nil {
		t.Fatalf("unable to mine block: %v", err)
	}

	good, _ := json.Marshal([]database.Block{database.Genesis(), block})

	tampered := block
	tampered.Data = "changed"
	bad, _ := json.Marshal([]database.Block{database.Genesis(), tampered})

	t.Log("Given the need to verify a chain document.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the chain is valid.", testID)
		{
			rpt, err := verifyChain(good)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the chain.", success, testID)

			if rpt.Blocks != 2 || rpt.LatestHash != block.Hash || rpt.Work.Int64() != 5 {
				t.Fatalf("\t%s\tTest %d:\tShould report the chain: %+v", failed, testID, rpt)
			}
			t.Logf("\t%s\tTest %d:\tShould report the chain.", success, testID)
		}

		testID = 1
		t.Logf("\tTest %d:\tWhen a block was tampered with.", testID)
		{
			if _, err := verifyChain(bad); !errors.Is(err, database.ErrInvalidHash) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the chain.", success, testID)
		}

		testID = 2
		t.Logf("\tTest %d:\tWhen the document is not a chain.", testID)
		{
			if _, err := verifyChain([]byte(`{"index":0}`)); !errors.Is(err, database.ErrInvalidStructure) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the document: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the document.", success, testID)
		}
	}
}
