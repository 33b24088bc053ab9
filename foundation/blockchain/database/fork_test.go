package database_test

import (
	"errors"
	"slices"
	"testing"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

func Test_AccumulatedDifficulty(t *testing.T) {
	t.Log("Given the need to measure the work in a chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen comparing many easy blocks against one hard block.", testID)
		{
			long := make([]database.Block, 5)
			short := []database.Block{{Difficulty: 3}}

			if got := database.AccumulatedDifficulty(long); got.Int64() != 5 {
				t.Fatalf("\t%s\tTest %d:\tShould measure 5 for five blocks at difficulty 0, got %s.", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould measure 5 for five blocks at difficulty 0.", success, testID)

			if got := database.AccumulatedDifficulty(short); got.Int64() != 8 {
				t.Fatalf("\t%s\tTest %d:\tShould measure 8 for one block at difficulty 3, got %s.", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould measure 8 for one block at difficulty 3.", success, testID)
		}
	}
}

func Test_ForkChoice(t *testing.T) {
	t.Log("Given the need to choose between competing chains.")
	{
		long := mineChainData(t, "long", 0, 0, 0, 0)
		short := mineChainData(t, "short", 3)

		testID := 0
		t.Logf("\tTest %d:\tWhen a short chain carries more work than a long one.", testID)
		{
			if !database.ShouldReplace(short, long) {
				t.Fatalf("\t%s\tTest %d:\tShould prefer the heavier short chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould prefer the heavier short chain.", success, testID)

			if err := database.ValidateReplacement(long, short, nil); !errors.Is(err, database.ErrNotHeavier) {
				t.Fatalf("\t%s\tTest %d:\tShould not prefer the longer light chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould not prefer the longer light chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen both chains carry the same work.", testID)
		{
			if database.ShouldReplace(long, slices.Clone(long)) {
				t.Fatalf("\t%s\tTest %d:\tShould keep the current chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the current chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the heavier chain is invalid.", testID)
		{
			bad := slices.Clone(short)
			bad[1].Data = "rewritten"

			if err := database.ValidateReplacement(bad, long, nil); !errors.Is(err, database.ErrInvalidHash) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the invalid chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the invalid chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the database is offered the chains.", testID)
		{
			db := database.New(nil)

			if err := db.ReplaceWith(long); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould replace genesis with the long chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould replace genesis with the long chain.", success, testID)

			if err := db.ReplaceWith(short); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould replace the long chain with the short chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould replace the long chain with the short chain.", success, testID)

			if err := db.ReplaceWith(long); !errors.Is(err, database.ErrNotHeavier) {
				t.Fatalf("\t%s\tTest %d:\tShould refuse to go back to the long chain: %v", failed, testID, err)
			}
			if !slices.Equal(db.Chain(), short) {
				t.Fatalf("\t%s\tTest %d:\tShould still hold the short chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould refuse to go back to the long chain.", success, testID)

			if got := db.AccumulatedDifficulty(); got.Int64() != 9 {
				t.Fatalf("\t%s\tTest %d:\tShould report 9 accumulated difficulty, got %s.", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould report 9 accumulated difficulty.", success, testID)
		}
	}
}
