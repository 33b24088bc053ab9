package database_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/ardanlabs/powchain/foundation/blockchain/database"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_GenesisChain(t *testing.T) {
	t.Log("Given the need to validate a chain holding only the genesis block.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling the pinned genesis block.", testID)
		{
			if !database.IsValidChain([]database.Block{database.Genesis()}) {
				t.Fatalf("\t%s\tTest %d:\tShould accept a chain of only genesis.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould accept a chain of only genesis.", success, testID)

			if err := database.ValidateChain(nil, nil); !errors.Is(err, database.ErrEmptyChain) {
				t.Fatalf("\t%s\tTest %d:\tShould reject an empty chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject an empty chain.", success, testID)

			gen := database.Genesis()
			gen.Data = "another genesis block"
			if err := database.ValidateChain([]database.Block{gen}, nil); !errors.Is(err, database.ErrInvalidGenesis) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a different genesis block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a different genesis block.", success, testID)
		}
	}
}

func Test_Append(t *testing.T) {
	t.Log("Given the need to append blocks to the database.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mining on top of the latest block.", testID)
		{
			db := database.New(nil)

			latest, err := db.LatestBlock()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to get the latest block: %v", failed, testID, err)
			}
			if latest != database.Genesis() {
				t.Fatalf("\t%s\tTest %d:\tShould start with the genesis block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould start with the genesis block.", success, testID)

			difficulty, err := db.CurrentDifficulty()
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to get the current difficulty: %v", failed, testID, err)
			}

			block := mineBlock(t, latest, "block 1", difficulty)
			if err := db.Append(block); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to append a mined block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to append a mined block.", success, testID)

			if err := db.Append(block); !errors.Is(err, database.ErrInvalidIndex) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the same block twice: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the same block twice.", success, testID)

			chain := db.Chain()
			if len(chain) != 2 || chain[1] != block {
				t.Fatalf("\t%s\tTest %d:\tShould have the block at the end of the chain: %v", failed, testID, chain)
			}
			t.Logf("\t%s\tTest %d:\tShould have the block at the end of the chain.", success, testID)

			chain[1].Data = "changed by the caller"
			if got, _ := db.BlockByIndex(1); got != block {
				t.Fatalf("\t%s\tTest %d:\tShould not let callers change the stored chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not let callers change the stored chain.", success, testID)
		}
	}
}

func Test_ValidateNewBlock(t *testing.T) {
	prev := database.Genesis()
	good := mineBlock(t, prev, "payload", 4)

	remine := func(b database.Block) database.Block {
		b.Hash = b.CalculateHash()
		return b
	}

	type table struct {
		name  string
		block database.Block
		err   error
	}

	tt := []table{
		{
			name:  "valid",
			block: good,
		},
		{
			name: "structure",
			block: func() database.Block {
				b := good
				b.Hash = "NOT-A-HASH"
				b.Index = 99
				return b
			}(),
			err: database.ErrInvalidStructure,
		},
		{
			name: "index",
			block: func() database.Block {
				b := good
				b.Index = 2
				return remine(b)
			}(),
			err: database.ErrInvalidIndex,
		},
		{
			name: "previousHash",
			block: func() database.Block {
				b := good
				b.PreviousHash = good.Hash
				return remine(b)
			}(),
			err: database.ErrInvalidPreviousHash,
		},
		{
			name: "future",
			block: func() database.Block {
				b := good
				b.Timestamp = time.Now().Unix() + 120
				return remine(b)
			}(),
			err: database.ErrInvalidTimestamp,
		},
		{
			name: "behind",
			block: func() database.Block {
				b := good
				b.Timestamp = prev.Timestamp - 60
				return remine(b)
			}(),
			err: database.ErrInvalidTimestamp,
		},
		{
			name: "tampered",
			block: func() database.Block {
				b := good
				b.Data = "tampered payload"
				return b
			}(),
			err: database.ErrInvalidHash,
		},
		{
			name: "difficulty",
			block: func() database.Block {
				b := good
				b.Difficulty = 64
				return remine(b)
			}(),
			err: database.ErrInvalidDifficulty,
		},
	}

	t.Log("Given the need to validate new blocks against their parent.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s block.", testID, tst.name)
				{
					err := database.ValidateNewBlock(tst.block, prev, nil)
					if tst.err == nil {
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould accept the block: %v", failed, testID, err)
						}
						if !database.IsValidNewBlock(tst.block, prev) {
							t.Fatalf("\t%s\tTest %d:\tShould report the block as valid.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould accept the block.", success, testID)
						return
					}

					if !errors.Is(err, tst.err) {
						t.Logf("\t\tTest %d:\tgot: %v", testID, err)
						t.Logf("\t\tTest %d:\texp: %v", testID, tst.err)
						t.Fatalf("\t%s\tTest %d:\tShould reject the block with the right reason.", failed, testID)
					}
					if database.IsValidNewBlock(tst.block, prev) {
						t.Fatalf("\t%s\tTest %d:\tShould report the block as invalid.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould reject the block with reason %q.", success, testID, database.Reason(err))
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_TamperedChain(t *testing.T) {
	t.Log("Given the need to detect a tampered chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the data of a block is changed without mining it again.", testID)
		{
			chain := mineChain(t, 1, 2, 3)
			if err := database.ValidateChain(chain, nil); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould accept the mined chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould accept the mined chain.", success, testID)

			for i := 1; i < len(chain); i++ {
				if chain[i].CalculateHash() != chain[i].Hash {
					t.Fatalf("\t%s\tTest %d:\tShould reproduce the stored hash of blk[%d].", failed, testID, i)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould reproduce the stored hash of every mined block.", success, testID)

			tampered := slices.Clone(chain)
			tampered[2].Data = "rewritten history"

			if database.IsValidNewBlock(tampered[2], tampered[1]) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the tampered block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the tampered block.", success, testID)

			if err := database.ValidateChain(tampered, nil); !errors.Is(err, database.ErrInvalidHash) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the tampered chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the tampered chain.", success, testID)
		}
	}
}

func Test_ParseBlock(t *testing.T) {
	type table struct {
		name string
		doc  string
		err  error
	}

	g := database.Genesis()
	valid := fmt.Sprintf(`{"index":0,"hash":"%s","previous_hash":"","timestamp":%d,"data":"%s","difficulty":0,"nonce":0}`, g.Hash, g.Timestamp, g.Data)

	tt := []table{
		{
			name: "valid",
			doc:  valid,
		},
		{
			name: "missing",
			doc:  fmt.Sprintf(`{"index":0,"hash":"%s","previous_hash":"","data":"x","difficulty":0,"nonce":0}`, g.Hash),
			err:  database.ErrInvalidStructure,
		},
		{
			name: "wrongtype",
			doc:  fmt.Sprintf(`{"index":"zero","hash":"%s","previous_hash":"","timestamp":1,"data":"x","difficulty":0,"nonce":0}`, g.Hash),
			err:  database.ErrInvalidStructure,
		},
		{
			name: "negative",
			doc:  fmt.Sprintf(`{"index":0,"hash":"%s","previous_hash":"","timestamp":1,"data":"x","difficulty":-1,"nonce":0}`, g.Hash),
			err:  database.ErrInvalidStructure,
		},
		{
			name: "badhash",
			doc:  `{"index":0,"hash":"1234","previous_hash":"","timestamp":1,"data":"x","difficulty":0,"nonce":0}`,
			err:  database.ErrInvalidStructure,
		},
	}

	t.Log("Given the need to decode blocks received from outside the node.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s document.", testID, tst.name)
				{
					b, err := database.ParseBlock([]byte(tst.doc))
					if tst.err == nil {
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould decode the block: %v", failed, testID, err)
						}
						if b != g {
							t.Fatalf("\t%s\tTest %d:\tShould decode the genesis block exactly: %v", failed, testID, b)
						}
						t.Logf("\t%s\tTest %d:\tShould decode the block.", success, testID)
						return
					}

					if !errors.Is(err, tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould reject the document as structurally invalid: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould reject the document as structurally invalid.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_HexToBinary(t *testing.T) {
	type table struct {
		hex string
		bin string
		err bool
	}

	tt := []table{
		{hex: "", bin: ""},
		{hex: "0f", bin: "00001111"},
		{hex: "a5", bin: "10100101"},
		{hex: "00ff", bin: "0000000011111111"},
		{hex: "abc", err: true},
		{hex: "zz", err: true},
	}

	t.Log("Given the need to convert hex digests into binary digits.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling %q.", testID, tst.hex)
			{
				bin, err := database.HexToBinary(tst.hex)
				if tst.err {
					if err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould fail to convert.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould fail to convert.", success, testID)
					continue
				}

				if err != nil || bin != tst.bin {
					t.Fatalf("\t%s\tTest %d:\tShould convert to %q, got %q: %v", failed, testID, tst.bin, bin, err)
				}
				t.Logf("\t%s\tTest %d:\tShould convert to %q.", success, testID, tst.bin)
			}
		}

		testID := len(tt)
		t.Logf("\tTest %d:\tWhen handling a full digest.", testID)
		{
			bin, err := database.HexToBinary(database.Genesis().Hash)
			if err != nil || len(bin) != 256 {
				t.Fatalf("\t%s\tTest %d:\tShould produce 256 binary digits, got %d: %v", failed, testID, len(bin), err)
			}
			t.Logf("\t%s\tTest %d:\tShould produce 256 binary digits.", success, testID)
		}
	}
}

func Test_POW(t *testing.T) {
	t.Log("Given the need to mine blocks at a target difficulty.")
	{
		prev := database.Genesis()

		for difficulty := uint(0); difficulty <= 20; difficulty++ {
			testID := int(difficulty)
			t.Logf("\tTest %d:\tWhen mining at difficulty %d.", testID, difficulty)
			{
				b := mineBlock(t, prev, fmt.Sprintf("difficulty %d", difficulty), difficulty)

				bin, err := database.HexToBinary(b.Hash)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould produce a hex hash: %v", failed, testID, err)
				}

				for i := uint(0); i < difficulty; i++ {
					if bin[i] != '0' {
						t.Fatalf("\t%s\tTest %d:\tShould have %d leading zero bits: %s", failed, testID, difficulty, bin)
					}
				}

				if !database.HashMatchesDifficulty(b.Hash, difficulty) || b.CalculateHash() != b.Hash {
					t.Fatalf("\t%s\tTest %d:\tShould produce a valid block: %s", failed, testID, b)
				}
				t.Logf("\t%s\tTest %d:\tShould have %d leading zero bits: nonce[%d].", success, testID, difficulty, b.Nonce)
			}
		}
	}
}

func Test_POWSingleWorker(t *testing.T) {
	t.Log("Given the need to search the nonce space from zero.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mining with a single worker.", testID)
		{
			prev := database.Genesis()
			ts := time.Now().Unix()

			b, err := database.POW(context.Background(), database.POWArgs{
				Index:        1,
				PreviousHash: prev.Hash,
				Timestamp:    ts,
				Data:         "first nonce",
				Difficulty:   8,
				Workers:      1,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine: %v", failed, testID, err)
			}

			for nonce := uint64(0); nonce < b.Nonce; nonce++ {
				hash := database.CalculateHash(1, prev.Hash, ts, "first nonce", 8, nonce)
				if database.HashMatchesDifficulty(hash, 8) {
					t.Fatalf("\t%s\tTest %d:\tShould return the first solving nonce, %d solves before %d.", failed, testID, nonce, b.Nonce)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould return the first solving nonce.", success, testID)
		}
	}
}

func Test_POWCancel(t *testing.T) {
	t.Log("Given the need to stop mining on request.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen the context is cancelled mid search.", testID)
		{
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			_, err := database.POW(ctx, database.POWArgs{
				Index:        1,
				PreviousHash: database.Genesis().Hash,
				Timestamp:    time.Now().Unix(),
				Data:         "never solved",
				Difficulty:   255,
				Workers:      4,
			})
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("\t%s\tTest %d:\tShould return the context error: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould return the context error.", success, testID)
		}
	}
}

func Test_ReplaceAtomicity(t *testing.T) {
	t.Log("Given the need to read the chain while it is being replaced.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen readers run next to a writer.", testID)
		{
			const forks = 20

			// Fork k holds k blocks after genesis, each one heavier than the last.
			chains := make([][]database.Block, forks+1)
			chains[0] = []database.Block{database.Genesis()}
			for k := 1; k <= forks; k++ {
				difficulties := make([]uint, k)
				chains[k] = mineChainData(t, fmt.Sprintf("fork %d", k), difficulties...)
			}

			db := database.New(nil)

			var wg sync.WaitGroup
			done := make(chan struct{})
			errs := make(chan error, 8)

			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for {
						select {
						case <-done:
							return
						default:
						}

						chain := db.Chain()
						k := len(chain) - 1
						if k > forks || !slices.Equal(chain, chains[k]) {
							errs <- fmt.Errorf("observed a chain of %d blocks that matches no fork", len(chain))
							return
						}
					}
				}()
			}

			for k := 1; k <= forks; k++ {
				if err := db.ReplaceWith(chains[k]); err != nil {
					close(done)
					wg.Wait()
					t.Fatalf("\t%s\tTest %d:\tShould replace with fork %d: %v", failed, testID, k, err)
				}
			}

			close(done)
			wg.Wait()
			close(errs)

			for err := range errs {
				t.Fatalf("\t%s\tTest %d:\tShould only observe whole chains: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould only observe whole chains.", success, testID)

			if !slices.Equal(db.Chain(), chains[forks]) {
				t.Fatalf("\t%s\tTest %d:\tShould end with the heaviest fork.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould end with the heaviest fork.", success, testID)
		}
	}
}

// =============================================================================

// mineBlock mines a block on top of prev.
func mineBlock(t *testing.T, prev database.Block, data string, difficulty uint) database.Block {
	t.Helper()

	b, err := database.POW(context.Background(), database.POWArgs{
		Index:        prev.Index + 1,
		PreviousHash: prev.Hash,
		Timestamp:    time.Now().Unix(),
		Data:         data,
		Difficulty:   difficulty,
		Workers:      4,
	})
	if err != nil {
		t.Fatalf("unable to mine block: %v", err)
	}

	return b
}

// mineChain mines a chain after genesis with one block per difficulty.
func mineChain(t *testing.T, difficulties ...uint) []database.Block {
	t.Helper()
	return mineChainData(t, "block", difficulties...)
}

// mineChainData mines a chain after genesis labelling each block's data.
func mineChainData(t *testing.T, label string, difficulties ...uint) []database.Block {
	t.Helper()

	chain := []database.Block{database.Genesis()}
	for i, d := range difficulties {
		chain = append(chain, mineBlock(t, chain[len(chain)-1], fmt.Sprintf("%s %d", label, i+1), d))
	}

	return chain
}
