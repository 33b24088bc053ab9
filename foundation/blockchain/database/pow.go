package database

import (
	"context"
	"crypto/sha256"
	"strconv"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// POWArgs represents the set of fields the proof of work is performed for.
type POWArgs struct {
	Index        uint64
	PreviousHash string
	Timestamp    int64
	Data         string
	Difficulty   uint
	Workers      int
	EvHandler    func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle. With more than one worker the nonce
// space is split so worker i tries i, i+n, i+2n, ... The first solution
// found wins and the remaining workers are stopped. POW returns the context
// error if the search is cancelled before a solution is found.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := eventHandler(args.EvHandler)

	workers := args.Workers
	if workers < 1 {
		workers = 1
	}

	ev("database: POW: MINING: started: blk[%d]: difficulty[%d]: workers[%d]", args.Index, args.Difficulty, workers)
	defer ev("database: POW: MINING: completed: blk[%d]", args.Index)

	content := hashContent(args.Index, args.PreviousHash, args.Timestamp, args.Data, args.Difficulty)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Only the first solution is kept.
	solved := make(chan Block, 1)

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func(start uint64) {
			defer wg.Done()

			nonce, hash, ok := search(ctx, content, args.Difficulty, start, uint64(workers), ev)
			if !ok {
				return
			}

			b := Block{
				Index:        args.Index,
				Hash:         hash,
				PreviousHash: args.PreviousHash,
				Timestamp:    args.Timestamp,
				Data:         args.Data,
				Difficulty:   args.Difficulty,
				Nonce:        nonce,
			}

			select {
			case solved <- b:
				ev("database: POW: MINING: SOLVED: worker[%d]: %s", start, b)
				cancel()
			default:
			}
		}(uint64(i))
	}

	wg.Wait()

	select {
	case b := <-solved:
		return b, nil
	default:
		ev("database: POW: MINING: CANCELLED")
		return Block{}, ctx.Err()
	}
}

// search walks the nonce space from start in increments of step until a
// hash with the required leading zero bits is found or ctx is cancelled.
func search(ctx context.Context, content []byte, difficulty uint, start uint64, step uint64, ev func(v string, args ...any)) (uint64, string, bool) {
	done := ctx.Done()
	buf := make([]byte, 0, len(content)+20)

	var attempts uint64
	for nonce := start; ; nonce += step {
		select {
		case <-done:
			return 0, "", false
		default:
		}

		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: POW: MINING: worker[%d]: attempts[%d]", start, attempts)
		}

		buf = strconv.AppendUint(append(buf[:0], content...), nonce, 10)
		sum := sha256.Sum256(buf)

		if leadingZeroBits(sum) >= difficulty {
			return nonce, common.Bytes2Hex(sum[:]), true
		}
	}
}
