package database

import "fmt"

// Difficulty adjustment settings. Every DifficultyAdjustmentInterval blocks
// the difficulty is compared against the time it took to mine that window.
const (
	BlockGenerationInterval      = 10 // Expected seconds between blocks.
	DifficultyAdjustmentInterval = 10 // Number of blocks between adjustments.
)

// CurrentDifficulty returns the difficulty the next block must be mined at.
func CurrentDifficulty(chain []Block) (uint, error) {
	if len(chain) == 0 {
		return 0, ErrEmptyChain
	}

	latest := chain[len(chain)-1]
	if latest.Index != 0 && latest.Index%DifficultyAdjustmentInterval == 0 {
		return AdjustedDifficulty(chain)
	}

	return latest.Difficulty, nil
}

// AdjustedDifficulty compares the time it took to mine the last adjustment
// window against the expected time. Difficulty goes up one when the window
// was mined in less than half the expected time and down one when it took
// more than twice as long. It never goes below zero.
func AdjustedDifficulty(chain []Block) (uint, error) {
	if len(chain) == 0 {
		return 0, ErrEmptyChain
	}

	latest := chain[len(chain)-1]
	if latest.Index < DifficultyAdjustmentInterval || latest.Index-DifficultyAdjustmentInterval >= uint64(len(chain)) {
		return 0, fmt.Errorf("%w: blk[%d] has no adjustment window in a chain of %d blocks", ErrInvalidIndex, latest.Index, len(chain))
	}

	prev := chain[latest.Index-DifficultyAdjustmentInterval]

	const expected = BlockGenerationInterval * DifficultyAdjustmentInterval
	actual := latest.Timestamp - prev.Timestamp

	switch {
	case actual < expected/2:
		return prev.Difficulty + 1, nil

	case actual > expected*2:
		if prev.Difficulty == 0 {
			return 0, nil
		}
		return prev.Difficulty - 1, nil
	}

	return prev.Difficulty, nil
}
