package database

import (
	"fmt"
	"math/big"
)

// AccumulatedDifficulty returns the sum of 2^difficulty over every block in
// the chain. It is the measure of work used to choose between chains.
func AccumulatedDifficulty(chain []Block) *big.Int {
	total := new(big.Int)
	work := new(big.Int)

	for _, b := range chain {
		work.Lsh(big.NewInt(1), b.Difficulty)
		total.Add(total, work)
	}

	return total
}

// ValidateReplacement checks the candidate chain is valid and carries
// strictly more accumulated difficulty than the current chain. Chain length
// plays no part in the decision.
func ValidateReplacement(candidate []Block, current []Block, evHandler func(v string, args ...any)) error {
	if err := ValidateChain(candidate, evHandler); err != nil {
		return err
	}

	cw := AccumulatedDifficulty(candidate)
	ow := AccumulatedDifficulty(current)
	if cw.Cmp(ow) <= 0 {
		return fmt.Errorf("%w: candidate %s, current %s", ErrNotHeavier, cw, ow)
	}

	return nil
}

// ShouldReplace is the boolean form of ValidateReplacement.
func ShouldReplace(candidate []Block, current []Block) bool {
	return ValidateReplacement(candidate, current, nil) == nil
}
