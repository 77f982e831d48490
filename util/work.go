package util

import (
	"math/big"
)

// CalculateWork adds the expected number of hashes needed to mine a block at the given target
// bits to prevWork. A target of 2^(256-bits) takes 2^bits hashes on average.
func CalculateWork(prevWork *big.Int, bits uint32) *big.Int {
	work := new(big.Int).Lsh(big.NewInt(1), uint(bits))

	if prevWork == nil {
		return work
	}

	return work.Add(work, prevWork)
}
