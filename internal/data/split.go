package data

import (
	"math"
	"math/rand"
)

// TrainTestSplit shuffles row indices with the given seed and returns the
// train and test partitions. The test partition holds ceil(testFrac*n) rows
// but never empties either side when n >= 2.
func TrainTestSplit(n int, testFrac float64, seed int64) (train, test []int) {
	if n == 0 {
		return nil, nil
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Ceil(testFrac * float64(n)))
	if nTest >= n {
		nTest = n - 1
	}
	if nTest < 0 {
		nTest = 0
	}
	return perm[nTest:], perm[:nTest]
}
