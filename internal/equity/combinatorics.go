package equity

// binomial returns C(n,k), the number of k-combinations of n items. Used to
// count board completions, weight collapsed suit classes, and unrank a
// sampled board index.
func binomial(n, k int) uint64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := uint64(1)
	for i := 0; i < k; i++ {
		result = result * uint64(n-i) / uint64(i+1)
	}
	return result
}

// unrankCombination returns the rank-th k-combination of {0,...,n-1}, in
// lexicographic order, as a combinadic: the classic unranking formula jumps
// straight to that combination without walking the sequence from the
// beginning. Monte Carlo uses it to turn one uniformly drawn board index
// into the cards that complete the board.
func unrankCombination(n, k int, rank uint64) []int {
	result := make([]int, k)
	x := 0
	for i := 0; i < k; i++ {
		remaining := k - i
		for {
			c := binomial(n-x-1, remaining-1)
			if rank < c {
				break
			}
			rank -= c
			x++
		}
		result[i] = x
		x++
	}
	return result
}
