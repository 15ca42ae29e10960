package rating

import "sort"

// Median returns the textbook median of the given scores, rounded to two
// decimals: the middle value for an odd count, the mean of the two middle
// values for an even count. The input is not mutated. An empty slice yields
// 0; the aggregator never persists that value, it leaves the cached field
// untouched instead.
func Median(scores []float64) float64 {
	n := len(scores)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, scores)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return Round2(sorted[n/2])
	}
	return Round2((sorted[n/2-1] + sorted[n/2]) / 2)
}
