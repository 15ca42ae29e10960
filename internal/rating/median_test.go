package rating

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedianOddCount(t *testing.T) {
	assert.InDelta(t, 4.0, Median([]float64{9, 4, 1}), 1e-9)
	assert.InDelta(t, 7.5, Median([]float64{7.5}), 1e-9)
}

func TestMedianEvenCount(t *testing.T) {
	assert.InDelta(t, 5.0, Median([]float64{2, 4, 6, 8}), 1e-9)
	assert.InDelta(t, 6.75, Median([]float64{6.5, 7.0}), 1e-9)
}

func TestMedianRoundsToTwoDecimals(t *testing.T) {
	// mean of 3.33 and 3.34 is 3.335, half-up to 3.34
	assert.InDelta(t, 3.34, Median([]float64{3.33, 3.34}), 1e-9)
}

func TestMedianEmptySet(t *testing.T) {
	assert.Equal(t, 0.0, Median(nil))
	assert.Equal(t, 0.0, Median([]float64{}))
}

func TestMedianOrderInvariant(t *testing.T) {
	scores := []float64{8.1, 2.3, 5.5, 9.9, 0.4, 5.5, 7.2}
	want := Median(scores)

	shuffled := make([]float64, len(scores))
	copy(shuffled, scores)
	for i := 0; i < 20; i++ {
		rand.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.InDelta(t, want, Median(shuffled), 1e-9)
	}
}

func TestMedianDoesNotMutateInput(t *testing.T) {
	scores := []float64{9, 1, 5}
	Median(scores)
	assert.Equal(t, []float64{9, 1, 5}, scores)
}

func TestMedianIdempotent(t *testing.T) {
	scores := []float64{3, 3, 3, 3, 3, 3, 3, 3, 3, 3}
	first := Median(scores)
	second := Median(scores)
	assert.Equal(t, first, second)
	assert.InDelta(t, 3.00, first, 1e-9)
}
