package nnls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepresentExactMixture(t *testing.T) {
	basis := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	weights, err := Represent([]float64{0.2, 0.3, 0.5}, basis)
	require.NoError(t, err)
	require.Len(t, weights, 3)
	assert.InDelta(t, 0.2, weights[0], 1e-9)
	assert.InDelta(t, 0.3, weights[1], 1e-9)
	assert.InDelta(t, 0.5, weights[2], 1e-9)
}

func TestRepresentSingleRow(t *testing.T) {
	weights, err := Represent([]float64{0.4, 0.6}, [][]float64{{0.4, 0.6}})
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, weights)
}

func TestRepresentNonNegativeSumOne(t *testing.T) {
	basis := [][]float64{
		{0.7, 0.2, 0.1},
		{0.1, 0.8, 0.1},
		{0.2, 0.2, 0.6},
	}
	// The target is not in the simplex hull of the basis; the solution must
	// still be a proper weighting.
	weights, err := Represent([]float64{0.9, 0.05, 0.05}, basis)
	require.NoError(t, err)
	var sum float64
	for _, w := range weights {
		assert.True(t, w >= 0, "negative weight %g", w)
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestRepresentMixtureOfTwo(t *testing.T) {
	basis := [][]float64{
		{0.4, 0.3, 0.2, 0.1},
		{0.1, 0.2, 0.3, 0.4},
	}
	weights, err := Represent([]float64{0.25, 0.25, 0.25, 0.25}, basis)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, weights[0], 1e-9)
	assert.InDelta(t, 0.5, weights[1], 1e-9)
}

func TestRepresentErrors(t *testing.T) {
	_, err := Represent([]float64{1, 0}, nil)
	assert.Error(t, err)

	_, err = Represent([]float64{1, 0}, [][]float64{{1}})
	assert.Error(t, err)

	// A basis that can only reproduce the zero vector is degenerate.
	_, err = Represent([]float64{1, 0}, [][]float64{{0, 0}})
	assert.Error(t, err)
}
