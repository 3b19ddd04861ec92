package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignificantProjectedFolds(t *testing.T) {
	query := matrix(t, [][]float64{
		{80, 20, 1, 50},
		{50, 50, 1, 50},
	})
	projected := matrix(t, [][]float64{
		{20, 80, 1, 50},
		{50, 50, 1, 50},
	})
	totals := []float64{100, 100}

	opts := FoldsOpts{
		FoldNormalization:       1e-5,
		MinSignificantGeneValue: 40,
		MinGeneFold:             1.5,
		MinEntryFold:            1.0,
	}
	folds, err := SignificantProjectedFolds(query, projected, totals, opts)
	require.NoError(t, err)

	// g0 and g1 deviate by ~2 folds in row 0, so their columns are kept.
	assert.InDelta(t, 2.0, folds.At(0, 0), 0.01)
	assert.InDelta(t, -2.0, folds.At(0, 1), 0.01)
	// Row 1 agrees with its projection; entries below MinEntryFold drop out.
	assert.Equal(t, 0.0, folds.At(1, 0))
	assert.Equal(t, 0.0, folds.At(1, 1))
	// g2 has negligible mass; its folds are insignificant.
	assert.Equal(t, 0.0, folds.At(0, 2))
	// g3 matches exactly everywhere, so the whole column is dropped.
	assert.Equal(t, 0.0, folds.At(0, 3))
	assert.Equal(t, 0.0, folds.At(1, 3))
}

func TestSignificantProjectedFoldsGeneFloor(t *testing.T) {
	query := matrix(t, [][]float64{{80, 20, 50, 50}})
	projected := matrix(t, [][]float64{{20, 80, 50, 50}})

	opts := DefaultFoldsOpts
	opts.MinGeneFold = 3.0 // above the ~2 folds present
	opts.MinEntryFold = 2.0
	folds, err := SignificantProjectedFolds(query, projected, []float64{100}, opts)
	require.NoError(t, err)
	for j := 0; j < folds.NumGenes(); j++ {
		assert.Equal(t, 0.0, folds.At(0, j), "gene %d", j)
	}
}

func TestSignificantProjectedFoldsPreconditions(t *testing.T) {
	m := matrix(t, [][]float64{{1, 1, 1, 1}})
	opts := DefaultFoldsOpts
	opts.MinEntryFold = opts.MinGeneFold + 1
	_, err := SignificantProjectedFolds(m, m, []float64{4}, opts)
	assert.Error(t, err)

	_, err = SignificantProjectedFolds(m, m, []float64{4, 4}, DefaultFoldsOpts)
	assert.Error(t, err)
}
