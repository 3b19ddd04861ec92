package rare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/scrna/cluster"
	"github.com/grailbio/scrna/expr"
)

// twoModuleCells builds 20 cells over 7 genes: a "common" gene expressed
// everywhere (which the candidate filter must drop), three rare genes
// co-expressed only in cells 0 and 1, and three rare genes co-expressed only
// in cells 2 and 3.
func twoModuleCells(t *testing.T) *expr.Matrix {
	genes := []string{"common", "r0", "r1", "r2", "s0", "s1", "s2"}
	rows := make([][]float64, 20)
	for i := range rows {
		row := make([]float64, len(genes))
		row[0] = 100
		switch i {
		case 0, 1:
			row[1], row[2], row[3] = 10, 10, 10
		case 2, 3:
			row[4], row[5], row[6] = 10, 10, 10
		}
		rows[i] = row
	}
	m, err := expr.FromRows(genes, rows)
	require.NoError(t, err)
	return m
}

func testOpts() Opts {
	return Opts{
		MaxGeneCellFraction:  0.2,
		MinGeneMaximum:       5,
		RepeatedSimilarity:   false,
		ClusterMethod:        cluster.Ward,
		MinGenesOfModules:    3,
		MinCellsOfModules:    2,
		TargetMetacellSize:   10,
		MinModulesSizeFactor: 1,
		MinModuleCorrelation: 0.5,
		MinCellModuleTotal:   5,
	}
}

func TestDetectTwoModules(t *testing.T) {
	result, err := Detect(twoModuleCells(t), nil, testOpts())
	require.NoError(t, err)

	require.Len(t, result.Modules, 2)
	assert.Equal(t, []string{"r0", "r1", "r2"}, result.Modules[0])
	assert.Equal(t, []string{"s0", "s1", "s2"}, result.Modules[1])

	assert.Equal(t, []int{-1, 0, 0, 0, 1, 1, 1}, result.ModuleOfGenes)
	assert.Equal(t, []bool{false, true, true, true, true, true, true}, result.RareGenes)

	for i, m := range result.ModuleOfCells {
		switch i {
		case 0, 1:
			assert.Equal(t, 0, m, "cell %d", i)
		case 2, 3:
			assert.Equal(t, 1, m, "cell %d", i)
		default:
			assert.Equal(t, -1, m, "cell %d", i)
		}
		assert.Equal(t, m >= 0, result.RareCells[i], "cell %d", i)
	}
}

// Each gene and cell belongs to at most one module, and the assigned module
// indices are dense.
func TestDetectPartition(t *testing.T) {
	result, err := Detect(twoModuleCells(t), nil, testOpts())
	require.NoError(t, err)

	maxIndex := -1
	for _, m := range result.ModuleOfGenes {
		assert.True(t, m >= -1 && m < len(result.Modules))
		if m > maxIndex {
			maxIndex = m
		}
	}
	assert.Equal(t, len(result.Modules)-1, maxIndex)

	maxIndex = -1
	for _, m := range result.ModuleOfCells {
		assert.True(t, m >= -1 && m < len(result.Modules))
		if m > maxIndex {
			maxIndex = m
		}
	}
	assert.Equal(t, len(result.Modules)-1, maxIndex)
}

func TestDetectIdempotent(t *testing.T) {
	cells := twoModuleCells(t)
	first, err := Detect(cells, nil, testOpts())
	require.NoError(t, err)
	second, err := Detect(cells, nil, testOpts())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// Too few candidate genes short-circuits the whole pipeline into an empty,
// fully unassigned result.
func TestDetectTooFewCandidates(t *testing.T) {
	opts := testOpts()
	opts.MinGenesOfModules = 7

	result, err := Detect(twoModuleCells(t), nil, opts)
	require.NoError(t, err)
	assert.Empty(t, result.Modules)
	for _, m := range result.ModuleOfGenes {
		assert.Equal(t, -1, m)
	}
	for _, m := range result.ModuleOfCells {
		assert.Equal(t, -1, m)
	}
	for _, rare := range result.RareCells {
		assert.False(t, rare)
	}
}

// Modules exactly at the cell-count and UMI-mass floors are retained;
// discarding needs a strictly-below value.
func TestDetectBoundaryInclusive(t *testing.T) {
	opts := testOpts()
	opts.MinCellsOfModules = 2 // each module has exactly 2 cells
	// Each module's cells hold exactly 130 UMIs apiece.
	opts.TargetMetacellSize = 260
	opts.MinModulesSizeFactor = 1

	result, err := Detect(twoModuleCells(t), nil, opts)
	require.NoError(t, err)
	assert.Len(t, result.Modules, 2)
}

func TestDetectPrunedByCellCount(t *testing.T) {
	opts := testOpts()
	opts.MinCellsOfModules = 3 // modules only ever gain 2 cells

	result, err := Detect(twoModuleCells(t), nil, opts)
	require.NoError(t, err)
	assert.Empty(t, result.Modules)
	for _, m := range result.ModuleOfGenes {
		assert.Equal(t, -1, m)
	}
	for _, m := range result.ModuleOfCells {
		assert.Equal(t, -1, m)
	}
}

func TestDetectPrunedByMass(t *testing.T) {
	opts := testOpts()
	opts.TargetMetacellSize = 261 // just above each module's 260 UMIs
	opts.MinModulesSizeFactor = 1

	result, err := Detect(twoModuleCells(t), nil, opts)
	require.NoError(t, err)
	assert.Empty(t, result.Modules)
}

func TestDetectBadOpts(t *testing.T) {
	opts := testOpts()
	opts.MinCellsOfModules = 0
	_, err := Detect(twoModuleCells(t), nil, opts)
	assert.Error(t, err)

	opts = testOpts()
	opts.MaxGeneCellFraction = 1.5
	_, err = Detect(twoModuleCells(t), nil, opts)
	assert.Error(t, err)
}
