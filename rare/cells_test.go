package rare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/scrna/expr"
)

func TestAssignCellsTieGoesToEarlierModule(t *testing.T) {
	// Four candidate genes; cell 0 holds identical mass in both modules, so
	// both competitions produce the same strength and the first module must
	// keep the cell.
	candidates, err := expr.FromRows([]string{"a0", "a1", "b0", "b1"}, [][]float64{
		{10, 10, 10, 10},
		{10, 10, 0, 0},
		{0, 0, 10, 10},
	})
	require.NoError(t, err)

	opts := testOpts()
	opts.MinGenesOfModules = 2
	opts.MinCellModuleTotal = 5
	totals := []float64{40, 20, 20}
	result := emptyResult(candidates)

	moduleGenes := assignCells(candidates, []int{0, 1, 2, 3},
		[][]int{{0, 1}, {2, 3}}, totals, result, opts)
	require.Len(t, moduleGenes, 2)

	// Cell 0: fraction 0.5 in each module, strength 1 both times; module 0
	// wrote first and the strict comparison keeps it.
	assert.Equal(t, 0, result.ModuleOfCells[0])
	assert.Equal(t, 0, result.ModuleOfCells[1])
	assert.Equal(t, 1, result.ModuleOfCells[2])
}

func TestAssignCellsRecordsEmptyModules(t *testing.T) {
	candidates, err := expr.FromRows([]string{"a0", "a1", "b0", "b1"}, [][]float64{
		{10, 10, 1, 1},
		{10, 10, 0, 0},
	})
	require.NoError(t, err)

	opts := testOpts()
	opts.MinGenesOfModules = 2
	opts.MinCellModuleTotal = 5
	totals := []float64{22, 20}
	result := emptyResult(candidates)

	// The second module has no strong cells, but its gene list is still
	// recorded; compression is what prunes it.
	moduleGenes := assignCells(candidates, []int{0, 1, 2, 3},
		[][]int{{0, 1}, {2, 3}}, totals, result, opts)
	require.Len(t, moduleGenes, 2)
	assert.Equal(t, []int{2, 3}, moduleGenes[1])
	assert.Equal(t, 1, result.ModuleOfGenes[2])
	assert.Equal(t, 1, result.ModuleOfGenes[3])
	for _, m := range result.ModuleOfCells {
		assert.Equal(t, 0, m)
	}
}

func TestAssignCellsSkipsSmallClusters(t *testing.T) {
	candidates, err := expr.FromRows([]string{"a0", "a1", "a2"}, [][]float64{
		{10, 10, 10},
	})
	require.NoError(t, err)

	opts := testOpts()
	opts.MinGenesOfModules = 3
	result := emptyResult(candidates)

	moduleGenes := assignCells(candidates, []int{0, 1, 2},
		[][]int{{0}, {1, 2}}, []float64{30}, result, opts)
	assert.Empty(t, moduleGenes)
	assert.Equal(t, -1, result.ModuleOfCells[0])
}
