package rare

import "github.com/grailbio/scrna/expr"

// assignCells runs the module strength competition.  For every candidate
// module with enough genes it finds the "strong" cells (those holding at
// least MinCellModuleTotal UMIs of the module's genes), scores each strong
// cell by its module fraction relative to the weakest strong cell, and
// assigns the cell to the module only if that strength strictly exceeds the
// cell's best strength over the modules processed so far (so on ties the
// earlier module keeps the cell).  The running maximum is threaded through
// the whole sequential pass; this stage must not be parallelized.
//
// Modules are recorded (claiming their genes) even when no cell is assigned;
// compression prunes them later.  The returned lists hold each recorded
// module's gene indices into the full gene axis.
func assignCells(candidates *expr.Matrix, candidateIndices []int, clusters [][]int,
	totalUMIsOfCells []float64, result *Result, opts Opts) [][]int {
	nCells := candidates.NumRows()
	maxStrength := make([]float64, nCells)
	var moduleGenes [][]int

	for _, members := range clusters {
		if len(members) < opts.MinGenesOfModules {
			continue
		}

		moduleUMIs := make([]float64, nCells)
		for i := 0; i < nCells; i++ {
			row := candidates.Row(i)
			for _, j := range members {
				moduleUMIs[i] += row[j]
			}
		}

		var strongCells []int
		for i, u := range moduleUMIs {
			if u >= opts.MinCellModuleTotal {
				strongCells = append(strongCells, i)
			}
		}

		moduleIndex := len(moduleGenes)
		genes := make([]int, len(members))
		for i, j := range members {
			genes[i] = candidateIndices[j]
		}
		moduleGenes = append(moduleGenes, genes)
		for _, g := range genes {
			result.ModuleOfGenes[g] = moduleIndex
		}

		if len(strongCells) == 0 {
			continue
		}

		// Strength is the module fraction normalized by the weakest strong
		// cell's fraction, so the weakest qualifying cell has strength 1.
		minFraction := 0.0
		fractions := make([]float64, len(strongCells))
		for k, i := range strongCells {
			fractions[k] = moduleUMIs[i] / totalUMIsOfCells[i]
			if k == 0 || fractions[k] < minFraction {
				minFraction = fractions[k]
			}
		}

		for k, i := range strongCells {
			strength := fractions[k] / minFraction
			if strength > maxStrength[i] {
				maxStrength[i] = strength
				result.ModuleOfCells[i] = moduleIndex
			}
		}
	}
	return moduleGenes
}
