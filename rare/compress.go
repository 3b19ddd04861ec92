package rare

import "github.com/grailbio/base/log"

// compress applies the final module acceptance thresholds and renumbers the
// survivors densely in discovery order.  A module is discarded, with its
// genes and cells reset to unassigned, when it holds strictly fewer than
// MinCellsOfModules cells or strictly less total UMI mass (summed over its
// cells' full totals) than TargetMetacellSize * MinModulesSizeFactor;
// modules exactly at either floor are retained.
func compress(geneNames []string, moduleGenes [][]int, totalUMIsOfCells []float64, result *Result, opts Opts) {
	minUMIs := opts.TargetMetacellSize * opts.MinModulesSizeFactor

	for rawIndex, genes := range moduleGenes {
		var cells []int
		for i, m := range result.ModuleOfCells {
			if m == rawIndex {
				cells = append(cells, i)
			}
		}
		var totalUMIs float64
		for _, i := range cells {
			totalUMIs += totalUMIsOfCells[i]
		}

		if len(cells) < opts.MinCellsOfModules || totalUMIs < minUMIs {
			for _, i := range cells {
				result.ModuleOfCells[i] = -1
			}
			for _, g := range genes {
				result.ModuleOfGenes[g] = -1
			}
			continue
		}

		moduleIndex := len(result.Modules)
		if rawIndex != moduleIndex {
			for _, i := range cells {
				result.ModuleOfCells[i] = moduleIndex
			}
			for _, g := range genes {
				result.ModuleOfGenes[g] = moduleIndex
			}
		}

		names := make([]string, len(genes))
		for i, g := range genes {
			names[i] = geneNames[g]
		}
		result.Modules = append(result.Modules, names)
		log.Debug.Printf("rare: module %d: %d cells, %.0f total UMIs, %d genes",
			moduleIndex, len(cells), totalUMIs, len(genes))
	}

	for i, m := range result.ModuleOfGenes {
		result.RareGenes[i] = m >= 0
	}
	for i, m := range result.ModuleOfCells {
		result.RareCells[i] = m >= 0
	}
}
