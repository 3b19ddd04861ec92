package rare

import "github.com/grailbio/scrna/expr"

// pickCandidates returns the indices of genes that are rare enough (expressed
// in at most MaxGeneCellFraction of the cells) yet strong enough (reaching
// MinGeneMaximum UMIs in some cell) to seed a module.
func pickCandidates(cells *expr.Matrix, opts Opts) []int {
	nCells := cells.NumRows()
	nnz := expr.NnzPerColumn(cells)
	maxs := expr.MaxPerColumn(cells)

	var indices []int
	for j := 0; j < cells.NumGenes(); j++ {
		cellFraction := float64(nnz[j]) / float64(nCells)
		if cellFraction <= opts.MaxGeneCellFraction && maxs[j] >= opts.MinGeneMaximum {
			indices = append(indices, j)
		}
	}
	return indices
}
