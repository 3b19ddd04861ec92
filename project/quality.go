package project

import (
	"fmt"
	"math"

	"github.com/grailbio/scrna/expr"
)

// FoldsOpts controls SignificantProjectedFolds.
type FoldsOpts struct {
	// FoldNormalization is the constant added to fractions before log2.
	FoldNormalization float64
	// MinSignificantGeneValue is the minimal combined query+projected UMIs
	// for an entry's fold to be kept at all.
	MinSignificantGeneValue float64
	// MinGeneFold zeroes a whole gene column unless some metacell reaches
	// this absolute fold for the gene.
	MinGeneFold float64
	// MinEntryFold zeroes individual entries below this absolute fold in
	// columns that were kept.  Must not exceed MinGeneFold.
	MinEntryFold float64
}

// DefaultFoldsOpts holds the default parameters for
// SignificantProjectedFolds.
var DefaultFoldsOpts = FoldsOpts{
	FoldNormalization:       1e-5,
	MinSignificantGeneValue: 40,
	MinGeneFold:             3.0,
	MinEntryFold:            2.0,
}

// SignificantProjectedFolds computes, per query metacell and gene, the fold
// factor between the query UMIs and the projected UMIs, keeping only
// significant entries.  The result is a dense matrix that is sparse in
// content: ideally most entries are zero, and many nonzeros suggest the
// projection needs more ignored genes or batch correction.
//
// totals gives the per-row UMI totals both matrices are normalized by;
// passing the query row sums reproduces the usual row-fraction normalization.
func SignificantProjectedFolds(query, projected *expr.Matrix, totals []float64, opts FoldsOpts) (*expr.Matrix, error) {
	if opts.MinEntryFold < 0 || opts.MinEntryFold > opts.MinGeneFold {
		return nil, fmt.Errorf("project: need 0 <= MinEntryFold <= MinGeneFold, got %g > %g",
			opts.MinEntryFold, opts.MinGeneFold)
	}
	if opts.FoldNormalization < 0 {
		return nil, fmt.Errorf("project: FoldNormalization must be non-negative, got %g", opts.FoldNormalization)
	}
	if !query.SameGenes(projected) {
		return nil, fmt.Errorf("project: query and projected gene axes differ")
	}
	if query.NumRows() != projected.NumRows() || len(totals) != query.NumRows() {
		return nil, fmt.Errorf("project: query (%d rows), projected (%d rows) and totals (%d) disagree",
			query.NumRows(), projected.NumRows(), len(totals))
	}

	nRows, nGenes := query.NumRows(), query.NumGenes()
	folds := expr.New(query.Genes(), nRows)
	for i := 0; i < nRows; i++ {
		q := query.Row(i)
		p := projected.Row(i)
		dst := folds.Row(i)
		for j := 0; j < nGenes; j++ {
			if q[j]+p[j] < opts.MinSignificantGeneValue {
				continue
			}
			if totals[i] == 0 {
				continue
			}
			dst[j] = expr.FoldFactor(q[j]/totals[i], p[j]/totals[i], opts.FoldNormalization)
		}
	}

	// Keep a gene column only if some metacell clears MinGeneFold, then drop
	// the entries below MinEntryFold.
	for j := 0; j < nGenes; j++ {
		colMax := 0.0
		for i := 0; i < nRows; i++ {
			if f := math.Abs(folds.At(i, j)); f > colMax {
				colMax = f
			}
		}
		if colMax < opts.MinGeneFold {
			for i := 0; i < nRows; i++ {
				folds.Set(i, j, 0)
			}
			continue
		}
		for i := 0; i < nRows; i++ {
			if math.Abs(folds.At(i, j)) < opts.MinEntryFold {
				folds.Set(i, j, 0)
			}
		}
	}
	return folds, nil
}
