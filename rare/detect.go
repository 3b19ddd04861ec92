// Package rare detects rare gene modules: small sets of weakly and rarely
// expressed genes that are nevertheless highly correlated with each other,
// together with the few cells that express them.  Global grouping algorithms
// tend to discount such genes, so identifying them (and their cells) up front
// lets the surrounding pipeline treat them specially.
//
// Detection runs as five sequential stages: candidate gene selection,
// gene-gene similarity, hierarchical clustering, greedy module identification
// over the linkage tree, cell assignment by relative module strength, and a
// final compression pass that discards modules with too few cells or too
// little UMI mass.
package rare

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/scrna/cluster"
	"github.com/grailbio/scrna/expr"
)

// Result holds the detector outputs.  Module indices are dense, in discovery
// order; -1 means unassigned.
type Result struct {
	// ModuleOfGenes maps each gene to its module, or -1.
	ModuleOfGenes []int
	// ModuleOfCells maps each cell to the module it expresses most strongly,
	// or -1.
	ModuleOfCells []int
	// RareGenes marks genes belonging to any module.
	RareGenes []bool
	// RareCells marks cells assigned to any module.
	RareCells []bool
	// Modules lists the gene names of each surviving module.
	Modules [][]string
}

// Detect finds rare gene modules in a cells x genes UMI matrix.  The
// SimilarityOf matrix, if non-nil, substitutes the expression values used for
// the gene-gene similarity computation (e.g. log values); it must have the
// same shape and gene axis as cells.
func Detect(cells *expr.Matrix, similarityOf *expr.Matrix, opts Opts) (*Result, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}

	result := emptyResult(cells)

	candidateIndices := pickCandidates(cells, opts)
	log.Debug.Printf("rare: %d candidate genes", len(candidateIndices))
	if len(candidateIndices) < opts.MinGenesOfModules {
		return result, nil
	}
	candidates := cells.ColumnSubset(candidateIndices)

	similarityData := candidates
	if similarityOf != nil {
		similarityData = similarityOf.ColumnSubset(candidateIndices)
	}
	similarity := geneSimilarity(similarityData, opts.RepeatedSimilarity)

	merges, err := cluster.Linkage(cluster.PDist(similarity), len(similarity), opts.ClusterMethod)
	if err != nil {
		return nil, err
	}

	clusters := identifyModules(merges, similarity, opts.MinModuleCorrelation)
	log.Debug.Printf("rare: %d candidate modules", len(clusters))

	totalUMIsOfCells := expr.SumPerRow(cells)
	moduleGenes := assignCells(candidates, candidateIndices, clusters, totalUMIsOfCells, result, opts)
	if len(moduleGenes) == 0 {
		return result, nil
	}

	compress(cells.Genes(), moduleGenes, totalUMIsOfCells, result, opts)
	return result, nil
}

func emptyResult(cells *expr.Matrix) *Result {
	r := &Result{
		ModuleOfGenes: make([]int, cells.NumGenes()),
		ModuleOfCells: make([]int, cells.NumRows()),
		RareGenes:     make([]bool, cells.NumGenes()),
		RareCells:     make([]bool, cells.NumRows()),
	}
	for i := range r.ModuleOfGenes {
		r.ModuleOfGenes[i] = -1
	}
	for i := range r.ModuleOfCells {
		r.ModuleOfCells[i] = -1
	}
	return r
}
