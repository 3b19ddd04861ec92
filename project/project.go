// Package project implements projection of query metacells onto a reference
// atlas.  Each query metacell is reconstructed as a sparse non-negative
// weighted sum of nearby atlas metacells, and the reconstruction is validated
// against fold-change and candidate-consistency thresholds; query metacells
// that cannot be represented well are flagged as "uncharted", which may
// indicate cell states absent from the atlas.
package project

import (
	"fmt"
	"math"
	"sort"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/scrna/expr"
	"github.com/grailbio/scrna/nnls"
)

// RowWeights is the sparse projection weighting of one query metacell: the
// used atlas row indices (ascending) and their weights, summing to 1.
type RowWeights struct {
	AtlasIndices []int
	Weights      []float64
}

// Result aggregates the per-query-row projection outputs.
type Result struct {
	// Charted[i] reports whether query row i is meaningfully represented by
	// the atlas.
	Charted []bool
	// Weights[i] is the sparse atlas weighting of query row i.  Uncharted
	// rows whose candidates were all floor-pruned have empty weights.
	Weights []RowWeights
	// ProjectedTotalUMIs[i] is the weighted sum of the used atlas rows'
	// total UMIs.
	ProjectedTotalUMIs []float64
	// Projected is the dense projected image of the query: each row is the
	// projected fraction vector scaled to the query row's total UMIs, so row
	// sums conserve the query mass.
	Projected *expr.Matrix
}

type rowResult struct {
	charted      bool
	atlasIndices []int
	weights      []float64
	total        float64
	fractions    []float64
}

// Project projects every query row onto the atlas.  The atlas and query must
// share an identical ordered gene axis.  Rows are processed in parallel; a
// solver failure on any row fails the whole call.
func Project(atlas, query *expr.Matrix, opts Opts) (*Result, error) {
	if err := opts.check(); err != nil {
		return nil, err
	}
	if !atlas.SameGenes(query) {
		return nil, fmt.Errorf("project: atlas and query gene axes differ (%d vs %d genes)",
			atlas.NumGenes(), query.NumGenes())
	}

	atlasTotals := expr.SumPerRow(atlas)
	queryTotals := expr.SumPerRow(query)
	atlasFractions := expr.FractionPerRow(atlas)
	queryFractions := expr.FractionPerRow(query)
	atlasLog := expr.Log2Fractions(atlasFractions, opts.FoldNormalization)
	queryLog := expr.Log2Fractions(queryFractions, opts.FoldNormalization)

	pre := &precomputed{
		atlas:          atlas,
		query:          query,
		atlasTotals:    atlasTotals,
		atlasFractions: atlasFractions,
		atlasLog:       atlasLog,
		queryFractions: queryFractions,
		queryLog:       queryLog,
	}

	results := make([]rowResult, query.NumRows())
	err := traverse.Each(query.NumRows(), func(i int) error {
		r, err := projectRow(pre, i, opts)
		if err != nil {
			return fmt.Errorf("project: query row %d: %v", i, err)
		}
		results[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &Result{
		Charted:            make([]bool, len(results)),
		Weights:            make([]RowWeights, len(results)),
		ProjectedTotalUMIs: make([]float64, len(results)),
		Projected:          expr.New(query.Genes(), query.NumRows()),
	}
	if names := query.RowNames(); names != nil {
		_ = out.Projected.SetRowNames(names)
	}
	nCharted := 0
	for i, r := range results {
		out.Charted[i] = r.charted
		out.Weights[i] = RowWeights{AtlasIndices: r.atlasIndices, Weights: r.weights}
		out.ProjectedTotalUMIs[i] = r.total
		row := out.Projected.Row(i)
		for j, f := range r.fractions {
			row[j] = f * queryTotals[i]
		}
		if r.charted {
			nCharted++
		}
	}
	log.Debug.Printf("project: %d/%d query rows charted", nCharted, len(results))
	return out, nil
}

type precomputed struct {
	atlas, query             *expr.Matrix
	atlasTotals              []float64
	atlasFractions, atlasLog *expr.Matrix
	queryFractions, queryLog *expr.Matrix
}

func projectRow(pre *precomputed, row int, opts Opts) (rowResult, error) {
	nGenes := pre.query.NumGenes()
	queryUMIs := pre.query.Row(row)
	queryFrac := pre.queryFractions.Row(row)
	queryLog := pre.queryLog.Row(row)

	candidates := selectCandidates(pre, row, opts)

	basis := make([][]float64, len(candidates))
	for i, a := range candidates {
		basis[i] = pre.atlasFractions.Row(a)
	}
	weights, err := nnls.Represent(queryFrac, basis)
	if err != nil {
		return rowResult{}, err
	}

	// Snap weights below the usage floor to zero and renormalize the
	// survivors to sum to 1.  If everything was pruned the row cannot be
	// charted at all.
	var kept float64
	for i, w := range weights {
		if w < opts.MinUsageWeight {
			weights[i] = 0
		} else {
			kept += w
		}
	}
	if kept == 0 {
		return rowResult{fractions: make([]float64, nGenes)}, nil
	}
	for i := range weights {
		weights[i] /= kept
	}

	var usedIndices []int
	var usedWeights []float64
	for i, w := range weights {
		if w > 0 {
			usedIndices = append(usedIndices, candidates[i])
			usedWeights = append(usedWeights, w)
		}
	}

	// Reconstruction: projected fractions, total UMIs and UMI row.
	projFrac := make([]float64, nGenes)
	var projTotal float64
	for k, a := range usedIndices {
		w := usedWeights[k]
		atlasFrac := pre.atlasFractions.Row(a)
		for j, f := range atlasFrac {
			projFrac[j] += w * f
		}
		projTotal += w * pre.atlasTotals[a]
	}

	// Fidelity check: the projection must not deviate from the query by more
	// than MaxProjectionFold on any gene carrying significant mass.
	maxFold := 0.0
	for j := 0; j < nGenes; j++ {
		projUMIs := projFrac[j] * projTotal
		if queryUMIs[j]+projUMIs < opts.MinSignificantGeneValue {
			continue
		}
		fold := math.Abs(math.Log2(projFrac[j]+opts.FoldNormalization) - queryLog[j])
		if fold > maxFold {
			maxFold = fold
		}
	}
	charted := maxFold <= opts.MaxProjectionFold

	if charted {
		charted = consistentCandidates(pre, row, usedIndices, usedWeights, opts)
	}

	return rowResult{
		charted:      charted,
		atlasIndices: usedIndices,
		weights:      usedWeights,
		total:        projTotal,
		fractions:    projFrac,
	}, nil
}

// selectCandidates returns the CandidatesCount atlas rows with the smallest
// maximal significant gene fold relative to the query row, sorted ascending.
// If the atlas is no larger than CandidatesCount, every atlas row is a
// candidate.
func selectCandidates(pre *precomputed, row int, opts Opts) []int {
	nAtlas := pre.atlas.NumRows()
	if nAtlas <= opts.CandidatesCount {
		all := make([]int, nAtlas)
		for i := range all {
			all[i] = i
		}
		return all
	}

	queryUMIs := pre.query.Row(row)
	queryLog := pre.queryLog.Row(row)
	maxFolds := make([]float64, nAtlas)
	for a := 0; a < nAtlas; a++ {
		atlasUMIs := pre.atlas.Row(a)
		atlasLog := pre.atlasLog.Row(a)
		best := 0.0
		for j, u := range atlasUMIs {
			if u+queryUMIs[j] < opts.MinSignificantGeneValue {
				continue
			}
			if fold := math.Abs(atlasLog[j] - queryLog[j]); fold > best {
				best = fold
			}
		}
		maxFolds[a] = best
	}

	order := make([]int, nAtlas)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		if maxFolds[order[i]] != maxFolds[order[j]] {
			return maxFolds[order[i]] < maxFolds[order[j]]
		}
		return order[i] < order[j]
	})
	candidates := order[:opts.CandidatesCount]
	sort.Ints(candidates)
	return candidates
}

// consistentCandidates checks that the used candidates agree with each other:
// among candidates whose weight is at least MinConsistencyWeight, the spread
// of log fractions per gene (restricted to candidate/gene pairs with
// significant combined mass) must exceed MaxConsistencyFold on at most
// MaxInconsistentGenes genes.
func consistentCandidates(pre *precomputed, row int, usedIndices []int, usedWeights []float64, opts Opts) bool {
	nGenes := pre.query.NumGenes()
	queryUMIs := pre.query.Row(row)

	minLog := make([]float64, nGenes)
	maxLog := make([]float64, nGenes)
	for j := range minLog {
		minLog[j] = math.Inf(1)
		maxLog[j] = math.Inf(-1)
	}

	for k, a := range usedIndices {
		if usedWeights[k] < opts.MinConsistencyWeight {
			continue
		}
		atlasUMIs := pre.atlas.Row(a)
		atlasLog := pre.atlasLog.Row(a)
		for j, u := range atlasUMIs {
			if queryUMIs[j]+u < opts.MinSignificantGeneValue {
				continue
			}
			if atlasLog[j] < minLog[j] {
				minLog[j] = atlasLog[j]
			}
			if atlasLog[j] > maxLog[j] {
				maxLog[j] = atlasLog[j]
			}
		}
	}

	inconsistent := 0
	for j := 0; j < nGenes; j++ {
		if math.IsInf(minLog[j], 1) {
			// No candidate/gene pair with significant mass; fold is zero.
			continue
		}
		if maxLog[j]-minLog[j] > opts.MaxConsistencyFold {
			inconsistent++
		}
	}
	return inconsistent <= opts.MaxInconsistentGenes
}
