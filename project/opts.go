package project

import "fmt"

// Opts controls the projection of query metacells onto an atlas.
type Opts struct {
	// FoldNormalization is the constant added to expression fractions before
	// taking log2, for all fold-factor computations.
	FoldNormalization float64
	// CandidatesCount is the number of atlas metacells considered as the
	// reconstruction basis for each query metacell.
	CandidatesCount int
	// MinSignificantGeneValue is the minimal total UMIs (query plus atlas, or
	// query plus projection) for a gene's fold factor to be meaningful.
	// Folds below this mass are treated as zero.
	MinSignificantGeneValue float64
	// MinUsageWeight is the floor below which a solved candidate weight is
	// snapped to zero; the surviving weights are renormalized to sum to 1.
	MinUsageWeight float64
	// MinConsistencyWeight is the minimal weight for a used candidate to
	// participate in the consistency check.
	MinConsistencyWeight float64
	// MaxConsistencyFold is the maximal spread (max minus min log fraction)
	// allowed between consistency candidates for a single gene.
	MaxConsistencyFold float64
	// MaxInconsistentGenes is the number of genes allowed to exceed
	// MaxConsistencyFold before the query metacell is declared uncharted.
	MaxInconsistentGenes int
	// MaxProjectionFold is the maximal fold factor allowed between a query
	// metacell and its projection for any significant gene.
	MaxProjectionFold float64
}

// DefaultOpts holds the default projection parameters.
var DefaultOpts = Opts{
	FoldNormalization:       1e-5,
	CandidatesCount:         50,
	MinSignificantGeneValue: 40,
	MinUsageWeight:          1e-5,
	MinConsistencyWeight:    0.05,
	MaxConsistencyFold:      2.0,
	MaxInconsistentGenes:    5,
	MaxProjectionFold:       3.0,
}

func (o Opts) check() error {
	if o.FoldNormalization <= 0 {
		return fmt.Errorf("project: FoldNormalization must be positive, got %g", o.FoldNormalization)
	}
	if o.CandidatesCount <= 0 {
		return fmt.Errorf("project: CandidatesCount must be positive, got %d", o.CandidatesCount)
	}
	if o.MinSignificantGeneValue < 0 || o.MinUsageWeight < 0 || o.MinConsistencyWeight < 0 ||
		o.MaxConsistencyFold < 0 || o.MaxInconsistentGenes < 0 || o.MaxProjectionFold < 0 {
		return fmt.Errorf("project: thresholds must be non-negative: %+v", o)
	}
	return nil
}
