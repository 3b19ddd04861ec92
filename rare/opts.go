package rare

import (
	"fmt"

	"github.com/grailbio/scrna/cluster"
)

// Opts controls rare gene-module detection.
type Opts struct {
	// MaxGeneCellFraction is the maximal fraction of cells a candidate gene
	// may be expressed in; rare genes by definition appear in few cells.
	MaxGeneCellFraction float64
	// MinGeneMaximum is the minimal UMI count a candidate gene must reach in
	// at least one cell.
	MinGeneMaximum float64
	// RepeatedSimilarity correlates the correlation rows a second time,
	// which sharpens the signal for very sparse expression data.
	RepeatedSimilarity bool
	// ClusterMethod selects the hierarchical clustering linkage rule.
	ClusterMethod cluster.Method
	// MinGenesOfModules is the minimal number of genes for a cluster to be
	// considered a module, and the minimal candidate gene count for the
	// detector to run at all.
	MinGenesOfModules int
	// MinCellsOfModules is the minimal number of assigned cells for a module
	// to survive compression.
	MinCellsOfModules int
	// TargetMetacellSize times MinModulesSizeFactor is the minimal total UMI
	// mass (over assigned cells) for a module to survive compression.
	TargetMetacellSize   float64
	MinModulesSizeFactor float64
	// MinModuleCorrelation is the minimal mean pairwise gene-gene similarity
	// for a linkage merge to be accepted into a module.
	MinModuleCorrelation float64
	// MinCellModuleTotal is the minimal UMIs a cell must hold in a module's
	// genes to count as a strong cell of the module.
	MinCellModuleTotal float64
}

// DefaultOpts holds the default detection parameters.
var DefaultOpts = Opts{
	MaxGeneCellFraction:  1e-3,
	MinGeneMaximum:       6,
	RepeatedSimilarity:   true,
	ClusterMethod:        cluster.Ward,
	MinGenesOfModules:    4,
	MinCellsOfModules:    12,
	TargetMetacellSize:   160000,
	MinModulesSizeFactor: 0.05,
	MinModuleCorrelation: 0.1,
	MinCellModuleTotal:   4,
}

func (o Opts) check() error {
	if o.MinGenesOfModules <= 0 {
		return fmt.Errorf("rare: MinGenesOfModules must be positive, got %d", o.MinGenesOfModules)
	}
	if o.MinCellsOfModules <= 0 {
		return fmt.Errorf("rare: MinCellsOfModules must be positive, got %d", o.MinCellsOfModules)
	}
	if o.MaxGeneCellFraction < 0 || o.MaxGeneCellFraction > 1 {
		return fmt.Errorf("rare: MaxGeneCellFraction must be in [0, 1], got %g", o.MaxGeneCellFraction)
	}
	if o.MinGeneMaximum < 0 || o.MinCellModuleTotal < 0 || o.TargetMetacellSize < 0 || o.MinModulesSizeFactor < 0 {
		return fmt.Errorf("rare: thresholds must be non-negative: %+v", o)
	}
	return nil
}
