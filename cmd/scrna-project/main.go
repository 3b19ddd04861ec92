// scrna-project projects query metacells onto a reference atlas.
//
// It reads atlas and query count matrices (TSV, see encoding/counts), runs
// the projection, and writes three TSV outputs: the per-query charted flags
// and projected total UMIs, the sparse query x atlas weights, and the dense
// projected UMI matrix.
//
// Example:
//
//	scrna-project -atlas atlas.tsv.gz -query query.tsv.gz \
//	  -charted-output charted.tsv -weights-output weights.tsv \
//	  -projected-output projected.tsv
package main

import (
	"flag"
	"os"
	"strconv"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/scrna/encoding/counts"
	"github.com/grailbio/scrna/expr"
	"github.com/grailbio/scrna/project"
)

var (
	atlasFlag     = flag.String("atlas", "", "Atlas count matrix (TSV, .gz ok).")
	queryFlag     = flag.String("query", "", "Query count matrix (TSV, .gz ok).")
	chartedFlag   = flag.String("charted-output", "", "Output TSV of per-query charted flags and projected totals.")
	weightsFlag   = flag.String("weights-output", "", "Output TSV of sparse query x atlas weights.")
	projectedFlag = flag.String("projected-output", "", "Output TSV of the dense projected UMI matrix.")

	foldNormalization = flag.Float64("fold-normalization", project.DefaultOpts.FoldNormalization,
		"Normalization constant added to fractions before log2.")
	candidatesCount = flag.Int("candidates-count", project.DefaultOpts.CandidatesCount,
		"Number of atlas candidates per query metacell.")
	minSignificantGeneValue = flag.Float64("min-significant-gene-value", project.DefaultOpts.MinSignificantGeneValue,
		"Minimal combined UMIs for a gene fold to be significant.")
	minUsageWeight = flag.Float64("min-usage-weight", project.DefaultOpts.MinUsageWeight,
		"Floor below which solved weights are snapped to zero.")
	minConsistencyWeight = flag.Float64("min-consistency-weight", project.DefaultOpts.MinConsistencyWeight,
		"Minimal weight for a candidate to join the consistency check.")
	maxConsistencyFold = flag.Float64("max-consistency-fold", project.DefaultOpts.MaxConsistencyFold,
		"Maximal per-gene log-fraction spread between candidates.")
	maxInconsistentGenes = flag.Int("max-inconsistent-genes", project.DefaultOpts.MaxInconsistentGenes,
		"Number of inconsistent genes tolerated before declaring uncharted.")
	maxProjectionFold = flag.Float64("max-projection-fold", project.DefaultOpts.MaxProjectionFold,
		"Maximal fold between a query metacell and its projection.")
)

func main() {
	flag.Parse()
	if *atlasFlag == "" || *queryFlag == "" {
		log.Fatalf("both -atlas and -query are required")
	}

	atlas, err := counts.ReadFile(*atlasFlag)
	if err != nil {
		log.Fatalf("reading atlas %s: %v", *atlasFlag, err)
	}
	query, err := counts.ReadFile(*queryFlag)
	if err != nil {
		log.Fatalf("reading query %s: %v", *queryFlag, err)
	}
	log.Printf("atlas: %d metacells, query: %d metacells, %d genes",
		atlas.NumRows(), query.NumRows(), atlas.NumGenes())

	opts := project.Opts{
		FoldNormalization:       *foldNormalization,
		CandidatesCount:         *candidatesCount,
		MinSignificantGeneValue: *minSignificantGeneValue,
		MinUsageWeight:          *minUsageWeight,
		MinConsistencyWeight:    *minConsistencyWeight,
		MaxConsistencyFold:      *maxConsistencyFold,
		MaxInconsistentGenes:    *maxInconsistentGenes,
		MaxProjectionFold:       *maxProjectionFold,
	}
	result, err := project.Project(atlas, query, opts)
	if err != nil {
		log.Fatalf("projection failed: %v", err)
	}

	if *chartedFlag != "" {
		writeCharted(*chartedFlag, query, result)
	}
	if *weightsFlag != "" {
		writeWeights(*weightsFlag, query, result)
	}
	if *projectedFlag != "" {
		writeMatrix(*projectedFlag, result.Projected)
	}
}

func queryName(query *expr.Matrix, i int) string {
	if names := query.RowNames(); names != nil {
		return names[i]
	}
	return strconv.Itoa(i)
}

func writeCharted(path string, query *expr.Matrix, result *project.Result) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("creating %s: %v", path, err)
	}
	w := tsv.NewWriter(f)
	w.WriteString("query")
	w.WriteString("charted")
	w.WriteString("projected_total_umis")
	if err := w.EndLine(); err != nil {
		log.Fatalf("writing %s: %v", path, err)
	}
	for i, charted := range result.Charted {
		w.WriteString(queryName(query, i))
		w.WriteString(strconv.FormatBool(charted))
		w.WriteString(strconv.FormatFloat(result.ProjectedTotalUMIs[i], 'g', -1, 64))
		if err := w.EndLine(); err != nil {
			log.Fatalf("writing %s: %v", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("flushing %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("closing %s: %v", path, err)
	}
}

func writeWeights(path string, query *expr.Matrix, result *project.Result) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("creating %s: %v", path, err)
	}
	w := tsv.NewWriter(f)
	w.WriteString("query")
	w.WriteString("atlas_index")
	w.WriteString("weight")
	if err := w.EndLine(); err != nil {
		log.Fatalf("writing %s: %v", path, err)
	}
	for i, rw := range result.Weights {
		for k, a := range rw.AtlasIndices {
			w.WriteString(queryName(query, i))
			w.WriteInt64(int64(a))
			w.WriteString(strconv.FormatFloat(rw.Weights[k], 'g', -1, 64))
			if err := w.EndLine(); err != nil {
				log.Fatalf("writing %s: %v", path, err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("flushing %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("closing %s: %v", path, err)
	}
}

func writeMatrix(path string, m *expr.Matrix) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("creating %s: %v", path, err)
	}
	if err := counts.Write(f, m); err != nil {
		log.Fatalf("writing %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("closing %s: %v", path, err)
	}
}
