// scrna-rare detects rare gene modules in a cells x genes count matrix.
//
// It reads a count matrix (TSV, see encoding/counts) and writes per-gene and
// per-cell module assignments plus the gene list of each detected module.
//
// Example:
//
//	scrna-rare -cells cells.tsv.gz -genes-output genes.tsv \
//	  -cells-output cells_out.tsv -modules-output modules.tsv
package main

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/scrna/cluster"
	"github.com/grailbio/scrna/encoding/counts"
	"github.com/grailbio/scrna/expr"
	"github.com/grailbio/scrna/rare"
)

var (
	cellsFlag   = flag.String("cells", "", "Cells x genes count matrix (TSV, .gz ok).")
	genesOut    = flag.String("genes-output", "", "Output TSV of per-gene module assignments.")
	cellsOut    = flag.String("cells-output", "", "Output TSV of per-cell module assignments.")
	modulesOut  = flag.String("modules-output", "", "Output TSV of module gene lists.")
	methodFlag  = flag.String("cluster-method", cluster.Ward.String(), "Linkage method: ward, average or complete.")
	repeatedSim = flag.Bool("repeated-similarity", rare.DefaultOpts.RepeatedSimilarity,
		"Correlate the correlation rows a second time (suits sparse data).")

	maxGeneCellFraction = flag.Float64("max-gene-cell-fraction", rare.DefaultOpts.MaxGeneCellFraction,
		"Maximal fraction of cells a candidate gene may be expressed in.")
	minGeneMaximum = flag.Float64("min-gene-maximum", rare.DefaultOpts.MinGeneMaximum,
		"Minimal UMIs a candidate gene must reach in some cell.")
	minGenesOfModules = flag.Int("min-genes-of-modules", rare.DefaultOpts.MinGenesOfModules,
		"Minimal number of genes per module.")
	minCellsOfModules = flag.Int("min-cells-of-modules", rare.DefaultOpts.MinCellsOfModules,
		"Minimal number of cells per surviving module.")
	targetMetacellSize = flag.Float64("target-metacell-size", rare.DefaultOpts.TargetMetacellSize,
		"Target metacell size in UMIs.")
	minModulesSizeFactor = flag.Float64("min-modules-size-factor", rare.DefaultOpts.MinModulesSizeFactor,
		"Fraction of the target metacell size a module must hold.")
	minModuleCorrelation = flag.Float64("min-module-correlation", rare.DefaultOpts.MinModuleCorrelation,
		"Minimal mean gene-gene correlation for a module merge.")
	minCellModuleTotal = flag.Float64("min-cell-module-total", rare.DefaultOpts.MinCellModuleTotal,
		"Minimal module UMIs for a cell to count as strong.")
)

func main() {
	flag.Parse()
	if *cellsFlag == "" {
		log.Fatalf("-cells is required")
	}
	method, err := cluster.ParseMethod(*methodFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	cells, err := counts.ReadFile(*cellsFlag)
	if err != nil {
		log.Fatalf("reading cells %s: %v", *cellsFlag, err)
	}
	log.Printf("cells: %d, genes: %d", cells.NumRows(), cells.NumGenes())

	opts := rare.Opts{
		MaxGeneCellFraction:  *maxGeneCellFraction,
		MinGeneMaximum:       *minGeneMaximum,
		RepeatedSimilarity:   *repeatedSim,
		ClusterMethod:        method,
		MinGenesOfModules:    *minGenesOfModules,
		MinCellsOfModules:    *minCellsOfModules,
		TargetMetacellSize:   *targetMetacellSize,
		MinModulesSizeFactor: *minModulesSizeFactor,
		MinModuleCorrelation: *minModuleCorrelation,
		MinCellModuleTotal:   *minCellModuleTotal,
	}
	result, err := rare.Detect(cells, nil, opts)
	if err != nil {
		log.Fatalf("detection failed: %v", err)
	}
	log.Printf("detected %d rare gene modules", len(result.Modules))

	if *genesOut != "" {
		writeAssignments(*genesOut, "gene", cells.Genes(), result.ModuleOfGenes)
	}
	if *cellsOut != "" {
		writeAssignments(*cellsOut, "cell", cellNames(cells), result.ModuleOfCells)
	}
	if *modulesOut != "" {
		writeModules(*modulesOut, result.Modules)
	}
}

func cellNames(cells *expr.Matrix) []string {
	if names := cells.RowNames(); names != nil {
		return names
	}
	names := make([]string, cells.NumRows())
	for i := range names {
		names[i] = strconv.Itoa(i)
	}
	return names
}

func writeAssignments(path, axis string, names []string, modules []int) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("creating %s: %v", path, err)
	}
	w := tsv.NewWriter(f)
	w.WriteString(axis)
	w.WriteString("module")
	if err := w.EndLine(); err != nil {
		log.Fatalf("writing %s: %v", path, err)
	}
	for i, m := range modules {
		w.WriteString(names[i])
		w.WriteInt64(int64(m))
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

func writeModules(path string, modules [][]string) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("creating %s: %v", path, err)
	}
	w := tsv.NewWriter(f)
	w.WriteString("module")
	w.WriteString("genes")
	if err := w.EndLine(); err != nil {
		log.Fatalf("writing %s: %v", path, err)
	}
	for i, genes := range modules {
		w.WriteInt64(int64(i))
		w.WriteString(strings.Join(genes, ","))
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
