// Package expr implements the in-memory representation of single-cell
// gene-expression data: a dense matrix whose rows are cells (or metacell
// groups) and whose columns are genes, with entries holding non-negative UMI
// counts.  It also provides the per-row and per-column reductions and the
// row-fraction normalization that the projection and rare-module pipelines
// are built on.
package expr

import (
	"fmt"
	"math"
)

// Matrix is a dense, row-major cells x genes matrix of UMI counts.  The gene
// axis is ordered and named; two matrices are comparable (e.g. an atlas and a
// query projected onto it) only when their gene axes are identical.
type Matrix struct {
	genes    []string
	rowNames []string // optional, may be nil
	nRows    int
	data     []float64
}

// New returns a zero-filled matrix with the given gene axis and row count.
func New(genes []string, nRows int) *Matrix {
	return &Matrix{
		genes: genes,
		nRows: nRows,
		data:  make([]float64, nRows*len(genes)),
	}
}

// FromRows builds a matrix from explicit row slices.  Every row must have
// exactly len(genes) entries.
func FromRows(genes []string, rows [][]float64) (*Matrix, error) {
	m := New(genes, len(rows))
	for i, row := range rows {
		if len(row) != len(genes) {
			return nil, fmt.Errorf("expr.FromRows: row %d has %d values, want %d", i, len(row), len(genes))
		}
		copy(m.Row(i), row)
	}
	return m, nil
}

// NumRows returns the number of cells (rows).
func (m *Matrix) NumRows() int { return m.nRows }

// NumGenes returns the number of genes (columns).
func (m *Matrix) NumGenes() int { return len(m.genes) }

// Genes returns the ordered gene-name axis.  The caller must not modify the
// returned slice.
func (m *Matrix) Genes() []string { return m.genes }

// Row returns the i'th row as a slice aliasing the matrix storage.
func (m *Matrix) Row(i int) []float64 {
	g := len(m.genes)
	return m.data[i*g : (i+1)*g]
}

// At returns the value at row i, gene j.
func (m *Matrix) At(i, j int) float64 { return m.data[i*len(m.genes)+j] }

// Set sets the value at row i, gene j.
func (m *Matrix) Set(i, j int, v float64) { m.data[i*len(m.genes)+j] = v }

// RowNames returns the optional per-row names, or nil if none were set.
func (m *Matrix) RowNames() []string { return m.rowNames }

// SetRowNames attaches per-row names.  len(names) must equal NumRows.
func (m *Matrix) SetRowNames(names []string) error {
	if len(names) != m.nRows {
		return fmt.Errorf("expr.SetRowNames: %d names for %d rows", len(names), m.nRows)
	}
	m.rowNames = names
	return nil
}

// SameGenes reports whether m and other have identical ordered gene axes.
func (m *Matrix) SameGenes(other *Matrix) bool {
	if len(m.genes) != len(other.genes) {
		return false
	}
	for i, g := range m.genes {
		if other.genes[i] != g {
			return false
		}
	}
	return true
}

// ColumnSubset returns a new matrix restricted to the given gene indices, in
// the given order.  Row names, if any, are shared with m.
func (m *Matrix) ColumnSubset(indices []int) *Matrix {
	genes := make([]string, len(indices))
	for i, j := range indices {
		genes[i] = m.genes[j]
	}
	s := New(genes, m.nRows)
	s.rowNames = m.rowNames
	for r := 0; r < m.nRows; r++ {
		src := m.Row(r)
		dst := s.Row(r)
		for i, j := range indices {
			dst[i] = src[j]
		}
	}
	return s
}

// Clone returns a deep copy of m (row names shared).
func (m *Matrix) Clone() *Matrix {
	c := New(m.genes, m.nRows)
	c.rowNames = m.rowNames
	copy(c.data, m.data)
	return c
}

// FoldFactor returns the log2 fold factor between two fractional expression
// values, dampened by the normalization constant eps.  Folds on near-zero
// expression are meaningless; callers must gate on a UMI significance floor
// before interpreting the result.
func FoldFactor(a, b, eps float64) float64 {
	return math.Log2(a+eps) - math.Log2(b+eps)
}
