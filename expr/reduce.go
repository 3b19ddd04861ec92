package expr

import "math"

// SumPerRow returns the total UMIs of each row.
func SumPerRow(m *Matrix) []float64 {
	sums := make([]float64, m.NumRows())
	for i := range sums {
		var s float64
		for _, v := range m.Row(i) {
			s += v
		}
		sums[i] = s
	}
	return sums
}

// MaxPerRow returns the maximum value of each row.  Rows with no columns get
// -Inf.
func MaxPerRow(m *Matrix) []float64 {
	maxs := make([]float64, m.NumRows())
	for i := range maxs {
		best := math.Inf(-1)
		for _, v := range m.Row(i) {
			if v > best {
				best = v
			}
		}
		maxs[i] = best
	}
	return maxs
}

// SumPerColumn returns the total of each gene column.
func SumPerColumn(m *Matrix) []float64 {
	sums := make([]float64, m.NumGenes())
	for i := 0; i < m.NumRows(); i++ {
		for j, v := range m.Row(i) {
			sums[j] += v
		}
	}
	return sums
}

// MaxPerColumn returns the maximum value of each gene column.  Columns of an
// empty matrix get -Inf.
func MaxPerColumn(m *Matrix) []float64 {
	maxs := make([]float64, m.NumGenes())
	for j := range maxs {
		maxs[j] = math.Inf(-1)
	}
	for i := 0; i < m.NumRows(); i++ {
		for j, v := range m.Row(i) {
			if v > maxs[j] {
				maxs[j] = v
			}
		}
	}
	return maxs
}

// NnzPerColumn returns the number of nonzero entries in each gene column.
func NnzPerColumn(m *Matrix) []int {
	counts := make([]int, m.NumGenes())
	for i := 0; i < m.NumRows(); i++ {
		for j, v := range m.Row(i) {
			if v != 0 {
				counts[j]++
			}
		}
	}
	return counts
}
