package expr

import "math"

// FractionPerRow returns a new matrix whose rows are m's rows divided by
// their sums, so each row of the result sums to 1.  Rows whose sum is zero
// are left as all zeros.
func FractionPerRow(m *Matrix) *Matrix {
	f := New(m.Genes(), m.NumRows())
	f.rowNames = m.rowNames
	for i := 0; i < m.NumRows(); i++ {
		src := m.Row(i)
		dst := f.Row(i)
		var sum float64
		for _, v := range src {
			sum += v
		}
		if sum == 0 {
			continue
		}
		for j, v := range src {
			dst[j] = v / sum
		}
	}
	return f
}

// Log2Fractions returns log2(v+eps) applied entrywise to the fraction matrix
// f.  The normalization constant eps must be positive; it keeps zeros finite
// and dampens fold noise at low expression.
func Log2Fractions(f *Matrix, eps float64) *Matrix {
	l := New(f.Genes(), f.NumRows())
	l.rowNames = f.rowNames
	for i := range f.data {
		l.data[i] = math.Log2(f.data[i] + eps)
	}
	return l
}
