// Package nnls computes non-negative reconstruction weights: given a target
// vector and a basis of candidate rows, it finds weights >= 0 summing to 1
// that minimize the L2 error of reconstructing the target as a weighted sum
// of the basis rows.  The core is the Lawson-Hanson active-set algorithm for
// non-negative least squares, followed by a simplex normalization of the
// solution.
package nnls

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// tolerance below which a dual coordinate is considered non-improving.
const dualTol = 1e-11

// Represent computes non-negative weights over the basis rows, summing to 1,
// that best reconstruct target.  basis must be non-empty and every row must
// have len(target) entries.  An error is returned for degenerate inputs
// (empty or mismatched basis, or a basis that can only reproduce the zero
// vector); no default weights are ever substituted.
func Represent(target []float64, basis [][]float64) ([]float64, error) {
	n := len(basis)
	if n == 0 {
		return nil, fmt.Errorf("nnls.Represent: empty basis")
	}
	m := len(target)
	for i, row := range basis {
		if len(row) != m {
			return nil, fmt.Errorf("nnls.Represent: basis row %d has %d entries, want %d", i, len(row), m)
		}
	}

	// Columns of a are the basis rows: minimize ||a*x - target|| s.t. x >= 0.
	a := mat.NewDense(m, n, nil)
	for j, row := range basis {
		for i, v := range row {
			a.Set(i, j, v)
		}
	}
	b := mat.NewVecDense(m, append([]float64(nil), target...))

	x, err := solve(a, b)
	if err != nil {
		return nil, err
	}

	var sum float64
	for _, v := range x {
		sum += v
	}
	if sum <= 0 {
		return nil, fmt.Errorf("nnls.Represent: degenerate basis, all weights are zero")
	}
	for i := range x {
		x[i] /= sum
	}
	return x, nil
}

// solve runs Lawson-Hanson NNLS: minimize ||a*x - b|| subject to x >= 0.
func solve(a *mat.Dense, b *mat.VecDense) ([]float64, error) {
	m, n := a.Dims()
	x := make([]float64, n)
	passive := make([]bool, n)
	nPassive := 0

	resid := mat.NewVecDense(m, nil)
	dual := mat.NewVecDense(n, nil)

	maxIter := 3 * n
	for iter := 0; ; iter++ {
		if iter > maxIter {
			return nil, fmt.Errorf("nnls: no convergence after %d iterations", maxIter)
		}

		// Dual w = a^T (b - a*x); the most positive free coordinate enters
		// the passive set.
		resid.MulVec(a, mat.NewVecDense(n, x))
		resid.SubVec(b, resid)
		dual.MulVec(a.T(), resid)

		enter := -1
		best := dualTol
		for j := 0; j < n; j++ {
			if !passive[j] && dual.AtVec(j) > best {
				best = dual.AtVec(j)
				enter = j
			}
		}
		if enter < 0 || nPassive == n {
			return x, nil
		}
		passive[enter] = true
		nPassive++

		for {
			z, err := lsqPassive(a, b, passive, nPassive)
			if err != nil {
				return nil, err
			}
			// If the unconstrained solution over the passive set stays
			// positive, accept it and go back to the dual scan.
			minZ := math.Inf(1)
			for j := 0; j < n; j++ {
				if passive[j] && z[j] < minZ {
					minZ = z[j]
				}
			}
			if minZ > 0 {
				copy(x, z)
				break
			}
			// Otherwise step from x towards z only as far as feasibility
			// allows, and drop the coordinates that hit zero.
			alpha := math.Inf(1)
			for j := 0; j < n; j++ {
				if passive[j] && z[j] <= 0 {
					if t := x[j] / (x[j] - z[j]); t < alpha {
						alpha = t
					}
				}
			}
			for j := 0; j < n; j++ {
				if passive[j] {
					x[j] += alpha * (z[j] - x[j])
					if x[j] <= dualTol {
						x[j] = 0
						passive[j] = false
						nPassive--
					}
				}
			}
		}
	}
}

// lsqPassive solves the unconstrained least-squares problem restricted to the
// passive columns of a, returning a full-width solution with zeros at the
// free coordinates.
func lsqPassive(a *mat.Dense, b *mat.VecDense, passive []bool, nPassive int) ([]float64, error) {
	m, n := a.Dims()
	cols := make([]int, 0, nPassive)
	for j := 0; j < n; j++ {
		if passive[j] {
			cols = append(cols, j)
		}
	}
	sub := mat.NewDense(m, len(cols), nil)
	for i, j := range cols {
		sub.SetCol(i, mat.Col(nil, j, a))
	}

	var qr mat.QR
	qr.Factorize(sub)
	sol := mat.NewDense(len(cols), 1, nil)
	if err := qr.SolveTo(sol, false, b); err != nil {
		return nil, fmt.Errorf("nnls: singular passive set: %v", err)
	}

	z := make([]float64, n)
	for i, j := range cols {
		z[j] = sol.At(i, 0)
	}
	return z, nil
}
