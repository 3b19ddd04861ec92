// Package cluster provides the pairwise-distance and agglomerative
// hierarchical-clustering primitives used by the rare gene-module detector:
// a condensed Euclidean distance computation over matrix rows, and a linkage
// builder producing a merge tree via Lance-Williams distance updates.
//
// Node ids in the merge tree follow the usual convention for n leaves: leaf
// i has id i, and the cluster created by the t'th merge has id n+t.
package cluster

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Method selects the Lance-Williams update rule used when two clusters merge.
type Method int

const (
	// Ward minimizes the within-cluster variance increase per merge.
	Ward Method = iota
	// Average uses the mean inter-cluster distance (UPGMA).
	Average
	// Complete uses the maximum inter-cluster distance.
	Complete
)

func (m Method) String() string {
	switch m {
	case Ward:
		return "ward"
	case Average:
		return "average"
	case Complete:
		return "complete"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// ParseMethod maps a method name to a Method.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "ward":
		return Ward, nil
	case "average":
		return Average, nil
	case "complete":
		return Complete, nil
	}
	return 0, fmt.Errorf("cluster.ParseMethod: unknown method %q", name)
}

// Merge records one step of the agglomeration: the two node ids combined, the
// distance at which they were combined, and the size of the resulting
// cluster.
type Merge struct {
	Left, Right int
	Distance    float64
	Size        int
}

// PDist returns the condensed pairwise Euclidean distances between the rows
// of m: entry (i, j) for i < j is stored at index i*(2n-i-1)/2 + (j-i-1),
// matching the condensed layout consumed by Linkage.
func PDist(rows [][]float64) []float64 {
	n := len(rows)
	out := make([]float64, n*(n-1)/2)
	k := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			out[k] = floats.Distance(rows[i], rows[j], 2)
			k++
		}
	}
	return out
}

// Linkage builds an agglomerative merge tree over n leaves from condensed
// pairwise distances.  It returns n-1 merges in merge order.  Ties on the
// minimum distance are broken deterministically towards the lowest pair of
// node ids, so identical inputs always produce identical trees.
func Linkage(dist []float64, n int, method Method) ([]Merge, error) {
	if want := n * (n - 1) / 2; len(dist) != want {
		return nil, fmt.Errorf("cluster.Linkage: %d condensed distances for %d leaves, want %d", len(dist), n, want)
	}
	if n == 0 {
		return nil, nil
	}

	// Working full matrix of inter-cluster distances; row/col slot i holds
	// the cluster currently occupying leaf slot i.
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}
	k := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d[i][j] = dist[k]
			d[j][i] = dist[k]
			k++
		}
	}

	active := make([]bool, n)
	id := make([]int, n)   // node id of the cluster in each slot
	size := make([]int, n) // leaf count of the cluster in each slot
	for i := 0; i < n; i++ {
		active[i] = true
		id[i] = i
		size[i] = 1
	}

	merges := make([]Merge, 0, n-1)
	for t := 0; t < n-1; t++ {
		// Find the closest active pair; lowest slot pair wins ties.
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && d[i][j] < best {
					best = d[i][j]
					bi, bj = i, j
				}
			}
		}

		li, ri := id[bi], id[bj]
		if li > ri {
			li, ri = ri, li
		}
		ni, nj := size[bi], size[bj]
		merges = append(merges, Merge{Left: li, Right: ri, Distance: best, Size: ni + nj})

		// The merged cluster takes over slot bi; slot bj retires.
		for h := 0; h < n; h++ {
			if !active[h] || h == bi || h == bj {
				continue
			}
			d[bi][h] = update(method, d[bi][h], d[bj][h], best, ni, nj, size[h])
			d[h][bi] = d[bi][h]
		}
		active[bj] = false
		id[bi] = n + t
		size[bi] = ni + nj
	}
	return merges, nil
}

// update applies the Lance-Williams recurrence for the distance between the
// freshly merged cluster (i u j) and another cluster k.
func update(method Method, dik, djk, dij float64, ni, nj, nk int) float64 {
	switch method {
	case Average:
		fi := float64(ni) / float64(ni+nj)
		fj := float64(nj) / float64(ni+nj)
		return fi*dik + fj*djk
	case Complete:
		return math.Max(dik, djk)
	default: // Ward
		total := float64(ni + nj + nk)
		s := (float64(ni+nk)*dik*dik + float64(nj+nk)*djk*djk - float64(nk)*dij*dij) / total
		if s < 0 {
			s = 0
		}
		return math.Sqrt(s)
	}
}
