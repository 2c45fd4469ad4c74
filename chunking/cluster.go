package chunking

import (
	"math"
	"slices"
)

// Cluster groups vectors by agglomerative clustering with Ward linkage over
// Euclidean distance. Pairs of clusters merge while their linkage distance is
// below threshold.
//
// The returned labels are canonical: clusters are numbered in order of their
// lowest member index, so labels[0] is always 0.
func Cluster(vectors [][]float32, threshold float64) []int {
	n := len(vectors)
	labels := make([]int, n)
	if n < 2 {
		return labels
	}

	// dist holds squared Ward distances; for singletons this is the squared
	// Euclidean distance.
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := squaredEuclidean(vectors[i], vectors[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	size := make([]float64, n)
	members := make([][]int, n)
	active := make([]bool, n)
	for i := range n {
		size[i] = 1
		members[i] = []int{i}
		active[i] = true
	}

	limit := threshold * threshold
	for {
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && dist[i][j] < best {
					best, bi, bj = dist[i][j], i, j
				}
			}
		}
		if bi < 0 || best >= limit {
			break
		}

		// Lance-Williams update for Ward linkage.
		ni, nj := size[bi], size[bj]
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			nk := size[k]
			d := ((ni+nk)*dist[k][bi] + (nj+nk)*dist[k][bj] - nk*dist[bi][bj]) / (ni + nj + nk)
			dist[k][bi] = d
			dist[bi][k] = d
		}
		size[bi] = ni + nj
		members[bi] = append(members[bi], members[bj]...)
		members[bj] = nil
		active[bj] = false
	}

	var groups [][]int
	for i := 0; i < n; i++ {
		if active[i] {
			slices.Sort(members[i])
			groups = append(groups, members[i])
		}
	}
	slices.SortFunc(groups, func(a, b []int) int { return a[0] - b[0] })
	for label, group := range groups {
		for _, idx := range group {
			labels[idx] = label
		}
	}
	return labels
}

func squaredEuclidean(a, b []float32) float64 {
	var sum float64
	for i := 0; i < min(len(a), len(b)); i++ {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
