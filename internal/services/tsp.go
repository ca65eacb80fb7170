package services

import (
	"math"
)

const (
	AlgorithmNone            = "none"
	AlgorithmTrivial         = "trivial"
	AlgorithmHeldKarp        = "held_karp"
	AlgorithmNearestNeighbor = "nearest_neighbor_2opt"
)

// improvementEpsilon guards 2-opt against accepting float noise as progress.
const improvementEpsilon = 1e-9

// Tour is a closed visiting order starting and ending at matrix index 0.
type Tour struct {
	// Order holds matrix indices 1..n in visiting order; the depot is implicit.
	Order     []int
	Cost      float64
	Algorithm string
	Passes    int
}

// SolveTour picks the exact or heuristic solver by problem size.
// cost must be square with the depot at index 0 and contain only finite,
// non-negative values (see sanitizeCosts).
func SolveTour(cost [][]float64, exactMax, maxPasses int) Tour {
	n := len(cost) - 1
	switch {
	case n <= 0:
		return Tour{Order: []int{}, Algorithm: AlgorithmNone}
	case n == 1:
		order := []int{1}
		return Tour{Order: order, Cost: tourCost(cost, order), Algorithm: AlgorithmTrivial}
	case n <= exactMax:
		order, c := heldKarp(cost)
		return Tour{Order: order, Cost: c, Algorithm: AlgorithmHeldKarp}
	default:
		order := nearestNeighborTour(cost)
		order, passes := twoOpt(cost, order, maxPasses, nil)
		return Tour{Order: order, Cost: tourCost(cost, order), Algorithm: AlgorithmNearestNeighbor, Passes: passes}
	}
}

// heldKarp solves the closed tour exactly in O(2^n * n^2).
// dp[mask*n+j] is the cheapest path from the depot through the customers in
// mask ending at customer j (matrix index j+1).
func heldKarp(cost [][]float64) ([]int, float64) {
	n := len(cost) - 1
	full := 1 << n

	dp := make([]float64, full*n)
	parent := make([]int, full*n)
	for i := range dp {
		dp[i] = math.Inf(1)
		parent[i] = -1
	}

	for j := 0; j < n; j++ {
		dp[(1<<j)*n+j] = cost[0][j+1]
	}

	for mask := 1; mask < full; mask++ {
		for j := 0; j < n; j++ {
			if mask&(1<<j) == 0 {
				continue
			}
			cur := dp[mask*n+j]
			if math.IsInf(cur, 1) {
				continue
			}
			for k := 0; k < n; k++ {
				if mask&(1<<k) != 0 {
					continue
				}
				next := mask | (1 << k)
				cand := cur + cost[j+1][k+1]
				if cand < dp[next*n+k] {
					dp[next*n+k] = cand
					parent[next*n+k] = j
				}
			}
		}
	}

	last := full - 1
	best, bestEnd := math.Inf(1), 0
	for j := 0; j < n; j++ {
		c := dp[last*n+j] + cost[j+1][0]
		if c < best {
			best, bestEnd = c, j
		}
	}

	order := make([]int, n)
	mask, j := last, bestEnd
	for pos := n - 1; pos >= 0; pos-- {
		order[pos] = j + 1
		prev := parent[mask*n+j]
		mask &^= 1 << j
		j = prev
	}

	return order, best
}

// nearestNeighborTour greedily extends from the depot to the closest unvisited
// point. Ties go to the lower index.
func nearestNeighborTour(cost [][]float64) []int {
	n := len(cost) - 1
	visited := make([]bool, n+1)
	order := make([]int, 0, n)

	cur := 0
	for len(order) < n {
		best := -1
		for k := 1; k <= n; k++ {
			if visited[k] {
				continue
			}
			if best == -1 || cost[cur][k] < cost[cur][best] {
				best = k
			}
		}
		visited[best] = true
		order = append(order, best)
		cur = best
	}

	return order
}

// twoOpt improves order by reversing segments while that strictly shortens
// the closed tour. It stops after a pass with no accepted swap or after
// maxPasses passes. onSwap, when set, observes each accepted swap.
func twoOpt(cost [][]float64, order []int, maxPasses int, onSwap func(before, after float64)) ([]int, int) {
	tour := append([]int(nil), order...)
	n := len(tour)
	if n < 3 {
		return tour, 0
	}

	at := func(i int) int {
		if i < 0 || i >= n {
			return 0
		}
		return tour[i]
	}

	current := tourCost(cost, tour)
	passes := 0
	for passes < maxPasses {
		passes++
		improved := false

		for i := 0; i < n-1; i++ {
			for k := i + 1; k < n; k++ {
				a, b := at(i-1), at(k+1)

				before := cost[a][tour[i]] + cost[tour[k]][b]
				after := cost[a][tour[k]] + cost[tour[i]][b]
				// Inner edges flip direction; matters for asymmetric matrices.
				for p := i; p < k; p++ {
					before += cost[tour[p]][tour[p+1]]
					after += cost[tour[p+1]][tour[p]]
				}

				if after < before-improvementEpsilon {
					reverse(tour, i, k)
					next := current - before + after
					if onSwap != nil {
						onSwap(current, next)
					}
					current = next
					improved = true
				}
			}
		}

		if !improved {
			break
		}
	}

	return tour, passes
}

func reverse(s []int, i, k int) {
	for i < k {
		s[i], s[k] = s[k], s[i]
		i++
		k--
	}
}

// tourCost sums depot -> order... -> depot.
func tourCost(cost [][]float64, order []int) float64 {
	if len(order) == 0 {
		return 0
	}
	total := cost[0][order[0]]
	for i := 1; i < len(order); i++ {
		total += cost[order[i-1]][order[i]]
	}
	return total + cost[order[len(order)-1]][0]
}

// sanitizeCosts copies m, replacing unreachable or invalid cells with penalty
// and zeroing the diagonal.
func sanitizeCosts(m [][]float64, penalty float64) ([][]float64, int) {
	out := make([][]float64, len(m))
	bad := 0
	for i := range m {
		out[i] = make([]float64, len(m[i]))
		for j, v := range m[i] {
			switch {
			case i == j:
				out[i][j] = 0
			case math.IsNaN(v) || math.IsInf(v, 0) || v < 0:
				out[i][j] = penalty
				bad++
			default:
				out[i][j] = v
			}
		}
	}
	return out, bad
}
