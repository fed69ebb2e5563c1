package analytics

import (
	"math"
	"math/rand"
)

const (
	// kMeansRestarts independent initializations; the lowest-inertia run
	// wins.
	kMeansRestarts = 10
	kMeansMaxIter  = 100
)

// runKMeans clusters standardized rows into k groups using k-means++
// seeding, returning the labels and inertia of the best restart. Results
// are fully determined by the rng state.
func runKMeans(data [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	bestLabels := make([]int, len(data))
	bestInertia := math.Inf(1)
	for r := 0; r < kMeansRestarts; r++ {
		labels, inertia := kMeansOnce(data, k, rng)
		if inertia < bestInertia {
			bestInertia = inertia
			copy(bestLabels, labels)
		}
	}
	return bestLabels, bestInertia
}

func kMeansOnce(data [][]float64, k int, rng *rand.Rand) ([]int, float64) {
	centroids := kMeansPlusPlusInit(data, k, rng)
	labels := make([]int, len(data))

	for iter := 0; iter < kMeansMaxIter; iter++ {
		changed := false
		for i, point := range data {
			nearest := nearestCentroid(point, centroids)
			if labels[i] != nearest {
				labels[i] = nearest
				changed = true
			}
		}
		recomputeCentroids(data, labels, centroids)
		if !changed {
			break
		}
	}

	inertia := 0.0
	for i, point := range data {
		inertia += sqDist(point, centroids[labels[i]])
	}
	return labels, inertia
}

// kMeansPlusPlusInit picks the first centroid uniformly and each subsequent
// one with probability proportional to squared distance from the nearest
// chosen centroid.
func kMeansPlusPlusInit(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, cloneVec(data[rng.Intn(len(data))]))

	dists := make([]float64, len(data))
	for len(centroids) < k {
		total := 0.0
		for i, point := range data {
			d := sqDist(point, centroids[0])
			for _, c := range centroids[1:] {
				if dc := sqDist(point, c); dc < d {
					d = dc
				}
			}
			dists[i] = d
			total += d
		}
		if total == 0 {
			// All remaining points coincide with a centroid.
			centroids = append(centroids, cloneVec(data[rng.Intn(len(data))]))
			continue
		}

		target := rng.Float64() * total
		idx := 0
		for ; idx < len(dists)-1; idx++ {
			target -= dists[idx]
			if target <= 0 {
				break
			}
		}
		centroids = append(centroids, cloneVec(data[idx]))
	}
	return centroids
}

func nearestCentroid(point []float64, centroids [][]float64) int {
	best := 0
	bestDist := sqDist(point, centroids[0])
	for c := 1; c < len(centroids); c++ {
		if d := sqDist(point, centroids[c]); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// recomputeCentroids replaces each centroid with the mean of its members.
// An emptied cluster is reseeded from the point farthest from its current
// assignment.
func recomputeCentroids(data [][]float64, labels []int, centroids [][]float64) {
	dims := len(data[0])
	counts := make([]int, len(centroids))
	for c := range centroids {
		for d := 0; d < dims; d++ {
			centroids[c][d] = 0
		}
	}
	for i, point := range data {
		c := labels[i]
		counts[c]++
		for d := 0; d < dims; d++ {
			centroids[c][d] += point[d]
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			copy(centroids[c], data[farthestPoint(data, labels, centroids)])
			continue
		}
		for d := 0; d < dims; d++ {
			centroids[c][d] /= float64(counts[c])
		}
	}
}

func farthestPoint(data [][]float64, labels []int, centroids [][]float64) int {
	worst := 0
	worstDist := -1.0
	for i, point := range data {
		if d := sqDist(point, centroids[labels[i]]); d > worstDist {
			worstDist = d
			worst = i
		}
	}
	return worst
}

// silhouetteScore computes the mean silhouette coefficient over all points.
// Singleton-cluster points score zero. Returns 0 when fewer than two
// clusters are populated.
func silhouetteScore(data [][]float64, labels []int, k int) float64 {
	n := len(data)
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}
	populated := 0
	for _, s := range sizes {
		if s > 0 {
			populated++
		}
	}
	if populated < 2 {
		return 0
	}

	total := 0.0
	sums := make([]float64, k)
	for i := range data {
		for c := range sums {
			sums[c] = 0
		}
		for j := range data {
			if i == j {
				continue
			}
			sums[labels[j]] += math.Sqrt(sqDist(data[i], data[j]))
		}

		own := labels[i]
		if sizes[own] < 2 {
			continue // singleton scores zero
		}
		a := sums[own] / float64(sizes[own]-1)

		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || sizes[c] == 0 {
				continue
			}
			if mean := sums[c] / float64(sizes[c]); mean < b {
				b = mean
			}
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	return total / float64(n)
}

// dbscanNoiseCount counts points that are neither core points (at least
// minPts neighbors within eps, counting themselves) nor within eps of a
// core point.
func dbscanNoiseCount(data [][]float64, eps float64, minPts int) int {
	n := len(data)
	eps2 := eps * eps

	core := make([]bool, n)
	for i := 0; i < n; i++ {
		neighbors := 0
		for j := 0; j < n; j++ {
			if sqDist(data[i], data[j]) <= eps2 {
				neighbors++
			}
		}
		core[i] = neighbors >= minPts
	}

	noise := 0
	for i := 0; i < n; i++ {
		if core[i] {
			continue
		}
		reachable := false
		for j := 0; j < n; j++ {
			if core[j] && sqDist(data[i], data[j]) <= eps2 {
				reachable = true
				break
			}
		}
		if !reachable {
			noise++
		}
	}
	return noise
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func cloneVec(v []float64) []float64 {
	return append([]float64(nil), v...)
}
