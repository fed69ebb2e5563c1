package analytics

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/jonesrussell/article-analytics/internal/domain"
	"github.com/jonesrussell/article-analytics/internal/logger"
	"github.com/jonesrussell/article-analytics/internal/stats"
)

const (
	// Automatic cluster-count selection searches this range by silhouette.
	minAutoClusters = 2
	maxAutoClusters = 10

	// Density parameters for outlier detection in standardized space.
	dbscanEps    = 0.5
	dbscanMinPts = 5

	// notableDeviation is the relative distance from the global mean at
	// which a cluster's feature is called out as characteristic.
	notableDeviation = 0.2

	topArticlesPerCluster = 5
)

// DefaultClusterFeatures describe article behavior for segmentation when a
// request does not choose its own feature set.
var DefaultClusterFeatures = []string{
	domain.FieldWordCount,
	domain.FieldKeywordDensity,
	domain.FieldSEOScore,
	domain.FieldPageViews,
	domain.FieldAvgTimeOnPage,
	domain.FieldBounceRate,
	domain.FieldSocialShares,
	domain.FieldConversions,
	domain.FieldConversionRate,
}

// ClusterOptions parameterizes a clustering run. NumClusters zero selects
// the count automatically by silhouette score.
type ClusterOptions struct {
	Features    []string
	NumClusters int
	Seed        int64
}

// AnalyzeClusters segments observations by k-means over standardized
// behavioral features, profiles each cluster, and counts density outliers.
// With fewer than two usable rows the result carries the insufficient-data
// flag instead of failing.
func (e *Engine) AnalyzeClusters(rows []domain.ObservationRow, opts ClusterOptions) (*domain.ClusterAnalysisResult, error) {
	features := opts.Features
	if len(features) == 0 {
		features = DefaultClusterFeatures
	}
	if err := validateFields(features...); err != nil {
		return nil, err
	}

	matrix, kept := finiteClusterRows(rows, features)
	if len(kept) < minAutoClusters {
		e.log.Warn("Not enough observations for clustering", logger.Int("rows", len(kept)))
		return &domain.ClusterAnalysisResult{InsufficientData: true}, nil
	}

	standardized := stats.Standardize(matrix)
	rng := rand.New(rand.NewSource(e.seedOrDefault(opts.Seed)))

	k, labels, silhouette := selectClusters(standardized, opts.NumClusters, rng)

	result := &domain.ClusterAnalysisResult{
		NumClusters:     k,
		SilhouetteScore: silhouette,
		OutlierCount:    dbscanNoiseCount(standardized, dbscanEps, dbscanMinPts),
		Assignments:     make(map[string]int, len(kept)),
	}

	// Later observations win when an article's days land in different
	// clusters.
	for i, rowIdx := range kept {
		result.Assignments[rows[rowIdx].ArticleID] = labels[i]
	}

	globalMeans := columnMeans(matrix, len(features))
	for c := 0; c < k; c++ {
		result.Profiles = append(result.Profiles,
			buildProfile(rows, kept, matrix, labels, c, features, globalMeans))
	}

	result.Insights = clusterInsights(result)
	result.Recommendations = clusterRecommendations(result)

	e.log.Info("Cluster analysis complete",
		logger.Int("clusters", k),
		logger.Float64("silhouette", silhouette),
		logger.Int("outliers", result.OutlierCount),
	)
	return result, nil
}

// finiteClusterRows extracts the feature matrix, skipping rows with
// non-finite values, and returns the kept row indices.
func finiteClusterRows(rows []domain.ObservationRow, features []string) ([][]float64, []int) {
	matrix := make([][]float64, 0, len(rows))
	kept := make([]int, 0, len(rows))
	for i := range rows {
		vec := make([]float64, len(features))
		ok := true
		for j, field := range features {
			v, _ := rows[i].Field(field)
			if !isFinite(v) {
				ok = false
				break
			}
			vec[j] = v
		}
		if ok {
			matrix = append(matrix, vec)
			kept = append(kept, i)
		}
	}
	return matrix, kept
}

// selectClusters runs k-means for the requested count, or scans the
// automatic range and keeps the silhouette-best labeling.
func selectClusters(standardized [][]float64, requested int, rng *rand.Rand) (int, []int, float64) {
	n := len(standardized)

	if requested > 0 {
		k := requested
		if k > n {
			k = n
		}
		labels, _ := runKMeans(standardized, k, rng)
		return k, labels, silhouetteScore(standardized, labels, k)
	}

	maxK := maxAutoClusters
	if n-1 < maxK {
		maxK = n - 1
	}
	if maxK < minAutoClusters {
		maxK = minAutoClusters
	}

	bestK := minAutoClusters
	var bestLabels []int
	bestScore := -2.0 // below the silhouette floor of -1
	for k := minAutoClusters; k <= maxK; k++ {
		labels, _ := runKMeans(standardized, k, rng)
		score := silhouetteScore(standardized, labels, k)
		if score > bestScore {
			bestScore = score
			bestK = k
			bestLabels = labels
		}
	}
	return bestK, bestLabels, bestScore
}

func columnMeans(matrix [][]float64, cols int) []float64 {
	means := make([]float64, cols)
	if len(matrix) == 0 {
		return means
	}
	for _, row := range matrix {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= float64(len(matrix))
	}
	return means
}

// buildProfile summarizes one cluster in the original feature units.
func buildProfile(rows []domain.ObservationRow, kept []int, matrix [][]float64, labels []int, cluster int, features []string, globalMeans []float64) domain.ClusterProfile {
	profile := domain.ClusterProfile{
		FeatureMeans:   make(map[string]float64, len(features)),
		FeatureStdDevs: make(map[string]float64, len(features)),
	}

	var memberIdx []int
	for i, l := range labels {
		if l == cluster {
			memberIdx = append(memberIdx, i)
		}
	}
	profile.Size = len(memberIdx)
	profile.Percentage = float64(profile.Size) / float64(len(labels)) * 100

	column := make([]float64, len(memberIdx))
	for j, field := range features {
		for mi, i := range memberIdx {
			column[mi] = matrix[i][j]
		}
		mean := stats.Mean(column)
		profile.FeatureMeans[field] = mean
		profile.FeatureStdDevs[field] = stats.SampleStdDev(column)

		if globalMeans[j] > 0 {
			switch ratio := mean / globalMeans[j]; {
			case ratio >= 1+notableDeviation:
				profile.Characteristics = append(profile.Characteristics,
					fmt.Sprintf("%s notably high", field))
			case ratio <= 1-notableDeviation:
				profile.Characteristics = append(profile.Characteristics,
					fmt.Sprintf("%s notably low", field))
			}
		}
	}

	profile.TopArticles = topArticlesByPageViews(rows, kept, memberIdx)
	return profile
}

// topArticlesByPageViews ranks the cluster's observations by daily page
// views and returns up to five distinct article IDs.
func topArticlesByPageViews(rows []domain.ObservationRow, kept, memberIdx []int) []string {
	ranked := append([]int(nil), memberIdx...)
	sort.SliceStable(ranked, func(a, b int) bool {
		return rows[kept[ranked[a]]].PageViews > rows[kept[ranked[b]]].PageViews
	})

	seen := make(map[string]struct{}, topArticlesPerCluster)
	var top []string
	for _, i := range ranked {
		id := rows[kept[i]].ArticleID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		top = append(top, id)
		if len(top) == topArticlesPerCluster {
			break
		}
	}
	return top
}

func clusterInsights(r *domain.ClusterAnalysisResult) []string {
	insights := []string{
		fmt.Sprintf("Observations fall into %d behavioral clusters (silhouette score %.2f).",
			r.NumClusters, r.SilhouetteScore),
	}

	largest, best := 0, 0
	for c, p := range r.Profiles {
		if p.Size > r.Profiles[largest].Size {
			largest = c
		}
		if p.FeatureMeans[domain.FieldPageViews] > r.Profiles[best].FeatureMeans[domain.FieldPageViews] {
			best = c
		}
	}
	if len(r.Profiles) > 0 {
		insights = append(insights, fmt.Sprintf("The largest cluster holds %.1f%% of observations.",
			r.Profiles[largest].Percentage))
		insights = append(insights, fmt.Sprintf("Cluster %d performs best on page views (mean %.1f/day).",
			best, r.Profiles[best].FeatureMeans[domain.FieldPageViews]))
		for _, ch := range r.Profiles[best].Characteristics {
			insights = append(insights, fmt.Sprintf("Top cluster trait: %s.", ch))
		}
	}
	if r.OutlierCount > 0 {
		insights = append(insights, fmt.Sprintf("%d observations sit outside any dense region and behave atypically.",
			r.OutlierCount))
	}
	return insights
}

func clusterRecommendations(r *domain.ClusterAnalysisResult) []string {
	recs := []string{
		"Study the top-performing cluster's articles and replicate their content attributes.",
		"Tailor promotion strategy per cluster rather than applying one playbook to all articles.",
	}
	if r.OutlierCount > 0 {
		recs = append(recs, "Review outlier observations individually; they may be data errors or genuine viral events.")
	}
	return recs
}
