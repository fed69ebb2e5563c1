package analytics_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/article-analytics/internal/analytics"
	"github.com/jonesrussell/article-analytics/internal/domain"
)

var clusterTestFeatures = []string{domain.FieldPageViews, domain.FieldAvgTimeOnPage}

// clusteredRows builds three well-separated behavioral groups of 20
// articles each.
func clusteredRows(t *testing.T) []domain.ObservationRow {
	t.Helper()

	centers := []struct {
		pv, timeOnPage float64
	}{
		{100, 30},
		{1000, 120},
		{5000, 300},
	}

	rng := rand.New(rand.NewSource(5))
	var rows []domain.ObservationRow
	for c, center := range centers {
		for i := 0; i < 20; i++ {
			rows = append(rows, domain.ObservationRow{
				ArticleID:     fmt.Sprintf("g%d-a%d", c, i),
				PageViews:     center.pv + rng.NormFloat64()*20,
				AvgTimeOnPage: center.timeOnPage + rng.NormFloat64()*3,
			})
		}
	}
	return rows
}

func TestAnalyzeClusters_RecoversGroups(t *testing.T) {
	t.Helper()

	rows := clusteredRows(t)
	engine := newTestEngine(t)

	result, err := engine.AnalyzeClusters(rows, analytics.ClusterOptions{
		Features: clusterTestFeatures,
	})
	require.NoError(t, err)

	assert.False(t, result.InsufficientData)
	assert.Equal(t, 3, result.NumClusters)
	assert.Greater(t, result.SilhouetteScore, 0.5)
	assert.Len(t, result.Profiles, 3)
	assert.Len(t, result.Assignments, 60)

	// Every article in one source group lands in the same cluster.
	for g := 0; g < 3; g++ {
		first := result.Assignments[fmt.Sprintf("g%d-a0", g)]
		for i := 1; i < 20; i++ {
			assert.Equal(t, first, result.Assignments[fmt.Sprintf("g%d-a%d", g, i)],
				"group %d article %d", g, i)
		}
	}

	sizes := 0
	for _, p := range result.Profiles {
		assert.Equal(t, 20, p.Size)
		assert.NotEmpty(t, p.TopArticles)
		assert.LessOrEqual(t, len(p.TopArticles), 5)
		sizes += p.Size
	}
	assert.Equal(t, 60, sizes)
	assert.NotEmpty(t, result.Insights)
	assert.NotEmpty(t, result.Recommendations)
}

func TestAnalyzeClusters_ExplicitCount(t *testing.T) {
	t.Helper()

	rows := clusteredRows(t)
	engine := newTestEngine(t)

	result, err := engine.AnalyzeClusters(rows, analytics.ClusterOptions{
		Features:    clusterTestFeatures,
		NumClusters: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.NumClusters)
	assert.Len(t, result.Profiles, 2)
}

func TestAnalyzeClusters_DeterministicForSeed(t *testing.T) {
	t.Helper()

	rows := clusteredRows(t)
	engine := newTestEngine(t)
	opts := analytics.ClusterOptions{Features: clusterTestFeatures, Seed: 11}

	first, err := engine.AnalyzeClusters(rows, opts)
	require.NoError(t, err)
	second, err := engine.AnalyzeClusters(rows, opts)
	require.NoError(t, err)

	assert.Equal(t, first.NumClusters, second.NumClusters)
	assert.Equal(t, first.SilhouetteScore, second.SilhouetteScore)
	assert.Equal(t, first.Assignments, second.Assignments)
}

func TestAnalyzeClusters_DetectsOutlier(t *testing.T) {
	t.Helper()

	rows := clusteredRows(t)
	rows = append(rows, domain.ObservationRow{
		ArticleID:     "viral-1",
		PageViews:     50000,
		AvgTimeOnPage: 1000,
	})
	engine := newTestEngine(t)

	result, err := engine.AnalyzeClusters(rows, analytics.ClusterOptions{
		Features:    clusterTestFeatures,
		NumClusters: 3,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.OutlierCount, 1)
}

func TestAnalyzeClusters_InsufficientData(t *testing.T) {
	t.Helper()

	rows := []domain.ObservationRow{{ArticleID: "a1", PageViews: 100}}
	engine := newTestEngine(t)

	result, err := engine.AnalyzeClusters(rows, analytics.ClusterOptions{
		Features: clusterTestFeatures,
	})
	require.NoError(t, err)
	assert.True(t, result.InsufficientData)
	assert.Zero(t, result.NumClusters)
}

func TestAnalyzeClusters_UnknownFeature(t *testing.T) {
	t.Helper()

	engine := newTestEngine(t)
	_, err := engine.AnalyzeClusters(clusteredRows(t), analytics.ClusterOptions{
		Features: []string{"scroll_depth"},
	})
	var fieldErr *domain.UnknownFieldError
	require.ErrorAs(t, err, &fieldErr)
}
