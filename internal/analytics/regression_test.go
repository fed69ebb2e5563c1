package analytics_test

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/article-analytics/internal/analytics"
	"github.com/jonesrussell/article-analytics/internal/domain"
)

// factorRows builds rows where daily page views follow a known linear
// combination of word count, SEO score, and the image flag.
func factorRows(t *testing.T, n int, noise float64) []domain.ObservationRow {
	t.Helper()

	rng := rand.New(rand.NewSource(9))
	rows := make([]domain.ObservationRow, n)
	for i := range rows {
		wc := 400 + rng.Intn(1600)
		seo := 40 + rng.Float64()*60
		img := rng.Intn(2) == 0

		pv := 50 + 0.1*float64(wc) + 2*seo + rng.NormFloat64()*noise
		if img {
			pv += 30
		}

		rows[i] = domain.ObservationRow{
			ArticleID: "a1",
			WordCount: wc,
			SEOScore:  seo,
			HasImages: img,
			PageViews: pv,
		}
	}
	return rows
}

func TestAnalyzeFactors_RecoversCoefficients(t *testing.T) {
	t.Helper()

	rows := factorRows(t, 200, 2)
	engine := newTestEngine(t)

	result, err := engine.AnalyzeFactors(rows, analytics.RegressionOptions{
		Features: []string{domain.FieldWordCount, domain.FieldSEOScore, domain.FieldHasImages},
	})
	require.NoError(t, err)

	coefs := make(map[string]domain.Coefficient, len(result.Coefficients))
	for _, c := range result.Coefficients {
		coefs[c.Feature] = c
	}
	assert.InDelta(t, 0.1, coefs[domain.FieldWordCount].Value, 0.01)
	assert.InDelta(t, 2.0, coefs[domain.FieldSEOScore].Value, 0.1)
	assert.InDelta(t, 30.0, coefs[domain.FieldHasImages].Value, 3)
	for _, c := range result.Coefficients {
		assert.True(t, c.Significant, "coefficient of %s", c.Feature)
	}

	assert.Greater(t, result.Performance.R2Test, 0.9)
	assert.Greater(t, result.Performance.R2Train, 0.9)
	assert.Equal(t, 200, result.RowsUsed)
	assert.Zero(t, result.RowsDropped)
	assert.NotEmpty(t, result.Insights)
	assert.NotEmpty(t, result.Recommendations)
	assert.Contains(t, result.ModelEquation, "predicted_daily_pv")
}

func TestAnalyzeFactors_SortedByMagnitude(t *testing.T) {
	t.Helper()

	rows := factorRows(t, 200, 2)
	engine := newTestEngine(t)

	result, err := engine.AnalyzeFactors(rows, analytics.RegressionOptions{
		Features: []string{domain.FieldWordCount, domain.FieldSEOScore, domain.FieldHasImages},
	})
	require.NoError(t, err)

	for i := 1; i < len(result.Coefficients); i++ {
		assert.GreaterOrEqual(t,
			math.Abs(result.Coefficients[i-1].Value),
			math.Abs(result.Coefficients[i].Value))
	}
}

func TestAnalyzeFactors_DeterministicAcrossRuns(t *testing.T) {
	t.Helper()

	rows := factorRows(t, 100, 5)
	engine := newTestEngine(t)
	opts := analytics.RegressionOptions{
		Features: []string{domain.FieldWordCount, domain.FieldSEOScore},
		Seed:     7,
	}

	first, err := engine.AnalyzeFactors(rows, opts)
	require.NoError(t, err)
	second, err := engine.AnalyzeFactors(rows, opts)
	require.NoError(t, err)

	assert.Equal(t, first.Performance, second.Performance)
	assert.Equal(t, first.Coefficients, second.Coefficients)
}

func TestAnalyzeFactors_DropsNonFiniteRows(t *testing.T) {
	t.Helper()

	rows := factorRows(t, 100, 2)
	rows[3].SEOScore = math.NaN()
	rows[17].PageViews = math.Inf(1)
	engine := newTestEngine(t)

	result, err := engine.AnalyzeFactors(rows, analytics.RegressionOptions{
		Features: []string{domain.FieldWordCount, domain.FieldSEOScore},
	})
	require.NoError(t, err)

	assert.Equal(t, 98, result.RowsUsed)
	assert.Equal(t, 2, result.RowsDropped)
}

func TestAnalyzeFactors_CountsInsignificantFeatures(t *testing.T) {
	t.Helper()

	// Page views depend on word count only; keyword density and bounce rate
	// vary but carry no effect.
	rng := rand.New(rand.NewSource(21))
	rows := make([]domain.ObservationRow, 150)
	for i := range rows {
		wc := 400 + rng.Intn(1600)
		rows[i] = domain.ObservationRow{
			ArticleID:      "a1",
			WordCount:      wc,
			KeywordDensity: rng.Float64() * 5,
			BounceRate:     rng.Float64(),
			PageViews:      50 + 0.1*float64(wc) + rng.NormFloat64()*3,
		}
	}
	engine := newTestEngine(t)

	result, err := engine.AnalyzeFactors(rows, analytics.RegressionOptions{
		Features: []string{domain.FieldWordCount, domain.FieldKeywordDensity, domain.FieldBounceRate},
	})
	require.NoError(t, err)

	insignificant := 0
	for _, c := range result.Coefficients {
		if !c.Significant {
			insignificant++
		}
	}
	require.NotZero(t, insignificant)
	assert.Contains(t, result.Insights, fmt.Sprintf(
		"%d of the 3 features show no statistically significant effect on daily_pv.", insignificant))
}

func TestAnalyzeFactors_UnknownFeature(t *testing.T) {
	t.Helper()

	rows := factorRows(t, 50, 2)
	engine := newTestEngine(t)

	_, err := engine.AnalyzeFactors(rows, analytics.RegressionOptions{
		Features: []string{domain.FieldWordCount, "reading_level"},
	})
	var fieldErr *domain.UnknownFieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "reading_level", fieldErr.Field)
}

func TestAnalyzeFactors_InsufficientData(t *testing.T) {
	t.Helper()

	rows := factorRows(t, 10, 2)
	engine := newTestEngine(t)

	_, err := engine.AnalyzeFactors(rows, analytics.RegressionOptions{})
	var dataErr *domain.InsufficientDataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, 10, dataErr.Rows)
}

func TestAnalyzeFactors_CollinearFeatures(t *testing.T) {
	t.Helper()

	rows := factorRows(t, 80, 2)
	for i := range rows {
		// SEO score becomes an exact multiple of word count.
		rows[i].SEOScore = float64(rows[i].WordCount) * 2
	}
	engine := newTestEngine(t)

	_, err := engine.AnalyzeFactors(rows, analytics.RegressionOptions{
		Features: []string{domain.FieldWordCount, domain.FieldSEOScore},
	})
	var numErr *domain.NumericalInstabilityError
	require.ErrorAs(t, err, &numErr)
	assert.Contains(t, numErr.Features, domain.FieldWordCount)
	assert.Contains(t, numErr.Features, domain.FieldSEOScore)
}
