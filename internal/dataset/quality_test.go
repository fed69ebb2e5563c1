package dataset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/article-analytics/internal/dataset"
	"github.com/jonesrussell/article-analytics/internal/domain"
)

func newQualityRows(t *testing.T) []domain.ObservationRow {
	t.Helper()

	rows, err := dataset.BuildObservations([]domain.ArticlePerformanceRecord{
		newTestRecord(t, "a1"),
		newTestRecord(t, "a2"),
	})
	require.NoError(t, err)
	return rows
}

func TestAssessQuality_CleanTable(t *testing.T) {
	t.Helper()

	assessment := dataset.AssessQuality(newQualityRows(t))

	assert.Equal(t, 6, assessment.RowCount)
	for field, rate := range assessment.Completeness {
		assert.InDelta(t, 1.0, rate, 1e-12, "completeness of %s", field)
	}
	for field, count := range assessment.NegativeValues {
		assert.Zero(t, count, "negatives in %s", field)
	}
}

func TestAssessQuality_Duplicates(t *testing.T) {
	t.Helper()

	rows := newQualityRows(t)
	rows = append(rows, rows[0], rows[1])

	assessment := dataset.AssessQuality(rows)
	assert.Equal(t, 2, assessment.DuplicateRows)
}

func TestAssessQuality_Negatives(t *testing.T) {
	t.Helper()

	rows := newQualityRows(t)
	rows[0].SocialShares = -3
	rows[1].Conversions = -1

	assessment := dataset.AssessQuality(rows)
	assert.Equal(t, 1, assessment.NegativeValues[domain.FieldSocialShares])
	assert.Equal(t, 1, assessment.NegativeValues[domain.FieldConversions])
	assert.Zero(t, assessment.NegativeValues[domain.FieldPageViews])
}

func TestAssessQuality_IQROutliers(t *testing.T) {
	t.Helper()

	// Twelve near-identical days plus one extreme spike.
	rec := newTestRecord(t, "a1")
	rec.PageViewsDaily = []int{100, 101, 99, 100, 102, 98, 100, 101, 99, 100, 5000, 100}
	rec.UniqueUsers = nil
	rec.AvgTimeOnPage = nil
	rec.BounceRate = nil
	rec.SocialShares = nil
	rec.Conversions = nil
	rec.SearchImpressions = nil
	rec.SearchClicks = nil
	rec.AvgPosition = nil

	rows, err := dataset.BuildObservations([]domain.ArticlePerformanceRecord{rec})
	require.NoError(t, err)

	assessment := dataset.AssessQuality(rows)
	assert.Equal(t, 1, assessment.Outliers[domain.FieldPageViews])
}

func TestAssessQuality_Empty(t *testing.T) {
	t.Helper()

	assessment := dataset.AssessQuality(nil)
	assert.Zero(t, assessment.RowCount)
	assert.Zero(t, assessment.DuplicateRows)
}
