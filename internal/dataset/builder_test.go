package dataset_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/article-analytics/internal/dataset"
	"github.com/jonesrussell/article-analytics/internal/domain"
)

// newTestRecord builds a record with a 3-day window and full sequences.
func newTestRecord(t *testing.T, id string) domain.ArticlePerformanceRecord {
	t.Helper()

	return domain.ArticlePerformanceRecord{
		ArticleID:   id,
		Title:       "Test article",
		PublishDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), // a Monday
		WordCount:   1200,
		SEOScore:    80,
		Tone:        "formal",
		Author:      "author_a",
		Category:    "gardening",

		PageViewsDaily:    []int{100, 150, 200},
		UniqueUsers:       []int{80, 120, 160},
		AvgTimeOnPage:     []float64{3.5, 4.0, 4.2},
		BounceRate:        []float64{0.3, 0.25, 0.2},
		SocialShares:      []int{5, 8, 12},
		Conversions:       []int{2, 3, 5},
		SearchImpressions: []int{1000, 1200, 1500},
		SearchClicks:      []int{50, 70, 90},
		AvgPosition:       []float64{8.5, 7.2, 6.1},

		Tags:                []string{"images"},
		PromotionActivities: []string{"social_media"},
	}
}

func TestBuildObservations_RowCountAndOrder(t *testing.T) {
	t.Helper()

	records := []domain.ArticlePerformanceRecord{
		newTestRecord(t, "a1"),
		newTestRecord(t, "a2"),
	}

	rows, err := dataset.BuildObservations(records)
	require.NoError(t, err)
	require.Len(t, rows, 6)

	// Article then day, stable order, day index within the window.
	for i, row := range rows {
		wantArticle := "a1"
		if i >= 3 {
			wantArticle = "a2"
		}
		assert.Equal(t, wantArticle, row.ArticleID)
		assert.Equal(t, i%3, row.DaySincePublish)
		wantDate := row.PublishDate.AddDate(0, 0, row.DaySincePublish)
		assert.True(t, row.Date.Equal(wantDate))
	}
}

func TestBuildObservations_DerivedFields(t *testing.T) {
	t.Helper()

	rows, err := dataset.BuildObservations([]domain.ArticlePerformanceRecord{newTestRecord(t, "a1")})
	require.NoError(t, err)

	first := rows[0]
	assert.InDelta(t, 50.0/1000.0, first.CTR, 1e-12)
	assert.InDelta(t, 2.0/80.0, first.ConversionRate, 1e-12)
	assert.InDelta(t, 3.5*(1-0.3)*5, first.EngagementScore, 1e-12)

	// Published on a Monday: weekday 0, not a weekend.
	assert.Equal(t, 0, first.Weekday)
	assert.False(t, first.IsWeekend)
	assert.Equal(t, 2, rows[2].Weekday)
	assert.Equal(t, 6, first.Month)

	assert.True(t, first.HasImages)
	assert.False(t, first.HasVideo)
	assert.True(t, first.PromotedOnSocial)
	assert.False(t, first.EmailPromoted)
}

func TestBuildObservations_ShortSequencesZeroFilled(t *testing.T) {
	t.Helper()

	rec := newTestRecord(t, "a1")
	rec.SearchImpressions = []int{1000} // shorter than the 3-day window
	rec.SearchClicks = []int{50}

	rows, err := dataset.BuildObservations([]domain.ArticlePerformanceRecord{rec})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.InDelta(t, 0.05, rows[0].CTR, 1e-12)
	// Missing days default to zero and never divide by zero.
	assert.Zero(t, rows[1].SearchImpressions)
	assert.Zero(t, rows[1].CTR)
	assert.Zero(t, rows[2].CTR)
}

func TestBuildObservations_CTRRange(t *testing.T) {
	t.Helper()

	rows, err := dataset.BuildObservations([]domain.ArticlePerformanceRecord{newTestRecord(t, "a1")})
	require.NoError(t, err)

	for _, row := range rows {
		assert.GreaterOrEqual(t, row.CTR, 0.0)
		assert.LessOrEqual(t, row.CTR, 1.0)
	}
}

func TestBuildObservations_EmptyPageViews(t *testing.T) {
	t.Helper()

	rec := newTestRecord(t, "a1")
	rec.PageViewsDaily = nil

	_, err := dataset.BuildObservations([]domain.ArticlePerformanceRecord{rec})
	require.Error(t, err)

	var dimErr *domain.DimensionMismatchError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, "a1", dimErr.ArticleID)
}

func TestBuildObservations_BounceRateAtOne(t *testing.T) {
	t.Helper()

	rec := newTestRecord(t, "a1")
	rec.BounceRate = []float64{1.0, 1.2, 0.5}

	rows, err := dataset.BuildObservations([]domain.ArticlePerformanceRecord{rec})
	require.NoError(t, err)

	assert.Zero(t, rows[0].EngagementScore)
	assert.Zero(t, rows[1].EngagementScore)
	assert.Greater(t, rows[2].EngagementScore, 0.0)
}
