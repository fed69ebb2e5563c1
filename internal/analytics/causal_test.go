package analytics_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/article-analytics/internal/analytics"
	"github.com/jonesrussell/article-analytics/internal/domain"
	"github.com/jonesrussell/article-analytics/internal/logger"
)

func newTestEngine(t *testing.T) *analytics.Engine {
	t.Helper()
	return analytics.NewEngine(logger.NewNop(), 42)
}

// seriesRows builds one observation row per day for an article, with the
// daily page views supplied by values.
func seriesRows(t *testing.T, articleID string, start time.Time, values []float64) []domain.ObservationRow {
	t.Helper()

	rows := make([]domain.ObservationRow, len(values))
	for i, v := range values {
		date := start.AddDate(0, 0, i)
		rows[i] = domain.ObservationRow{
			ArticleID:       articleID,
			PublishDate:     start,
			Date:            date,
			DaySincePublish: i,
			Weekday:         (int(date.Weekday()) + 6) % 7,
			PageViews:       v,
		}
	}
	return rows
}

// stepSeries returns n daily values at base, jumping to base+lift from day
// stepAt onward, with Gaussian noise.
func stepSeries(t *testing.T, rng *rand.Rand, n, stepAt int, base, lift, noise float64) []float64 {
	t.Helper()

	values := make([]float64, n)
	for i := range values {
		values[i] = base + rng.NormFloat64()*noise
		if i >= stepAt {
			values[i] += lift
		}
	}
	return values
}

func TestDifferenceInDifferences_KnownEffect(t *testing.T) {
	t.Helper()

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	intervention := start.AddDate(0, 0, 14)
	rng := rand.New(rand.NewSource(42))

	// Treatment jumps from 100 to 150 at the intervention; control holds
	// at 100 throughout.
	rows := seriesRows(t, "treated-1", start, stepSeries(t, rng, 28, 14, 100, 50, 1))
	rows = append(rows, seriesRows(t, "control-1", start, stepSeries(t, rng, 28, 14, 100, 0, 1))...)

	engine := newTestEngine(t)
	result, err := engine.DifferenceInDifferences(rows, analytics.CausalOptions{
		TreatmentGroup:   []string{"treated-1"},
		ControlGroup:     []string{"control-1"},
		InterventionDate: intervention,
	})
	require.NoError(t, err)

	assert.InDelta(t, 50, result.TreatmentEffect, 3)
	assert.True(t, result.Significant)
	assert.Equal(t, domain.EffectSizeLarge, result.EffectSize)
	assert.True(t, result.BaselineReliable)
	assert.InDelta(t, 50, result.EffectSizePct, 5)
	assert.LessOrEqual(t, result.ConfidenceInterval.Lower, result.TreatmentEffect)
	assert.GreaterOrEqual(t, result.ConfidenceInterval.Upper, result.TreatmentEffect)
	assert.NotEmpty(t, result.Interpretation)
	assert.Equal(t, domain.FieldPageViews, result.Outcome)

	// A significant large positive effect carries the emphasis line on top
	// of the rollout advice.
	require.Len(t, result.Recommendations, 3)
	assert.Contains(t, result.Recommendations[2], "effect size is large")
}

func TestDifferenceInDifferences_NoEffect(t *testing.T) {
	t.Helper()

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(1))

	rows := seriesRows(t, "treated-1", start, stepSeries(t, rng, 28, 14, 100, 0, 5))
	rows = append(rows, seriesRows(t, "control-1", start, stepSeries(t, rng, 28, 14, 100, 0, 5))...)

	engine := newTestEngine(t)
	result, err := engine.DifferenceInDifferences(rows, analytics.CausalOptions{
		TreatmentGroup:   []string{"treated-1"},
		ControlGroup:     []string{"control-1"},
		InterventionDate: start.AddDate(0, 0, 14),
	})
	require.NoError(t, err)

	assert.False(t, result.Significant)
	assert.Equal(t, domain.EffectSizeSmall, result.EffectSize)
}

func TestDifferenceInDifferences_InvalidGroups(t *testing.T) {
	t.Helper()

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	rows := seriesRows(t, "a1", start, make([]float64, 10))
	rows = append(rows, seriesRows(t, "a2", start, make([]float64, 10))...)
	engine := newTestEngine(t)

	cases := []struct {
		name      string
		treatment []string
		control   []string
	}{
		{"empty control", []string{"a1"}, nil},
		{"empty treatment", nil, []string{"a2"}},
		{"overlapping", []string{"a1"}, []string{"a1"}},
		{"unknown treatment id", []string{"missing"}, []string{"a2"}},
		{"unknown control id", []string{"a1"}, []string{"missing"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Helper()

			_, err := engine.DifferenceInDifferences(rows, analytics.CausalOptions{
				TreatmentGroup:   tc.treatment,
				ControlGroup:     tc.control,
				InterventionDate: start.AddDate(0, 0, 5),
			})
			var groupErr *domain.InvalidGroupError
			require.ErrorAs(t, err, &groupErr)
		})
	}
}

func TestDifferenceInDifferences_UnknownOutcome(t *testing.T) {
	t.Helper()

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	rows := seriesRows(t, "a1", start, make([]float64, 10))
	engine := newTestEngine(t)

	_, err := engine.DifferenceInDifferences(rows, analytics.CausalOptions{
		TreatmentGroup:   []string{"a1"},
		ControlGroup:     []string{"a1"},
		InterventionDate: start,
		Outcome:          "page_view_velocity",
	})
	var fieldErr *domain.UnknownFieldError
	require.ErrorAs(t, err, &fieldErr)
	assert.Equal(t, "page_view_velocity", fieldErr.Field)
}

func TestDifferenceInDifferences_InsufficientData(t *testing.T) {
	t.Helper()

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	rows := seriesRows(t, "a1", start, []float64{1, 2, 3})
	rows = append(rows, seriesRows(t, "a2", start, []float64{1, 2, 3})...)
	engine := newTestEngine(t)

	_, err := engine.DifferenceInDifferences(rows, analytics.CausalOptions{
		TreatmentGroup:   []string{"a1"},
		ControlGroup:     []string{"a2"},
		InterventionDate: start.AddDate(0, 0, 1),
	})
	var dataErr *domain.InsufficientDataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, 6, dataErr.Rows)
}

func TestDifferenceInDifferences_AllRowsPreIntervention(t *testing.T) {
	t.Helper()

	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	rng := rand.New(rand.NewSource(3))
	rows := seriesRows(t, "a1", start, stepSeries(t, rng, 14, 14, 100, 0, 2))
	rows = append(rows, seriesRows(t, "a2", start, stepSeries(t, rng, 14, 14, 100, 0, 2))...)
	engine := newTestEngine(t)

	// Intervention after the observation window: the post and interaction
	// columns are identically zero.
	_, err := engine.DifferenceInDifferences(rows, analytics.CausalOptions{
		TreatmentGroup:   []string{"a1"},
		ControlGroup:     []string{"a2"},
		InterventionDate: start.AddDate(0, 0, 60),
	})
	var numErr *domain.NumericalInstabilityError
	require.ErrorAs(t, err, &numErr)
}
