package stats_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/article-analytics/internal/stats"
)

// syntheticData generates rows following y = 2 + 3*x1 - 1.5*x2 + noise.
func syntheticData(t *testing.T, n int, noise float64) ([][]float64, []float64) {
	t.Helper()

	rng := rand.New(rand.NewSource(7))
	predictors := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1 := rng.Float64() * 10
		x2 := rng.Float64() * 5
		predictors[i] = []float64{x1, x2}
		y[i] = 2 + 3*x1 - 1.5*x2 + rng.NormFloat64()*noise
	}
	return predictors, y
}

func TestFitOLS_RecoversCoefficients(t *testing.T) {
	t.Helper()

	predictors, y := syntheticData(t, 200, 0.1)

	model, err := stats.FitOLS(predictors, y)
	require.NoError(t, err)

	assert.InDelta(t, 2.0, model.Coefficients[0], 0.1)
	assert.InDelta(t, 3.0, model.Coefficients[1], 0.05)
	assert.InDelta(t, -1.5, model.Coefficients[2], 0.05)
	assert.Greater(t, model.R2, 0.99)

	// Strong predictors are significant at any reasonable level.
	assert.Less(t, model.PValues[1], 0.001)
	assert.Less(t, model.PValues[2], 0.001)

	// Confidence intervals bracket the estimates.
	for j := range model.Coefficients {
		assert.LessOrEqual(t, model.CILower[j], model.Coefficients[j])
		assert.GreaterOrEqual(t, model.CIUpper[j], model.Coefficients[j])
	}
}

func TestFitOLS_Deterministic(t *testing.T) {
	t.Helper()

	predictors, y := syntheticData(t, 80, 1.0)

	first, err := stats.FitOLS(predictors, y)
	require.NoError(t, err)
	second, err := stats.FitOLS(predictors, y)
	require.NoError(t, err)

	assert.Equal(t, first.Coefficients, second.Coefficients)
	assert.Equal(t, first.PValues, second.PValues)
}

func TestFitOLS_SingularDesign(t *testing.T) {
	t.Helper()

	// Second predictor is an exact multiple of the first.
	predictors := make([][]float64, 30)
	y := make([]float64, 30)
	for i := range predictors {
		x := float64(i)
		predictors[i] = []float64{x, 2 * x}
		y[i] = x
	}

	_, err := stats.FitOLS(predictors, y)
	require.ErrorIs(t, err, stats.ErrSingular)
}

func TestFitOLS_TooFewRows(t *testing.T) {
	t.Helper()

	predictors := [][]float64{{1, 2}, {3, 4}}
	y := []float64{1, 2}

	_, err := stats.FitOLS(predictors, y)
	require.ErrorIs(t, err, stats.ErrTooFewRows)
}

func TestFitOLS_Predict(t *testing.T) {
	t.Helper()

	predictors, y := syntheticData(t, 100, 0.01)
	model, err := stats.FitOLS(predictors, y)
	require.NoError(t, err)

	preds := model.Predict(predictors)
	assert.Greater(t, stats.RSquared(y, preds), 0.999)
}

func TestFitSimple_KnownSlope(t *testing.T) {
	t.Helper()

	xs := make([]float64, 50)
	ys := make([]float64, 50)
	rng := rand.New(rand.NewSource(11))
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = 4 + 0.5*xs[i] + rng.NormFloat64()*0.2
	}

	reg := stats.FitSimple(xs, ys)
	assert.InDelta(t, 0.5, reg.Slope, 0.02)
	assert.InDelta(t, 4.0, reg.Intercept, 0.5)
	assert.Greater(t, reg.R2, 0.99)
	assert.Less(t, reg.PValue, 0.001)
}

func TestFitSimple_ConstantSeries(t *testing.T) {
	t.Helper()

	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{7, 7, 7, 7, 7}

	reg := stats.FitSimple(xs, ys)
	assert.Zero(t, reg.Slope)
	assert.Equal(t, 1.0, reg.PValue)
}

func TestStandardize(t *testing.T) {
	t.Helper()

	rows := [][]float64{{1, 100}, {2, 100}, {3, 100}}
	out := stats.Standardize(rows)

	col := []float64{out[0][0], out[1][0], out[2][0]}
	assert.InDelta(t, 0, stats.Mean(col), 1e-12)
	// Constant column becomes all zeros, not NaN.
	for i := range out {
		assert.Zero(t, out[i][1])
	}
}
