// Package stats provides the numerical core of the analytics engine:
// ordinary least squares with inference, simple linear regression, and
// descriptive helpers over float64 columns.
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev returns the population standard deviation, or 0 for fewer than
// two values. The population form matches the decomposition's use of
// variability ratios.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return math.Sqrt(stat.PopVariance(values, nil))
}

// SampleStdDev returns the sample standard deviation, or 0 for fewer than
// two values.
func SampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// MinMax returns the smallest and largest values. Both are 0 for an empty
// slice.
func MinMax(values []float64) (minVal, maxVal float64) {
	if len(values) == 0 {
		return 0, 0
	}
	minVal, maxVal = values[0], values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

// Standardize rescales each column of a row-major matrix to zero mean and
// unit variance. Constant columns are centered but not scaled, so they end
// up all zero rather than NaN.
func Standardize(rows [][]float64) [][]float64 {
	if len(rows) == 0 {
		return nil
	}
	cols := len(rows[0])
	means := make([]float64, cols)
	stds := make([]float64, cols)

	column := make([]float64, len(rows))
	for j := 0; j < cols; j++ {
		for i := range rows {
			column[i] = rows[i][j]
		}
		means[j] = Mean(column)
		stds[j] = SampleStdDev(column)
	}

	out := make([][]float64, len(rows))
	for i := range rows {
		out[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			centered := rows[i][j] - means[j]
			if stds[j] > 0 {
				out[i][j] = centered / stds[j]
			} else {
				out[i][j] = 0
			}
		}
	}
	return out
}

// RSquared computes the coefficient of determination of predictions
// against observed values. Returns 0 when the observed values have no
// variance.
func RSquared(observed, predicted []float64) float64 {
	if len(observed) == 0 || len(observed) != len(predicted) {
		return 0
	}
	mean := Mean(observed)
	var sse, sst float64
	for i := range observed {
		resid := observed[i] - predicted[i]
		dev := observed[i] - mean
		sse += resid * resid
		sst += dev * dev
	}
	if sst == 0 {
		return 0
	}
	return 1 - sse/sst
}
