package dataset

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/jonesrussell/article-analytics/internal/domain"
)

// iqrFenceFactor is the usual 1.5 IQR fence for outlier counting.
const iqrFenceFactor = 1.5

// AssessQuality computes the data-quality assessment of an observation
// table: per-field completeness, duplicate rows, physically invalid
// negatives, and per-field IQR outlier counts.
func AssessQuality(rows []domain.ObservationRow) domain.DataQualityAssessment {
	assessment := domain.DataQualityAssessment{
		RowCount:       len(rows),
		Completeness:   make(map[string]float64),
		NegativeValues: make(map[string]int),
		Outliers:       make(map[string]int),
	}
	if len(rows) == 0 {
		return assessment
	}

	assessment.DuplicateRows = countDuplicates(rows)

	for _, field := range domain.NumericFields() {
		values := fieldColumn(rows, field)
		assessment.Completeness[field] = completeness(values)
		assessment.Outliers[field] = iqrOutliers(values)
	}

	for _, field := range domain.NonNegativeFields {
		assessment.NegativeValues[field] = countNegatives(fieldColumn(rows, field))
	}

	return assessment
}

// countDuplicates counts rows equal to an earlier row in every field.
func countDuplicates(rows []domain.ObservationRow) int {
	seen := make(map[domain.ObservationRow]struct{}, len(rows))
	duplicates := 0
	for _, row := range rows {
		if _, ok := seen[row]; ok {
			duplicates++
			continue
		}
		seen[row] = struct{}{}
	}
	return duplicates
}

// fieldColumn extracts one numeric field across all rows.
func fieldColumn(rows []domain.ObservationRow, field string) []float64 {
	values := make([]float64, len(rows))
	for i := range rows {
		values[i], _ = rows[i].Field(field)
	}
	return values
}

// completeness is the rate of finite values in a column.
func completeness(values []float64) float64 {
	finite := 0
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite++
		}
	}
	return float64(finite) / float64(len(values))
}

// countNegatives counts strictly negative values.
func countNegatives(values []float64) int {
	negatives := 0
	for _, v := range values {
		if v < 0 {
			negatives++
		}
	}
	return negatives
}

// iqrOutliers counts values outside the 1.5 IQR fences.
func iqrOutliers(values []float64) int {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) < 4 {
		return 0
	}

	sort.Float64s(finite)
	q1 := stat.Quantile(0.25, stat.Empirical, finite, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, finite, nil)
	iqr := q3 - q1
	lower := q1 - iqrFenceFactor*iqr
	upper := q3 + iqrFenceFactor*iqr

	outliers := 0
	for _, v := range finite {
		if v < lower || v > upper {
			outliers++
		}
	}
	return outliers
}
