// Package analytics implements the performance analytics engine: causal
// effect estimation, regression factor analysis, behavioral clustering,
// time-series decomposition, and the comprehensive report aggregating them.
//
// The engine is a pure computation layer. It accepts in-memory observation
// tables and per-call parameters and returns structured results; loading
// records and serving results belong to the storage and API layers.
package analytics

import (
	"github.com/jonesrussell/article-analytics/internal/dataset"
	"github.com/jonesrussell/article-analytics/internal/domain"
	"github.com/jonesrussell/article-analytics/internal/logger"
)

// significanceLevel is the p-value threshold used across all analyses.
const significanceLevel = 0.05

// Engine runs statistical analyses over article performance observations.
// The category encoder is the engine's only persistent mutable state; its
// code assignments survive across analyses so repeated runs against the
// same engine instance produce comparable codes.
type Engine struct {
	log         logger.Logger
	encoder     *dataset.CategoryEncoder
	defaultSeed int64
}

// NewEngine creates an engine with a fresh category encoder.
func NewEngine(log logger.Logger, defaultSeed int64) *Engine {
	return &Engine{
		log:         log,
		encoder:     dataset.NewCategoryEncoder(),
		defaultSeed: defaultSeed,
	}
}

// PrepareDataset flattens records into the observation table and assigns
// category codes. The returned rows are treated as immutable by every
// analysis.
func (e *Engine) PrepareDataset(records []domain.ArticlePerformanceRecord) ([]domain.ObservationRow, error) {
	rows, err := dataset.BuildObservations(records)
	if err != nil {
		return nil, err
	}
	e.encoder.Apply(rows)

	e.log.Debug("Observation table prepared",
		logger.Int("records", len(records)),
		logger.Int("rows", len(rows)),
	)
	return rows, nil
}

// seedOrDefault resolves a request seed, falling back to the engine default.
func (e *Engine) seedOrDefault(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return e.defaultSeed
}

// column extracts the named field from every row. The field name must have
// been validated beforehand.
func column(rows []domain.ObservationRow, field string) []float64 {
	values := make([]float64, len(rows))
	for i := range rows {
		values[i], _ = rows[i].Field(field)
	}
	return values
}

// featureMatrix extracts the named fields from every row in order.
func featureMatrix(rows []domain.ObservationRow, fields []string) [][]float64 {
	matrix := make([][]float64, len(rows))
	for i := range rows {
		matrix[i] = make([]float64, len(fields))
		for j, field := range fields {
			matrix[i][j], _ = rows[i].Field(field)
		}
	}
	return matrix
}

// validateFields returns an UnknownFieldError for the first name that does
// not address a numeric observation field.
func validateFields(names ...string) error {
	for _, name := range names {
		if !domain.IsNumericField(name) {
			return &domain.UnknownFieldError{Field: name}
		}
	}
	return nil
}
