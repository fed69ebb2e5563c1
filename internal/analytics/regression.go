package analytics

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/jonesrussell/article-analytics/internal/domain"
	"github.com/jonesrussell/article-analytics/internal/logger"
	"github.com/jonesrussell/article-analytics/internal/stats"
)

const (
	// holdoutFraction of the rows is reserved for out-of-sample scoring.
	holdoutFraction = 0.2

	// vifWarnThreshold flags problematic multicollinearity.
	vifWarnThreshold = 10.0

	// vifCap bounds reported variance inflation so a perfectly collinear
	// feature stays JSON-encodable.
	vifCap = 1e6
)

// DefaultRegressionFeatures are the content and context attributes used
// when a request does not choose its own feature set.
var DefaultRegressionFeatures = []string{
	domain.FieldWordCount,
	domain.FieldKeywordDensity,
	domain.FieldSEOScore,
	domain.FieldToneCode,
	domain.FieldAuthorCode,
	domain.FieldCategoryCode,
	domain.FieldDaySincePublish,
	domain.FieldWeekday,
	domain.FieldHasImages,
	domain.FieldHasVideo,
	domain.FieldPromotedOnSocial,
	domain.FieldEmailPromoted,
}

// RegressionOptions parameterizes a factor analysis run. Zero values fall
// back to the page-view target, the default feature set, and the engine
// seed.
type RegressionOptions struct {
	Target   string
	Features []string
	Seed     int64
}

// AnalyzeFactors fits an OLS model of the target on the chosen features,
// scores it on a seeded holdout split, and reports coefficients with
// inference, variance inflation, and rule-based insights. Rows containing
// non-finite values are dropped and counted.
func (e *Engine) AnalyzeFactors(rows []domain.ObservationRow, opts RegressionOptions) (*domain.RegressionResult, error) {
	target := opts.Target
	if target == "" {
		target = domain.FieldPageViews
	}
	features := opts.Features
	if len(features) == 0 {
		features = DefaultRegressionFeatures
	}
	if err := validateFields(append([]string{target}, features...)...); err != nil {
		return nil, err
	}

	matrix, y, dropped := finiteRows(featureMatrix(rows, features), column(rows, target))

	// The holdout split must leave the training fit with positive residual
	// degrees of freedom for the requested feature set.
	minimum := minRegressionRows(len(features))
	if len(y) < minimum {
		return nil, &domain.InsufficientDataError{
			Analysis: "regression factor analysis",
			Rows:     len(y),
			Minimum:  minimum,
		}
	}

	// Constant features carry no information and would make the design
	// matrix singular alongside the intercept.
	matrix, features = dropConstantFeatures(matrix, features)
	if len(features) == 0 {
		return nil, &domain.NumericalInstabilityError{}
	}

	vifs := varianceInflation(matrix, features)

	model, err := stats.FitOLS(matrix, y)
	if err != nil {
		if errors.Is(err, stats.ErrSingular) {
			return nil, &domain.NumericalInstabilityError{Features: highVIFNames(vifs)}
		}
		return nil, fmt.Errorf("fit factor model: %w", err)
	}

	r2Train, r2Test, err := holdoutScores(matrix, y, e.seedOrDefault(opts.Seed))
	if err != nil {
		if errors.Is(err, stats.ErrSingular) {
			return nil, &domain.NumericalInstabilityError{Features: highVIFNames(vifs)}
		}
		return nil, fmt.Errorf("score holdout split: %w", err)
	}

	result := &domain.RegressionResult{
		Target: target,
		Performance: domain.ModelPerformance{
			R2Train:    r2Train,
			R2Test:     r2Test,
			AdjustedR2: model.AdjustedR2,
			FStatistic: model.FStatistic,
			FPValue:    model.FPValue,
		},
		Multicollinearity: vifs,
		FeatureImportance: make(map[string]float64, len(features)),
		RowsUsed:          len(y),
		RowsDropped:       dropped,
	}

	// Coefficient table from the full-sample fit, largest magnitude first.
	for j, feature := range features {
		coef := domain.Coefficient{
			Feature:     feature,
			Value:       model.Coefficients[j+1],
			PValue:      model.PValues[j+1],
			Significant: model.PValues[j+1] < significanceLevel,
		}
		result.Coefficients = append(result.Coefficients, coef)
		result.FeatureImportance[feature] = math.Abs(coef.Value)
	}
	sort.SliceStable(result.Coefficients, func(i, k int) bool {
		return math.Abs(result.Coefficients[i].Value) > math.Abs(result.Coefficients[k].Value)
	})

	result.ModelEquation = modelEquation(target, model.Coefficients[0], result.Coefficients)
	result.Insights = regressionInsights(result)
	result.Recommendations = regressionRecommendations(result)

	e.log.Info("Factor analysis complete",
		logger.String("target", target),
		logger.Float64("r2_test", r2Test),
		logger.Int("rows_used", result.RowsUsed),
		logger.Int("rows_dropped", result.RowsDropped),
	)
	return result, nil
}

// minRegressionRows returns the smallest row count whose training portion
// still has positive residual degrees of freedom after the holdout split.
func minRegressionRows(featureCount int) int {
	needed := featureCount + 2
	return int(math.Ceil(float64(needed) / (1 - holdoutFraction)))
}

// finiteRows filters out rows with a NaN or infinite value in any feature
// or the target.
func finiteRows(matrix [][]float64, y []float64) ([][]float64, []float64, int) {
	keptX := make([][]float64, 0, len(y))
	keptY := make([]float64, 0, len(y))
	dropped := 0
rowLoop:
	for i := range y {
		if !isFinite(y[i]) {
			dropped++
			continue
		}
		for _, v := range matrix[i] {
			if !isFinite(v) {
				dropped++
				continue rowLoop
			}
		}
		keptX = append(keptX, matrix[i])
		keptY = append(keptY, y[i])
	}
	return keptX, keptY, dropped
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// dropConstantFeatures removes columns with no variance across the kept
// rows, returning the reduced matrix and the surviving feature names.
func dropConstantFeatures(matrix [][]float64, features []string) ([][]float64, []string) {
	if len(matrix) == 0 {
		return matrix, features
	}
	varying := make([]int, 0, len(features))
	for j := range features {
		for i := 1; i < len(matrix); i++ {
			if matrix[i][j] != matrix[0][j] {
				varying = append(varying, j)
				break
			}
		}
	}
	if len(varying) == len(features) {
		return matrix, features
	}

	kept := make([]string, len(varying))
	for idx, j := range varying {
		kept[idx] = features[j]
	}
	reduced := make([][]float64, len(matrix))
	for i, row := range matrix {
		reduced[i] = make([]float64, len(varying))
		for idx, j := range varying {
			reduced[i][idx] = row[j]
		}
	}
	return reduced, kept
}

// holdoutScores refits on a seeded train split and scores both partitions.
// With too few rows for a holdout the training score is reported for both.
func holdoutScores(matrix [][]float64, y []float64, seed int64) (r2Train, r2Test float64, err error) {
	n := len(y)
	testSize := int(float64(n) * holdoutFraction)

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(n)

	trainX := make([][]float64, 0, n-testSize)
	trainY := make([]float64, 0, n-testSize)
	testX := make([][]float64, 0, testSize)
	testY := make([]float64, 0, testSize)
	for i, idx := range perm {
		if i < testSize {
			testX = append(testX, matrix[idx])
			testY = append(testY, y[idx])
		} else {
			trainX = append(trainX, matrix[idx])
			trainY = append(trainY, y[idx])
		}
	}

	trainModel, err := stats.FitOLS(trainX, trainY)
	if err != nil {
		return 0, 0, err
	}
	r2Train = trainModel.R2
	if testSize == 0 {
		return r2Train, r2Train, nil
	}
	return r2Train, stats.RSquared(testY, trainModel.Predict(testX)), nil
}

// varianceInflation regresses each feature on the remaining features. A
// collinear feature gets the capped value.
func varianceInflation(matrix [][]float64, features []string) []domain.VIFEntry {
	p := len(features)
	entries := make([]domain.VIFEntry, p)
	for j := range features {
		entries[j] = domain.VIFEntry{Feature: features[j], VIF: 1}
		if p < 2 {
			continue
		}

		others := make([][]float64, len(matrix))
		target := make([]float64, len(matrix))
		for i, row := range matrix {
			others[i] = make([]float64, 0, p-1)
			for k, v := range row {
				if k == j {
					target[i] = v
				} else {
					others[i] = append(others[i], v)
				}
			}
		}

		model, err := stats.FitOLS(others, target)
		if err != nil {
			entries[j].VIF = vifCap
			continue
		}
		denom := 1 - model.R2
		if denom <= 1/vifCap {
			entries[j].VIF = vifCap
		} else {
			entries[j].VIF = 1 / denom
		}
	}
	return entries
}

// highVIFNames lists the features above the warning threshold, worst first.
func highVIFNames(vifs []domain.VIFEntry) []string {
	flagged := make([]domain.VIFEntry, 0, len(vifs))
	for _, entry := range vifs {
		if entry.VIF > vifWarnThreshold {
			flagged = append(flagged, entry)
		}
	}
	sort.SliceStable(flagged, func(i, k int) bool { return flagged[i].VIF > flagged[k].VIF })

	names := make([]string, len(flagged))
	for i, entry := range flagged {
		names[i] = entry.Feature
	}
	return names
}

// modelEquation renders the fitted model with terms in reported order.
func modelEquation(target string, intercept float64, coefs []domain.Coefficient) string {
	var b strings.Builder
	fmt.Fprintf(&b, "predicted_%s = %.3f", target, intercept)
	for _, c := range coefs {
		fmt.Fprintf(&b, " %+.3f*%s", c.Value, c.Feature)
	}
	return b.String()
}

func regressionInsights(r *domain.RegressionResult) []string {
	var insights []string

	for _, c := range r.Coefficients {
		if c.Significant && c.Value > 0 {
			insights = append(insights, fmt.Sprintf("%s has the strongest positive association with %s (coefficient %.3f, p=%.4f).",
				c.Feature, r.Target, c.Value, c.PValue))
			break
		}
	}
	for _, c := range r.Coefficients {
		if c.Significant && c.Value < 0 {
			insights = append(insights, fmt.Sprintf("%s has the strongest negative association with %s (coefficient %.3f, p=%.4f).",
				c.Feature, r.Target, c.Value, c.PValue))
			break
		}
	}

	insignificant := 0
	for _, c := range r.Coefficients {
		if !c.Significant {
			insignificant++
		}
	}
	switch {
	case insignificant == len(r.Coefficients):
		insights = append(insights, fmt.Sprintf("No feature shows a significant association with %s at the %.2f level.",
			r.Target, significanceLevel))
	case insignificant > 0:
		insights = append(insights, fmt.Sprintf("%d of the %d features show no statistically significant effect on %s.",
			insignificant, len(r.Coefficients), r.Target))
	}

	for _, entry := range r.Multicollinearity {
		if entry.VIF > vifWarnThreshold {
			insights = append(insights, fmt.Sprintf("%s shows high multicollinearity (VIF %.1f); its coefficient is unreliable.",
				entry.Feature, entry.VIF))
		}
	}
	return insights
}

func regressionRecommendations(r *domain.RegressionResult) []string {
	var recs []string

	switch r2 := r.Performance.R2Test; {
	case r2 >= 0.7:
		recs = append(recs, "The model explains performance well; its factor estimates can guide editorial decisions.")
	case r2 >= 0.5:
		recs = append(recs, "The model has moderate explanatory power; treat factor estimates as directional guidance.")
	default:
		recs = append(recs, "The model explains little out-of-sample variance; collect more data or additional features before acting on it.")
	}

	count := 0
	for _, c := range r.Coefficients {
		if c.Significant && c.Value > 0 {
			recs = append(recs, fmt.Sprintf("Improving %s is associated with higher %s; prioritize it in content planning.",
				c.Feature, r.Target))
			count++
			if count == 3 {
				break
			}
		}
	}
	return recs
}
