package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/article-analytics/internal/domain"
	"github.com/jonesrussell/article-analytics/internal/logger"
	"github.com/jonesrussell/article-analytics/internal/stats"
)

// Effect size thresholds as a percentage of the pre-intervention treated
// baseline.
const (
	effectSizeMediumPct = 10.0
	effectSizeLargePct  = 20.0
)

// minCausalRows is the smallest observation count that leaves positive
// residual degrees of freedom for the five-predictor design.
const minCausalRows = 7

// CausalOptions parameterizes a difference-in-differences run.
type CausalOptions struct {
	TreatmentGroup   []string
	ControlGroup     []string
	InterventionDate time.Time
	Outcome          string
}

// DifferenceInDifferences estimates the causal effect of an intervention on
// the outcome field by comparing treatment against control articles before
// and after the intervention date. The treatment effect is the coefficient
// on the treated-and-post interaction term; day-since-publish and weekday
// enter as controls.
func (e *Engine) DifferenceInDifferences(rows []domain.ObservationRow, opts CausalOptions) (*domain.CausalInferenceResult, error) {
	outcome := opts.Outcome
	if outcome == "" {
		outcome = domain.FieldPageViews
	}
	if err := validateFields(outcome); err != nil {
		return nil, err
	}

	treated, err := buildGroupIndex(rows, opts.TreatmentGroup, opts.ControlGroup)
	if err != nil {
		return nil, err
	}

	var (
		design      [][]float64
		y           []float64
		baselineSum float64
		baselineN   int
	)
	for i := range rows {
		row := &rows[i]
		isTreated, inGroups := treated[row.ArticleID]
		if !inGroups {
			continue
		}

		treatedFlag := 0.0
		if isTreated {
			treatedFlag = 1
		}
		postFlag := 0.0
		if !row.Date.Before(opts.InterventionDate) {
			postFlag = 1
		}

		design = append(design, []float64{
			treatedFlag,
			postFlag,
			treatedFlag * postFlag,
			float64(row.DaySincePublish),
			float64(row.Weekday),
		})
		value, _ := row.Field(outcome)
		y = append(y, value)

		if isTreated && postFlag == 0 {
			baselineSum += value
			baselineN++
		}
	}

	if len(y) < minCausalRows {
		return nil, &domain.InsufficientDataError{
			Analysis: "difference-in-differences",
			Rows:     len(y),
			Minimum:  minCausalRows,
		}
	}

	model, err := stats.FitOLS(design, y)
	if err != nil {
		if errors.Is(err, stats.ErrSingular) {
			// All rows on one side of the intervention, or a single group,
			// collapses an indicator into the intercept.
			return nil, &domain.NumericalInstabilityError{
				Features: []string{"treated", "post_period", "treated_x_post"},
			}
		}
		return nil, fmt.Errorf("fit treatment effect model: %w", err)
	}

	// Index 3: intercept, treated, post, then the interaction.
	const interactionIdx = 3
	effect := model.Coefficients[interactionIdx]
	pValue := model.PValues[interactionIdx]

	result := &domain.CausalInferenceResult{
		Method:          "difference_in_differences",
		Outcome:         outcome,
		TreatmentEffect: effect,
		ConfidenceInterval: domain.ConfidenceInterval{
			Lower: model.CILower[interactionIdx],
			Upper: model.CIUpper[interactionIdx],
		},
		PValue:      pValue,
		Significant: pValue < significanceLevel,
	}

	baseline := 0.0
	if baselineN > 0 {
		baseline = baselineSum / float64(baselineN)
	}
	if baseline > 0 {
		result.BaselineReliable = true
		result.EffectSizePct = effect / baseline * 100
	}
	result.EffectSize = classifyEffectSize(result.EffectSizePct, result.BaselineReliable)
	result.Interpretation = interpretEffect(outcome, result)
	result.Recommendations = causalRecommendations(result)

	e.log.Info("Causal analysis complete",
		logger.String("outcome", outcome),
		logger.Float64("treatment_effect", effect),
		logger.Float64("p_value", pValue),
		logger.Bool("significant", result.Significant),
	)
	return result, nil
}

// buildGroupIndex validates the two groups and maps each member article ID
// to whether it is treated.
func buildGroupIndex(rows []domain.ObservationRow, treatment, control []string) (map[string]bool, error) {
	if len(treatment) == 0 || len(control) == 0 {
		return nil, &domain.InvalidGroupError{Reason: "both groups must be non-empty"}
	}

	known := make(map[string]struct{}, len(rows))
	for i := range rows {
		known[rows[i].ArticleID] = struct{}{}
	}

	index := make(map[string]bool, len(treatment)+len(control))
	for _, id := range treatment {
		if _, ok := known[id]; !ok {
			return nil, &domain.InvalidGroupError{Reason: fmt.Sprintf("treatment article %s has no observations", id)}
		}
		index[id] = true
	}
	for _, id := range control {
		if index[id] {
			return nil, &domain.InvalidGroupError{Reason: fmt.Sprintf("article %s appears in both groups", id)}
		}
		if _, ok := known[id]; !ok {
			return nil, &domain.InvalidGroupError{Reason: fmt.Sprintf("control article %s has no observations", id)}
		}
		index[id] = false
	}
	return index, nil
}

// classifyEffectSize labels the percentage effect. Without a reliable
// baseline the percentage is meaningless, so the label defaults to small.
func classifyEffectSize(pct float64, reliable bool) string {
	if !reliable {
		return domain.EffectSizeSmall
	}
	abs := pct
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= effectSizeLargePct:
		return domain.EffectSizeLarge
	case abs >= effectSizeMediumPct:
		return domain.EffectSizeMedium
	default:
		return domain.EffectSizeSmall
	}
}

func interpretEffect(outcome string, r *domain.CausalInferenceResult) string {
	direction := "increased"
	if r.TreatmentEffect < 0 {
		direction = "decreased"
	}
	significance := "statistically significant"
	if !r.Significant {
		significance = "not statistically significant"
	}
	if r.BaselineReliable {
		return fmt.Sprintf("The intervention %s %s by %.2f per day (%.1f%% of the pre-period baseline); the effect is %s (p=%.4f).",
			direction, outcome, absFloat(r.TreatmentEffect), r.EffectSizePct, significance, r.PValue)
	}
	return fmt.Sprintf("The intervention %s %s by %.2f per day; the effect is %s (p=%.4f). The pre-period baseline is zero, so no percentage effect is reported.",
		direction, outcome, absFloat(r.TreatmentEffect), significance, r.PValue)
}

func causalRecommendations(r *domain.CausalInferenceResult) []string {
	if r.Significant && r.TreatmentEffect > 0 {
		recs := []string{
			"The intervention shows a significant positive effect; consider rolling it out to comparable articles.",
			"Re-run the analysis after more post-intervention days accumulate to confirm the effect persists.",
		}
		if r.EffectSize == domain.EffectSizeLarge {
			recs = append(recs,
				"The effect size is large relative to the pre-period baseline; prioritize this intervention over other planned changes.")
		}
		return recs
	}
	if r.Significant && r.TreatmentEffect < 0 {
		return []string{
			"The intervention shows a significant negative effect; consider pausing it and investigating the cause.",
			"Check whether the control group was exposed to the intervention indirectly.",
		}
	}
	return []string{
		"No significant effect was detected; the intervention may need a larger sample or a longer observation window.",
		"Verify that treatment and control articles are comparable in topic, author, and publish timing.",
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
