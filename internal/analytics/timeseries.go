package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/jonesrussell/article-analytics/internal/domain"
	"github.com/jonesrussell/article-analytics/internal/logger"
	"github.com/jonesrussell/article-analytics/internal/stats"
)

const (
	// seasonalPeriod is the weekly cycle length of the decomposition.
	seasonalPeriod = 7

	// minDecompositionObs is two full weekly cycles, the minimum for a
	// meaningful trend and seasonal split.
	minDecompositionObs = 2 * seasonalPeriod

	// anomalySigma is the residual threshold in standard deviations.
	anomalySigma = 2.0

	// strongSeasonality marks a weekly pattern worth calling out.
	strongSeasonality = 0.1
)

var weekdayNames = [7]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// TimeSeriesOptions parameterizes a decomposition run. An empty ArticleID
// analyzes the daily total across all articles.
type TimeSeriesOptions struct {
	ArticleID  string
	ValueField string
}

// AnalyzeTimeSeries decomposes the daily series of the value field into an
// additive trend, weekly seasonality, and residual, then derives trend
// direction, weekday effects, and residual anomalies. A series shorter
// than two weeks is summarized without decomposition and flagged.
func (e *Engine) AnalyzeTimeSeries(rows []domain.ObservationRow, opts TimeSeriesOptions) (*domain.TimeSeriesAnalysisResult, error) {
	field := opts.ValueField
	if field == "" {
		field = domain.FieldPageViews
	}
	if err := validateFields(field); err != nil {
		return nil, err
	}

	dates, values := dailySeries(rows, opts.ArticleID, field)
	if len(values) == 0 {
		return nil, &domain.InsufficientDataError{
			Analysis: "time series analysis",
			Rows:     0,
			Minimum:  minDecompositionObs,
		}
	}

	result := &domain.TimeSeriesAnalysisResult{
		ValueField: field,
		Summary: domain.SummaryStatistics{
			Mean:         stats.Mean(values),
			StdDev:       stats.SampleStdDev(values),
			Observations: len(values),
		},
	}
	result.Summary.Min, result.Summary.Max = stats.MinMax(values)

	if len(values) < minDecompositionObs {
		// Too short to separate trend from seasonality; report the raw
		// trend only.
		result.InsufficientData = true
		result.Trend = trendOf(indexSeries(len(values)), values)
		e.log.Warn("Series too short for decomposition",
			logger.String("value_field", field),
			logger.Int("observations", len(values)),
		)
	} else {
		decompose(result, dates, values)
	}

	result.Insights = timeSeriesInsights(result)
	result.Recommendations = timeSeriesRecommendations(result)

	e.log.Info("Time series analysis complete",
		logger.String("value_field", field),
		logger.Int("observations", len(values)),
		logger.String("trend", result.Trend.Direction),
		logger.Int("anomalies", len(result.Anomalies)),
	)
	return result, nil
}

// dailySeries aggregates the value field by date, summing across articles
// unless one article is selected, and returns the series in date order.
func dailySeries(rows []domain.ObservationRow, articleID, field string) ([]time.Time, []float64) {
	byDate := make(map[time.Time]float64)
	for i := range rows {
		row := &rows[i]
		if articleID != "" && row.ArticleID != articleID {
			continue
		}
		v, _ := row.Field(field)
		byDate[row.Date] += v
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	values := make([]float64, len(dates))
	for i, d := range dates {
		values[i] = byDate[d]
	}
	return dates, values
}

// decompose fills the trend, seasonal, and anomaly sections from an
// additive decomposition with a centered moving-average trend.
func decompose(result *domain.TimeSeriesAnalysisResult, dates []time.Time, values []float64) {
	n := len(values)
	half := seasonalPeriod / 2

	// Centered moving average; defined only where the full window fits.
	trend := make([]float64, n)
	validFrom, validTo := half, n-half-1
	for i := validFrom; i <= validTo; i++ {
		var sum float64
		for w := -half; w <= half; w++ {
			sum += values[i+w]
		}
		trend[i] = sum / seasonalPeriod
	}

	// Weekday effects are the mean detrended value per weekday, centered
	// so they sum to zero across the week.
	var effectSums [seasonalPeriod]float64
	var effectCounts [seasonalPeriod]int
	for i := validFrom; i <= validTo; i++ {
		wd := mondayWeekday(dates[i])
		effectSums[wd] += values[i] - trend[i]
		effectCounts[wd]++
	}
	var effects [seasonalPeriod]float64
	var effectMean float64
	for wd := range effects {
		if effectCounts[wd] > 0 {
			effects[wd] = effectSums[wd] / float64(effectCounts[wd])
		}
		effectMean += effects[wd] / seasonalPeriod
	}
	for wd := range effects {
		effects[wd] -= effectMean
	}

	seasonal := make([]float64, n)
	for i := range values {
		seasonal[i] = effects[mondayWeekday(dates[i])]
	}

	// Trend direction from a simple regression over the valid window.
	trendXs := make([]float64, 0, validTo-validFrom+1)
	trendYs := make([]float64, 0, validTo-validFrom+1)
	for i := validFrom; i <= validTo; i++ {
		trendXs = append(trendXs, float64(i))
		trendYs = append(trendYs, trend[i])
	}
	result.Trend = trendOf(trendXs, trendYs)

	result.Seasonal = domain.SeasonalPattern{WeekdayEffects: effects}
	for wd := 1; wd < seasonalPeriod; wd++ {
		if effects[wd] > effects[result.Seasonal.BestWeekday] {
			result.Seasonal.BestWeekday = wd
		}
		if effects[wd] < effects[result.Seasonal.WorstWeekday] {
			result.Seasonal.WorstWeekday = wd
		}
	}
	if observedStd := stats.StdDev(values); observedStd > 0 {
		result.Seasonal.SeasonalityStrength = stats.StdDev(seasonal) / observedStd
	}

	// Residual anomalies over the valid window.
	residuals := make([]float64, 0, validTo-validFrom+1)
	for i := validFrom; i <= validTo; i++ {
		residuals = append(residuals, values[i]-trend[i]-seasonal[i])
	}
	residMean := stats.Mean(residuals)
	residStd := stats.SampleStdDev(residuals)
	for idx, i := 0, validFrom; i <= validTo; idx, i = idx+1, i+1 {
		deviation := residuals[idx] - residMean
		if deviation > anomalySigma*residStd || deviation < -anomalySigma*residStd {
			result.Anomalies = append(result.Anomalies, domain.Anomaly{
				Date:      dates[i],
				Value:     values[i],
				Deviation: deviation,
			})
		}
	}
}

// trendOf classifies a series trend by the slope of a simple regression.
func trendOf(xs, ys []float64) domain.TrendAnalysis {
	reg := stats.FitSimple(xs, ys)
	trend := domain.TrendAnalysis{
		Direction:   domain.TrendNone,
		Slope:       reg.Slope,
		RSquared:    reg.R2,
		PValue:      reg.PValue,
		Significant: reg.PValue < significanceLevel,
	}
	if trend.Significant {
		if reg.Slope > 0 {
			trend.Direction = domain.TrendRising
		} else if reg.Slope < 0 {
			trend.Direction = domain.TrendFalling
		}
	}
	return trend
}

func indexSeries(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}

// mondayWeekday maps a date to the Monday=0 through Sunday=6 convention.
func mondayWeekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

func timeSeriesInsights(r *domain.TimeSeriesAnalysisResult) []string {
	var insights []string

	switch r.Trend.Direction {
	case domain.TrendRising:
		insights = append(insights, "The series shows a significant rising trend.")
	case domain.TrendFalling:
		insights = append(insights, "The series shows a significant falling trend.")
	default:
		insights = append(insights, "No significant trend is present.")
	}

	if r.InsufficientData {
		insights = append(insights, "The series is shorter than two weeks, so seasonality and anomalies were not assessed.")
		return insights
	}

	if r.Seasonal.SeasonalityStrength > strongSeasonality {
		insights = append(insights,
			"A weekly pattern is present: "+weekdayNames[r.Seasonal.BestWeekday]+" performs best and "+
				weekdayNames[r.Seasonal.WorstWeekday]+" worst.")
	}
	if len(r.Anomalies) > 0 {
		insights = append(insights, pluralAnomalies(len(r.Anomalies)))
	}
	return insights
}

func pluralAnomalies(n int) string {
	if n == 1 {
		return "1 anomalous day deviates more than 2 standard deviations from the expected level."
	}
	return fmt.Sprintf("%d anomalous days deviate more than 2 standard deviations from the expected level.", n)
}

func timeSeriesRecommendations(r *domain.TimeSeriesAnalysisResult) []string {
	var recs []string
	switch r.Trend.Direction {
	case domain.TrendRising:
		recs = append(recs, "Performance is improving; keep the current content and promotion cadence.")
	case domain.TrendFalling:
		recs = append(recs, "Performance is declining; review recent content changes and refresh older articles.")
	default:
		recs = append(recs, "Performance is flat; experiment with new formats or promotion channels.")
	}
	if !r.InsufficientData && r.Seasonal.SeasonalityStrength > strongSeasonality {
		recs = append(recs, "Schedule publications and promotions for "+weekdayNames[r.Seasonal.BestWeekday]+", the strongest weekday.")
	}
	if len(r.Anomalies) > 0 {
		recs = append(recs, "Investigate anomalous days for one-off events such as viral sharing or tracking outages.")
	}
	return recs
}
