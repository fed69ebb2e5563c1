package analytics

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/article-analytics/internal/dataset"
	"github.com/jonesrussell/article-analytics/internal/domain"
	"github.com/jonesrussell/article-analytics/internal/logger"
)

// ReportOptions parameterizes a comprehensive report run.
type ReportOptions struct {
	Target string
	Seed   int64
}

// methodologyNotes document the statistical approach for report readers.
var methodologyNotes = []string{
	"Factor analysis uses ordinary least squares with an out-of-sample holdout split for validation.",
	"Behavioral clusters come from k-means on standardized features, with the cluster count chosen by silhouette score.",
	"The time series is decomposed additively into a centered moving-average trend, weekly seasonality, and residual.",
	"Anomalies are residual observations more than 2 standard deviations from the residual mean.",
	"Statistical significance is assessed at the 0.05 level throughout.",
}

// GenerateReport runs the regression, cluster, and time-series analyses
// concurrently over one observation table and merges them into a single
// report. Analyses that fail for data reasons are downgraded to entries in
// the Failures map; structural errors abort the report.
func (e *Engine) GenerateReport(records []domain.ArticlePerformanceRecord, opts ReportOptions) (*domain.ComprehensiveReport, error) {
	rows, err := e.PrepareDataset(records)
	if err != nil {
		return nil, err
	}

	target := opts.Target
	if target == "" {
		target = domain.FieldPageViews
	}
	if err := validateFields(target); err != nil {
		return nil, err
	}

	report := &domain.ComprehensiveReport{
		ReportID:         uuid.NewString(),
		GeneratedAt:      time.Now().UTC(),
		TargetVariable:   target,
		DataQuality:      dataset.AssessQuality(rows),
		MethodologyNotes: methodologyNotes,
		Failures:         make(map[string]string),
	}

	var (
		wg            sync.WaitGroup
		regErr        error
		clusterErr    error
		timeSeriesErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		report.Regression, regErr = e.AnalyzeFactors(rows, RegressionOptions{Target: target, Seed: opts.Seed})
	}()
	go func() {
		defer wg.Done()
		report.Clusters, clusterErr = e.AnalyzeClusters(rows, ClusterOptions{Seed: opts.Seed})
	}()
	go func() {
		defer wg.Done()
		report.TimeSeries, timeSeriesErr = e.AnalyzeTimeSeries(rows, TimeSeriesOptions{ValueField: target})
	}()
	wg.Wait()

	if err := downgradeOrFail(report, "regression_analysis", regErr, func() { report.Regression = nil }); err != nil {
		return nil, err
	}
	if err := downgradeOrFail(report, "cluster_analysis", clusterErr, func() { report.Clusters = nil }); err != nil {
		return nil, err
	}
	if err := downgradeOrFail(report, "time_series_analysis", timeSeriesErr, func() { report.TimeSeries = nil }); err != nil {
		return nil, err
	}

	report.IntegratedInsights = integrateInsights(report)
	report.ComprehensiveRecommendations = mergeRecommendations(report)
	report.Summary = buildSummary(rows, report)

	e.log.Info("Comprehensive report generated",
		logger.String("report_id", report.ReportID),
		logger.String("target", target),
		logger.Int("rows", len(rows)),
		logger.Int("failures", len(report.Failures)),
	)
	return report, nil
}

// downgradeOrFail records a data-quality failure in the report and clears
// the partial result; any other error aborts report generation.
func downgradeOrFail(report *domain.ComprehensiveReport, name string, err error, clear func()) error {
	if err == nil {
		return nil
	}
	var insufficientErr *domain.InsufficientDataError
	var instabilityErr *domain.NumericalInstabilityError
	if errors.As(err, &insufficientErr) || errors.As(err, &instabilityErr) {
		report.Failures[name] = err.Error()
		clear()
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

// integrateInsights pulls the headline finding from each completed analysis
// and adds a cross-analysis note when the methods agree.
func integrateInsights(report *domain.ComprehensiveReport) []string {
	var insights []string

	if reg := report.Regression; reg != nil && len(reg.Coefficients) > 0 {
		top := reg.Coefficients[0]
		insights = append(insights, fmt.Sprintf("Most influential factor for %s: %s (coefficient %.3f).",
			reg.Target, top.Feature, top.Value))
	}
	if clusters := report.Clusters; clusters != nil {
		insights = append(insights, takeFirst(clusters.Insights, 2)...)
	}
	if ts := report.TimeSeries; ts != nil {
		insights = append(insights, takeFirst(ts.Insights, 2)...)
	}

	if report.Regression != nil && report.Clusters != nil &&
		report.Regression.Performance.R2Test > 0.5 && report.Clusters.SilhouetteScore > 0.3 {
		insights = append(insights,
			"The factor model and the cluster structure agree: performance differences are systematic, not noise.")
	}
	return insights
}

// mergeRecommendations concatenates per-analysis recommendations, dedupes
// them preserving order, and appends the standing closers.
func mergeRecommendations(report *domain.ComprehensiveReport) []string {
	var merged []string
	if report.Regression != nil {
		merged = append(merged, takeFirst(report.Regression.Recommendations, 2)...)
	}
	if report.Clusters != nil {
		merged = append(merged, takeFirst(report.Clusters.Recommendations, 2)...)
	}
	if report.TimeSeries != nil {
		merged = append(merged, takeFirst(report.TimeSeries.Recommendations, 2)...)
	}
	merged = append(merged,
		"Re-run this report monthly to track whether the identified patterns hold.",
		"Validate headline findings with a controlled experiment before large editorial changes.",
	)

	seen := make(map[string]struct{}, len(merged))
	deduped := merged[:0]
	for _, rec := range merged {
		if _, ok := seen[rec]; ok {
			continue
		}
		seen[rec] = struct{}{}
		deduped = append(deduped, rec)
	}
	return deduped
}

// buildSummary derives the executive summary from the observation table and
// the integrated findings.
func buildSummary(rows []domain.ObservationRow, report *domain.ComprehensiveReport) domain.ExecutiveSummary {
	summary := domain.ExecutiveSummary{
		KeyFindings:             takeFirst(report.IntegratedInsights, 5),
		PriorityRecommendations: takeFirst(report.ComprehensiveRecommendations, 3),
	}

	articles := make(map[string]struct{})
	for i := range rows {
		articles[rows[i].ArticleID] = struct{}{}
		if summary.PeriodStart.IsZero() || rows[i].Date.Before(summary.PeriodStart) {
			summary.PeriodStart = rows[i].Date
		}
		if rows[i].Date.After(summary.PeriodEnd) {
			summary.PeriodEnd = rows[i].Date
		}
	}
	summary.ArticlesAnalyzed = len(articles)
	return summary
}

func takeFirst(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
