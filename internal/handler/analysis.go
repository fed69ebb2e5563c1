// Package handler exposes the analysis engine over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/article-analytics/internal/analytics"
	"github.com/jonesrussell/article-analytics/internal/domain"
	"github.com/jonesrussell/article-analytics/internal/logger"
	"github.com/jonesrussell/article-analytics/internal/telemetry"
)

// RecordSource loads article performance records for analysis.
type RecordSource interface {
	ListPerformanceRecords(ctx context.Context) ([]domain.ArticlePerformanceRecord, error)
	GetPerformanceRecords(ctx context.Context, articleIDs []string) ([]domain.ArticlePerformanceRecord, error)
}

// AnalysisHandler handles analysis requests.
type AnalysisHandler struct {
	source  RecordSource
	engine  *analytics.Engine
	metrics *telemetry.Metrics
	log     logger.Logger
	maxRows int
}

// NewAnalysisHandler creates an AnalysisHandler with the given dependencies.
func NewAnalysisHandler(
	source RecordSource,
	engine *analytics.Engine,
	metrics *telemetry.Metrics,
	log logger.Logger,
	maxRows int,
) *AnalysisHandler {
	return &AnalysisHandler{
		source:  source,
		engine:  engine,
		metrics: metrics,
		log:     log,
		maxRows: maxRows,
	}
}

type causalRequest struct {
	ArticleIDs       []string  `json:"article_ids"`
	TreatmentGroup   []string  `json:"treatment_group"`
	ControlGroup     []string  `json:"control_group"`
	InterventionDate time.Time `json:"intervention_date"`
	Outcome          string    `json:"outcome"`
}

type regressionRequest struct {
	ArticleIDs []string `json:"article_ids"`
	Target     string   `json:"target"`
	Features   []string `json:"features"`
	Seed       int64    `json:"seed"`
}

type clusterRequest struct {
	ArticleIDs  []string `json:"article_ids"`
	Features    []string `json:"features"`
	NumClusters int      `json:"n_clusters"`
	Seed        int64    `json:"seed"`
}

type timeSeriesRequest struct {
	ArticleIDs []string `json:"article_ids"`
	ArticleID  string   `json:"article_id"`
	ValueField string   `json:"value_field"`
}

type reportRequest struct {
	ArticleIDs []string `json:"article_ids"`
	Target     string   `json:"target"`
	Seed       int64    `json:"seed"`
}

// HandleCausal runs a difference-in-differences analysis.
func (h *AnalysisHandler) HandleCausal(c *gin.Context) {
	var req causalRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.InterventionDate.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "intervention_date is required"})
		return
	}

	rows, ok := h.loadRows(c, req.ArticleIDs)
	if !ok {
		return
	}

	h.respond(c, "causal", len(rows), func() (any, error) {
		return h.engine.DifferenceInDifferences(rows, analytics.CausalOptions{
			TreatmentGroup:   req.TreatmentGroup,
			ControlGroup:     req.ControlGroup,
			InterventionDate: req.InterventionDate,
			Outcome:          req.Outcome,
		})
	})
}

// HandleRegression runs a regression factor analysis.
func (h *AnalysisHandler) HandleRegression(c *gin.Context) {
	var req regressionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	rows, ok := h.loadRows(c, req.ArticleIDs)
	if !ok {
		return
	}

	h.respond(c, "regression", len(rows), func() (any, error) {
		return h.engine.AnalyzeFactors(rows, analytics.RegressionOptions{
			Target:   req.Target,
			Features: req.Features,
			Seed:     req.Seed,
		})
	})
}

// HandleClusters runs a behavioral clustering analysis.
func (h *AnalysisHandler) HandleClusters(c *gin.Context) {
	var req clusterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	rows, ok := h.loadRows(c, req.ArticleIDs)
	if !ok {
		return
	}

	h.respond(c, "clusters", len(rows), func() (any, error) {
		return h.engine.AnalyzeClusters(rows, analytics.ClusterOptions{
			Features:    req.Features,
			NumClusters: req.NumClusters,
			Seed:        req.Seed,
		})
	})
}

// HandleTimeSeries runs a time-series decomposition.
func (h *AnalysisHandler) HandleTimeSeries(c *gin.Context) {
	var req timeSeriesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	rows, ok := h.loadRows(c, req.ArticleIDs)
	if !ok {
		return
	}

	h.respond(c, "timeseries", len(rows), func() (any, error) {
		return h.engine.AnalyzeTimeSeries(rows, analytics.TimeSeriesOptions{
			ArticleID:  req.ArticleID,
			ValueField: req.ValueField,
		})
	})
}

// HandleReport generates the comprehensive report.
func (h *AnalysisHandler) HandleReport(c *gin.Context) {
	var req reportRequest
	if !h.bindJSON(c, &req) {
		return
	}

	records, ok := h.loadRecords(c, req.ArticleIDs)
	if !ok {
		return
	}

	totalRows := 0
	for i := range records {
		totalRows += records[i].Days()
	}
	if !h.checkRowLimit(c, totalRows) {
		return
	}

	h.respond(c, "report", totalRows, func() (any, error) {
		return h.engine.GenerateReport(records, analytics.ReportOptions{
			Target: req.Target,
			Seed:   req.Seed,
		})
	})
}

// bindJSON decodes the request body, responding 400 on malformed input.
func (h *AnalysisHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// loadRecords fetches all records, or only the requested articles.
func (h *AnalysisHandler) loadRecords(c *gin.Context, articleIDs []string) ([]domain.ArticlePerformanceRecord, bool) {
	var (
		records []domain.ArticlePerformanceRecord
		err     error
	)
	if len(articleIDs) > 0 {
		records, err = h.source.GetPerformanceRecords(c.Request.Context(), articleIDs)
	} else {
		records, err = h.source.ListPerformanceRecords(c.Request.Context())
	}
	if err != nil {
		h.log.Error("Failed to load performance records", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load performance records"})
		return nil, false
	}
	return records, true
}

// loadRows fetches records and flattens them into the observation table,
// enforcing the row limit.
func (h *AnalysisHandler) loadRows(c *gin.Context, articleIDs []string) ([]domain.ObservationRow, bool) {
	records, ok := h.loadRecords(c, articleIDs)
	if !ok {
		return nil, false
	}

	rows, err := h.engine.PrepareDataset(records)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return nil, false
	}
	if !h.checkRowLimit(c, len(rows)) {
		return nil, false
	}
	return rows, true
}

// checkRowLimit rejects observation tables above the configured maximum.
func (h *AnalysisHandler) checkRowLimit(c *gin.Context, rows int) bool {
	if h.maxRows > 0 && rows > h.maxRows {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "observation table exceeds the configured row limit",
			"rows":  rows,
			"limit": h.maxRows,
		})
		return false
	}
	return true
}

// respond runs the analysis, records metrics, and writes the JSON result.
func (h *AnalysisHandler) respond(c *gin.Context, analysis string, rows int, run func() (any, error)) {
	start := time.Now()
	result, err := run()
	elapsed := time.Since(start)

	if err != nil {
		status := statusFor(err)
		h.metrics.ObserveAnalysis(analysis, metricStatus(status), rows, elapsed)
		if status == http.StatusInternalServerError {
			h.log.Error("Analysis failed", logger.String("analysis", analysis), logger.Error(err))
			c.JSON(status, gin.H{"error": "analysis failed"})
			return
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.metrics.ObserveAnalysis(analysis, "ok", rows, elapsed)
	c.JSON(http.StatusOK, result)
}

// statusFor maps engine errors to HTTP status codes: invalid requests are
// 400, datasets the method cannot support are 422, everything else 500.
func statusFor(err error) int {
	var (
		dimErr          *domain.DimensionMismatchError
		groupErr        *domain.InvalidGroupError
		fieldErr        *domain.UnknownFieldError
		insufficientErr *domain.InsufficientDataError
		instabilityErr  *domain.NumericalInstabilityError
	)
	switch {
	case errors.As(err, &dimErr), errors.As(err, &groupErr), errors.As(err, &fieldErr):
		return http.StatusBadRequest
	case errors.As(err, &insufficientErr), errors.As(err, &instabilityErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func metricStatus(httpStatus int) string {
	if httpStatus >= http.StatusInternalServerError {
		return "error"
	}
	return "client_error"
}
