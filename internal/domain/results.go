package domain

import "time"

// ConfidenceInterval is a two-sided interval around a point estimate.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// CausalInferenceResult holds a difference-in-differences estimate of a
// treatment effect on one outcome field.
type CausalInferenceResult struct {
	Method             string             `json:"method"`
	Outcome            string             `json:"outcome"`
	TreatmentEffect    float64            `json:"treatment_effect"`
	ConfidenceInterval ConfidenceInterval `json:"confidence_interval"`
	PValue             float64            `json:"p_value"`
	Significant        bool               `json:"statistical_significance"`
	EffectSize         string             `json:"effect_size"`
	EffectSizePct      float64            `json:"effect_size_pct"`
	// BaselineReliable is false when the pre-period treated mean is zero,
	// making the percentage effect size meaningless.
	BaselineReliable bool     `json:"baseline_reliable"`
	Interpretation   string   `json:"interpretation"`
	Recommendations  []string `json:"recommendations"`
}

// Effect size labels.
const (
	EffectSizeSmall  = "small"
	EffectSizeMedium = "medium"
	EffectSizeLarge  = "large"
)

// Trend direction labels.
const (
	TrendRising  = "rising"
	TrendFalling = "falling"
	TrendNone    = "none"
)

// Coefficient is one entry of a regression coefficient table.
type Coefficient struct {
	Feature     string  `json:"feature"`
	Value       float64 `json:"coefficient"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significant"`
}

// VIFEntry reports the variance inflation factor of one feature.
type VIFEntry struct {
	Feature string  `json:"feature"`
	VIF     float64 `json:"vif"`
}

// ModelPerformance summarizes regression fit quality.
type ModelPerformance struct {
	R2Train    float64 `json:"r2_train"`
	R2Test     float64 `json:"r2_test"`
	AdjustedR2 float64 `json:"adjusted_r2"`
	FStatistic float64 `json:"f_statistic"`
	FPValue    float64 `json:"f_p_value"`
}

// RegressionResult holds a factor analysis of one target field.
type RegressionResult struct {
	Target            string             `json:"target"`
	Performance       ModelPerformance   `json:"model_performance"`
	Coefficients      []Coefficient      `json:"coefficients"`
	Multicollinearity []VIFEntry         `json:"multicollinearity"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
	Insights          []string           `json:"insights"`
	Recommendations   []string           `json:"recommendations"`
	ModelEquation     string             `json:"model_equation"`
	RowsUsed          int                `json:"rows_used"`
	// RowsDropped counts observations excluded for non-finite values in
	// the target or a chosen feature.
	RowsDropped int `json:"rows_dropped"`
}

// ClusterProfile describes one behavioral cluster.
type ClusterProfile struct {
	Size            int                `json:"size"`
	Percentage      float64            `json:"percentage"`
	FeatureMeans    map[string]float64 `json:"feature_means"`
	FeatureStdDevs  map[string]float64 `json:"feature_stds"`
	TopArticles     []string           `json:"top_articles"`
	Characteristics []string           `json:"common_characteristics"`
}

// ClusterAnalysisResult holds a behavioral clustering of articles.
type ClusterAnalysisResult struct {
	InsufficientData bool             `json:"insufficient_data,omitempty"`
	NumClusters      int              `json:"n_clusters"`
	SilhouetteScore  float64          `json:"silhouette_score"`
	Profiles         []ClusterProfile `json:"cluster_profiles"`
	OutlierCount     int              `json:"outliers_detected"`
	Assignments      map[string]int   `json:"cluster_assignments"`
	Insights         []string         `json:"insights"`
	Recommendations  []string         `json:"recommendations"`
}

// TrendAnalysis describes the direction and significance of a series trend.
type TrendAnalysis struct {
	Direction   string  `json:"direction"`
	Slope       float64 `json:"slope"`
	RSquared    float64 `json:"r_squared"`
	PValue      float64 `json:"p_value"`
	Significant bool    `json:"significance"`
}

// SeasonalPattern describes the weekly seasonality of a series.
// WeekdayEffects is indexed Monday=0 through Sunday=6.
type SeasonalPattern struct {
	WeekdayEffects      [7]float64 `json:"weekday_effects"`
	BestWeekday         int        `json:"best_weekday"`
	WorstWeekday        int        `json:"worst_weekday"`
	SeasonalityStrength float64    `json:"seasonality_strength"`
}

// Anomaly is a residual observation more than the anomaly threshold away
// from the residual mean.
type Anomaly struct {
	Date      time.Time `json:"date"`
	Value     float64   `json:"value"`
	Deviation float64   `json:"deviation"`
}

// SummaryStatistics holds descriptive statistics of a series.
type SummaryStatistics struct {
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Observations int     `json:"total_observations"`
}

// TimeSeriesAnalysisResult holds the decomposition of one metric's daily
// series into trend, weekly seasonality, and residual.
type TimeSeriesAnalysisResult struct {
	InsufficientData bool              `json:"insufficient_data,omitempty"`
	ValueField       string            `json:"value_field"`
	Trend            TrendAnalysis     `json:"trend_analysis"`
	Seasonal         SeasonalPattern   `json:"seasonal_patterns"`
	Anomalies        []Anomaly         `json:"anomalies"`
	Summary          SummaryStatistics `json:"summary_statistics"`
	Insights         []string          `json:"insights"`
	Recommendations  []string          `json:"recommendations"`
}

// DataQualityAssessment is computed directly from the observation table,
// independent of any analysis.
type DataQualityAssessment struct {
	RowCount int `json:"row_count"`
	// Completeness maps each numeric field to its rate of finite values.
	Completeness map[string]float64 `json:"completeness"`
	// DuplicateRows counts rows identical to an earlier row in every field.
	DuplicateRows int `json:"duplicate_rows"`
	// NegativeValues counts negatives per physically non-negative field.
	NegativeValues map[string]int `json:"negative_values"`
	// Outliers counts values outside 1.5 IQR fences per numeric field.
	Outliers map[string]int `json:"outliers_detected"`
}

// ExecutiveSummary fronts a comprehensive report with its headline numbers.
type ExecutiveSummary struct {
	ArticlesAnalyzed        int       `json:"total_articles_analyzed"`
	PeriodStart             time.Time `json:"period_start"`
	PeriodEnd               time.Time `json:"period_end"`
	KeyFindings             []string  `json:"key_findings"`
	PriorityRecommendations []string  `json:"priority_recommendations"`
}

// ComprehensiveReport aggregates the regression, cluster, and time-series
// analyses of one observation table. Analyses that could not complete for
// data reasons are nil, with the reason recorded in Failures.
type ComprehensiveReport struct {
	ReportID       string                    `json:"report_id"`
	GeneratedAt    time.Time                 `json:"generated_at"`
	TargetVariable string                    `json:"target_variable"`
	Summary        ExecutiveSummary          `json:"executive_summary"`
	Regression     *RegressionResult         `json:"regression_analysis,omitempty"`
	Clusters       *ClusterAnalysisResult    `json:"cluster_analysis,omitempty"`
	TimeSeries     *TimeSeriesAnalysisResult `json:"time_series_analysis,omitempty"`

	IntegratedInsights           []string `json:"integrated_insights"`
	ComprehensiveRecommendations []string `json:"comprehensive_recommendations"`

	DataQuality      DataQualityAssessment `json:"data_quality_assessment"`
	MethodologyNotes []string              `json:"methodology_notes"`

	// Failures maps an analysis name to the reason it was downgraded to a
	// partial result (insufficient data or numerical instability).
	Failures map[string]string `json:"failures,omitempty"`
}
