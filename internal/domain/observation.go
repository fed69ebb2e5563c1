package domain

import "time"

// ObservationRow is one article-day observation in the flattened analysis
// table. Rows are built once per analysis run and never mutated afterward.
type ObservationRow struct {
	ArticleID   string    `json:"article_id"`
	Title       string    `json:"title"`
	PublishDate time.Time `json:"publish_date"`
	Date        time.Time `json:"date"`

	// Content attributes copied from the record.
	WordCount      int     `json:"word_count"`
	KeywordDensity float64 `json:"keyword_density"`
	SEOScore       float64 `json:"seo_score"`
	Tone           string  `json:"tone"`
	Author         string  `json:"author"`
	Category       string  `json:"category"`

	// Stable numeric codes for the nominal attributes, assigned by the
	// category encoder after the table is built.
	ToneCode     float64 `json:"tone_code"`
	AuthorCode   float64 `json:"author_code"`
	CategoryCode float64 `json:"category_code"`

	// Daily metrics.
	DaySincePublish   int     `json:"day_since_publish"`
	PageViews         float64 `json:"daily_pv"`
	UniqueUsers       float64 `json:"daily_users"`
	AvgTimeOnPage     float64 `json:"avg_time_on_page"`
	BounceRate        float64 `json:"bounce_rate"`
	SocialShares      float64 `json:"social_shares"`
	Conversions       float64 `json:"conversions"`
	SearchImpressions float64 `json:"search_impressions"`
	SearchClicks      float64 `json:"search_clicks"`
	AvgPosition       float64 `json:"avg_position"`

	// Derived metrics.
	CTR             float64 `json:"ctr"`
	ConversionRate  float64 `json:"conversion_rate"`
	EngagementScore float64 `json:"engagement_score"`

	// Calendar features. Weekday runs Monday=0 through Sunday=6.
	Weekday   int  `json:"weekday"`
	Month     int  `json:"month"`
	IsWeekend bool `json:"is_weekend"`

	// Tag and promotion flags.
	HasImages        bool `json:"has_images"`
	HasVideo         bool `json:"has_video"`
	PromotedOnSocial bool `json:"promoted_on_social"`
	EmailPromoted    bool `json:"email_promoted"`
}

// Numeric field names addressable through Field. Boolean flags are exposed
// as 0/1 so they can participate in regressions.
const (
	FieldWordCount         = "word_count"
	FieldKeywordDensity    = "keyword_density"
	FieldSEOScore          = "seo_score"
	FieldToneCode          = "tone_code"
	FieldAuthorCode        = "author_code"
	FieldCategoryCode      = "category_code"
	FieldDaySincePublish   = "day_since_publish"
	FieldPageViews         = "daily_pv"
	FieldUniqueUsers       = "daily_users"
	FieldAvgTimeOnPage     = "avg_time_on_page"
	FieldBounceRate        = "bounce_rate"
	FieldSocialShares      = "social_shares"
	FieldConversions       = "conversions"
	FieldSearchImpressions = "search_impressions"
	FieldSearchClicks      = "search_clicks"
	FieldAvgPosition       = "avg_position"
	FieldCTR               = "ctr"
	FieldConversionRate    = "conversion_rate"
	FieldEngagementScore   = "engagement_score"
	FieldWeekday           = "weekday"
	FieldMonth             = "month"
	FieldIsWeekend         = "is_weekend"
	FieldHasImages         = "has_images"
	FieldHasVideo          = "has_video"
	FieldPromotedOnSocial  = "promoted_on_social"
	FieldEmailPromoted     = "email_promoted"
)

// numericFields lists every addressable numeric field in a stable order.
var numericFields = []string{
	FieldWordCount,
	FieldKeywordDensity,
	FieldSEOScore,
	FieldToneCode,
	FieldAuthorCode,
	FieldCategoryCode,
	FieldDaySincePublish,
	FieldPageViews,
	FieldUniqueUsers,
	FieldAvgTimeOnPage,
	FieldBounceRate,
	FieldSocialShares,
	FieldConversions,
	FieldSearchImpressions,
	FieldSearchClicks,
	FieldAvgPosition,
	FieldCTR,
	FieldConversionRate,
	FieldEngagementScore,
	FieldWeekday,
	FieldMonth,
	FieldIsWeekend,
	FieldHasImages,
	FieldHasVideo,
	FieldPromotedOnSocial,
	FieldEmailPromoted,
}

// NumericFields returns the names of all addressable numeric fields.
// The returned slice must not be modified.
func NumericFields() []string {
	return numericFields
}

// IsNumericField reports whether name addresses a numeric observation field.
func IsNumericField(name string) bool {
	_, ok := zeroRow.Field(name)
	return ok
}

var zeroRow ObservationRow

// Field returns the named numeric field value. Boolean flags are returned
// as 0 or 1. The second return value is false for unknown field names.
func (r *ObservationRow) Field(name string) (float64, bool) {
	switch name {
	case FieldWordCount:
		return float64(r.WordCount), true
	case FieldKeywordDensity:
		return r.KeywordDensity, true
	case FieldSEOScore:
		return r.SEOScore, true
	case FieldToneCode:
		return r.ToneCode, true
	case FieldAuthorCode:
		return r.AuthorCode, true
	case FieldCategoryCode:
		return r.CategoryCode, true
	case FieldDaySincePublish:
		return float64(r.DaySincePublish), true
	case FieldPageViews:
		return r.PageViews, true
	case FieldUniqueUsers:
		return r.UniqueUsers, true
	case FieldAvgTimeOnPage:
		return r.AvgTimeOnPage, true
	case FieldBounceRate:
		return r.BounceRate, true
	case FieldSocialShares:
		return r.SocialShares, true
	case FieldConversions:
		return r.Conversions, true
	case FieldSearchImpressions:
		return r.SearchImpressions, true
	case FieldSearchClicks:
		return r.SearchClicks, true
	case FieldAvgPosition:
		return r.AvgPosition, true
	case FieldCTR:
		return r.CTR, true
	case FieldConversionRate:
		return r.ConversionRate, true
	case FieldEngagementScore:
		return r.EngagementScore, true
	case FieldWeekday:
		return float64(r.Weekday), true
	case FieldMonth:
		return float64(r.Month), true
	case FieldIsWeekend:
		return boolToFloat(r.IsWeekend), true
	case FieldHasImages:
		return boolToFloat(r.HasImages), true
	case FieldHasVideo:
		return boolToFloat(r.HasVideo), true
	case FieldPromotedOnSocial:
		return boolToFloat(r.PromotedOnSocial), true
	case FieldEmailPromoted:
		return boolToFloat(r.EmailPromoted), true
	default:
		return 0, false
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// NonNegativeFields lists the fields where a negative value is physically
// invalid, used by the data-quality assessment.
var NonNegativeFields = []string{
	FieldWordCount,
	FieldKeywordDensity,
	FieldSEOScore,
	FieldPageViews,
	FieldUniqueUsers,
	FieldAvgTimeOnPage,
	FieldBounceRate,
	FieldSocialShares,
	FieldConversions,
	FieldSearchImpressions,
	FieldSearchClicks,
	FieldAvgPosition,
	FieldCTR,
	FieldConversionRate,
	FieldEngagementScore,
}
