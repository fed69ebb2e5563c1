// Package domain defines the data model of the performance analytics engine:
// raw per-article performance records, the derived observation table, the
// structured analysis results, and the engine's error taxonomy.
package domain

import "time"

// ArticlePerformanceRecord is the raw input for one article: immutable
// content attributes plus parallel daily metric sequences. All daily
// sequences describe days 0..N-1 from the publish date, where N is the
// length of PageViewsDaily (the primary sequence). Secondary sequences may
// be shorter when telemetry has gaps; missing days are treated as zero.
type ArticlePerformanceRecord struct {
	ArticleID   string    `db:"article_id"   json:"article_id"`
	Title       string    `db:"title"        json:"title"`
	PublishDate time.Time `db:"publish_date" json:"publish_date"`

	// Content attributes.
	WordCount      int     `db:"word_count"      json:"word_count"`
	KeywordDensity float64 `db:"keyword_density" json:"keyword_density"`
	SEOScore       float64 `db:"seo_score"       json:"seo_score"`
	Tone           string  `db:"tone"            json:"tone"`
	Author         string  `db:"author"          json:"author"`
	Category       string  `db:"category"        json:"category"`

	// Daily performance sequences.
	PageViewsDaily []int     `json:"page_views_daily"`
	UniqueUsers    []int     `json:"unique_users"`
	AvgTimeOnPage  []float64 `json:"avg_time_on_page"`
	BounceRate     []float64 `json:"bounce_rate"`
	SocialShares   []int     `json:"social_shares"`
	Conversions    []int     `json:"conversions"`

	// Daily search sequences.
	SearchImpressions []int     `json:"search_impressions"`
	SearchClicks      []int     `json:"search_clicks"`
	AvgPosition       []float64 `json:"avg_position"`

	// Tags and promotion metadata.
	Tags                []string `json:"tags"`
	PromotionActivities []string `json:"promotion_activities"`
}

// Days returns the length of the observed window for this record.
func (r *ArticlePerformanceRecord) Days() int {
	return len(r.PageViewsDaily)
}
