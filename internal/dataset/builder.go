// Package dataset builds the flattened observation table from raw article
// performance records, assigns stable codes to nominal attributes, and
// assesses the quality of the resulting table.
package dataset

import (
	"strings"
	"time"

	"github.com/jonesrussell/article-analytics/internal/domain"
)

// Tag values that drive the media flags.
const (
	tagImages = "images"
	tagVideo  = "video"
)

// Promotion activity substrings that drive the promotion flags.
const (
	activitySocial = "social"
	activityEmail  = "email"
)

// BuildObservations flattens records into one row per article-day, ordered
// by article then day. The page views sequence defines the observed window;
// shorter secondary sequences are zero-filled for the missing days. A record
// with an empty page views sequence yields a DimensionMismatchError.
func BuildObservations(records []domain.ArticlePerformanceRecord) ([]domain.ObservationRow, error) {
	total := 0
	for i := range records {
		if records[i].Days() == 0 {
			return nil, &domain.DimensionMismatchError{ArticleID: records[i].ArticleID}
		}
		total += records[i].Days()
	}

	rows := make([]domain.ObservationRow, 0, total)
	for i := range records {
		rows = append(rows, buildArticleRows(&records[i])...)
	}
	return rows, nil
}

// buildArticleRows emits one row per observed day of a single record.
func buildArticleRows(rec *domain.ArticlePerformanceRecord) []domain.ObservationRow {
	days := rec.Days()
	rows := make([]domain.ObservationRow, 0, days)

	hasImages := containsTag(rec.Tags, tagImages)
	hasVideo := containsTag(rec.Tags, tagVideo)
	social := containsActivity(rec.PromotionActivities, activitySocial)
	email := containsActivity(rec.PromotionActivities, activityEmail)

	for day := 0; day < days; day++ {
		date := rec.PublishDate.AddDate(0, 0, day)

		row := domain.ObservationRow{
			ArticleID:   rec.ArticleID,
			Title:       rec.Title,
			PublishDate: rec.PublishDate,
			Date:        date,

			WordCount:      rec.WordCount,
			KeywordDensity: rec.KeywordDensity,
			SEOScore:       rec.SEOScore,
			Tone:           rec.Tone,
			Author:         rec.Author,
			Category:       rec.Category,

			DaySincePublish:   day,
			PageViews:         float64(rec.PageViewsDaily[day]),
			UniqueUsers:       intAt(rec.UniqueUsers, day),
			AvgTimeOnPage:     floatAt(rec.AvgTimeOnPage, day),
			BounceRate:        floatAt(rec.BounceRate, day),
			SocialShares:      intAt(rec.SocialShares, day),
			Conversions:       intAt(rec.Conversions, day),
			SearchImpressions: intAt(rec.SearchImpressions, day),
			SearchClicks:      intAt(rec.SearchClicks, day),
			AvgPosition:       floatAt(rec.AvgPosition, day),

			Weekday:   mondayWeekday(date),
			Month:     int(date.Month()),
			IsWeekend: mondayWeekday(date) >= 5,

			HasImages:        hasImages,
			HasVideo:         hasVideo,
			PromotedOnSocial: social,
			EmailPromoted:    email,
		}

		row.CTR = safeRatio(row.SearchClicks, row.SearchImpressions)
		row.ConversionRate = safeRatio(row.Conversions, row.UniqueUsers)
		row.EngagementScore = engagementScore(row.AvgTimeOnPage, row.BounceRate, row.SocialShares)

		rows = append(rows, row)
	}
	return rows
}

// mondayWeekday maps a date to the Monday=0..Sunday=6 convention.
func mondayWeekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// safeRatio returns num/den, or 0 when den is not positive.
func safeRatio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// engagementScore combines dwell time, bounce rate, and shares.
// A bounce rate at or above 1 zeroes the score.
func engagementScore(timeOnPage, bounce, shares float64) float64 {
	if bounce >= 1 {
		return 0
	}
	return timeOnPage * (1 - bounce) * shares
}

// intAt returns the i-th element of s as a float64, or 0 past the end.
func intAt(s []int, i int) float64 {
	if i < len(s) {
		return float64(s[i])
	}
	return 0
}

// floatAt returns the i-th element of s, or 0 past the end.
func floatAt(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func containsTag(tags []string, want string) bool {
	for _, tag := range tags {
		if tag == want {
			return true
		}
	}
	return false
}

func containsActivity(activities []string, substr string) bool {
	for _, activity := range activities {
		if strings.Contains(activity, substr) {
			return true
		}
	}
	return false
}
