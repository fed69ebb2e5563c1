// Package storage loads article performance records from PostgreSQL and
// persists new articles with their daily metric sequences.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq" // also registers the PostgreSQL driver

	"github.com/jonesrussell/article-analytics/internal/config"
	"github.com/jonesrussell/article-analytics/internal/domain"
	"github.com/jonesrussell/article-analytics/internal/logger"
)

const (
	// maxOpenConns is the maximum number of open connections to the database.
	maxOpenConns = 25

	// maxIdleConns is the maximum number of idle connections.
	maxIdleConns = 5

	// connMaxLifetime is the maximum lifetime of a connection.
	connMaxLifetime = 5 * time.Minute

	// pingTimeout bounds the connection check at startup.
	pingTimeout = 5 * time.Second
)

// NewPostgresConnection opens a pooled PostgreSQL connection and verifies it.
func NewPostgresConnection(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if pingErr := db.PingContext(ctx); pingErr != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	return db, nil
}

// Store provides database operations for articles and their daily metrics.
type Store struct {
	db  *sqlx.DB
	log logger.Logger
}

// NewStore creates a new store.
func NewStore(db *sqlx.DB, log logger.Logger) *Store {
	return &Store{db: db, log: log}
}

// Ping verifies database connectivity, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// articleRow is the scan target for the articles table.
type articleRow struct {
	ArticleID           string         `db:"article_id"`
	Title               string         `db:"title"`
	PublishDate         time.Time      `db:"publish_date"`
	WordCount           int            `db:"word_count"`
	KeywordDensity      float64        `db:"keyword_density"`
	SEOScore            float64        `db:"seo_score"`
	Tone                string         `db:"tone"`
	Author              string         `db:"author"`
	Category            string         `db:"category"`
	Tags                pq.StringArray `db:"tags"`
	PromotionActivities pq.StringArray `db:"promotion_activities"`
}

// metricRow is the scan target for the article_daily_metrics table.
type metricRow struct {
	ArticleID         string  `db:"article_id"`
	DayIndex          int     `db:"day_index"`
	PageViews         int     `db:"page_views"`
	UniqueUsers       int     `db:"unique_users"`
	AvgTimeOnPage     float64 `db:"avg_time_on_page"`
	BounceRate        float64 `db:"bounce_rate"`
	SocialShares      int     `db:"social_shares"`
	Conversions       int     `db:"conversions"`
	SearchImpressions int     `db:"search_impressions"`
	SearchClicks      int     `db:"search_clicks"`
	AvgPosition       float64 `db:"avg_position"`
}

const selectArticles = `
	SELECT article_id, title, publish_date, word_count, keyword_density,
	       seo_score, tone, author, category, tags, promotion_activities
	FROM articles
`

const selectMetrics = `
	SELECT article_id, day_index, page_views, unique_users, avg_time_on_page,
	       bounce_rate, social_shares, conversions, search_impressions,
	       search_clicks, avg_position
	FROM article_daily_metrics
`

// ListPerformanceRecords loads every article with its daily metric
// sequences, ordered by article then day.
func (s *Store) ListPerformanceRecords(ctx context.Context) ([]domain.ArticlePerformanceRecord, error) {
	var articles []articleRow
	if err := s.db.SelectContext(ctx, &articles, selectArticles+" ORDER BY article_id"); err != nil {
		return nil, fmt.Errorf("select articles: %w", err)
	}

	var metrics []metricRow
	if err := s.db.SelectContext(ctx, &metrics,
		selectMetrics+" ORDER BY article_id, day_index"); err != nil {
		return nil, fmt.Errorf("select daily metrics: %w", err)
	}

	return assembleRecords(articles, metrics), nil
}

// GetPerformanceRecords loads the named articles with their daily metric
// sequences. Unknown IDs are silently absent from the result.
func (s *Store) GetPerformanceRecords(ctx context.Context, articleIDs []string) ([]domain.ArticlePerformanceRecord, error) {
	if len(articleIDs) == 0 {
		return nil, nil
	}

	var articles []articleRow
	if err := s.db.SelectContext(ctx, &articles,
		selectArticles+" WHERE article_id = ANY($1) ORDER BY article_id",
		pq.Array(articleIDs)); err != nil {
		return nil, fmt.Errorf("select articles: %w", err)
	}

	var metrics []metricRow
	if err := s.db.SelectContext(ctx, &metrics,
		selectMetrics+" WHERE article_id = ANY($1) ORDER BY article_id, day_index",
		pq.Array(articleIDs)); err != nil {
		return nil, fmt.Errorf("select daily metrics: %w", err)
	}

	return assembleRecords(articles, metrics), nil
}

// assembleRecords joins metric rows onto their articles. Metric rows arrive
// ordered by day index, so appending preserves the daily sequences.
func assembleRecords(articles []articleRow, metrics []metricRow) []domain.ArticlePerformanceRecord {
	records := make([]domain.ArticlePerformanceRecord, len(articles))
	index := make(map[string]*domain.ArticlePerformanceRecord, len(articles))
	for i, a := range articles {
		records[i] = domain.ArticlePerformanceRecord{
			ArticleID:           a.ArticleID,
			Title:               a.Title,
			PublishDate:         a.PublishDate,
			WordCount:           a.WordCount,
			KeywordDensity:      a.KeywordDensity,
			SEOScore:            a.SEOScore,
			Tone:                a.Tone,
			Author:              a.Author,
			Category:            a.Category,
			Tags:                a.Tags,
			PromotionActivities: a.PromotionActivities,
		}
		index[a.ArticleID] = &records[i]
	}

	for _, m := range metrics {
		rec, ok := index[m.ArticleID]
		if !ok {
			continue
		}
		rec.PageViewsDaily = append(rec.PageViewsDaily, m.PageViews)
		rec.UniqueUsers = append(rec.UniqueUsers, m.UniqueUsers)
		rec.AvgTimeOnPage = append(rec.AvgTimeOnPage, m.AvgTimeOnPage)
		rec.BounceRate = append(rec.BounceRate, m.BounceRate)
		rec.SocialShares = append(rec.SocialShares, m.SocialShares)
		rec.Conversions = append(rec.Conversions, m.Conversions)
		rec.SearchImpressions = append(rec.SearchImpressions, m.SearchImpressions)
		rec.SearchClicks = append(rec.SearchClicks, m.SearchClicks)
		rec.AvgPosition = append(rec.AvgPosition, m.AvgPosition)
	}
	return records
}

// UpsertArticle inserts or replaces an article's attributes and rewrites
// its daily metrics inside one transaction.
func (s *Store) UpsertArticle(ctx context.Context, rec *domain.ArticlePerformanceRecord) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const upsertArticle = `
		INSERT INTO articles (article_id, title, publish_date, word_count,
			keyword_density, seo_score, tone, author, category, tags,
			promotion_activities)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (article_id) DO UPDATE SET
			title = EXCLUDED.title,
			publish_date = EXCLUDED.publish_date,
			word_count = EXCLUDED.word_count,
			keyword_density = EXCLUDED.keyword_density,
			seo_score = EXCLUDED.seo_score,
			tone = EXCLUDED.tone,
			author = EXCLUDED.author,
			category = EXCLUDED.category,
			tags = EXCLUDED.tags,
			promotion_activities = EXCLUDED.promotion_activities
	`
	if _, err = tx.ExecContext(ctx, upsertArticle,
		rec.ArticleID, rec.Title, rec.PublishDate, rec.WordCount,
		rec.KeywordDensity, rec.SEOScore, rec.Tone, rec.Author, rec.Category,
		pq.Array(rec.Tags), pq.Array(rec.PromotionActivities),
	); err != nil {
		return fmt.Errorf("upsert article %s: %w", rec.ArticleID, err)
	}

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM article_daily_metrics WHERE article_id = $1", rec.ArticleID); err != nil {
		return fmt.Errorf("clear daily metrics for %s: %w", rec.ArticleID, err)
	}

	const insertMetric = `
		INSERT INTO article_daily_metrics (article_id, day_index, page_views,
			unique_users, avg_time_on_page, bounce_rate, social_shares,
			conversions, search_impressions, search_clicks, avg_position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for day := 0; day < rec.Days(); day++ {
		if _, err = tx.ExecContext(ctx, insertMetric,
			rec.ArticleID, day, rec.PageViewsDaily[day],
			intAt(rec.UniqueUsers, day), floatAt(rec.AvgTimeOnPage, day),
			floatAt(rec.BounceRate, day), intAt(rec.SocialShares, day),
			intAt(rec.Conversions, day), intAt(rec.SearchImpressions, day),
			intAt(rec.SearchClicks, day), floatAt(rec.AvgPosition, day),
		); err != nil {
			return fmt.Errorf("insert day %d metrics for %s: %w", day, rec.ArticleID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit article %s: %w", rec.ArticleID, err)
	}

	s.log.Debug("Article upserted",
		logger.String("article_id", rec.ArticleID),
		logger.Int("days", rec.Days()),
	)
	return nil
}

// intAt returns values[i], or 0 past the end of a short sequence.
func intAt(values []int, i int) int {
	if i < len(values) {
		return values[i]
	}
	return 0
}

// floatAt returns values[i], or 0 past the end of a short sequence.
func floatAt(values []float64, i int) float64 {
	if i < len(values) {
		return values[i]
	}
	return 0
}
