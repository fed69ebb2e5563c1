package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/article-analytics/internal/domain"
	"github.com/jonesrussell/article-analytics/internal/logger"
)

// ArticleWriter persists an article with its daily metric sequences.
type ArticleWriter interface {
	UpsertArticle(ctx context.Context, rec *domain.ArticlePerformanceRecord) error
}

// ArticleHandler handles article ingest requests.
type ArticleHandler struct {
	store ArticleWriter
	log   logger.Logger
}

// NewArticleHandler creates an ArticleHandler with the given dependencies.
func NewArticleHandler(store ArticleWriter, log logger.Logger) *ArticleHandler {
	return &ArticleHandler{store: store, log: log}
}

type articleRequest struct {
	Title               string    `json:"title"`
	PublishDate         time.Time `json:"publish_date"`
	WordCount           int       `json:"word_count"`
	KeywordDensity      float64   `json:"keyword_density"`
	SEOScore            float64   `json:"seo_score"`
	Tone                string    `json:"tone"`
	Author              string    `json:"author"`
	Category            string    `json:"category"`
	PageViewsDaily      []int     `json:"page_views_daily"`
	UniqueUsers         []int     `json:"unique_users"`
	AvgTimeOnPage       []float64 `json:"avg_time_on_page"`
	BounceRate          []float64 `json:"bounce_rate"`
	SocialShares        []int     `json:"social_shares"`
	Conversions         []int     `json:"conversions"`
	SearchImpressions   []int     `json:"search_impressions"`
	SearchClicks        []int     `json:"search_clicks"`
	AvgPosition         []float64 `json:"avg_position"`
	Tags                []string  `json:"tags"`
	PromotionActivities []string  `json:"promotion_activities"`
}

// HandleUpsert stores an article's attributes and daily metric sequences
// under the path article ID, replacing any previous version.
func (h *ArticleHandler) HandleUpsert(c *gin.Context) {
	articleID := c.Param("id")

	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.PublishDate.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "publish_date is required"})
		return
	}
	if len(req.PageViewsDaily) == 0 {
		dimErr := &domain.DimensionMismatchError{ArticleID: articleID}
		c.JSON(http.StatusBadRequest, gin.H{"error": dimErr.Error()})
		return
	}

	rec := domain.ArticlePerformanceRecord{
		ArticleID:           articleID,
		Title:               req.Title,
		PublishDate:         req.PublishDate,
		WordCount:           req.WordCount,
		KeywordDensity:      req.KeywordDensity,
		SEOScore:            req.SEOScore,
		Tone:                req.Tone,
		Author:              req.Author,
		Category:            req.Category,
		PageViewsDaily:      req.PageViewsDaily,
		UniqueUsers:         req.UniqueUsers,
		AvgTimeOnPage:       req.AvgTimeOnPage,
		BounceRate:          req.BounceRate,
		SocialShares:        req.SocialShares,
		Conversions:         req.Conversions,
		SearchImpressions:   req.SearchImpressions,
		SearchClicks:        req.SearchClicks,
		AvgPosition:         req.AvgPosition,
		Tags:                req.Tags,
		PromotionActivities: req.PromotionActivities,
	}
	if err := h.store.UpsertArticle(c.Request.Context(), &rec); err != nil {
		h.log.Error("Failed to store article",
			logger.String("article_id", articleID),
			logger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store article"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"article_id": articleID, "days": rec.Days()})
}
