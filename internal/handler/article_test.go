package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/article-analytics/internal/domain"
	"github.com/jonesrussell/article-analytics/internal/handler"
	"github.com/jonesrussell/article-analytics/internal/logger"
)

// fakeWriter captures the last upserted record.
type fakeWriter struct {
	rec *domain.ArticlePerformanceRecord
	err error
}

func (f *fakeWriter) UpsertArticle(_ context.Context, rec *domain.ArticlePerformanceRecord) error {
	if f.err != nil {
		return f.err
	}
	f.rec = rec
	return nil
}

func newArticleRouter(t *testing.T, writer *fakeWriter) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	h := handler.NewArticleHandler(writer, logger.NewNop())

	router := gin.New()
	router.PUT("/api/v1/articles/:id", h.HandleUpsert)
	return router
}

func putJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleUpsert_OK(t *testing.T) {
	t.Helper()

	writer := &fakeWriter{}
	router := newArticleRouter(t, writer)

	rec := putJSON(t, router, "/api/v1/articles/a1", map[string]any{
		"title":            "Launch post",
		"publish_date":     time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		"word_count":       1200,
		"seo_score":        72.5,
		"page_views_daily": []int{120, 95, 80},
		"unique_users":     []int{90, 70},
		"tags":             []string{"images"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, writer.rec)
	assert.Equal(t, "a1", writer.rec.ArticleID)
	assert.Equal(t, "Launch post", writer.rec.Title)
	assert.Equal(t, 1200, writer.rec.WordCount)
	assert.Equal(t, []int{120, 95, 80}, writer.rec.PageViewsDaily)
	assert.Equal(t, 3, writer.rec.Days())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a1", resp["article_id"])
	assert.EqualValues(t, 3, resp["days"])
}

func TestHandleUpsert_EmptyPageViews(t *testing.T) {
	t.Helper()

	writer := &fakeWriter{}
	router := newArticleRouter(t, writer)

	rec := putJSON(t, router, "/api/v1/articles/a1", map[string]any{
		"publish_date":     time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		"page_views_daily": []int{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, writer.rec)
}

func TestHandleUpsert_MissingPublishDate(t *testing.T) {
	t.Helper()

	writer := &fakeWriter{}
	router := newArticleRouter(t, writer)

	rec := putJSON(t, router, "/api/v1/articles/a1", map[string]any{
		"page_views_daily": []int{10, 20},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, writer.rec)
}

func TestHandleUpsert_StoreFailureIs500(t *testing.T) {
	t.Helper()

	writer := &fakeWriter{err: assert.AnError}
	router := newArticleRouter(t, writer)

	rec := putJSON(t, router, "/api/v1/articles/a1", map[string]any{
		"publish_date":     time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		"page_views_daily": []int{10, 20},
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleUpsert_MalformedBodyIs400(t *testing.T) {
	t.Helper()

	writer := &fakeWriter{}
	router := newArticleRouter(t, writer)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/articles/a1",
		bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
