package dataset_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/article-analytics/internal/dataset"
	"github.com/jonesrussell/article-analytics/internal/domain"
)

func TestCategoryEncoder_StableCodes(t *testing.T) {
	t.Helper()

	enc := dataset.NewCategoryEncoder()

	first := enc.Code("tone", "formal")
	second := enc.Code("tone", "casual")
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)

	// Repeated encoding of the same sequence yields the same codes.
	assert.Equal(t, 0, enc.Code("tone", "formal"))
	assert.Equal(t, 1, enc.Code("tone", "casual"))
}

func TestCategoryEncoder_UnseenValuesAppend(t *testing.T) {
	t.Helper()

	enc := dataset.NewCategoryEncoder()
	enc.Code("author", "author_a")
	enc.Code("author", "author_b")

	// A later encode call appends a new code; nothing is recycled.
	assert.Equal(t, 2, enc.Code("author", "author_c"))
	assert.Equal(t, 0, enc.Code("author", "author_a"))
}

func TestCategoryEncoder_FieldsIndependent(t *testing.T) {
	t.Helper()

	enc := dataset.NewCategoryEncoder()
	assert.Equal(t, 0, enc.Code("tone", "formal"))
	assert.Equal(t, 0, enc.Code("category", "formal"))
}

func TestCategoryEncoder_Apply(t *testing.T) {
	t.Helper()

	rows := []domain.ObservationRow{
		{ArticleID: "a1", Date: time.Now(), Tone: "formal", Author: "x", Category: "news"},
		{ArticleID: "a2", Date: time.Now(), Tone: "casual", Author: "y", Category: "news"},
		{ArticleID: "a3", Date: time.Now(), Tone: "formal", Author: "x", Category: "opinion"},
	}

	enc := dataset.NewCategoryEncoder()
	enc.Apply(rows)

	assert.Equal(t, 0.0, rows[0].ToneCode)
	assert.Equal(t, 1.0, rows[1].ToneCode)
	assert.Equal(t, 0.0, rows[2].ToneCode)

	assert.Equal(t, 0.0, rows[0].CategoryCode)
	assert.Equal(t, 0.0, rows[1].CategoryCode)
	assert.Equal(t, 1.0, rows[2].CategoryCode)

	// A second application reuses the established mapping.
	enc.Apply(rows)
	assert.Equal(t, 1.0, rows[1].ToneCode)
}
