package dataset

import (
	"sync"

	"github.com/jonesrussell/article-analytics/internal/domain"
)

// CategoryEncoder assigns stable integer codes to nominal field values.
// Codes are assigned on first encounter and reused for the lifetime of the
// encoder, so repeated analyses against the same engine instance produce
// comparable codes. Access is serialized; concurrent analyses must not see
// two different codes for the same first-encountered value.
type CategoryEncoder struct {
	mu    sync.Mutex
	codes map[string]map[string]int
}

// NewCategoryEncoder creates an empty encoder.
func NewCategoryEncoder() *CategoryEncoder {
	return &CategoryEncoder{
		codes: make(map[string]map[string]int),
	}
}

// Code returns the stable code for value under field, assigning the next
// code if the value has not been seen. Codes are never reused or recycled.
func (e *CategoryEncoder) Code(field, value string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	values, ok := e.codes[field]
	if !ok {
		values = make(map[string]int)
		e.codes[field] = values
	}

	code, ok := values[value]
	if !ok {
		code = len(values)
		values[value] = code
	}
	return code
}

// Apply fills the code fields of every row from the row's nominal
// attributes. Rows are encoded in order, so a fresh encoder assigns codes
// by order of first appearance.
func (e *CategoryEncoder) Apply(rows []domain.ObservationRow) {
	for i := range rows {
		rows[i].ToneCode = float64(e.Code("tone", rows[i].Tone))
		rows[i].AuthorCode = float64(e.Code("author", rows[i].Author))
		rows[i].CategoryCode = float64(e.Code("category", rows[i].Category))
	}
}
