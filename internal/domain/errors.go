package domain

import (
	"fmt"
	"strings"
)

// DimensionMismatchError reports a record whose primary metric sequence is
// empty, so no observation rows can be built for it.
type DimensionMismatchError struct {
	ArticleID string
}

// Error returns the formatted error message.
func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("article %s: page views sequence is empty, no days to observe", e.ArticleID)
}

// InvalidGroupError reports treatment/control groups that are empty,
// overlapping, or reference unknown article IDs.
type InvalidGroupError struct {
	Reason string
}

// Error returns the formatted error message.
func (e *InvalidGroupError) Error() string {
	return fmt.Sprintf("invalid treatment/control groups: %s", e.Reason)
}

// UnknownFieldError reports a target or feature field name that does not
// exist on ObservationRow.
type UnknownFieldError struct {
	Field string
}

// Error returns the formatted error message.
func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown observation field %q", e.Field)
}

// InsufficientDataError reports fewer observations than a method's minimum
// requirement. The report aggregator downgrades this to a partial result;
// direct callers receive it as an error.
type InsufficientDataError struct {
	Analysis string
	Rows     int
	Minimum  int
}

// Error returns the formatted error message.
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s requires at least %d observations, got %d", e.Analysis, e.Minimum, e.Rows)
}

// NumericalInstabilityError reports a singular or near-singular design
// matrix. Features carries the names most implicated (highest variance
// inflation) so the caller can remove them.
type NumericalInstabilityError struct {
	Features []string
}

// Error returns the formatted error message.
func (e *NumericalInstabilityError) Error() string {
	if len(e.Features) == 0 {
		return "design matrix is singular or near-singular"
	}
	return fmt.Sprintf("design matrix is singular or near-singular; suspect features: %s",
		strings.Join(e.Features, ", "))
}
