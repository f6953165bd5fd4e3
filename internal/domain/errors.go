package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFitted is returned when a recommendation is requested before the
	// reference table has been loaded
	ErrNotFitted = errors.New("recommender has not been fitted with historical data")

	// ErrNoHistoricalData is the reason carried by an error recommendation
	// when no observation matches the commodity/province pair
	ErrNoHistoricalData = errors.New("no historical data for this commodity/province pair")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrProfileNotFound is returned when the lookup table has no row for a location
	ErrProfileNotFound = errors.New("agronomic profile not found in lookup table")

	// ErrPredictorFailure is returned when the model-serving endpoint fails
	ErrPredictorFailure = errors.New("prediction service request failed")

	// ErrPredictorDisabled is returned when no prediction service is configured
	ErrPredictorDisabled = errors.New("prediction service not configured")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUnsupportedFormat is returned when a dataset file type has no loader
	ErrUnsupportedFormat = errors.New("unsupported dataset format")
)

// SchemaError reports a dataset that does not satisfy the observation schema.
// Either MissingColumns is set, or Row/Column identify the offending cell.
type SchemaError struct {
	MissingColumns []string
	Row            int // 1-based data row, header excluded
	Column         string
	Value          string
	Reason         string
}

func (e *SchemaError) Error() string {
	if len(e.MissingColumns) > 0 {
		return fmt.Sprintf("dataset must contain columns: %s (missing: %s)",
			strings.Join(RequiredObservationColumns, ", "),
			strings.Join(e.MissingColumns, ", "))
	}
	if e.Value == "" {
		return fmt.Sprintf("row %d column %s: %s", e.Row, e.Column, e.Reason)
	}
	return fmt.Sprintf("row %d column %s: %s (%q)", e.Row, e.Column, e.Reason, e.Value)
}

// IsSchemaError reports whether err is or wraps a *SchemaError
func IsSchemaError(err error) bool {
	var schemaErr *SchemaError
	return errors.As(err, &schemaErr)
}
