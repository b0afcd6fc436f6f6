// Package errors provides centralized error definitions for the application.
// Errors are organized by failure granularity so callers can decide whether a
// failure is fatal to an iteration, a row, or the whole benchmark run.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Benchmark pipeline errors.
var (
	// ErrExtraction indicates search-query extraction failed. Fatal to the row.
	ErrExtraction = errors.New("query extraction failed")

	// ErrRetrieval indicates evidence retrieval failed. Fatal to the row under the
	// strict retrieval policy, degraded to empty evidence under the lenient one.
	ErrRetrieval = errors.New("evidence retrieval failed")

	// ErrCall indicates a single model call failed. Fatal to the iteration only.
	ErrCall = errors.New("model call failed")

	// ErrConfiguration indicates an unrecognized prompt or enum configuration.
	// Fatal to the whole run and surfaced to the caller immediately.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrStore indicates a persistence failure.
	ErrStore = errors.New("store operation failed")

	// ErrNoUsableRows indicates a benchmark produced no usable rows.
	ErrNoUsableRows = errors.New("no usable rows")
)

// Circuit breaker errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Lookup errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")
)

// Response and parsing errors.
var (
	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrNoResults indicates no results were found.
	ErrNoResults = errors.New("no results")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates a request without valid credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
