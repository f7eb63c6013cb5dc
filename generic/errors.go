/*
errors.go - Centralized error types for the capacity engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Configuration errors - Invalid engine settings (the only fatal class)
  2. Input errors - Malformed dates, hours, periods from callers
  3. Store errors - Missing or conflicting records

USAGE:
  The engine itself never fails on bad records, it reports them as warnings.
  Errors surface at construction time and at the store/API boundary:

    if errors.Is(err, generic.ErrInvalidConfig) {
        log.Fatal(err)
    }

SEE ALSO:
  - capacity/config.go: Returns ConfigError
  - api/handlers.go: Maps errors to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfig is returned when engine configuration cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidPeriod is returned when a period is malformed (end before start)
	// in a context that requires a non-empty period.
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidDate is returned when a date string cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidHours is returned when an hour quantity cannot be parsed or is negative.
	ErrInvalidHours = errors.New("invalid hours")

	// ErrUnknownPeriodKind is returned for an unrecognized named period.
	ErrUnknownPeriodKind = errors.New("unknown period kind")

	// ErrUnknownPreset is returned for an unrecognized norm preset.
	ErrUnknownPreset = errors.New("unknown norm preset")

	// ErrUnknownActivity is returned for an unrecognized activity type.
	ErrUnknownActivity = errors.New("unknown activity type")

	// ErrPersonNotFound is returned when a referenced person doesn't exist.
	ErrPersonNotFound = errors.New("person not found")

	// ErrUnitNotFound is returned when a referenced unit doesn't exist.
	ErrUnitNotFound = errors.New("unit not found")

	// ErrWorkItemNotFound is returned when a referenced work item doesn't exist.
	ErrWorkItemNotFound = errors.New("work item not found")

	// ErrAlertNotFound is returned when no resolution is recorded for an alert.
	ErrAlertNotFound = errors.New("alert not found")

	// ErrMissingID is returned when a record is saved without an identifier.
	ErrMissingID = errors.New("missing identifier")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigError names the configuration field that was rejected.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// ValidationError describes a rejected input record at the store or API boundary.
type ValidationError struct {
	Kind    string // "person", "work_item", "time_log", ...
	ID      string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, e.ID, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidHours) ||
		errors.Is(err, ErrUnknownPeriodKind) ||
		errors.Is(err, ErrUnknownPreset) ||
		errors.Is(err, ErrUnknownActivity) ||
		errors.Is(err, ErrMissingID)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPersonNotFound) ||
		errors.Is(err, ErrUnitNotFound) ||
		errors.Is(err, ErrWorkItemNotFound) ||
		errors.Is(err, ErrAlertNotFound)
}
