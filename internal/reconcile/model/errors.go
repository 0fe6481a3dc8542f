package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is returned when matching options fail validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMalformedDataset is returned when an input table cannot be turned into records.
	ErrMalformedDataset = errors.New("malformed dataset")

	// ErrUnsupportedFile is returned for file extensions no reader handles.
	ErrUnsupportedFile = errors.New("unsupported file")

	// ErrGeocodeFailed is returned by locators when no locality could be resolved.
	ErrGeocodeFailed = errors.New("reverse geocoding failed")

	// ErrNoCoordinates is returned when a table has no latitude/longitude columns.
	ErrNoCoordinates = errors.New("no coordinate columns")
)

// ValidationError describes one rejected configuration field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// Is lets errors.Is(err, ErrInvalidConfig) match.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidConfig }
