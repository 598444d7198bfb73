package errors

import (
	"errors"
	"fmt"
)

// Category classifies error types for targeted handling and monitoring.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryRemote     Category = "remote"
	CategorySnapshot   Category = "snapshot"
	CategoryExport     Category = "export"
	CategoryRender     Category = "render"
	CategoryStorage    Category = "storage"
	CategoryConfig     Category = "config"
	CategoryTransient  Category = "transient"
)

// EditError is the structured error type used throughout the module.
type EditError struct {
	Category  Category
	Op        string // operation name
	Err       error
	Retryable bool
}

func (e *EditError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *EditError) Unwrap() error { return e.Err }

// New creates a non-retryable EditError.
func New(category Category, op string, err error) *EditError {
	return &EditError{Category: category, Op: op, Err: err}
}

// Transient creates a retryable EditError.
func Transient(op string, err error) *EditError {
	return &EditError{Category: CategoryTransient, Op: op, Err: err, Retryable: true}
}

// Wrap wraps an existing error with context.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// IsRetryable reports whether err represents a transient failure.
func IsRetryable(err error) bool {
	var ee *EditError
	if errors.As(err, &ee) {
		return ee.Retryable
	}
	return false
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	var ee *EditError
	if errors.As(err, &ee) {
		return ee.Category == cat
	}
	return false
}

// Sentinel errors for common failure modes.
var (
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrMalformedSnapshot   = errors.New("malformed scene snapshot")
	ErrNoActiveImage       = errors.New("no image object on canvas")
	ErrInvalidDimensions   = errors.New("invalid dimensions")
	ErrUnsupportedFormat   = errors.New("unsupported image format")
	ErrEmptyResult         = errors.New("remote edit returned no result")
	ErrStaleResult         = errors.New("stale remote result discarded")
	ErrTaintedCanvas       = errors.New("canvas tainted by cross-origin image")
	ErrSceneDisposed       = errors.New("scene has been disposed")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)
