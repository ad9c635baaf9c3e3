package delivery

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Sternrassler/banner-delivery/pkg/banner"
)

// Common errors surfaced by the handler.
var (
	// ErrInvalidID is returned when the id parameter is missing or not a UUID.
	ErrInvalidID = errors.New("invalid banner id")

	// ErrRateLimited is returned when the caller exhausted its window.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrMethodNotAllowed is returned for anything but GET and HEAD.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// ErrorClass represents a classification of delivery failures.
type ErrorClass string

const (
	// ErrorClassClient represents malformed requests.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassRateLimit represents rejected rate limit checks.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNotFound represents unknown banner identifiers.
	ErrorClassNotFound ErrorClass = "not_found"

	// ErrorClassUpstream represents configuration store failures and timeouts.
	ErrorClassUpstream ErrorClass = "upstream"

	// ErrorClassGeneration represents configs that cannot be rendered.
	ErrorClassGeneration ErrorClass = "generation"

	// ErrorClassInternal represents anything else, including recovered panics.
	ErrorClassInternal ErrorClass = "internal"
)

// DeliveryError is a failure that terminates a request. Every DeliveryError
// is answered with a harmless script, never with an error page.
type DeliveryError struct {
	Status  int
	Class   ErrorClass
	Message string
	Err     error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("delivery %s error (status %d): %s: %v",
			e.Class, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("delivery %s error (status %d): %s",
		e.Class, e.Status, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// consoleLevel picks the console method used by the stub script.
func (e *DeliveryError) consoleLevel() string {
	switch e.Class {
	case ErrorClassClient, ErrorClassRateLimit, ErrorClassNotFound:
		return banner.LevelWarn
	default:
		return banner.LevelError
	}
}

// classifyStoreError maps a configuration store failure to a DeliveryError.
func classifyStoreError(op string, err error) *DeliveryError {
	if errors.Is(err, banner.ErrNotFound) {
		return &DeliveryError{
			Status:  http.StatusNotFound,
			Class:   ErrorClassNotFound,
			Message: "banner not found",
			Err:     err,
		}
	}
	return &DeliveryError{
		Status:  http.StatusInternalServerError,
		Class:   ErrorClassUpstream,
		Message: "banner temporarily unavailable",
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}
