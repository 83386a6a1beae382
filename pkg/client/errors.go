package client

import (
	"errors"
	"fmt"
)

// Common errors returned by the client.
var (
	// ErrFetchFailed is matched by every upstream failure (network, non-2xx, bad payload).
	ErrFetchFailed = errors.New("catalog fetch failed")

	// ErrCityNotFound is returned when no city has exactly the requested name.
	ErrCityNotFound = errors.New("city not found")

	// ErrPubNotFound is returned when no pub in the city has exactly the requested name.
	ErrPubNotFound = errors.New("pub not found")
)

// ErrorClass represents a classification of catalog failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a payload that is not the expected JSON shape.
	ErrorClassDecode ErrorClass = "decode"
)

// CatalogError represents a failed catalog request with additional context.
type CatalogError struct {
	StatusCode int
	Class      ErrorClass
	Path       string
	Err        error
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog %s error (status %d) on %s: %v",
			e.Class, e.StatusCode, e.Path, e.Err)
	}
	return fmt.Sprintf("catalog %s error on %s: %v", e.Class, e.Path, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *CatalogError) Unwrap() error {
	return e.Err
}

// Is reports every CatalogError as ErrFetchFailed.
func (e *CatalogError) Is(target error) bool {
	return target == ErrFetchFailed
}

// classifyStatus maps a non-2xx status code to an error class.
func classifyStatus(statusCode int) ErrorClass {
	if statusCode >= 500 {
		return ErrorClassServer
	}
	return ErrorClassClient
}
