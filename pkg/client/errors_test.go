package client

import (
	"context"
	"errors"
	"testing"
)

func TestCatalogError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *CatalogError
		expected string
	}{
		{
			name: "status error",
			err: &CatalogError{
				StatusCode: 500,
				Class:      ErrorClassServer,
				Path:       "/cities",
				Err:        errors.New("500 Internal Server Error"),
			},
			expected: "catalog server error (status 500) on /cities: 500 Internal Server Error",
		},
		{
			name: "network error",
			err: &CatalogError{
				Class: ErrorClassNetwork,
				Path:  "/pubs/1/taps",
				Err:   errors.New("connection refused"),
			},
			expected: "catalog network error on /pubs/1/taps: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestCatalogError_Is(t *testing.T) {
	err := &CatalogError{
		Class: ErrorClassNetwork,
		Path:  "/cities",
		Err:   context.DeadlineExceeded,
	}

	if !errors.Is(err, ErrFetchFailed) {
		t.Error("CatalogError should match ErrFetchFailed")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("CatalogError should unwrap to its cause")
	}
	if errors.Is(err, ErrCityNotFound) {
		t.Error("CatalogError should not match ErrCityNotFound")
	}

	var catalogErr *CatalogError
	if !errors.As(err, &catalogErr) || catalogErr.Path != "/cities" {
		t.Error("errors.As should extract CatalogError")
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{400, ErrorClassClient},
		{401, ErrorClassClient},
		{404, ErrorClassClient},
		{429, ErrorClassClient},
		{500, ErrorClassServer},
		{503, ErrorClassServer},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.want {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
