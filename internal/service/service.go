// Package service provides business logic for the application.
package service

import (
	"errors"
	"strings"
	"time"

	"github.com/reacts/reacts/internal/metrics"
)

// Service errors.
var (
	ErrPasswordMismatch = errors.New("Passwords do not match")
	ErrMissingFields    = errors.New("missing required fields")
	ErrNotSignedIn      = errors.New("not signed in")
	ErrUnsupportedImage = errors.New("File must be a PNG, JPEG, GIF or WebP image")
	ErrAvatarTooLarge   = errors.New("File is too large")
	ErrEmptyFile        = errors.New("File is empty")
)

// ValidationError lists the required fields that were empty.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrMissingFields
}

// BatchResult is the aggregate outcome of a bulk operation.
type BatchResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	// Missing counts the failures whose rows did not exist.
	Missing int `json:"-"`
}

// observe times a backend call.
func observe(recorder metrics.Recorder, op string, start time.Time, err error) {
	recorder.ObserveBackendCall(op, time.Since(start), err)
}
