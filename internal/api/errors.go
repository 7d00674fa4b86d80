package api

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the normalized form of every non-2xx server response. The
// Message is user-facing; Data keeps the parsed response body for callers
// that need field-level details.
type APIError struct {
	Status  int
	Message string
	Data    map[string]any
	Offline bool
}

func (e *APIError) Error() string {
	return e.Message
}

// NetworkError means no response was obtained from any candidate endpoint.
type NetworkError struct {
	Err     error
	Message string
	Offline bool
}

func (e *NetworkError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetwork reports whether err means no server response was obtained.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsOffline reports whether the client was detected offline when err was
// produced.
func IsOffline(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Offline
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Offline
	}
	return false
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusNotFound
}

// IsAuth reports whether err is a 401 or 403 response.
func IsAuth(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) &&
		(ae.Status == http.StatusUnauthorized || ae.Status == http.StatusForbidden)
}

// IsValidation reports whether err is a 400 response.
func IsValidation(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Status == http.StatusBadRequest
}
