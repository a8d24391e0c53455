package memwall

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds surfaced by the Wall. Every one of them is recoverable.
var (
	ErrValidation      = errors.New("message, author, and photo are required")
	ErrFetchFailed     = errors.New("fetch failed")
	ErrCreateFailed    = errors.New("create failed")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrDeleteFailed    = errors.New("delete failed")
	ErrResetFailed     = errors.New("reset failed")
	ErrNotConfigured   = errors.New("backing store not configured")
)

// APIError is a non-2xx answer from the record store.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("memwall: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("memwall: HTTP %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match the kinds an HTTP status implies.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrPayloadTooLarge:
		return e.StatusCode == http.StatusRequestEntityTooLarge ||
			strings.Contains(strings.ToLower(e.Message), "too large")
	case ErrNotConfigured:
		return e.StatusCode == http.StatusInternalServerError &&
			strings.Contains(strings.ToLower(e.Message), "configuration")
	}
	return false
}

// SyncError is returned by Wall operations. Kind is one of the Err* kinds
// above; Err is the underlying cause.
type SyncError struct {
	Kind error
	Err  error
}

func (e *SyncError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *SyncError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// RemoteMessage returns the record store's own error text, if any.
func (e *SyncError) RemoteMessage() string {
	var apiErr *APIError
	if errors.As(e.Err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// UserMessage turns an error from a Wall operation into banner text.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "Please fill in your message, your name and a photo."
	case errors.Is(err, ErrPayloadTooLarge):
		return "The uploaded image is too large. Please try a smaller file."
	case errors.Is(err, ErrCreateFailed):
		return "Failed to save your memory to the cloud. Please try again."
	case errors.Is(err, ErrDeleteFailed):
		return "Could not delete the memory from the server. The memory has been restored."
	case errors.Is(err, ErrResetFailed):
		return "Could not clear memories from the server. Please try again."
	case errors.Is(err, ErrFetchFailed):
		var se *SyncError
		if errors.As(err, &se) && errors.Is(se.Err, ErrNotConfigured) {
			return "Cannot fetch memories. Waiting for database connection."
		}
		return "Failed to fetch memories. The memory wall is currently unavailable. " +
			"Please check your internet connection and try again later."
	}
	return err.Error()
}
