package domain

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested record does not exist
	ErrNotFound = errors.New("record not found")

	// ErrServerOffline indicates the server is unreachable
	ErrServerOffline = errors.New("server is unreachable")

	// ErrAuthFailed indicates the API key was rejected
	ErrAuthFailed = errors.New("api key is invalid")

	// ErrNoInstance indicates no instance of the requested type is configured
	ErrNoInstance = errors.New("no instance configured")

	// ErrInstanceNotFound indicates an unknown instance id
	ErrInstanceNotFound = errors.New("instance not found")
)

// ErrorKind classifies API failures
type ErrorKind int

const (
	ErrorUnknown ErrorKind = iota
	ErrorNotConnected
	ErrorTimeout
	ErrorBadStatusCode
	ErrorDecodeFailure
	ErrorServerError
	ErrorCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorNotConnected:
		return "not connected"
	case ErrorTimeout:
		return "timeout"
	case ErrorBadStatusCode:
		return "bad status code"
	case ErrorDecodeFailure:
		return "decode failure"
	case ErrorServerError:
		return "server error"
	case ErrorCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// APIError is a classified adapter failure
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch e.Kind {
	case ErrorServerError:
		return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
	case ErrorBadStatusCode:
		return fmt.Sprintf("unexpected status code %d", e.StatusCode)
	case ErrorDecodeFailure:
		return fmt.Sprintf("failed to decode response: %v", e.Err)
	case ErrorNotConnected:
		if e.Err != nil {
			return fmt.Sprintf("not connected: %v", e.Err)
		}
		return "not connected"
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return e.Kind.String()
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// Is lets errors.Is match the sentinel errors against classified failures
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrServerOffline:
		return e.Kind == ErrorNotConnected || e.Kind == ErrorTimeout
	case ErrAuthFailed:
		return e.StatusCode == 401
	case ErrNotFound:
		return e.StatusCode == 404
	case context.Canceled:
		return e.Kind == ErrorCancelled
	}
	return false
}

// KindOf returns the classification of err, or ErrorUnknown
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, context.Canceled) {
		return ErrorCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTimeout
	}
	return ErrorUnknown
}

// IsCancelled reports whether err stems from a cancelled request
func IsCancelled(err error) bool {
	return err != nil && KindOf(err) == ErrorCancelled
}

// IsOffline reports whether err is a connectivity failure
func IsOffline(err error) bool {
	if err == nil {
		return false
	}
	k := KindOf(err)
	return k == ErrorNotConnected || k == ErrorTimeout
}

// ShouldAlert reports whether the user should be told about err.
// Cancellation never alerts; connectivity errors are suppressed when ignoreOffline.
func ShouldAlert(err error, ignoreOffline bool) bool {
	if err == nil || IsCancelled(err) {
		return false
	}
	if ignoreOffline && IsOffline(err) {
		return false
	}
	return true
}

// ValidationKind names why an instance failed validation
type ValidationKind int

const (
	ValidationURLInvalid ValidationKind = iota
	ValidationUnreachable
	ValidationWrongAppType
	ValidationBadStatus
	ValidationBadResponse
	ValidationErrorResponse
)

// ValidationError is returned by instance validation
type ValidationError struct {
	Kind       ValidationKind
	StatusCode int
	Expected   InstanceType
	Found      string
	Message    string
	Err        error
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ValidationURLInvalid:
		return "url is invalid"
	case ValidationUnreachable:
		return "server is unreachable"
	case ValidationWrongAppType:
		return fmt.Sprintf("expected %s but found %q", e.Expected.AppName(), e.Found)
	case ValidationBadStatus:
		return fmt.Sprintf("server responded with status %d", e.StatusCode)
	case ValidationBadResponse:
		return "server response could not be read"
	case ValidationErrorResponse:
		return fmt.Sprintf("server returned an error: %s", e.Message)
	default:
		return "validation failed"
	}
}

func (e *ValidationError) Unwrap() error { return e.Err }

// RecoverySuggestion returns a hint for fixing the configuration
func (e *ValidationError) RecoverySuggestion() string {
	switch e.Kind {
	case ValidationURLInvalid:
		return "Enter a full URL including the scheme, e.g. http://192.168.1.10:7878"
	case ValidationUnreachable:
		return "Check that the server is running and reachable from this machine."
	case ValidationWrongAppType:
		return fmt.Sprintf("This URL points to %q. Use the address of your %s server.", e.Found, e.Expected.AppName())
	case ValidationBadStatus:
		if e.StatusCode == 401 || e.StatusCode == 403 {
			return "Verify the API key under Settings > General in the web interface."
		}
		return "Check the URL base setting and any reverse proxy in front of the server."
	case ValidationBadResponse:
		return "The address did not return a valid API response. Check the URL base."
	case ValidationErrorResponse:
		return "Check the server logs for details."
	default:
		return ""
	}
}
