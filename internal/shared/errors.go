package shared

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrRateLimited        = fmt.Errorf("rate limited")
	ErrNetwork            = fmt.Errorf("network error")
	ErrInvalidRequest     = fmt.Errorf("invalid request")

	// Transfer errors
	ErrNoTracks    = fmt.Errorf("no tracks to transfer")
	ErrCancelled   = fmt.Errorf("transfer cancelled")
	ErrJobNotFound = fmt.Errorf("job not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ErrorKind classifies catalog and playlist failures for retry decisions.
type ErrorKind int

const (
	KindNetwork ErrorKind = iota
	KindRateLimited
	KindAuth
	KindInvalidRequest
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRateLimited:
		return "rate_limited"
	case KindAuth:
		return "auth"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// Retryable reports whether failures of this kind are transient.
func (k ErrorKind) Retryable() bool {
	return k == KindNetwork || k == KindRateLimited
}

// sentinel maps the kind onto the package sentinel so callers can use [errors.Is].
func (k ErrorKind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindRateLimited:
		return ErrRateLimited
	case KindAuth:
		return ErrAuthFailed
	default:
		return ErrInvalidRequest
	}
}

// CatalogError is returned by catalog searches and playlist mutations.
type CatalogError struct {
	Kind       ErrorKind
	Op         string        // e.g. "search", "add_track"
	StatusCode int           // HTTP status when available
	RetryAfter time.Duration // server supplied hint, zero when absent
	Err        error
}

func (e *CatalogError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CatalogError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// NewCatalogError builds a [CatalogError] for op.
func NewCatalogError(kind ErrorKind, op string, err error) *CatalogError {
	return &CatalogError{Kind: kind, Op: op, Err: err}
}

// IsRetryable reports whether err is a transient catalog failure.
//
// Unclassified errors are not retryable; cancellation never is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ce *CatalogError
	if errors.As(err, &ce) {
		return ce.Kind.Retryable()
	}
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrRateLimited)
}

// RetryAfter extracts the server supplied retry hint from err, if any.
func RetryAfter(err error) time.Duration {
	var ce *CatalogError
	if errors.As(err, &ce) {
		return ce.RetryAfter
	}
	return 0
}
