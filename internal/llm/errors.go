package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Category classifies provider failures so callers can decide on retry and
// user-facing messaging without inspecting vendor payloads.
type Category string

const (
	CategoryBadRequest  Category = "bad_request"
	CategoryAuth        Category = "auth"
	CategoryRateLimit   Category = "rate_limit"
	CategoryUnavailable Category = "unavailable"
	CategoryUnknown     Category = "unknown"
)

// ProviderError is returned when an LLM provider fails.
type ProviderError struct {
	Provider string
	Category Category
	Code     int // HTTP status code, 0 for transport failures
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %s (%d): %s", e.Provider, e.Category, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether the same request may succeed later.
func (e *ProviderError) Retryable() bool {
	return e.Category == CategoryRateLimit || e.Category == CategoryUnavailable
}

// UserMessage returns text suitable for showing to the end user.
func (e *ProviderError) UserMessage() string {
	switch e.Category {
	case CategoryBadRequest:
		return "The request was rejected by the model provider. Check the input and try again."
	case CategoryAuth:
		return "Authentication with the model provider failed. Check the API key."
	case CategoryRateLimit:
		return "Too many requests. Please wait a moment and try again."
	case CategoryUnavailable:
		return fmt.Sprintf("%s is unavailable right now. Please try again later.", e.Provider)
	default:
		return "An unexpected error occurred while contacting the model provider."
	}
}

// CategoryForStatus maps an HTTP status code to a failure category.
func CategoryForStatus(code int) Category {
	switch {
	case code == http.StatusBadRequest, code == http.StatusNotFound,
		code == http.StatusRequestEntityTooLarge, code == http.StatusUnprocessableEntity:
		return CategoryBadRequest
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return CategoryAuth
	case code == http.StatusTooManyRequests:
		return CategoryRateLimit
	case code >= 500 && code <= 599:
		// 529 is Anthropic's "overloaded".
		return CategoryUnavailable
	default:
		return CategoryUnknown
	}
}

// CategoryOf extracts the category of err, or CategoryUnknown.
func CategoryOf(err error) Category {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	if isTransportError(err) {
		return CategoryUnavailable
	}
	return CategoryUnknown
}

// IsRetryable reports whether err is a retryable provider failure.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

func statusError(provider string, code int, message string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Category: CategoryForStatus(code),
		Code:     code,
		Message:  message,
	}
}

func transportError(provider string, err error) *ProviderError {
	cat := CategoryUnknown
	if isTransportError(err) {
		cat = CategoryUnavailable
	}
	return &ProviderError{
		Provider: provider,
		Category: cat,
		Message:  err.Error(),
		Err:      err,
	}
}

func isTransportError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
