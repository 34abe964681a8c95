// Copyright 2026 The Recoord Authors
//
// SPDX-License-Identifier: Apache-2.0

package resolve

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ResolveError represents provider-specific resolution failures.
type ResolveError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType defines the kinds of resolution errors.
type ErrorType int

const (
	// ErrorTypeUnknown is an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit means the provider rate limit was reached.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded means the provider quota was exhausted.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout is a connection or deadline timeout.
	ErrorTypeTimeout
	// ErrorTypeNotFound means the address did not resolve to any candidate.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest means the request was malformed.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError is a transport-level failure.
	ErrorTypeNetworkError
)

func (e *ResolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks whether the error was caused by rate limiting.
func IsRateLimitError(err error) bool {
	var resErr *ResolveError
	if errors.As(err, &resErr) {
		return resErr.Type == ErrorTypeRateLimit
	}

	// Detect by common error message
	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError checks whether the error was caused by quota exhaustion.
func IsQuotaExceededError(err error) bool {
	var resErr *ResolveError
	if errors.As(err, &resErr) {
		return resErr.Type == ErrorTypeQuotaExceeded
	}

	// Detect by common error message (Google Maps)
	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsTimeoutError checks whether the error was caused by a timeout.
func IsTimeoutError(err error) bool {
	var resErr *ResolveError
	if errors.As(err, &resErr) {
		return resErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsNotFoundError checks whether the address simply did not resolve.
func IsNotFoundError(err error) bool {
	var resErr *ResolveError
	if errors.As(err, &resErr) {
		return resErr.Type == ErrorTypeNotFound
	}

	return false
}

// ClassifyHTTPStatus classifies an HTTP status code into a resolution error.
func ClassifyHTTPStatus(statusCode int) *ResolveError {
	switch statusCode {
	case http.StatusTooManyRequests: // 429
		return &ResolveError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusForbidden: // 403
		return &ResolveError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "quota exceeded or access denied",
		}
	case http.StatusBadRequest: // 400
		return &ResolveError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid request",
		}
	case http.StatusNotFound: // 404
		return &ResolveError{
			Type:    ErrorTypeNotFound,
			Message: "address not found",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &ResolveError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		return &ResolveError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}
}
