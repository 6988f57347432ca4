package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind tags a classified transport error. The set is closed: callers
// switch over it exhaustively instead of type-testing.
type Kind int

const (
	// KindAuthentication covers invalid or expired credentials and HTTP 401.
	KindAuthentication Kind = iota
	// KindAuthorization covers HTTP 403.
	KindAuthorization
	// KindValidation covers HTTP 400 responses tagged validation_error.
	KindValidation
	// KindModeration covers HTTP 400 responses tagged moderation_error.
	KindModeration
	// KindRateLimit covers HTTP 429.
	KindRateLimit
	// KindProvider covers HTTP 502/503/504 from the upstream model provider.
	KindProvider
	// KindAPI covers any other non-2xx response.
	KindAPI
	// KindSerialization covers bodies that fail to encode or decode.
	KindSerialization
	// KindNetwork covers connection-level failures (refused, DNS, reset).
	KindNetwork
	// KindTimeout covers deadline expiry and caller cancellation.
	KindTimeout
	// KindConfiguration covers invalid options at construction.
	KindConfiguration
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindValidation:
		return "validation"
	case KindModeration:
		return "moderation"
	case KindRateLimit:
		return "rate_limit"
	case KindProvider:
		return "provider"
	case KindAPI:
		return "api"
	case KindSerialization:
		return "serialization"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// retryable reports whether the kind may be retried. Rate limits, upstream
// provider failures and transport-level transient failures are retryable;
// everything else terminates the call.
func (k Kind) retryable() bool {
	switch k {
	case KindRateLimit, KindProvider, KindNetwork, KindTimeout:
		return true
	default:
		return false
	}
}

// Error is the one classified error value produced by the transport. Kind
// selects the variant; the remaining fields are the variant payloads and
// are populated per kind.
type Error struct {
	// Kind classifies the error.
	Kind Kind
	// StatusCode is the HTTP status (0 for failures before a response).
	StatusCode int
	// Code is the error code from the response envelope, when present.
	Code string
	// Message describes the error.
	Message string
	// RequestID correlates the failure with gateway logs, when known.
	RequestID string
	// RetryAfter is the server-directed wait for rate-limit errors.
	RetryAfter time.Duration
	// Provider names the upstream model provider for provider errors.
	Provider string
	// Fields holds per-field messages for validation errors.
	Fields map[string][]string
	// Field names the offending option for configuration errors.
	Field string
	// Target names the decode target type for serialization errors.
	Target string
	// Timeout is the configured deadline for timeout errors.
	Timeout time.Duration
	// Body is the raw response body, when one was read.
	Body []byte
	// Retryable indicates whether the operation may be retried.
	Retryable bool
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("routerkit: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("routerkit: %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// RetryAfterHint reports the server-directed wait so the retry loop can
// honor it. Implements resilience.RetryAfterHinter.
func (e *Error) RetryAfterHint() time.Duration {
	return e.RetryAfter
}

// newError creates an error of the given kind with retryability derived
// from the kind.
func newError(kind Kind, message string) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Retryable: kind.retryable(),
	}
}

// NewNetworkError creates a connection-level error.
func NewNetworkError(err error) *Error {
	e := newError(KindNetwork, err.Error())
	e.Err = err
	return e
}

// NewTimeoutError creates a deadline/cancellation error carrying the
// configured timeout (zero when the caller canceled without a deadline).
func NewTimeoutError(timeout time.Duration, err error) *Error {
	e := newError(KindTimeout, "request deadline exceeded")
	if errors.Is(err, context.Canceled) {
		e.Message = "request canceled"
	}
	e.Timeout = timeout
	e.Err = err
	return e
}

// NewSerializationError creates an encode/decode error carrying the raw
// body and the target type name.
func NewSerializationError(target string, body []byte, err error) *Error {
	e := newError(KindSerialization, fmt.Sprintf("decode response into %s: %v", target, err))
	e.Target = target
	e.Body = body
	e.Err = err
	return e
}

// NewConfigurationError creates a construction-time configuration error
// naming the offending field.
func NewConfigurationError(field, message string) *Error {
	e := newError(KindConfiguration, fmt.Sprintf("%s %s", field, message))
	e.Field = field
	return e
}

// newAuthError reports a credential the provider refused to supply.
func newAuthError(err error) *Error {
	e := newError(KindAuthentication, fmt.Sprintf("credential unavailable: %v", err))
	e.Err = err
	return e
}

// errorEnvelope is the gateway's structured error body.
type errorEnvelope struct {
	Error *errorDetail `json:"error"`
}

type errorDetail struct {
	Message          string              `json:"message"`
	Code             string              `json:"code"`
	ValidationErrors map[string][]string `json:"validation_errors"`
	RetryAfter       *float64            `json:"retry_after"`
	ProviderName     string              `json:"provider_name"`
}

// Classify maps a non-success HTTP response to a classified error.
// Returns nil for 2xx status codes. The mapping is deterministic and
// checked in order; when the body is not a parseable envelope the message
// defaults to "request failed with status <code>" and classification
// proceeds on status alone.
func Classify(statusCode int, body []byte, header http.Header) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var detail errorDetail
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		detail = *envelope.Error
	}

	message := detail.Message
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", statusCode)
	}

	var e *Error
	switch {
	case statusCode == http.StatusUnauthorized:
		e = newError(KindAuthentication, message)
	case statusCode == http.StatusForbidden:
		e = newError(KindAuthorization, message)
	case statusCode == http.StatusBadRequest && detail.Code == "validation_error":
		e = newError(KindValidation, message)
		e.Fields = detail.ValidationErrors
	case statusCode == http.StatusBadRequest && detail.Code == "moderation_error":
		e = newError(KindModeration, message)
	case statusCode == http.StatusTooManyRequests:
		e = newError(KindRateLimit, message)
		e.RetryAfter = retryAfterFrom(detail, header)
	case statusCode == http.StatusBadGateway,
		statusCode == http.StatusServiceUnavailable,
		statusCode == http.StatusGatewayTimeout:
		e = newError(KindProvider, message)
		e.Provider = detail.ProviderName
		if e.Provider == "" {
			e.Provider = "unknown"
		}
	default:
		e = newError(KindAPI, message)
	}

	e.StatusCode = statusCode
	e.Code = detail.Code
	e.Body = body
	return e
}

// retryAfterFrom extracts the server-directed wait: the envelope seconds
// field wins, then the Retry-After header (seconds or HTTP-date).
func retryAfterFrom(detail errorDetail, header http.Header) time.Duration {
	if detail.RetryAfter != nil && *detail.RetryAfter > 0 {
		return time.Duration(*detail.RetryAfter * float64(time.Second))
	}
	if header == nil {
		return 0
	}
	v := header.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs > 0 {
			return time.Duration(secs) * time.Second
		}
		return 0
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

// is reports whether err carries a classified error of the given kind.
func is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// IsAuthentication checks if an error is an authentication error.
func IsAuthentication(err error) bool { return is(err, KindAuthentication) }

// IsAuthorization checks if an error is an authorization error.
func IsAuthorization(err error) bool { return is(err, KindAuthorization) }

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool { return is(err, KindValidation) }

// IsModeration checks if an error is a moderation error.
func IsModeration(err error) bool { return is(err, KindModeration) }

// IsRateLimit checks if an error is a rate-limit error.
func IsRateLimit(err error) bool { return is(err, KindRateLimit) }

// IsProvider checks if an error is an upstream provider error.
func IsProvider(err error) bool { return is(err, KindProvider) }

// IsAPI checks if an error is a generic API error.
func IsAPI(err error) bool { return is(err, KindAPI) }

// IsSerialization checks if an error is a serialization error.
func IsSerialization(err error) bool { return is(err, KindSerialization) }

// IsNetwork checks if an error is a connection-level error.
func IsNetwork(err error) bool { return is(err, KindNetwork) }

// IsTimeout checks if an error is a timeout/cancellation error.
func IsTimeout(err error) bool { return is(err, KindTimeout) }

// IsConfiguration checks if an error is a configuration error.
func IsConfiguration(err error) bool { return is(err, KindConfiguration) }

// IsRetryable checks if an error may be retried.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
