// Package errors provides error handling utilities.
package errors

import (
	"errors"
	"fmt"
)

// Type identifies the category of error
type Type string

const (
	// TypeValidation indicates malformed requirements or field-range violations
	TypeValidation Type = "VALIDATION_ERROR"

	// TypeConfiguration indicates a configuration error (missing adapter,
	// invalid weights); surfaced at startup or first call, never retried
	TypeConfiguration Type = "CONFIGURATION_ERROR"

	// TypeAuthentication indicates credential or region errors from adapters
	TypeAuthentication Type = "AUTHENTICATION_ERROR"

	// TypeThrottling indicates a rate-limit; retried with backoff
	TypeThrottling Type = "THROTTLING_ERROR"

	// TypeNotFound indicates requested data does not exist
	TypeNotFound Type = "DATA_NOT_FOUND"

	// TypeNoMatchingOptions indicates an empty estimate set after filtering
	TypeNoMatchingOptions Type = "NO_MATCHING_OPTIONS"

	// TypeInsufficientData indicates too few samples for a computation
	TypeInsufficientData Type = "INSUFFICIENT_DATA"

	// TypeResourceMapping indicates an unknown (provider, provider_type)
	TypeResourceMapping Type = "RESOURCE_MAPPING_ERROR"

	// TypeNormalization indicates a malformed raw cost payload
	TypeNormalization Type = "DATA_NORMALIZATION_ERROR"

	// TypeCurrencyConversion indicates a failed currency conversion
	TypeCurrencyConversion Type = "CURRENCY_CONVERSION_ERROR"

	// TypeComparisonTimeout indicates the comparison deadline elapsed
	TypeComparisonTimeout Type = "COMPARISON_TIMEOUT"

	// TypeSelectionTimeout indicates the selection deadline elapsed
	TypeSelectionTimeout Type = "SELECTION_TIMEOUT"

	// TypeConcurrency indicates the evaluation concurrency cap was hit
	TypeConcurrency Type = "CONCURRENCY_ERROR"

	// TypeBudget indicates no candidate fits the budget floor
	TypeBudget Type = "BUDGET_ERROR"

	// TypePricing indicates a pricing resolution error
	TypePricing Type = "PRICING_ERROR"

	// TypeCompliance indicates a compliance constraint failure
	TypeCompliance Type = "COMPLIANCE_ERROR"

	// TypeParsing indicates an IaC input parsing error
	TypeParsing Type = "PARSING_ERROR"

	// TypeInternal indicates an internal error
	TypeInternal Type = "INTERNAL_ERROR"
)

// Error represents a domain error with structured context
type Error struct {
	Type    Type                   `json:"type"`
	Message string                 `json:"message"`
	Cause   error                  `json:"-"`
	Details map[string]interface{} `json:"details,omitempty"`

	// Transient marks errors the adapter layer may retry
	Transient bool `json:"transient,omitempty"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error is of a specific type
func (e *Error) Is(t Type) bool {
	return e.Type == t
}

// WithDetail adds a structured context value
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// AsTransient marks the error retryable by the adapter layer
func (e *Error) AsTransient() *Error {
	e.Transient = true
	return e
}

// New creates a new error
func New(errType Type, message string) *Error {
	return &Error{Type: errType, Message: message}
}

// Newf creates a new formatted error
func Newf(errType Type, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with context
func Wrap(errType Type, message string, cause error) *Error {
	return &Error{Type: errType, Message: message, Cause: cause}
}

// Wrapf wraps an error with formatted context
func Wrapf(errType Type, cause error, format string, args ...interface{}) *Error {
	return &Error{Type: errType, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsType checks if an error (anywhere in its chain) is of a specific type
func IsType(err error, t Type) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// IsTransient reports whether an error may be retried
func IsTransient(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Transient
	}
	return false
}

// Validation creates a validation error carrying the offending field,
// value, and constraint description
func Validation(field string, value interface{}, constraint string) *Error {
	return Newf(TypeValidation, "invalid %s: %s", field, constraint).
		WithDetail("field", field).
		WithDetail("value", value).
		WithDetail("constraint", constraint)
}

// Configuration creates a configuration error
func Configuration(message string) *Error {
	return New(TypeConfiguration, message)
}

// ResourceMapping creates a mapping-miss error listing available mappings
func ResourceMapping(provider, providerType string, available []string) *Error {
	return Newf(TypeResourceMapping, "no resource mapping for %s/%s", provider, providerType).
		WithDetail("provider", provider).
		WithDetail("provider_type", providerType).
		WithDetail("available_mappings", available)
}

// Normalization wraps a raw payload error preserving the original message
func Normalization(message string, cause error) *Error {
	return Wrap(TypeNormalization, message, cause)
}

// CurrencyConversion creates a currency conversion error
func CurrencyConversion(from, to string, cause error) *Error {
	return Wrapf(TypeCurrencyConversion, cause, "cannot convert %s to %s", from, to).
		WithDetail("from", from).
		WithDetail("to", to)
}

// NoMatchingOptions creates an empty-result error with the search scope
func NoMatchingOptions(providers, regions []string) *Error {
	return New(TypeNoMatchingOptions, "no options match the requirements").
		WithDetail("providers", providers).
		WithDetail("regions", regions)
}

// ComparisonTimeout creates a comparison deadline error
func ComparisonTimeout(elapsed string) *Error {
	return Newf(TypeComparisonTimeout, "comparison deadline exceeded after %s", elapsed)
}

// Concurrency creates a concurrency cap error
func Concurrency(active, max int) *Error {
	return Newf(TypeConcurrency, "active evaluations %d at cap %d", active, max).
		WithDetail("active", active).
		WithDetail("max", max)
}

// Budget creates a budget floor error carrying the observed minimum
func Budget(minObserved, budget string) *Error {
	return Newf(TypeBudget, "minimum observed cost %s exceeds budget %s", minObserved, budget).
		WithDetail("min_observed", minObserved).
		WithDetail("budget", budget)
}

// InsufficientData creates a too-few-samples error
func InsufficientData(have, need int) *Error {
	return Newf(TypeInsufficientData, "have %d data points, need %d", have, need).
		WithDetail("have", have).
		WithDetail("need", need)
}

// NotFound creates a not found error
func NotFound(resourceType, identifier string) *Error {
	return Newf(TypeNotFound, "%s not found: %s", resourceType, identifier)
}

// Throttled creates a transient throttling error
func Throttled(provider string, cause error) *Error {
	e := Wrapf(TypeThrottling, cause, "provider %s throttled request", provider)
	return e.AsTransient()
}

// Internal creates an internal error
func Internal(message string, cause error) *Error {
	return Wrap(TypeInternal, message, cause)
}
