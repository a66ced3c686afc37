package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeInvalidQuery         = "INVALID_QUERY"
	ErrCodeIndexUnavailable     = "INDEX_UNAVAILABLE"
	ErrCodeEmbeddingUnavailable = "EMBEDDING_UNAVAILABLE"
	ErrCodeConfiguration        = "CONFIGURATION_ERROR"
	ErrCodeUpstreamUnavailable  = "UPSTREAM_UNAVAILABLE"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// Query errors
var (
	ErrInvalidQuery = NewDomainError(ErrCodeInvalidQuery, "query cannot be empty")
	ErrInvalidK     = NewDomainError(ErrCodeValidation, "result count k must be positive")
)

// Semantic path errors
var (
	ErrIndexUnavailable     = NewDomainError(ErrCodeIndexUnavailable, "vector index has not been built")
	ErrEmbeddingUnavailable = NewDomainError(ErrCodeEmbeddingUnavailable, "embedding model is unavailable")
)

// Configuration errors
var (
	ErrMissingAPIKey = NewDomainError(ErrCodeConfiguration, "LLM API key is not configured")
	ErrInvalidModel  = NewDomainError(ErrCodeConfiguration, "LLM model id is invalid")
)

// Not found errors
var (
	ErrRecordNotFound = NewDomainError(ErrCodeNotFound, "record not found")
)

// CodeOf returns the domain error code carried by err, or ErrCodeInternalError
// for errors outside the taxonomy.
func CodeOf(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ErrCodeInternalError
}

// IsCode reports whether err carries the given domain error code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
