package domain

import "fmt"

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

// Is matches DomainErrors by code and message, so a sentinel's WithCause
// copies still satisfy errors.Is against the sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && e.Code == t.Code && e.Message == t.Message
}

// WithCause returns a copy of e carrying err as its underlying cause. The
// receiver is left untouched; sentinels stay immutable.
func (e *DomainError) WithCause(err error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
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
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrMissingQuestion  = NewDomainError(ErrCodeValidation, "question is required")
	ErrMissingSessionID = NewDomainError(ErrCodeValidation, "sessionId is required")
)

// Ingestion errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "source document not found")
	ErrEmptyDocument    = NewDomainError(ErrCodeValidation, "source document contains no text")
)

// Collaborator failures. The query pipeline converts all of these into a
// single generic user-facing error; the codes stay distinct for logs and
// telemetry.
var (
	ErrEmbeddingFailed   = NewDomainError(ErrCodeUpstream, "embedding service call failed")
	ErrGenerationFailed  = NewDomainError(ErrCodeUpstream, "generative service call failed")
	ErrVectorStoreFailed = NewDomainError(ErrCodeUpstream, "vector store call failed")
)
