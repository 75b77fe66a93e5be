package task

import (
	"errors"
	"fmt"
)

// ErrorCode identifies well-known domain error categories raised while
// building or running a task graph.
type ErrorCode string

const (
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeCycle      ErrorCode = "CIRCULAR_DEPENDENCY"
	ErrCodeDuplicate  ErrorCode = "DUPLICATE_STEP"
	ErrCodeState      ErrorCode = "INVALID_STATE"
)

// DomainError is a typed error enriched with contextual data, kept free of
// any engine-driver or CLI dependency.
type DomainError struct {
	Code    ErrorCode
	Message string
	Context map[string]interface{}
}

func (e *DomainError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is allows errors.Is comparisons by code and message.
func (e *DomainError) Is(target error) bool {
	var domainErr *DomainError
	if !errors.As(target, &domainErr) {
		return false
	}
	return e.Code == domainErr.Code && e.Message == domainErr.Message
}

func newDomainError(code ErrorCode, message string, context map[string]interface{}) *DomainError {
	return &DomainError{Code: code, Message: message, Context: context}
}

func newCycleError(path []string) *DomainError {
	return newDomainError(ErrCodeCycle, "circular dependency detected", map[string]interface{}{"path": path})
}

func newDuplicateError(name string) *DomainError {
	return newDomainError(ErrCodeDuplicate, "duplicate container name", map[string]interface{}{"name": name})
}

func newValidationError(message string, context map[string]interface{}) *DomainError {
	return newDomainError(ErrCodeValidation, message, context)
}
