package faults

import "errors"

type ErrorCategory string

const (
	// Programmer errors, returned synchronously before any I/O.
	BadMemberPath    ErrorCategory = "BadMemberPath"
	BadParamName     ErrorCategory = "BadParamName"
	BadArgumentCount ErrorCategory = "BadArgumentCount"

	// Runtime errors, delivered through error callbacks and rejected promises.
	BadResponseShape ErrorCategory = "BadResponseShape"
	TransportError   ErrorCategory = "TransportError"

	ValidationError ErrorCategory = "ValidationError"
	NotFoundError   ErrorCategory = "NotFoundError"
	ConflictError   ErrorCategory = "ConflictError"
	AuthError       ErrorCategory = "AuthError"
	InternalError   ErrorCategory = "InternalError"
)

type TypedError struct {
	Category ErrorCategory
	Message  string
	Cause    error
}

func (e *TypedError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" && e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return string(e.Category)
}

func (e *TypedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewTypedError(category ErrorCategory, message string, cause error) *TypedError {
	return &TypedError{
		Category: category,
		Message:  message,
		Cause:    cause,
	}
}

func IsCategory(err error, category ErrorCategory) bool {
	if err == nil {
		return false
	}

	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return false
	}
	if typedErr.Category == category {
		return true
	}
	// Wrapped causes may carry a more specific category.
	return IsCategory(typedErr.Cause, category)
}

// CategoryOf returns the outermost typed category, or InternalError for
// untyped errors.
func CategoryOf(err error) ErrorCategory {
	var typedErr *TypedError
	if !errors.As(err, &typedErr) {
		return InternalError
	}
	return typedErr.Category
}

// IsProgrammerError reports whether err belongs to the categories that fail
// fast and are never delivered asynchronously.
func IsProgrammerError(err error) bool {
	return IsCategory(err, BadMemberPath) ||
		IsCategory(err, BadParamName) ||
		IsCategory(err, BadArgumentCount)
}
