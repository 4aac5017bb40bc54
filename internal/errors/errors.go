package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an application error
type Kind int

const (
	KindNotFound Kind = iota
	KindInvalidPath
	KindIO
	KindSerialization
	KindInternal
	KindNavigation
)

// String returns a string representation of the error kind
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalidPath:
		return "invalid path"
	case KindIO:
		return "io"
	case KindSerialization:
		return "serialization"
	case KindInternal:
		return "internal"
	case KindNavigation:
		return "navigation"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching by kind.
var (
	ErrNotFound      = &AppError{Kind: KindNotFound}
	ErrInvalidPath   = &AppError{Kind: KindInvalidPath}
	ErrIO            = &AppError{Kind: KindIO}
	ErrSerialization = &AppError{Kind: KindSerialization}
	ErrInternal      = &AppError{Kind: KindInternal}
	ErrNavigation    = &AppError{Kind: KindNavigation}
)

// AppError represents a structured application error
type AppError struct {
	Kind      Kind
	Operation string
	Path      string
	Message   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s error in %s [%s]: %s", e.Kind, e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("%s error in %s: %s", e.Kind, e.Operation, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError of the same kind. Operation,
// path and message are ignored so the package sentinels match any error
// of their kind.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first AppError in err's chain.
func KindOf(err error) (Kind, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return 0, false
}

// NewNotFoundError creates an error for a missing tab, pane, state file or backup
func NewNotFoundError(operation, path, message string) *AppError {
	return &AppError{
		Kind:      KindNotFound,
		Operation: operation,
		Path:      path,
		Message:   message,
	}
}

// NewInvalidPathError creates an error for a navigation target that is
// absent, not a directory, or not accessible
func NewInvalidPathError(operation, path, message string, err error) *AppError {
	return &AppError{
		Kind:      KindInvalidPath,
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// NewIOError creates a new filesystem error
func NewIOError(operation, path, message string, err error) *AppError {
	return &AppError{
		Kind:      KindIO,
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// NewSerializationError creates an error for malformed or unencodable content
func NewSerializationError(operation, path, message string, err error) *AppError {
	return &AppError{
		Kind:      KindSerialization,
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// NewInternalError creates an error for a violated structural invariant
func NewInternalError(operation, message string, err error) *AppError {
	return &AppError{
		Kind:      KindInternal,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// NewNavigationError creates an error for an unavailable navigation step
// (empty history, no parent, feature disabled)
func NewNavigationError(operation, path, message string) *AppError {
	return &AppError{
		Kind:      KindNavigation,
		Operation: operation,
		Path:      path,
		Message:   message,
	}
}
