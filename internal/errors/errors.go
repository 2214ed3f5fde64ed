package errors

import (
	"errors"
	"fmt"
)

// Standard application errors
var (
	ErrEmptyInput           = errors.New("input is empty or contains only whitespace")
	ErrInvalidJSON          = errors.New("invalid JSON format")
	ErrMultipleJSON         = errors.New("multiple JSON values found at the root, only one is allowed")
	ErrFileNotFound         = errors.New("file not found")
	ErrFileEmpty            = errors.New("file is empty")
	ErrNoInput              = errors.New("no input provided: please specify a file or pipe JSON data to stdin")
	ErrInvalidFilePath      = errors.New("invalid file path")
	ErrInvalidPrimitiveType = errors.New("invalid primitive type")
	ErrNotCollection        = errors.New("called Len on a non-collection node")
	ErrDuplicateID          = errors.New("duplicate @id in document")
)

// ErrorType categorizes errors
type ErrorType string

const (
	ErrorTypeInput         ErrorType = "input"
	ErrorTypeMalformed     ErrorType = "malformed"
	ErrorTypeUnresolvedRef ErrorType = "unresolved_reference"
	ErrorTypeResolution    ErrorType = "type_resolution"
	ErrorTypeCoercion      ErrorType = "coercion"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeCustom        ErrorType = "custom"
	ErrorTypeUnsupported   ErrorType = "unsupported"
	ErrorTypeOutput        ErrorType = "output"
	ErrorTypeUnknown       ErrorType = "unknown"
)

// AppError is an application-specific error with context
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// KindOf returns the type of the outermost AppError in err's chain,
// or ErrorTypeUnknown when there is none.
func KindOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}

// Kind returns a bare AppError of the given type, for use as an errors.Is target.
func Kind(t ErrorType) *AppError {
	return &AppError{Type: t}
}

// NewInputError creates a new error related to input processing
func NewInputError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeInput, Message: message, Err: err}
}

// NewMalformedError creates a new error for syntactically invalid JSON
func NewMalformedError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeMalformed, Message: message, Err: err}
}

// NewUnresolvedRefError creates a new error for an @ref without a matching @id
func NewUnresolvedRefError(id int64) *AppError {
	return &AppError{
		Type:    ErrorTypeUnresolvedRef,
		Message: fmt.Sprintf("@ref %d has no matching @id in the document", id),
	}
}

// NewResolutionError creates a new error for a type that cannot be located
func NewResolutionError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeResolution, Message: message, Err: err}
}

// NewCoercionError creates a new error for a value that cannot be converted
// into a field's declared type.
func NewCoercionError(field, from, to string, err error) *AppError {
	msg := fmt.Sprintf("cannot convert %s to %s", from, to)
	if field != "" {
		msg = fmt.Sprintf("field %s: %s", field, msg)
	}
	return &AppError{Type: ErrorTypeCoercion, Message: msg, Err: err}
}

// NewConfigurationError creates a new error for an invalid options build
func NewConfigurationError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeConfiguration, Message: message, Err: err}
}

// NewCustomError wraps a failure raised by a custom writer or reader
func NewCustomError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeCustom, Message: message, Err: err}
}

// NewUnsupportedError creates a new error for a value the engine cannot walk
func NewUnsupportedError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeUnsupported, Message: message, Err: err}
}

// NewOutputError creates a new error related to output processing
func NewOutputError(message string, err error) *AppError {
	return &AppError{Type: ErrorTypeOutput, Message: message, Err: err}
}

// UserFriendlyError returns a user-friendly error message
func UserFriendlyError(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrorTypeInput:
			return fmt.Sprintf("Input error: %s", appErr.Message)
		case ErrorTypeMalformed:
			return fmt.Sprintf("JSON parsing error: %s", appErr.Message)
		case ErrorTypeUnresolvedRef:
			return fmt.Sprintf("Reference error: %s", appErr.Message)
		case ErrorTypeResolution:
			return fmt.Sprintf("Type resolution error: %s", appErr.Message)
		case ErrorTypeCoercion:
			return fmt.Sprintf("Binding error: %s", appErr.Message)
		case ErrorTypeConfiguration:
			return fmt.Sprintf("Configuration error: %s", appErr.Message)
		case ErrorTypeCustom:
			return fmt.Sprintf("Custom codec error: %s", appErr.Message)
		case ErrorTypeUnsupported:
			return fmt.Sprintf("Unsupported value: %s", appErr.Message)
		case ErrorTypeOutput:
			return fmt.Sprintf("Output error: %s", appErr.Message)
		default:
			return fmt.Sprintf("Error: %s", appErr.Message)
		}
	}

	if errors.Is(err, ErrEmptyInput) {
		return "Error: The input is empty. Please provide valid JSON data."
	}
	if errors.Is(err, ErrInvalidJSON) {
		return "Error: The input contains invalid JSON. Please check your JSON syntax."
	}
	if errors.Is(err, ErrMultipleJSON) {
		return "Error: Multiple JSON values found. Please provide a single JSON object or array."
	}
	if errors.Is(err, ErrFileNotFound) {
		return "Error: The specified file could not be found. Please check the file path."
	}
	if errors.Is(err, ErrFileEmpty) {
		return "Error: The specified file is empty. Please provide a file with valid JSON content."
	}
	if errors.Is(err, ErrNoInput) {
		return "Error: No input provided. Please specify a file or pipe JSON data to stdin."
	}
	if errors.Is(err, ErrInvalidFilePath) {
		return "Error: Invalid file path. Please provide a valid file path."
	}

	return fmt.Sprintf("Error: %v", err)
}
