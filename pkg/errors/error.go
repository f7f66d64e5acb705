package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType defines distinct categories for errors originating from TurboConvert components.
type ErrorType string

const (
	// UnsupportedFormat represents a file whose extension is not in the extension table,
	// or an operation that its category does not support.
	UnsupportedFormat ErrorType = "unsupported_format"
	// ConversionError represents a failure inside an image, audio or video conversion.
	ConversionError ErrorType = "conversion_error"
	// CompressionError represents a failure inside an image or video compression.
	CompressionError ErrorType = "compression_error"
	// DownloadError represents errors occurring while fetching or post-processing a remote video.
	DownloadError ErrorType = "download_error"
	// EncodeError represents a failed external encoder process (non-zero exit or failure to start).
	EncodeError ErrorType = "encode_error"
	// ValidationError represents errors caused by invalid input parameters or configuration.
	ValidationError ErrorType = "validation_error"
	// SystemError represents underlying system issues, such as file I/O errors or missing binaries.
	SystemError ErrorType = "system_error"
)

// StructuredError represents a detailed error originating from TurboConvert operations.
// It includes a type, message, optional details, timestamp, and a specific error code.
// It implements the standard Go `error` interface.
type StructuredError struct {
	// Type categorizes the error (e.g., ConversionError, DownloadError).
	Type ErrorType `json:"type"`
	// Message provides a concise, human-readable description of the error.
	Message string `json:"message"`
	// Details carries the underlying error message, if available.
	Details string `json:"details,omitempty"`
	// Timestamp marks when the error occurred in RFC3339 format.
	Timestamp string `json:"timestamp"`
	// Code provides a specific integer code, see error_codes.go.
	Code int `json:"code"`

	cause error
}

// Error implements the standard `error` interface for StructuredError.
// It returns a formatted string including the error type, message, and details.
func (e *StructuredError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Message, e.Details)
}

// Unwrap returns the error passed to Wrap, if any.
func (e *StructuredError) Unwrap() error {
	return e.cause
}

// JSON returns the StructuredError serialized as a JSON string.
func (e *StructuredError) JSON() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UserMessage returns the message shown to the user for this error's code,
// falling back to Message when the code has no registered text.
func (e *StructuredError) UserMessage() string {
	if msg, ok := ErrorMessages[e.Code]; ok {
		return msg
	}
	return e.Message
}

// New creates a new StructuredError instance.
// It automatically sets the Timestamp to the current time.
func New(errorType ErrorType, message, details string, code int) *StructuredError {
	return &StructuredError{
		Type:      errorType,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().Format(time.RFC3339),
		Code:      code,
	}
}

// Wrap creates a new StructuredError, using the message from an existing
// error as the Details field. The original error stays reachable via errors.Unwrap.
// If err is nil, Details will be empty.
func Wrap(err error, errorType ErrorType, message string, code int) *StructuredError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	se := New(errorType, message, details, code)
	se.cause = err
	return se
}

// As returns the first StructuredError in err's chain.
func As(err error) (*StructuredError, bool) {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsType reports whether err's chain contains a StructuredError of the given type.
func IsType(err error, errorType ErrorType) bool {
	se, ok := As(err)
	return ok && se.Type == errorType
}

// TypeOf returns the type of the first StructuredError in err's chain, or SystemError
// for plain errors. It returns "" for a nil error.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	if se, ok := As(err); ok {
		return se.Type
	}
	return SystemError
}
