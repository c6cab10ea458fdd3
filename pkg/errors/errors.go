// Package errors provides structured error handling for chunklab
package errors

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/chunklab/chunklab/pkg/types"
)

// ErrorCode represents specific error codes
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField  ErrorCode = "MISSING_FIELD"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"

	// Configuration errors
	ErrCodeConfigError    ErrorCode = "CONFIG_ERROR"
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// Document errors
	ErrCodeDocumentError       ErrorCode = "DOCUMENT_ERROR"
	ErrCodeDocumentNotFound    ErrorCode = "DOCUMENT_NOT_FOUND"
	ErrCodeDocumentParseFailed ErrorCode = "DOCUMENT_PARSE_FAILED"
	ErrCodeUnsupportedFormat   ErrorCode = "UNSUPPORTED_FORMAT"

	// Chunking errors
	ErrCodeChunkingError  ErrorCode = "CHUNKING_ERROR"
	ErrCodeChunkingConfig ErrorCode = "CHUNKING_CONFIG_INVALID"

	// LLM errors
	ErrCodeLLMError         ErrorCode = "LLM_ERROR"
	ErrCodeLLMTimeout       ErrorCode = "LLM_TIMEOUT"
	ErrCodeLLMAPIError      ErrorCode = "LLM_API_ERROR"
	ErrCodeLLMResponseParse ErrorCode = "LLM_RESPONSE_PARSE"

	// File system errors
	ErrCodeFileError    ErrorCode = "FILE_ERROR"
	ErrCodeFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrCodeWriteFailed  ErrorCode = "WRITE_FAILED"
)

// ChunkLabError represents a structured error in chunklab
type ChunkLabError struct {
	Type       types.ErrorType        `json:"type"`
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"stack_trace,omitempty"`
}

// Error implements the error interface
func (e *ChunkLabError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (caused by: %v)", e.Code, e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *ChunkLabError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *ChunkLabError) WithDetail(key string, value interface{}) *ChunkLabError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithStackTrace adds a stack trace to the error
func (e *ChunkLabError) WithStackTrace() *ChunkLabError {
	e.StackTrace = getStackTrace()
	return e
}

// New creates a new chunklab error
func New(errType types.ErrorType, code ErrorCode, message string) *ChunkLabError {
	return &ChunkLabError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// NewWithCause creates a new chunklab error with a cause
func NewWithCause(errType types.ErrorType, code ErrorCode, message string, cause error) *ChunkLabError {
	return &ChunkLabError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Validation error constructors
func NewValidationError(message string) *ChunkLabError {
	return New(types.ErrorTypeValidation, ErrCodeValidation, message)
}

func NewInvalidInputError(message string) *ChunkLabError {
	return New(types.ErrorTypeValidation, ErrCodeInvalidInput, message)
}

func NewMissingFieldError(field string) *ChunkLabError {
	return New(types.ErrorTypeValidation, ErrCodeMissingField,
		fmt.Sprintf("missing required field: %s", field)).WithDetail("field", field)
}

func NewInvalidFormatError(field, expectedFormat string) *ChunkLabError {
	return New(types.ErrorTypeValidation, ErrCodeInvalidFormat,
		fmt.Sprintf("invalid format for field %s, expected: %s", field, expectedFormat)).
		WithDetail("field", field).WithDetail("expected_format", expectedFormat)
}

// Configuration error constructors
func NewConfigError(message string) *ChunkLabError {
	return New(types.ErrorTypeValidation, ErrCodeConfigError, message)
}

func NewConfigNotFoundError(configPath string) *ChunkLabError {
	return New(types.ErrorTypeNotFound, ErrCodeConfigNotFound,
		fmt.Sprintf("configuration file not found: %s", configPath)).WithDetail("config_path", configPath)
}

func NewConfigInvalidError(message string) *ChunkLabError {
	return New(types.ErrorTypeValidation, ErrCodeConfigInvalid, message)
}

// Document error constructors
func NewDocumentError(message string) *ChunkLabError {
	return New(types.ErrorTypeInternal, ErrCodeDocumentError, message)
}

func NewDocumentNotFoundError(path string) *ChunkLabError {
	return New(types.ErrorTypeNotFound, ErrCodeDocumentNotFound,
		fmt.Sprintf("document not found: %s", path)).WithDetail("path", path)
}

func NewDocumentParseError(path string, cause error) *ChunkLabError {
	return NewWithCause(types.ErrorTypeInternal, ErrCodeDocumentParseFailed,
		fmt.Sprintf("failed to parse document: %s", path), cause).WithDetail("path", path)
}

func NewUnsupportedFormatError(extension string) *ChunkLabError {
	return New(types.ErrorTypeValidation, ErrCodeUnsupportedFormat,
		fmt.Sprintf("unsupported document format: %s", extension)).WithDetail("extension", extension)
}

// Chunking error constructors
func NewChunkingError(message string) *ChunkLabError {
	return New(types.ErrorTypeInternal, ErrCodeChunkingError, message)
}

func NewChunkingConfigError(message string) *ChunkLabError {
	return New(types.ErrorTypeValidation, ErrCodeChunkingConfig, message)
}

// LLM error constructors
func NewLLMError(message string) *ChunkLabError {
	return New(types.ErrorTypeExternal, ErrCodeLLMError, message)
}

func NewLLMTimeoutError(model string) *ChunkLabError {
	return New(types.ErrorTypeExternal, ErrCodeLLMTimeout,
		fmt.Sprintf("LLM request timed out: %s", model)).WithDetail("model", model)
}

func NewLLMAPIError(message string, cause error) *ChunkLabError {
	return NewWithCause(types.ErrorTypeExternal, ErrCodeLLMAPIError, message, cause)
}

// NewLLMResponseParseError reports model output from which no valid chunk
// plan could be extracted. Callers are expected to fall back to a local
// splitting strategy rather than drop the document.
func NewLLMResponseParseError(message string, cause error) *ChunkLabError {
	return NewWithCause(types.ErrorTypeExternal, ErrCodeLLMResponseParse, message, cause)
}

// File system error constructors
func NewFileError(message string) *ChunkLabError {
	return New(types.ErrorTypeInternal, ErrCodeFileError, message)
}

func NewFileNotFoundError(filePath string) *ChunkLabError {
	return New(types.ErrorTypeNotFound, ErrCodeFileNotFound,
		fmt.Sprintf("file not found: %s", filePath)).WithDetail("file_path", filePath)
}

func NewWriteFailedError(filePath string, cause error) *ChunkLabError {
	return NewWithCause(types.ErrorTypeInternal, ErrCodeWriteFailed,
		fmt.Sprintf("failed to write output: %s", filePath), cause).WithDetail("file_path", filePath)
}

// Helper functions
func getStackTrace() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var trace strings.Builder
	for {
		frame, more := frames.Next()
		if !more {
			break
		}
		trace.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
	}

	return trace.String()
}

// IsChunkLabError checks if an error is a ChunkLabError
func IsChunkLabError(err error) bool {
	_, ok := err.(*ChunkLabError)
	return ok
}

// GetChunkLabError extracts a ChunkLabError from an error
func GetChunkLabError(err error) *ChunkLabError {
	if clErr, ok := err.(*ChunkLabError); ok {
		return clErr
	}
	return nil
}

// HasCode reports whether err is a ChunkLabError carrying the given code
func HasCode(err error, code ErrorCode) bool {
	clErr := GetChunkLabError(err)
	return clErr != nil && clErr.Code == code
}

// WrapError wraps an error as a ChunkLabError
func WrapError(err error, errType types.ErrorType, code ErrorCode, message string) *ChunkLabError {
	return NewWithCause(errType, code, message, err)
}

// ErrorList represents a list of errors
type ErrorList struct {
	Errors []*ChunkLabError `json:"errors"`
}

// Error implements the error interface
func (el *ErrorList) Error() string {
	var messages []string
	for _, err := range el.Errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// Add adds an error to the list
func (el *ErrorList) Add(err *ChunkLabError) {
	el.Errors = append(el.Errors, err)
}

// HasErrors returns true if there are errors
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// ToError returns the ErrorList as an error if it has errors, otherwise nil
func (el *ErrorList) ToError() error {
	if el.HasErrors() {
		return el
	}
	return nil
}

// NewErrorList creates a new error list
func NewErrorList() *ErrorList {
	return &ErrorList{
		Errors: make([]*ChunkLabError, 0),
	}
}

// Collect collects multiple errors into an ErrorList
func Collect(errors ...*ChunkLabError) *ErrorList {
	el := NewErrorList()
	for _, err := range errors {
		if err != nil {
			el.Add(err)
		}
	}
	return el
}
