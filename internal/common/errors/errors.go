// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Stage-level errors halt the stage and surface to the caller.
const (
	ErrCodeConfiguration   ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeDataUnavailable ErrorCode = "DATA_UNAVAILABLE"
)

// Row-level outcomes. They never fail a job; they are recorded in counts
// and status strings.
const (
	ErrCodeParseSkip     ErrorCode = "PARSE_SKIP"
	ErrCodeLookupFailure ErrorCode = "LOOKUP_FAILURE"
)

// Collaborator and infrastructure errors.
const (
	ErrCodeSheetAccessFailed      ErrorCode = "SHEET_ACCESS_FAILED"
	ErrCodeRegistryAuthFailed     ErrorCode = "REGISTRY_AUTH_FAILED"
	ErrCodeRegistryUnavailable    ErrorCode = "REGISTRY_UNAVAILABLE"
	ErrCodeEmailSendFailed        ErrorCode = "EMAIL_SEND_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeDatabaseFailed         ErrorCode = "DATABASE_FAILED"
	ErrCodeIndexingFailed         ErrorCode = "INDEXING_FAILED"
	ErrCodeTimeout                ErrorCode = "TIMEOUT"
)

// Input errors.
const (
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a StandardError carrying the same code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata attaches a key/value pair and returns the same error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// Sentinels usable with errors.Is.
var (
	ErrConfiguration   = &StandardError{Code: ErrCodeConfiguration}
	ErrDataUnavailable = &StandardError{Code: ErrCodeDataUnavailable}
	ErrSheetAccess     = &StandardError{Code: ErrCodeSheetAccessFailed}
	ErrRegistryAuth    = &StandardError{Code: ErrCodeRegistryAuthFailed}
	ErrRegistry        = &StandardError{Code: ErrCodeRegistryUnavailable}
	ErrEmailSend       = &StandardError{Code: ErrCodeEmailSendFailed}
)

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"success":      false,
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewConfigurationError reports required columns or settings that are absent.
func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   "Required columns or settings are missing",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDataUnavailableError reports an empty source.
func NewDataUnavailableError(source string) *StandardError {
	return &StandardError{
		Code:      ErrCodeDataUnavailable,
		Message:   "No data found",
		Details:   fmt.Sprintf("source: %s", source),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSheetAccessError wraps a failed read or write against the tabular store.
func NewSheetAccessError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSheetAccessFailed,
		Message:   "Spreadsheet access failed",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRegistryAuthError reports a failed login against the student registry.
func NewRegistryAuthError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryAuthFailed,
		Message:   "Student registry authentication failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewRegistryError wraps a failed student registry call.
func NewRegistryError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRegistryUnavailable,
		Message:   "Student registry request failed",
		Details:   fmt.Sprintf("endpoint: %s, error: %v", endpoint, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewEmailSendError(recipient string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeEmailSendFailed,
		Message:   "Failed to send email",
		Details:   fmt.Sprintf("recipient: %s, error: %v", recipient, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewNotificationSendError(topic string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Failed to publish notification",
		Details:   fmt.Sprintf("topic: %s, error: %v", topic, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewDatabaseError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseFailed,
		Message:   "Database operation failed",
		Details:   fmt.Sprintf("operation: %s, error: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewIndexingError(index string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexingFailed,
		Message:   "Failed to index documents",
		Details:   fmt.Sprintf("index: %s, error: %v", index, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewTimeoutError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTimeout,
		Message:   fmt.Sprintf("Timeout during %s", operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   "Invalid job variables",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeConfiguration:          "CONFIGURATION_ERROR",
	ErrCodeDataUnavailable:        "DATA_UNAVAILABLE",
	ErrCodeSheetAccessFailed:      "SHEET_ACCESS_FAILED",
	ErrCodeRegistryAuthFailed:     "REGISTRY_AUTH_FAILED",
	ErrCodeRegistryUnavailable:    "REGISTRY_UNAVAILABLE",
	ErrCodeEmailSendFailed:        "EMAIL_SEND_FAILED",
	ErrCodeNotificationSendFailed: "NOTIFICATION_SEND_FAILED",
	ErrCodeDatabaseFailed:         "DATABASE_FAILED",
	ErrCodeIndexingFailed:         "INDEXING_FAILED",
	ErrCodeTimeout:                "TIMEOUT",
	ErrCodeInvalidInput:           "INVALID_INPUT",
	ErrCodeValidationFailed:       "VALIDATION_FAILED",
	ErrCodeInternal:               "INTERNAL_ERROR",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeSheetAccessFailed,
		ErrCodeRegistryUnavailable,
		ErrCodeDatabaseFailed,
		ErrCodeIndexingFailed:
		return 3

	case ErrCodeRegistryAuthFailed,
		ErrCodeEmailSendFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// AsStandard returns the StandardError in err's chain, or wraps err as an
// internal error.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// CodeOf returns the code of the StandardError in err's chain, if any.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeConfiguration || code == ErrCodeDataUnavailable:
		return "PIPELINE"
	case strings.Contains(codeStr, "SHEET"):
		return "SPREADSHEET"
	case strings.Contains(codeStr, "REGISTRY"):
		return "REGISTRY"
	case strings.Contains(codeStr, "EMAIL") || strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "INDEXING"):
		return "STORAGE"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case code == ErrCodeTimeout:
		return "TIMEOUT"
	default:
		return "SYSTEM"
	}
}
