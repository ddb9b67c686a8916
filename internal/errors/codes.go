package errors

import (
	"fmt"
)

// ErrorCode represents a specific error type for assistant and campaign operations.
type ErrorCode string

const (
	// ErrCodeUnauthorized indicates authentication failure.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeToolExecutionUnsupported indicates the run requires a tool call but no handler is configured.
	ErrCodeToolExecutionUnsupported ErrorCode = "TOOL_EXECUTION_UNSUPPORTED"
	// ErrCodeRunTerminatedAbnormally indicates the remote run ended in failed, cancelled, or expired.
	ErrCodeRunTerminatedAbnormally ErrorCode = "RUN_TERMINATED_ABNORMALLY"
	// ErrCodeMalformedResponse indicates the final assistant message had an unexpected shape.
	ErrCodeMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	// ErrCodeCampaignCreationFailed indicates the campaign could not be created.
	ErrCodeCampaignCreationFailed ErrorCode = "CAMPAIGN_CREATION_FAILED"
	// ErrCodeSearchUnavailable indicates the text index could not be established or queried.
	ErrCodeSearchUnavailable ErrorCode = "SEARCH_UNAVAILABLE"
	// ErrCodeToolInvocation indicates a single tool invocation failed. It is embedded
	// in the invocation's output and never propagated to the caller.
	ErrCodeToolInvocation ErrorCode = "TOOL_INVOCATION_ERROR"
	// ErrCodePlatformUnavailable indicates the assistant platform is not reachable.
	ErrCodePlatformUnavailable ErrorCode = "PLATFORM_UNAVAILABLE"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// AppError represents a structured error for assistant and campaign operations.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *AppError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for common error types.

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *AppError {
	return &AppError{Code: ErrCodeUnauthorized, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AppError {
	return &AppError{Code: ErrCodeInvalidArgument, Message: msg}
}

// ToolExecutionUnsupported creates a tool execution unsupported error.
func ToolExecutionUnsupported() *AppError {
	return &AppError{Code: ErrCodeToolExecutionUnsupported, Message: "run requires action but no tool handler is configured"}
}

// RunTerminatedAbnormally creates an abnormal run termination error carrying the terminal status.
func RunTerminatedAbnormally(status string) *AppError {
	return &AppError{
		Code:    ErrCodeRunTerminatedAbnormally,
		Message: fmt.Sprintf("run terminated with status: %s", status),
		Context: map[string]interface{}{"status": status},
	}
}

// MalformedResponse creates a malformed response error.
func MalformedResponse(msg string) *AppError {
	return &AppError{Code: ErrCodeMalformedResponse, Message: msg}
}

// CampaignCreationFailed creates a campaign creation failed error.
func CampaignCreationFailed(msg string, cause error) *AppError {
	return &AppError{Code: ErrCodeCampaignCreationFailed, Message: msg, Cause: cause}
}

// SearchUnavailable creates a search unavailable error.
func SearchUnavailable(cause error) *AppError {
	return &AppError{Code: ErrCodeSearchUnavailable, Message: "chat history search is unavailable", Cause: cause}
}

// ToolInvocation creates a per-invocation error.
func ToolInvocation(msg string, cause error) *AppError {
	return &AppError{Code: ErrCodeToolInvocation, Message: msg, Cause: cause}
}

// PlatformUnavailable creates a platform unavailable error.
func PlatformUnavailable(cause error) *AppError {
	return &AppError{Code: ErrCodePlatformUnavailable, Message: "assistant platform unavailable", Cause: cause}
}

// ContextCanceled creates a context canceled error.
func ContextCanceled(cause error) *AppError {
	return &AppError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}

// Timeout creates a timeout error.
func Timeout(msg string) *AppError {
	return &AppError{Code: ErrCodeTimeout, Message: msg}
}

// Wrap wraps an existing error with additional context.
func Wrap(cause error, code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an AppError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return defaultCode
}
