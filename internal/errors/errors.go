package errors

import "fmt"

// ErrorCode represents a Glance error code.
type ErrorCode string

const (
	ErrCaptureFailed        ErrorCode = "CAPTURE_FAILED"        // screenshot utility failed
	ErrAIService            ErrorCode = "AI_SERVICE_ERROR"      // AI endpoint returned non-success
	ErrSummarizationFailed  ErrorCode = "SUMMARIZATION_FAILED"  // rollup synthesis failed
	ErrStoreReadCorruption  ErrorCode = "STORE_READ_CORRUPTION" // a partition failed to parse
	ErrSchedulerPersistence ErrorCode = "SCHEDULER_PERSISTENCE" // checkpoint read/write failed
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"       // bad CLI/MCP arguments
	ErrInternal             ErrorCode = "INTERNAL"              // unexpected internal error
)

// GlanceError represents a structured error with code and details.
type GlanceError struct {
	Code    ErrorCode
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *GlanceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewCaptureFailed creates an error for a failed screenshot attempt.
func NewCaptureFailed(exitCode int, stderr string) *GlanceError {
	return &GlanceError{
		Code:    ErrCaptureFailed,
		Message: fmt.Sprintf("screenshot utility exited with code %d", exitCode),
		Details: map[string]any{"exit_code": exitCode, "stderr": stderr},
	}
}

// NewAIService creates an error for a non-success AI service response.
// status is the upstream HTTP status; body is the raw response body.
func NewAIService(status int, body string) *GlanceError {
	return &GlanceError{
		Code:    ErrAIService,
		Message: fmt.Sprintf("AI service returned status %d", status),
		Details: map[string]any{"status": status, "body": body},
	}
}

// NewSummarizationFailed wraps an upstream failure of the rollup synthesis step.
// If the cause is an AI service error, its upstream status and body are carried
// through in the details.
func NewSummarizationFailed(cause error) *GlanceError {
	var details map[string]any
	if aiErr, ok := cause.(*GlanceError); ok && aiErr.Details != nil {
		details = aiErr.Details
	}
	return &GlanceError{
		Code:    ErrSummarizationFailed,
		Message: fmt.Sprintf("summary synthesis failed: %v", cause),
		Details: details,
	}
}

// NewStoreReadCorruption creates an error for an unparseable partition or record.
func NewStoreReadCorruption(partition string, cause error) *GlanceError {
	return &GlanceError{
		Code:    ErrStoreReadCorruption,
		Message: fmt.Sprintf("partition %s is unreadable: %v", partition, cause),
		Details: map[string]any{"partition": partition},
	}
}

// NewSchedulerPersistence creates an error for checkpoint state that cannot be
// read or written.
func NewSchedulerPersistence(op string, cause error) *GlanceError {
	return &GlanceError{
		Code:    ErrSchedulerPersistence,
		Message: fmt.Sprintf("checkpoint %s failed: %v", op, cause),
		Details: map[string]any{"op": op},
	}
}

// NewInvalidRequest creates an error for invalid request parameters.
func NewInvalidRequest(msg string) *GlanceError {
	return &GlanceError{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *GlanceError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &GlanceError{
		Code:    ErrInternal,
		Message: msg,
	}
}

// Is checks if an error is a GlanceError with the given code.
func Is(err error, code ErrorCode) bool {
	if gErr, ok := err.(*GlanceError); ok {
		return gErr.Code == code
	}
	return false
}
