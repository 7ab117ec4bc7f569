package utils

import "fmt"

// AppError is an operational error: an anticipated, client-facing failure
// carrying the HTTP status it should be rendered with.
type AppError struct {
	StatusCode int
	Message    string
}

func NewAppError(statusCode int, message string) *AppError {
	return &AppError{StatusCode: statusCode, Message: message}
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// Status returns the envelope status: "fail" for client errors, "error" otherwise.
func (e *AppError) Status() string {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return "fail"
	}
	return "error"
}
