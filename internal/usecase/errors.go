package usecase

import "fmt"

type ErrorCode string

const (
	ErrorInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrorConfiguration ErrorCode = "CONFIGURATION_ERROR"
	ErrorProviderAPI   ErrorCode = "PROVIDER_API_ERROR"
	ErrorConnectivity  ErrorCode = "CONNECTIVITY_ERROR"
	ErrorEmptyResponse ErrorCode = "EMPTY_RESPONSE"
	ErrorUnknown       ErrorCode = "UNKNOWN_ERROR"
)

// Error is the only failure shape that leaves the usecase layer. Message is
// safe to show to an end user; StatusCode is the HTTP status to answer with.
type Error struct {
	Code       ErrorCode
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("usecase: %s (%d): %s: %v", e.Code, e.StatusCode, e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, status int, message string, err error) *Error {
	return &Error{Code: code, Message: message, StatusCode: status, Err: err}
}
