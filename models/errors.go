package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeNavigation    = "NAVIGATION_FAILED"
	ErrCodeFrameNotFound = "FRAME_NOT_FOUND"
	ErrCodeInputNotFound = "INPUT_NOT_FOUND"
	ErrCodeSubmitFailed  = "SUBMIT_NOT_FOUND"
	ErrCodeEmptyPage     = "EMPTY_PAGE"
	ErrCodeExtraction    = "EXTRACTION_FAILED"
	ErrCodeTimeout       = "LOOKUP_TIMEOUT"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeUnavailable   = "SERVICE_UNAVAILABLE"
	ErrCodeBrowserCrash  = "BROWSER_CRASH"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// LookupError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type LookupError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *LookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// NewLookupError creates a new LookupError.
func NewLookupError(code, message string, err error) *LookupError {
	return &LookupError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *LookupError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// Retryable reports whether another attempt against the registry form may
// succeed. Interaction failures and empty/ambiguous pages are transient;
// everything else ends the call immediately.
func (e *LookupError) Retryable() bool {
	switch e.Code {
	case ErrCodeNavigation, ErrCodeFrameNotFound, ErrCodeInputNotFound,
		ErrCodeSubmitFailed, ErrCodeEmptyPage, ErrCodeExtraction:
		return true
	}
	return false
}
