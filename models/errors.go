package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeSampler      = "SAMPLER_FAULT"
	ErrCodeStimulus     = "STIMULUS_FAILED"
	ErrCodePersistence  = "PERSISTENCE_FAULT"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeNavigation   = "NAVIGATION_FAILED"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CollectError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type CollectError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *CollectError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CollectError) Unwrap() error {
	return e.Err
}

// NewCollectError creates a new CollectError.
func NewCollectError(code, message string, err error) *CollectError {
	return &CollectError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *CollectError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// MissReason explains why a candidate produced no record. Misses are expected
// and frequent; they are counted for observability but never returned as
// errors.
type MissReason string

const (
	MissOutOfClass   MissReason = "out_of_class"
	MissNoName       MissReason = "no_name"
	MissNoPrice      MissReason = "no_price"
	MissBandRejected MissReason = "band_rejected"
	MissNameRecheck  MissReason = "name_recheck"
	MissEmptyText    MissReason = "empty_text"
)
