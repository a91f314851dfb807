// Package errors defines the typed errors raised while reading instrument logs
// and evaluating validation runs.
//
// Every error is an *AppError carrying an ErrorType. Callers test the kind with
// errors.Is against the exported sentinels:
//
//	if errors.Is(err, apperrors.ErrMalformedLog) {
//	    // record a per-file failure and continue the batch
//	}
//
// Parse errors carry the file name and line number of the offending input.
package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeMalformedLog         ErrorType = "MALFORMED_LOG"
	ErrTypeUnexpectedLogFormat  ErrorType = "UNEXPECTED_LOG_FORMAT"
	ErrTypeOutOfRange           ErrorType = "OUT_OF_RANGE"
	ErrTypeReferenceGasMismatch ErrorType = "REFERENCE_GAS_MISMATCH"
	ErrTypeCalibration          ErrorType = "CALIBRATION"
	ErrTypeValidation           ErrorType = "VALIDATION"
	ErrTypeNotFound             ErrorType = "NOT_FOUND"
	ErrTypeConfig               ErrorType = "CONFIG"
)

// Sentinels for errors.Is. They match any *AppError of the same type.
var (
	ErrMalformedLog         = &AppError{Type: ErrTypeMalformedLog}
	ErrUnexpectedLogFormat  = &AppError{Type: ErrTypeUnexpectedLogFormat}
	ErrOutOfRange           = &AppError{Type: ErrTypeOutOfRange}
	ErrReferenceGasMismatch = &AppError{Type: ErrTypeReferenceGasMismatch}
	ErrCalibration          = &AppError{Type: ErrTypeCalibration}
	ErrValidation           = &AppError{Type: ErrTypeValidation}
	ErrNotFound             = &AppError{Type: ErrTypeNotFound}
	ErrConfig               = &AppError{Type: ErrTypeConfig}
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	File    string
	Line    int
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Type, e.Message)
	switch {
	case e.File != "" && e.Line > 0:
		msg = fmt.Sprintf("[%s] %s:%d: %s", e.Type, e.File, e.Line, e.Message)
	case e.File != "":
		msg = fmt.Sprintf("[%s] %s: %s", e.Type, e.File, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches another *AppError of the same type.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// TypeOf returns the ErrorType of the first *AppError in err's chain, or "".
func TypeOf(err error) ErrorType {
	for err != nil {
		if app, ok := err.(*AppError); ok {
			return app.Type
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
