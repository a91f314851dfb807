package errors

import (
	"fmt"
)

// NewMalformedLogError reports a structural problem in a log file. line may be 0
// when the problem is not tied to a single line.
func NewMalformedLogError(file string, line int, message string, cause error) *AppError {
	e := NewAppError(ErrTypeMalformedLog, message, cause)
	e.File = file
	e.Line = line
	return e
}

// NewUnexpectedFormatError reports a line that could not be classified.
func NewUnexpectedFormatError(file string, line int, text string) *AppError {
	e := NewAppError(ErrTypeUnexpectedLogFormat,
		fmt.Sprintf("unexpected text on line %d: %q", line, text), nil)
	e.File = file
	e.Line = line
	return e
}

// NewOutOfRangeError reports a tolerance lookup outside the table domain.
func NewOutOfRangeError(concentration, min, max float64) *AppError {
	return NewAppError(ErrTypeOutOfRange,
		fmt.Sprintf("concentration %g ppm is outside the table range [%g, %g]", concentration, min, max), nil).
		WithContext("concentration", concentration).
		WithContext("min", min).
		WithContext("max", max)
}

// NewReferenceGasMismatchError reports a sample whose closest reference gas is
// beyond the matching tolerance.
func NewReferenceGasMismatchError(file, mode string, value, nearest, distance float64) *AppError {
	e := NewAppError(ErrTypeReferenceGasMismatch,
		fmt.Sprintf("%s value %.3f ppm is %.3f ppm from the nearest reference gas %g ppm", mode, value, distance, nearest), nil).
		WithContext("mode", mode).
		WithContext("value", value).
		WithContext("nearest", nearest).
		WithContext("distance", distance)
	e.File = file
	return e
}

// NewCalibrationError creates a calibration error
func NewCalibrationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeCalibration, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, message, cause)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
