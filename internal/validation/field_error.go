package validation

import (
	"fmt"
	"math"
	"strings"

	"asvco2cli/internal/calibration"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (fe FieldError) Error() string {
	return fmt.Sprintf("%s: %s", fe.Field, fe.Message)
}

// FieldErrors collects field errors.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	msgs := make([]string, len(fe))
	for i, e := range fe {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateLabConstants checks the lab constants used by span correction.
// It returns nil when they are usable.
func ValidateLabConstants(lab calibration.LabConstants) error {
	var errs FieldErrors
	finite := func(field string, v float64) bool {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, FieldError{Field: field, Message: "must be finite", Value: v})
			return false
		}
		return true
	}

	if strings.TrimSpace(lab.Serial) == "" {
		errs = append(errs, FieldError{Field: "serial", Message: "is required"})
	}
	if finite("span_coefficient", lab.SpanCoefficient) && lab.SpanCoefficient == 0 {
		errs = append(errs, FieldError{Field: "span_coefficient", Message: "must be non-zero", Value: lab.SpanCoefficient})
	}
	if finite("span_temperature", lab.SpanTemperature) && (lab.SpanTemperature < -5 || lab.SpanTemperature > 60) {
		errs = append(errs, FieldError{Field: "span_temperature", Message: "must be between -5 and 60 °C", Value: lab.SpanTemperature})
	}
	finite("temperature_slope", lab.TemperatureSlope)

	if len(errs) == 0 {
		return nil
	}
	return errs
}
