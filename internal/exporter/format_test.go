package exporter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"asvco2cli/pkg/contracts/domain"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"zero", 0, "0.0000"},
		{"rounds to four places", 350.5758384249509, "350.5758"},
		{"negative residual", -0.31, "-0.3100"},
		{"NaN is blank", math.NaN(), ""},
		{"infinity is blank", math.Inf(1), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFloat(tt.input))
		})
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"float", 1.23456, "1.2346"},
		{"gas standard keeps logged digits", concentration(494.72), "494.72"},
		{"int", 12, "12"},
		{"bool", true, "true"},
		{"string", "APOFF", "APOFF"},
		{"mode", string(domain.ModeEPOFF), "EPOFF"},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatCell(tt.input))
		})
	}
}

func TestFormatBool(t *testing.T) {
	assert.Equal(t, "true", formatBool(true))
	assert.Equal(t, "false", formatBool(false))
}
