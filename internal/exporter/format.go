package exporter

import (
	"math"
	"strconv"
)

// formatFloat writes four decimals. Non-finite values become an empty cell.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', 4, 64)
}

// formatGas writes a reference gas concentration as logged, e.g. 494.72.
func formatGas(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
