package calibration

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"time"

	apperrors "asvco2cli/internal/errors"
)

// MatchTolerance is the largest distance in ppm between a corrected value and
// the reference gas it is assigned to.
const MatchTolerance = 50.0

var logNamePattern = regexp.MustCompile(`(\d{8})_\d{6}\.txt$`)

// GasList is the set of reference gases in service from a given date.
type GasList struct {
	From  time.Time `json:"from"`
	Gases []float64 `json:"gases"`
	Span  float64   `json:"span"`
}

// gasLists is ordered by From.
var gasLists = []GasList{
	{
		From:  time.Time{},
		Gases: []float64{0, 104.25, 349.79, 552.9, 732.64, 999.51, 1487.06, 1994.25},
		Span:  552.9,
	},
	{
		From:  time.Date(2021, time.April, 27, 0, 0, 0, 0, time.UTC),
		Gases: []float64{0, 104.25, 349.79, 506.16, 732.64, 999.51, 1487.06, 1994.25},
		Span:  506.16,
	},
	{
		From:  time.Date(2021, time.August, 1, 0, 0, 0, 0, time.UTC),
		Gases: []float64{0, 104.25, 349.79, 494.72, 732.64, 999.51, 1487.06, 1961.39},
		Span:  494.72,
	},
}

// LogDate extracts the run date from a log filename such as
// 20210825_120000.txt.
func LogDate(name string) (time.Time, error) {
	m := logNamePattern.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return time.Time{}, apperrors.NewMalformedLogError(name, 0,
			"filename does not carry a YYYYMMDD_HHMMSS.txt timestamp", nil)
	}
	d, err := time.Parse("20060102", m[1])
	if err != nil {
		return time.Time{}, apperrors.NewMalformedLogError(name, 0, "invalid filename date", err)
	}
	return d, nil
}

// ReferenceGasesFor returns the gas list in service on date.
func ReferenceGasesFor(date time.Time) GasList {
	list := gasLists[0]
	for _, l := range gasLists[1:] {
		if !date.Before(l.From) {
			list = l
		}
	}
	out := list
	out.Gases = append([]float64(nil), list.Gases...)
	return out
}

// Nearest returns the reference gas closest to value and whether it lies
// within MatchTolerance. Ties go to the lower gas.
func (g GasList) Nearest(value float64) (gas, distance float64, ok bool) {
	if math.IsNaN(value) || len(g.Gases) == 0 {
		return math.NaN(), math.NaN(), false
	}
	gas = g.Gases[0]
	distance = math.Abs(value - gas)
	for _, c := range g.Gases[1:] {
		if d := math.Abs(value - c); d < distance {
			gas, distance = c, d
		}
	}
	return gas, distance, distance < MatchTolerance
}

// String implements fmt.Stringer.
func (g GasList) String() string {
	return fmt.Sprintf("gases %v (span %.2f)", g.Gases, g.Span)
}
