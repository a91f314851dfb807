package validation

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asvco2cli/internal/calibration"
	"asvco2cli/internal/dataprocessing"
	"asvco2cli/internal/shared/testutil"
	"asvco2cli/pkg/contracts/domain"
)

func rangeInput(t *testing.T, b *testutil.LogBuilder) RangeInput {
	t.Helper()
	parsed, err := dataprocessing.NewParser(nil).Parse(context.Background(),
		dataprocessing.NewLog(b.Name(), b.Build()))
	require.NoError(t, err)
	return RangeInput{
		File:    parsed.Name,
		Rows:    parsed.Rows,
		Flags:   parsed.Flags,
		Stats:   parsed.Stats,
		SpanGas: calibration.ReferenceGasesFor(parsed.Date).Span,
	}
}

func checks(report FaultReport) []string {
	out := make([]string, len(report.Faults))
	for i, f := range report.Faults {
		out[i] = f.Check
	}
	return out
}

func TestRangeCheckValidator_StandardLogPasses(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	v := NewRangeCheckValidator(logger)

	report := v.Check(context.Background(), rangeInput(t, testutil.StandardLog()))

	assert.True(t, report.OK(), report.String())
	assert.Equal(t, "No problems were found in "+testutil.StandardLogName, report.String())
	testutil.AssertLogContains(t, handler, slog.LevelDebug, "range checks passed")
}

func TestRangeCheckValidator_Faults(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(b *testutil.LogBuilder)
		want    []string
		message string
	}{
		{
			name: "zero pump pressure equal",
			mutate: func(b *testutil.LogBuilder) {
				b.MapData("ZPON", func(r testutil.DataRow) testutil.DataRow { r.Pres = 101.3; return r })
			},
			want:    []string{CheckPumpPressure},
			message: "The mean pressure for ZPON was not greater than the mean pressure for ZPOFF by 0.0kPa.",
		},
		{
			name: "span pump within threshold",
			mutate: func(b *testutil.LogBuilder) {
				b.MapData("SPON", func(r testutil.DataRow) testutil.DataRow { r.Pres = 103.0; return r })
			},
			want:    []string{CheckPumpPressure},
			message: "The mean pressure for SPON was not greater than the mean pressure for SPOFF by 2.0kPa.",
		},
		{
			name: "air pump within threshold",
			mutate: func(b *testutil.LogBuilder) {
				b.MapData("APON", func(r testutil.DataRow) testutil.DataRow { r.Pres = 103.5; return r })
			},
			want:    []string{CheckPumpPressure},
			message: "The mean pressure for APON was not greater than the mean pressure for APOFF by 2.5kPa.",
		},
		{
			name:    "missing pump side",
			mutate:  func(b *testutil.LogBuilder) { b.WithoutMode("EPON") },
			want:    []string{CheckPumpPressure},
			message: "The mean pressure for EPON could not be compared with EPOFF because one of them has no measurements.",
		},
		{
			name: "humidity outlier",
			mutate: func(b *testutil.LogBuilder) {
				b.MapData("ZPPCAL", func(r testutil.DataRow) testutil.DataRow { r.RHPerc = 9.5; return r })
			},
			want:    []string{CheckHumidity},
			message: "A relative humidity measurement was greater than 3% away from the mean.",
		},
		{
			name:    "fault flag",
			mutate:  func(b *testutil.LogBuilder) { b.Flags(0, 0, 0, 0, 0x0010, 0, 0, 0) },
			want:    []string{CheckFlags},
			message: "A non-zero flag indicating a fault was found.",
		},
		{
			name: "co2 stdev at limit",
			mutate: func(b *testutil.LogBuilder) {
				b.MapStats(func(r testutil.StatsRow) testutil.StatsRow {
					if r.State == "SPOFF" {
						r.CO2SD = 2.0
					}
					return r
				})
			},
			want:    []string{CheckCO2Stdev},
			message: "A CO2 standard deviation was found greater than or equal to 2ppm.",
		},
		{
			name: "zero gas drift",
			mutate: func(b *testutil.LogBuilder) {
				b.MapData("ZPPCAL", func(r testutil.DataRow) testutil.DataRow { r.CO2 = -2.5; return r })
			},
			want:    []string{CheckZeroGas},
			message: "A CO2 measurement exceeded 2ppm away from the zero gas during ZPPCAL.",
		},
		{
			name: "span gas drift",
			mutate: func(b *testutil.LogBuilder) {
				b.MapData("SPPCAL", func(r testutil.DataRow) testutil.DataRow { r.CO2 = 497.0; return r })
			},
			want:    []string{CheckSpanGas},
			message: "A CO2 measurement exceeded 2ppm away from the span gas during SPPCAL.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testutil.StandardLog()
			tt.mutate(b)

			report := NewRangeCheckValidator(nil).Check(context.Background(), rangeInput(t, b))

			assert.False(t, report.OK())
			assert.Equal(t, tt.want, checks(report))
			assert.Equal(t, tt.message, report.Faults[0].Message)
		})
	}
}

func TestRangeCheckValidator_UnknownFlagsAreNotFaults(t *testing.T) {
	b := testutil.StandardLog().WithoutFlags()

	report := NewRangeCheckValidator(nil).Check(context.Background(), rangeInput(t, b))

	assert.True(t, report.OK(), report.String())
}

func TestRangeCheckValidator_SpanGasFollowsLogDate(t *testing.T) {
	// SPPCAL reads 494.9, which is 11.26 ppm from the May 2021 span gas.
	b := testutil.StandardLog()
	in := rangeInput(t, b)
	in.SpanGas = calibration.ReferenceGasesFor(in.Rows[0].Timestamp.AddDate(0, -3, 0)).Span
	require.InDelta(t, 506.16, in.SpanGas, 1e-9)

	report := NewRangeCheckValidator(nil).Check(context.Background(), in)

	assert.Equal(t, []string{CheckSpanGas}, checks(report))
}

func TestRangeCheckValidator_MissingStdevColumn(t *testing.T) {
	in := rangeInput(t, testutil.StandardLog())
	in.Stats = domain.StatsBlock{Columns: []string{"State", "Timestamp", "CO2"}}

	report := NewRangeCheckValidator(nil).Check(context.Background(), in)

	assert.Equal(t, []string{CheckCO2Stdev}, checks(report))
}

func TestRangeCheckValidator_ChecksDoNotShortCircuit(t *testing.T) {
	b := testutil.StandardLog().
		MapData("ZPON", func(r testutil.DataRow) testutil.DataRow { r.Pres = 101.3; return r }).
		MapData("ZPPCAL", func(r testutil.DataRow) testutil.DataRow { r.CO2 = 3; return r }).
		Flags(1, 0, 0, 0, 0, 0, 0, 0)

	report := NewRangeCheckValidator(nil).Check(context.Background(), rangeInput(t, b))

	assert.Equal(t, []string{CheckPumpPressure, CheckFlags, CheckZeroGas}, checks(report))
	lines := strings.Split(report.String(), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "The following problems were found in "+testutil.StandardLogName, lines[0])
	assert.Equal(t, "A non-zero flag indicating a fault was found.", lines[2])
}

func TestValidateLabConstants(t *testing.T) {
	good := calibration.LabConstants{Serial: "cga-5030", SpanCoefficient: -0.0055, SpanTemperature: 20, TemperatureSlope: 0.0001}

	tests := []struct {
		name   string
		mutate func(*calibration.LabConstants)
		fields []string
	}{
		{name: "valid", mutate: func(*calibration.LabConstants) {}},
		{name: "missing serial", mutate: func(l *calibration.LabConstants) { l.Serial = " " }, fields: []string{"serial"}},
		{name: "zero span", mutate: func(l *calibration.LabConstants) { l.SpanCoefficient = 0 }, fields: []string{"span_coefficient"}},
		{name: "hot cell", mutate: func(l *calibration.LabConstants) { l.SpanTemperature = 75 }, fields: []string{"span_temperature"}},
		{
			name: "several",
			mutate: func(l *calibration.LabConstants) {
				l.SpanTemperature = -10
				l.TemperatureSlope = math.NaN()
			},
			fields: []string{"span_temperature", "temperature_slope"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lab := good
			tt.mutate(&lab)

			err := ValidateLabConstants(lab)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var fe FieldErrors
			require.ErrorAs(t, err, &fe)
			got := make([]string, len(fe))
			for i, e := range fe {
				got[i] = e.Field
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}
