package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "asvco2cli/internal/errors"
)

const transcript = `boot noise
ASVCO2v2
time=2021-08-25T12:00:00Z
LI_ser=cga-5030
span_gas=494.72
CO2kzero: 0.9602
Validation with reference gas: 349.79
Flushing validation gas for 30 seconds
Mean: 350.1ppm, STD: 0.4ppm
Mode: APOFF, CO2: 350.2, Temp: 30.1C
Mode: EPOFF, CO2: 351.0ppm
datetime,CO2,Temp,Flow_ave
2021-08-25T12:00:05Z,350.1,30.2,nan
2021-08-25T12:00:10Z,350.3,30.2,0.51
datetime,CO2,Temp,Flow_ave
ASVCO2v2
time=2021-08-26T12:00:00Z
Validation with reference gas: 494.72
datetime,CO2
2021-08-26T12:00:05Z,495.0
`

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want LineKind
	}{
		{line: "time=2021-08-25T12:00:00Z", want: LineAssignment},
		{line: "span_gas = 494.72", want: LineAssignment},
		{line: "CO2kzero: 0.9602", want: LineAssignment},
		{line: "CO2L1: 12", want: LineAssignment},
		{line: "Mode: APOFF, CO2: 350.2", want: LineCompositeMode},
		{line: "Mean: 350.1ppm, STD: 0.4ppm", want: LineCompositeStat},
		{line: "Flushing validaiton gas for 12.5 seconds", want: LineCompositeStat},
		{line: "datetime,CO2,Temp", want: LineHeader},
		{line: "2021-08-25T12:00:05Z,350.1,30.2", want: LineDataRow},
		{line: "18864.5,350.1,30.2", want: LineDataRow},
		{line: "Mode: APON, CO2: 350.2", want: LineUnrecognized},
		{line: "Validation with reference gas: 349.79", want: LineUnrecognized},
		{line: "", want: LineUnrecognized},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyLine(tt.line), "got %s", ClassifyLine(tt.line))
		})
	}
}

func TestSessionParser_ParseSessions(t *testing.T) {
	sessions, err := NewSessionParser(TimestampISO).ParseSessions(NewLog("report.txt", []byte(transcript)))
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	s := sessions[0]
	assert.Equal(t, "2021-08-25T12:00:00Z", s.Key)
	assert.Equal(t, 349.79, s.ReferenceGas)
	assert.Equal(t, 1, s.Unrecognized)

	t.Run("settings", func(t *testing.T) {
		assert.Equal(t, "2021-08-25T12:00:00Z", s.SettingString("time_of_report_command"))
		assert.Equal(t, "cga-5030", s.SettingString("LI_ser"))
		v, ok := s.Setting("span_gas")
		assert.True(t, ok)
		assert.Equal(t, 494.72, v)
		v, ok = s.Setting("CO2kzero")
		assert.True(t, ok)
		assert.Equal(t, 0.9602, v)
		_, ok = s.Setting("LI_ser")
		assert.False(t, ok)
	})

	t.Run("modes", func(t *testing.T) {
		v, ok := s.ModeValue("APOFF", "Temp")
		assert.True(t, ok)
		assert.Equal(t, 30.1, v)
		v, ok = s.ModeValue("EPOFF", "CO2")
		assert.True(t, ok)
		assert.Equal(t, 351.0, v)
	})

	t.Run("flush", func(t *testing.T) {
		assert.Equal(t, 30.0, s.Flush["flush_time"])
		assert.Equal(t, 350.1, s.Flush["Mean"])
		assert.Equal(t, 0.4, s.Flush["STD"])
	})

	t.Run("rows", func(t *testing.T) {
		assert.Equal(t, []string{"datetime", "CO2", "Temp", "Flow_ave", "gas_standard"}, s.Columns)
		require.Len(t, s.Rows, 2, "repeated header is not a row")
		assert.Equal(t, "2021-08-25T12:00:05Z", s.Rows[0].String("datetime"))

		flow := s.Column("Flow_ave")
		assert.True(t, math.IsNaN(flow[0]))
		assert.Equal(t, 0.51, flow[1])
		assert.Equal(t, []float64{349.79, 349.79}, s.Column("gas_standard"))
	})

	t.Run("second session", func(t *testing.T) {
		s2 := sessions[1]
		assert.Equal(t, 494.72, s2.ReferenceGas)
		require.Len(t, s2.Rows, 1)
		v, ok := s2.Rows[0].Float("CO2")
		assert.True(t, ok)
		assert.Equal(t, 495.0, v)
	})
}

func TestSessionParser_EpochDays(t *testing.T) {
	text := "ASVCO2v2\ntime=2021-08-25T12:00:00Z\nValidation with reference gas: 0\ndatetime,CO2\n18864.500064814816,0.2\n18864.5000625,0.1\n"

	sessions, err := NewSessionParser(TimestampEpochDays).ParseSessions(NewLog("r.txt", []byte(text)))
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "2021-08-25T12:00:06Z", sessions[0].Rows[0].String("datetime"))
	assert.Equal(t, "2021-08-25T12:00:05Z", sessions[0].Rows[1].String("datetime"))
}

func TestEpochDaysToISO(t *testing.T) {
	assert.Equal(t, "1970-01-01T00:00:00Z", EpochDaysToISO(0))
	assert.Equal(t, "2021-08-25T00:00:00Z", EpochDaysToISO(18864))
}

func TestSessionParser_Errors(t *testing.T) {
	tests := []struct {
		name     string
		mode     TimestampMode
		text     string
		wantType apperrors.ErrorType
	}{
		{
			name:     "data before header",
			text:     "ASVCO2v2\ntime=1\nValidation with reference gas: 0\n18864.5,0.2\n",
			wantType: apperrors.ErrTypeUnexpectedLogFormat,
		},
		{
			name:     "no time",
			text:     "ASVCO2v2\nValidation with reference gas: 0\n",
			wantType: apperrors.ErrTypeMalformedLog,
		},
		{
			name:     "no reference gas",
			text:     "ASVCO2v2\ntime=1\n",
			wantType: apperrors.ErrTypeMalformedLog,
		},
		{
			name:     "bad iso timestamp",
			text:     "ASVCO2v2\ntime=1\nValidation with reference gas: 0\ndatetime,CO2\n18864.5,0.2\n",
			wantType: apperrors.ErrTypeMalformedLog,
		},
		{
			name:     "row width",
			text:     "ASVCO2v2\ntime=1\nValidation with reference gas: 0\ndatetime,CO2\n2021-08-25T12:00:05Z,0.2,9\n",
			wantType: apperrors.ErrTypeMalformedLog,
		},
		{
			name:     "unknown timestamp mode",
			mode:     "julian",
			text:     "ASVCO2v2\n",
			wantType: apperrors.ErrTypeConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode := tt.mode
			if mode == "" {
				mode = TimestampISO
			}
			_, err := NewSessionParser(mode).ParseSessions(NewLog("r.txt", []byte(tt.text)))
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}
}
