package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
	})

	t.Run("filters by level", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug msg")
		logger.Info("info msg")
		logger.Warn("warn msg")
		logger.Error("error msg")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelInfo), 1)
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
		assert.Equal(t, 4, handler.Count())
	})

	t.Run("derived loggers share records and keep attrs", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("file", "20210825_120000.txt").WithGroup("calc").Info("corrected", "xco2", 350.5)

		records := handler.GetRecords()
		assert.Len(t, records, 1)
		assert.Equal(t, "20210825_120000.txt", records[0].Attrs["file"])
		assert.Equal(t, 350.5, records[0].Attrs["calc.xco2"])
		assert.NotContains(t, records[0].Attrs, "calc.file")
	})

	t.Run("attrs added inside a group are qualified", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With("run", "r1").WithGroup("calc").With("mode", "APOFF").WithGroup("dry").Info("corrected", "xco2", 350.5)

		records := handler.GetRecords()
		assert.Len(t, records, 1)
		assert.Equal(t, map[string]any{
			"run":           "r1",
			"calc.mode":     "APOFF",
			"calc.dry.xco2": 350.5,
		}, records[0].Attrs)
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("one")
		handler.Clear()
		assert.Equal(t, 0, handler.Count())
	})
}

func TestLogBuilder(t *testing.T) {
	t.Run("standard log carries every block", func(t *testing.T) {
		text := string(StandardLog().Build())

		assert.Contains(t, text, "COEFF:CO2kzero:0.9602")
		assert.Contains(t, text, "FLAGS: 0000 0000 0000 0000 0000 0000 0000 0000")
		assert.Contains(t, text, "DATA:APOFF,2021-08-25T12:")
		assert.Contains(t, text, "STATS:State,Timestamp,CO2,CO2_SD")
		assert.Contains(t, text, "DRY:TS, SW_xCO2(dry), Atm_xCO2(dry)")
	})

	t.Run("without removes a block", func(t *testing.T) {
		text := string(StandardLog().WithoutDry().WithoutFlags().Build())

		assert.NotContains(t, text, "DRY")
		assert.NotContains(t, text, "FLAGS")
	})
}
