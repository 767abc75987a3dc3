package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_StructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter("info", &buf)

	log.Info().Str("wallet_id", "w-1").Int64("amount", 5).Msg("transfer committed")

	var output map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output), "logger output should be valid JSON")

	assert.Equal(t, "transfer committed", output["message"])
	assert.Equal(t, "w-1", output["wallet_id"])
	assert.Equal(t, float64(5), output["amount"])
	assert.Equal(t, "info", output["level"])
	assert.Contains(t, output, "time")
}

func TestLevels(t *testing.T) {
	tests := []struct {
		level      string
		debugShown bool
		infoShown  bool
		warnShown  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"WARNING", false, false, true},
		{"error", false, false, false},
		{"nonsense", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var debugBuf, infoBuf, warnBuf bytes.Buffer
			debugLog := NewWithWriter(tt.level, &debugBuf)
			infoLog := NewWithWriter(tt.level, &infoBuf)
			warnLog := NewWithWriter(tt.level, &warnBuf)
			debugLog.Debug().Msg("d")
			infoLog.Info().Msg("i")
			warnLog.Warn().Msg("w")

			assert.Equal(t, tt.debugShown, debugBuf.Len() > 0)
			assert.Equal(t, tt.infoShown, infoBuf.Len() > 0)
			assert.Equal(t, tt.warnShown, warnBuf.Len() > 0)
		})
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Component(NewWithWriter("info", &buf), "ledger")

	log.Info().Msg("hello")

	var output map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))
	assert.Equal(t, "ledger", output["component"])
}

func TestNew_PrettyMode(t *testing.T) {
	log := New("info", true)
	log.Info().Msg("pretty mode test")
}
