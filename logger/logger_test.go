package logger

import (
	"bytes"
	"encoding/json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"DEBUG":   zerolog.DebugLevel,
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"ERROR":   zerolog.ErrorLevel,
		"FATAL":   zerolog.FatalLevel,
		"PANIC":   zerolog.PanicLevel,
		"INFO":    zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, expected := range cases {
		assert.Equal(t, expected, ParseLevel(in), in)
	}
}

func TestNewLoggerTo(t *testing.T) {
	t.Setenv(LogLevelEnv, "WARN")
	var buf bytes.Buffer
	l := NewLoggerTo(&buf, "Classifier")

	l.Info().Msg("dropped")
	require.Zero(t, buf.Len())

	l.Warn().Msg("kept")
	record := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "Classifier", record["component"])
	assert.Equal(t, "kept", record["message"])
}

func TestPanicCollector(t *testing.T) {
	var out bytes.Buffer
	var logs bytes.Buffer
	c := &panicCollector{out: &out}
	l := zerolog.New(&logs)

	c.handleLine([]byte(`{"level":"info","message":"hello"}`), l)
	c.handleLine([]byte(""), l)
	c.handleLine([]byte("not json"), l)
	c.handleLine([]byte("panic: boom"), l)
	c.handleLine([]byte("goroutine 1 [running]:"), l)

	assert.Equal(t, "{\"level\":\"info\",\"message\":\"hello\"}\n", out.String())
	assert.Contains(t, logs.String(), "not JSON formatted")
	assert.Equal(t, "panic: boom\ngoroutine 1 [running]:\n", c.panicLogs())
}
