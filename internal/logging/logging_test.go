package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", FormatJSON, &buf)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	WithOperators(WithRun(log, "run-1"), "rank", "team", "swap").Debug("generation")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "rank", entry["selection"])
	assert.Equal(t, "team", entry["crossover"])
	assert.Equal(t, "swap", entry["mutation"])
	assert.Equal(t, "generation", entry["msg"])
}

func TestNewAutoFormatForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", FormatAuto, &buf)
	_, isJSON := log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)

	log = New("info", FormatText, &buf)
	_, isText := log.Formatter.(*logrus.TextFormatter)
	assert.True(t, isText)
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New("loud", FormatJSON, &buf)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.Contains(t, buf.String(), "invalid log level")
}

func TestDiscard(t *testing.T) {
	log := Discard()
	log.Error("dropped")
	assert.Equal(t, logrus.PanicLevel, log.GetLevel())
}
