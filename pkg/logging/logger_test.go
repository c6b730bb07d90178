package logging

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:       LevelDebug,
		ServiceName: "mint-test",
		JSONFormat:  true,
		Output:      &buf,
	})

	log.Info("processing meeting", F("meeting_id", int64(42)), F("segments", 7))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "processing meeting", entry["message"])
	assert.Equal(t, "mint-test", entry["service_name"])
	assert.Equal(t, float64(42), entry["meeting_id"])
	assert.Equal(t, float64(7), entry["segments"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:      LevelWarn,
		JSONFormat: true,
		Output:     &buf,
	})

	log.Debug("hidden")
	log.Info("also hidden")
	assert.Empty(t, buf.String())

	log.Warn("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:      LevelDebug,
		JSONFormat: true,
		Output:     &buf,
	})

	child := log.With(F("component", "aligner"))
	child.Info("aligned segments")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "aligner", entry["component"])
}

func TestLogger_FieldTypes(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&Config{
		Level:      LevelDebug,
		JSONFormat: true,
		Output:     &buf,
	})

	log.Info("typed fields",
		F("str", "a"),
		F("float", 0.6),
		F("bool", true),
		F("dur", 2*time.Second),
	)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "a", entry["str"])
	assert.Equal(t, 0.6, entry["float"])
	assert.Equal(t, true, entry["bool"])
}

func TestNopLogger(t *testing.T) {
	log := NewNopLogger()
	// Must not panic and With must keep returning a usable logger.
	log.With(F("k", "v")).Error("discarded", Err(assert.AnError))
}

func TestMustGlobal_InitializesDefault(t *testing.T) {
	global = nil
	log := MustGlobal()
	assert.NotNil(t, log)
}
