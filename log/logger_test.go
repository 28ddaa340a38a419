package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesNamedJsonRecords(t *testing.T) {
	var buffer bytes.Buffer
	logger := New(DefaultOptions().WithWriter(&buffer).WithName("statesync")).Named("store")
	logger.Infow("entry written", "key", "hello", "seq", 1)
	require.NoError(t, logger.Sync())

	record := map[string]any{}
	require.NoError(t, json.Unmarshal(buffer.Bytes(), &record))
	assert.Equal(t, "[INFO]", record["level"])
	assert.Equal(t, "statesync.store", record["logger"])
	assert.Equal(t, "entry written", record["msg"])
	assert.Equal(t, "hello", record["key"])
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buffer bytes.Buffer
	logger := New(DefaultOptions().WithWriter(&buffer).WithLevel(WarnLevel))
	logger.Debug("dropped")
	logger.Info("dropped")
	assert.Zero(t, buffer.Len())
	logger.Warn("kept")
	assert.Contains(t, buffer.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("DEBUG")
	assert.NoError(t, err)
	assert.Equal(t, DebugLevel, level)
	level, err = ParseLevel(" warn ")
	assert.NoError(t, err)
	assert.Equal(t, WarnLevel, level)
	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestParseOutputEncoder(t *testing.T) {
	_, err := ParseOutputEncoder("console")
	assert.NoError(t, err)
	_, err = ParseOutputEncoder("")
	assert.NoError(t, err)
	_, err = ParseOutputEncoder("xml")
	assert.Error(t, err)
}

func TestGlobalIsNopBeforeSetup(t *testing.T) {
	assert.NotNil(t, Global())
	assert.NotPanics(t, func() {
		Named("anything").Infow("nobody listens")
	})
}
