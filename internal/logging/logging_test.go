package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyresponder/internal/config"
)

func TestNewWithOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithOutput(config.LogConfig{Level: "debug", Format: config.LogFormatJSON}, &buf)
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("remote", "127.0.0.1:5555").Info("accepted")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "accepted", entry["msg"])
	assert.Equal(t, "127.0.0.1:5555", entry["remote"])
}

func TestNewWithOutput_DefaultLevel(t *testing.T) {
	logger, err := NewWithOutput(config.LogConfig{Format: config.LogFormatText}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestNewWithOutput_InvalidLevel(t *testing.T) {
	_, err := NewWithOutput(config.LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}
