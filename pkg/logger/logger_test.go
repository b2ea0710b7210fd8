package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/internal/config"
	"github.com/jsamuelsen11/gh-dashboard/oauth-analytics/pkg/logger"
)

func TestNew_LevelParsing(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected logrus.Level
	}{
		{name: "debug", level: "debug", expected: logrus.DebugLevel},
		{name: "upper_case", level: "WARN", expected: logrus.WarnLevel},
		{name: "invalid_defaults_to_info", level: "loud", expected: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logger.New(tt.level, "json", "discard")
			assert.Equal(t, tt.expected, log.GetLevel())
		})
	}
}

func TestNew_JSONFieldNames(t *testing.T) {
	log := logger.New("info", "json", "discard")
	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.Info("hello")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Contains(t, line, "timestamp")
}

func TestNewWithConfig(t *testing.T) {
	log := logger.NewWithConfig(&config.LoggingConfig{Level: "error", Format: "text", Output: "discard"})
	assert.Equal(t, logrus.ErrorLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, logger.GetCorrelationID(ctx))

	ctx = logger.SetCorrelationID(ctx, "req-123")
	assert.Equal(t, "req-123", logger.GetCorrelationID(ctx))

	log := logger.New("info", "json", "discard")
	entry := logger.WithCorrelationID(ctx, log)
	assert.Equal(t, "req-123", entry.Data[logger.FieldCorrelationID])

	bare := logger.WithCorrelationID(context.Background(), log)
	assert.NotContains(t, bare.Data, logger.FieldCorrelationID)
}
