package cmd

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Togather-Foundation/booking/internal/config"
)

func TestServeCommandHelp(t *testing.T) {
	output, err := execute(t, "serve", "--help")
	assert.NoError(t, err)

	for _, expected := range []string{
		"Start the booking HTTP server",
		"--host",
		"--port",
		"--migrate",
		"--config",
		"--log-level",
	} {
		assert.Contains(t, output, expected)
	}
}

func TestServeCommandFlagParsing(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expectError bool
	}{
		{name: "valid host flag", args: []string{"--host", "127.0.0.1"}},
		{name: "valid port flag", args: []string{"--port", "9090"}},
		{name: "migrate flag", args: []string{"--migrate"}},
		{name: "invalid port value", args: []string{"--port", "invalid"}, expectError: true},
		{name: "unknown flag", args: []string{"--unknown"}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := serveCmd.Flags()
			err := flags.Parse(tt.args)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	serverHost, serverPort, migrateOnStart = "", 0, false
}

func TestRiverLogger_Level(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := riverLogger(config.LoggingConfig{Level: tt.level})
			assert.True(t, logger.Handler().Enabled(t.Context(), tt.want))
			if tt.want > slog.LevelDebug {
				assert.False(t, logger.Handler().Enabled(t.Context(), tt.want-4))
			}
		})
	}
}
