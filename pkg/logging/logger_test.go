package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level to be Info, got %s", cfg.Level)
	}

	if cfg.Pretty != false {
		t.Error("Expected default pretty to be false")
	}
}

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		level    LogLevel
		logAt    func(logger zerolog.Logger, msg string)
		msg      string
		expected bool
	}{
		{
			name:     "info passes at info level",
			level:    LevelInfo,
			logAt:    func(l zerolog.Logger, m string) { l.Info().Msg(m) },
			msg:      "property created",
			expected: true,
		},
		{
			name:     "debug suppressed at info level",
			level:    LevelInfo,
			logAt:    func(l zerolog.Logger, m string) { l.Debug().Msg(m) },
			msg:      "cache hit",
			expected: false,
		},
		{
			name:     "debug passes at debug level",
			level:    LevelDebug,
			logAt:    func(l zerolog.Logger, m string) { l.Debug().Msg(m) },
			msg:      "cache miss",
			expected: true,
		},
		{
			name:     "warn passes at warn level",
			level:    LevelWarn,
			logAt:    func(l zerolog.Logger, m string) { l.Warn().Msg(m) },
			msg:      "cache unavailable",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := Setup(Config{Level: tt.level, Output: buf})

			tt.logAt(logger, tt.msg)

			got := strings.Contains(buf.String(), tt.msg)
			if got != tt.expected {
				t.Errorf("log output contains %q = %v, want %v (output: %s)",
					tt.msg, got, tt.expected, buf.String())
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"INFO", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(LogLevel(tt.input)); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLogger_Component(t *testing.T) {
	buf := &bytes.Buffer{}
	Setup(Config{Level: LevelInfo, Output: buf})

	logger := NewLogger("cache")
	logger.Info().Msg("cache filled")

	if !strings.Contains(buf.String(), `"component":"cache"`) {
		t.Errorf("expected component field in output: %s", buf.String())
	}
}
