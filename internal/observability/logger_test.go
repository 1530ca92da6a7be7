package observability

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies that parseLogLevel correctly parses log level
// strings from environment variables, handling case-insensitivity and whitespace.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		env    string
		expect zapcore.Level
	}{
		{"", zap.InfoLevel},
		{"INFO", zap.InfoLevel},
		{"DEBUG", zap.DebugLevel},
		{"WARN", zap.WarnLevel},
		{"ERROR", zap.ErrorLevel},
		{"debug", zap.DebugLevel},
		{"  warn  ", zap.WarnLevel},
		{"invalid", zap.InfoLevel},
	}
	for _, tt := range tests {
		level := parseLogLevel(tt.env)
		if got := level.Level(); got != tt.expect {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.env, got, tt.expect)
		}
	}
}

func TestNewLoggerAt(t *testing.T) {
	logger, err := NewLoggerAt("debug")
	if err != nil {
		t.Fatalf("NewLoggerAt() error = %v", err)
	}
	if !logger.Core().Enabled(zap.DebugLevel) {
		t.Error("NewLoggerAt(debug) should enable debug level")
	}
	_ = logger.Sync() // best-effort; can fail on /dev/stderr in test env
}

func TestFlushTelemetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := FlushTelemetry(ctx, zap.NewNop(), ""); err == nil {
		t.Fatal("FlushTelemetry() expected error for cancelled context")
	}
}
