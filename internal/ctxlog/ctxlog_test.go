// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		logger *slog.Logger
	}{
		{
			name:   "with custom logger",
			logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
		},
		{
			name:   "with nil logger should use default",
			logger: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := Logger(New(context.Background(), tt.logger))
			if tt.logger == nil {
				assert.Same(t, DefaultLogger, logger)
				return
			}

			assert.Same(t, tt.logger, logger)
		})
	}
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name          string
		setupContext  func() context.Context
		expectDefault bool
	}{
		{
			name: "context with logger",
			setupContext: func() context.Context {
				return New(context.Background(), slog.New(slog.NewTextHandler(os.Stderr, nil)))
			},
			expectDefault: false,
		},
		{
			name:          "context without logger",
			setupContext:  context.Background,
			expectDefault: true,
		},
		{
			name: "context with nil logger value",
			setupContext: func() context.Context {
				return context.WithValue(context.Background(), loggerKey{}, nil)
			},
			expectDefault: true,
		},
		{
			name: "context with wrong type value",
			setupContext: func() context.Context {
				return context.WithValue(context.Background(), loggerKey{}, "not a logger")
			},
			expectDefault: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := Logger(tt.setupContext())
			require.NotNil(t, logger)

			if tt.expectDefault {
				assert.Same(t, DefaultLogger, logger)
			} else {
				assert.NotSame(t, DefaultLogger, logger)
			}
		})
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer

	ctx := New(context.Background(), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
	ctx = With(ctx, "runId", "abc")

	Info(ctx, "hello")
	assert.Contains(t, buf.String(), "runId=abc")
}

func TestLoggingFunctions(t *testing.T) {
	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	ctx := New(context.Background(), logger)

	tests := []struct {
		name     string
		logFunc  func(context.Context, string, ...any)
		message  string
		expected string
	}{
		{name: "Info logging", logFunc: Info, message: "test info message", expected: "INFO"},
		{name: "Debug logging", logFunc: Debug, message: "test debug message", expected: "DEBUG"},
		{name: "Warn logging", logFunc: Warn, message: "test warning message", expected: "WARN"},
		{name: "Error logging", logFunc: Error, message: "test error message", expected: "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc(ctx, tt.message, "key", "value")

			output := buf.String()
			assert.True(t, strings.Contains(output, tt.expected), "missing level in %q", output)
			assert.Contains(t, output, tt.message)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name          string
		value         string
		expectedLevel slog.Level
	}{
		{name: "DEBUG level", value: "DEBUG", expectedLevel: slog.LevelDebug},
		{name: "INFO level", value: "INFO", expectedLevel: slog.LevelInfo},
		{name: "lower case is accepted", value: "info", expectedLevel: slog.LevelInfo},
		{name: "WARN level", value: "WARN", expectedLevel: slog.LevelWarn},
		{name: "ERROR level", value: "ERROR", expectedLevel: slog.LevelError},
		{name: "Invalid level defaults to WARN", value: "INVALID", expectedLevel: slog.LevelWarn},
		{name: "Empty level defaults to WARN", value: "", expectedLevel: slog.LevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedLevel, parseLevel(tt.value))
		})
	}
}

func TestLogLevelFromEnv(t *testing.T) {
	t.Setenv(LevelEnvVar(), "DEBUG")
	assert.Equal(t, slog.LevelDebug, logLevelFromEnv())
}

func TestLevelEnvVar(t *testing.T) {
	name := LevelEnvVar()
	assert.True(t, strings.HasSuffix(name, "_LOG_LEVEL"))
	assert.Equal(t, strings.ToUpper(name), name)
	assert.NotContains(t, name, "-")
}

func TestDefaultLogger(t *testing.T) {
	require.NotNil(t, DefaultLogger)
	require.NotNil(t, JSONLogger)

	originalLevel := LevelVar.Level()
	defer LevelVar.Set(originalLevel)

	LevelVar.Set(slog.LevelDebug)

	assert.True(t, DefaultLogger.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, JSONLogger.Enabled(context.Background(), slog.LevelInfo))
}
