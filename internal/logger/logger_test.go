package logger_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/alkime/pagenotes/internal/config"
	"github.com/alkime/pagenotes/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestSetupLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.Config
		debug bool
		warn  bool
	}{
		{name: "development defaults to debug", cfg: config.Config{Env: config.EnvDevelopment, LogLevel: "info"}, debug: true, warn: true},
		{name: "production info", cfg: config.Config{Env: config.EnvProduction, LogLevel: "info"}, debug: false, warn: true},
		{name: "production debug override", cfg: config.Config{Env: config.EnvProduction, LogLevel: "debug"}, debug: true, warn: true},
		{name: "error only", cfg: config.Config{Env: config.EnvProduction, LogLevel: "error"}, debug: false, warn: false},
	}

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := logger.SetupLogger(&tt.cfg)
			ctx := context.Background()

			assert.Equal(t, tt.debug, l.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.warn, l.Enabled(ctx, slog.LevelWarn))
			assert.Same(t, l, slog.Default())
		})
	}
}

func TestSetupCLI(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	l := logger.SetupCLI(&buf, false)
	l.Debug("hidden")
	l.Info("shown", "page", 2)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown page=2")
}
