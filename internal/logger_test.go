package internal_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/m-mizutani/alfred/internal"
	"github.com/m-mizutani/gt"
)

func TestNewLogger(t *testing.T) {
	t.Run("default level is warn", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := internal.NewLogger(&buf, "")
		gt.NoError(t, err).Required()

		logger.Info("hidden")
		logger.Warn("shown")
		gt.S(t, buf.String()).Contains("shown")
		gt.False(t, bytes.Contains(buf.Bytes(), []byte("hidden")))
	})

	t.Run("debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := internal.NewLogger(&buf, "DEBUG")
		gt.NoError(t, err).Required()
		gt.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := internal.NewLogger(&bytes.Buffer{}, "verbose")
		gt.Error(t, err)
	})
}
