package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/couchcryptid/waste-hotspot-service/internal/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_RespectsLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := NewLogger(&config.Config{LogLevel: tt.level, LogFormat: "text"})
			assert.True(t, logger.Enabled(context.Background(), tt.want))
			assert.False(t, logger.Enabled(context.Background(), tt.want-1))
		})
	}
}

func TestNewLogger_SetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	NewLogger(&config.Config{LogLevel: "error", LogFormat: "json"})
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelWarn))
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.Loads.WithLabelValues("live").Inc()

	assert.InDelta(t, 1, testutil.ToFloat64(a.Loads.WithLabelValues("live")), 1e-9)
	assert.InDelta(t, 0, testutil.ToFloat64(b.Loads.WithLabelValues("live")), 1e-9)
}
