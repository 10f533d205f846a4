//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/couchcryptid/waste-hotspot-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return NewClient(token, 10*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	c := smokeClient(t)

	result, err := c.ForwardGeocode(context.Background(), "Nagarbhavi", "Bengaluru, Karnataka")
	require.NoError(t, err)

	assert.InDelta(t, 12.96, result.Lat, 0.1, "lat should be near Bengaluru")
	assert.InDelta(t, 77.51, result.Lon, 0.1, "lon should be near Bengaluru")
	assert.Contains(t, result.FormattedAddress, "Nagarbhavi")
	assert.Greater(t, result.Confidence, 0.5)
}

func TestSmoke_ForwardGeocode_LowRelevance(t *testing.T) {
	c := smokeClient(t)

	// Fuzzy matching may still return a result; only the absence of an error is checked.
	_, err := c.ForwardGeocode(context.Background(), "XYZNONEXISTENT99", "Bengaluru")
	require.NoError(t, err)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedGeocoder(c, 10, observability.NewMetricsForTesting())

	r1, err := cached.ForwardGeocode(context.Background(), "Yeshwanthpur", "Bengaluru, Karnataka")
	require.NoError(t, err)
	assert.Contains(t, r1.FormattedAddress, "Yeshwanthpur")

	r2, err := cached.ForwardGeocode(context.Background(), "Yeshwanthpur", "Bengaluru, Karnataka")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
}
