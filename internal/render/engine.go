package render

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrEngineUnavailable is returned when the map engine cannot be initialised.
var ErrEngineUnavailable = errors.New("map engine unavailable")

// Engine is the surface markers are drawn on.
type Engine interface {
	// Init prepares the engine. It may be called again after a failure.
	Init(ctx context.Context) error
	// TileURL is the raster tile template clients draw under the markers.
	TileURL() string
}

// TileEngine serves a slippy-map tile template. Init validates the template
// and, when probing is enabled, fetches one tile to check the server is up.
type TileEngine struct {
	url        string
	probe      bool
	httpClient *http.Client
}

// NewTileEngine creates a TileEngine for a {z}/{x}/{y} template.
func NewTileEngine(url string, probe bool, timeout time.Duration) *TileEngine {
	return &TileEngine{
		url:        url,
		probe:      probe,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Init checks the template placeholders and optionally probes the tile server.
func (e *TileEngine) Init(ctx context.Context) error {
	for _, p := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(e.url, p) {
			return fmt.Errorf("%w: tile template %q missing %s", ErrEngineUnavailable, e.url, p)
		}
	}
	if !e.probe {
		return nil
	}

	probeURL := strings.NewReplacer("{s}", "a", "{z}", "0", "{x}", "0", "{y}", "0").Replace(e.url)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return fmt.Errorf("%w: create probe request: %v", ErrEngineUnavailable, err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: probe tile server: %v", ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: probe tile server: status %d", ErrEngineUnavailable, resp.StatusCode)
	}
	return nil
}

// TileURL returns the configured template.
func (e *TileEngine) TileURL() string { return e.url }
