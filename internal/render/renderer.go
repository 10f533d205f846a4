// Package render turns a hotspot snapshot and the current selection into the
// map layer and the ranking table. Both views are pure functions of their
// inputs; clicks are reported back to the selection coordinator.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/geo"
	"github.com/couchcryptid/waste-hotspot-service/internal/observability"
	"github.com/couchcryptid/waste-hotspot-service/internal/selection"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DefaultZoom is the initial zoom level of the map view.
const DefaultZoom = 11

// Marker emphasis.
const (
	SelectedWeight  = 4
	SelectedOpacity = 1.0
	DefaultWeight   = 2
	DefaultOpacity  = 0.8
	FillOpacity     = 0.7
)

// Reporter receives marker and row clicks.
type Reporter interface {
	Toggle(area string, source selection.Source) (selection.Transition, error)
}

// Popup is the detail shown when a marker is opened.
type Popup struct {
	Area        string  `json:"area"`
	Priority    string  `json:"priority"`
	ExtraTonnes float64 `json:"extra_tonnes"`
	ExtraTrucks int     `json:"extra_trucks"`
}

// Marker is one drawn hotspot. ID is the area name, so it is stable across
// re-renders of the same record list.
type Marker struct {
	ID          string    `json:"id"`
	Position    orb.Point `json:"position"`
	Synthesized bool      `json:"synthesized"`
	Radius      float64   `json:"radius"`
	Color       string    `json:"color"`
	Weight      int       `json:"weight"`
	Opacity     float64   `json:"opacity"`
	FillOpacity float64   `json:"fill_opacity"`
	Selected    bool      `json:"selected"`
	Popup       Popup     `json:"popup"`
}

// Layer is a full map view. A placeholder layer carries no markers.
type Layer struct {
	TileURL     string    `json:"tile_url,omitempty"`
	Center      orb.Point `json:"center"`
	Zoom        int       `json:"zoom"`
	Markers     []Marker  `json:"markers"`
	Placeholder bool      `json:"placeholder"`
	Error       string    `json:"error,omitempty"`
}

// Marker returns the marker with the given ID.
func (l Layer) Marker(id string) (Marker, bool) {
	for _, m := range l.Markers {
		if m.ID == id {
			return m, true
		}
	}
	return Marker{}, false
}

// GeoJSON encodes the layer's markers as a FeatureCollection of points.
func (l Layer) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range l.Markers {
		f := geojson.NewFeature(m.Position)
		f.ID = m.ID
		f.Properties["area"] = m.Popup.Area
		f.Properties["priority"] = m.Popup.Priority
		f.Properties["extra_tonnes"] = m.Popup.ExtraTonnes
		f.Properties["extra_trucks"] = m.Popup.ExtraTrucks
		f.Properties["radius"] = m.Radius
		f.Properties["color"] = m.Color
		f.Properties["weight"] = m.Weight
		f.Properties["opacity"] = m.Opacity
		f.Properties["fill_opacity"] = m.FillOpacity
		f.Properties["selected"] = m.Selected
		f.Properties["synthesized"] = m.Synthesized
		fc.Append(f)
	}
	return fc
}

// MapRenderer draws one marker per record. The engine is initialised lazily
// on the first render and again after every failed attempt.
type MapRenderer struct {
	engine   Engine
	reporter Reporter
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu      sync.Mutex
	ready   bool
	visible map[string]struct{}
}

// NewMapRenderer creates a renderer over engine that reports clicks to reporter.
func NewMapRenderer(engine Engine, reporter Reporter, logger *slog.Logger, metrics *observability.Metrics) *MapRenderer {
	return &MapRenderer{
		engine:   engine,
		reporter: reporter,
		logger:   logger,
		metrics:  metrics,
	}
}

// Render builds the layer for records under sel. If the engine cannot be
// initialised a placeholder layer is returned and records are left untouched.
func (r *MapRenderer) Render(ctx context.Context, records []domain.AreaRecord, resolver *geo.Resolver, sel selection.State) Layer {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ready {
		if err := r.engine.Init(ctx); err != nil {
			r.logger.Warn("map engine init failed, rendering placeholder", "error", err)
			r.metrics.Renders.WithLabelValues("placeholder").Inc()
			r.visible = nil
			return Layer{
				Center:      geo.Center,
				Zoom:        DefaultZoom,
				Markers:     []Marker{},
				Placeholder: true,
				Error:       err.Error(),
			}
		}
		r.ready = true
	}

	layer := BuildLayer(records, resolver, sel)
	layer.TileURL = r.engine.TileURL()

	r.visible = make(map[string]struct{}, len(layer.Markers))
	for _, m := range layer.Markers {
		r.visible[m.ID] = struct{}{}
	}
	r.metrics.Renders.WithLabelValues("rendered").Inc()
	r.metrics.MarkersRendered.Set(float64(len(layer.Markers)))
	return layer
}

// Click reports a marker click to the coordinator.
func (r *MapRenderer) Click(id string) (selection.Transition, error) {
	r.mu.Lock()
	if !r.ready {
		r.mu.Unlock()
		return selection.Transition{}, ErrEngineUnavailable
	}
	_, ok := r.visible[id]
	r.mu.Unlock()

	if !ok {
		return selection.Transition{}, fmt.Errorf("%w: no marker %q", domain.ErrUnknownArea, id)
	}
	return r.reporter.Toggle(id, selection.SourceMap)
}

// BuildLayer computes markers without touching any engine. Identical inputs
// give an identical layer.
func BuildLayer(records []domain.AreaRecord, resolver *geo.Resolver, sel selection.State) Layer {
	var maxExtra float64
	for _, rec := range records {
		maxExtra = max(maxExtra, rec.ExtraWasteKg)
	}

	markers := make([]Marker, len(records))
	for i, rec := range records {
		color := domain.ColorFor(rec.Priority)
		m := Marker{
			ID:          rec.Area,
			Position:    resolver.Resolve(rec.Area, i, len(records)),
			Synthesized: !resolver.Known(rec.Area),
			Radius:      RadiusFor(rec.ExtraWasteKg, maxExtra),
			Color:       color,
			Weight:      DefaultWeight,
			Opacity:     DefaultOpacity,
			FillOpacity: FillOpacity,
			Popup: Popup{
				Area:        rec.Area,
				Priority:    string(rec.Priority),
				ExtraTonnes: tonnes(rec.ExtraWasteKg),
				ExtraTrucks: rec.RecommendedResources.ExtraTrucks,
			},
		}
		if sel.Is(rec.Area) {
			m.Selected = true
			m.Weight = SelectedWeight
			m.Opacity = SelectedOpacity
		}
		markers[i] = m
	}

	return Layer{
		Center:  geo.Center,
		Zoom:    DefaultZoom,
		Markers: markers,
	}
}

// tonnes converts kg to tonnes rounded to one decimal.
func tonnes(kg float64) float64 {
	return math.Round(kg/100) / 10
}
