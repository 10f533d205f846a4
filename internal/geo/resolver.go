package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// Ring spacing for synthesized placement, in degrees.
const (
	baseDistance = 0.04
	ringStep     = 0.015
	ringCount    = 5
)

// Resolver assigns a map position to every area in a list.
type Resolver struct {
	static  Registry
	overlay Registry
}

// NewResolver creates a Resolver over a static registry.
func NewResolver(static Registry) *Resolver {
	return &Resolver{static: static}
}

// WithOverlay returns a Resolver that also consults overlay after the static
// registry. The receiver is not modified.
func (r *Resolver) WithOverlay(overlay Registry) *Resolver {
	return &Resolver{static: r.static, overlay: overlay}
}

// Known reports whether area has a registered (static or overlay) position.
func (r *Resolver) Known(area string) bool {
	if _, ok := r.static.Lookup(area); ok {
		return true
	}
	_, ok := r.overlay.Lookup(area)
	return ok
}

// Resolve returns the registered position of area, or a synthesized one
// derived only from index and total. Identical inputs always give
// bit-identical output.
func (r *Resolver) Resolve(area string, index, total int) orb.Point {
	if p, ok := r.static.Lookup(area); ok {
		return p
	}
	if p, ok := r.overlay.Lookup(area); ok {
		return p
	}
	return Synthesize(index, total)
}

// Synthesize places item index of total on concentric rings around Center.
// The angle spreads items evenly; the ring cycles with index mod 5.
func Synthesize(index, total int) orb.Point {
	if total <= 0 {
		total = 1
	}
	angle := 2 * math.Pi * float64(index) / float64(total)
	distance := baseDistance + float64(index%ringCount)*ringStep
	return latLon(
		Center.Lat()+math.Cos(angle)*distance,
		Center.Lon()+math.Sin(angle)*distance,
	)
}
