package render

// Marker radius bounds in screen pixels, independent of zoom.
const (
	MinRadius = 8.0
	MaxRadius = 20.0
)

const epsilon = 1e-9

// RadiusFor interpolates extra linearly between MinRadius and MaxRadius
// relative to the set maximum. A zero or negative maximum collapses every
// radius to MinRadius. Results are clamped into [MinRadius, MaxRadius].
func RadiusFor(extra, maxExtra float64) float64 {
	if maxExtra <= 0 {
		return MinRadius
	}
	r := MinRadius + extra/max(maxExtra, epsilon)*(MaxRadius-MinRadius)
	return min(max(r, MinRadius), MaxRadius)
}
