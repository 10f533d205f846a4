package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Found reports whether the provider returned a usable coordinate.
func (r GeocodingResult) Found() bool {
	return r.Lat != 0 || r.Lon != 0
}

// Geocoder locates areas that are missing from the static registry.
type Geocoder interface {
	// ForwardGeocode converts an area name within a region to coordinates.
	ForwardGeocode(ctx context.Context, area, region string) (GeocodingResult, error)
}
