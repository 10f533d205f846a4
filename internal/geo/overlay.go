package geo

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// MaxOverlayDistance bounds how far (in degrees) a geocoded area may sit from
// Center before the result is discarded as a wrong match.
const MaxOverlayDistance = 0.5

// GeocodeOverlay looks up every area that the static registry does not know
// and returns the positions found. If geocoder is nil or a lookup fails, the
// area is left out and will be synthesized at render time.
func GeocodeOverlay(ctx context.Context, records []domain.AreaRecord, static Registry, geocoder domain.Geocoder, region string, logger *slog.Logger) Registry {
	if geocoder == nil {
		return nil
	}

	overlay := make(Registry)
	for _, rec := range records {
		if _, ok := static.Lookup(rec.Area); ok {
			continue
		}
		if ctx.Err() != nil {
			return overlay
		}

		result, err := geocoder.ForwardGeocode(ctx, rec.Area, region)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"area", rec.Area,
				"region", region,
				"error", err,
			)
			continue
		}
		if !result.Found() {
			continue
		}

		p := orb.Point{result.Lon, result.Lat}
		if d := planar.Distance(p, Center); d > MaxOverlayDistance {
			logger.Debug("geocoded area too far from center, ignoring",
				"area", rec.Area,
				"place", result.FormattedAddress,
				"distance_deg", d,
			)
			continue
		}
		overlay[rec.Area] = p
	}
	return overlay
}
