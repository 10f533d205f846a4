package geo

import "github.com/paulmach/orb"

// Center is the fixed reference point that synthesized positions orbit.
var Center = orb.Point{77.5946, 12.9716}

// Registry maps area names to known positions.
type Registry map[string]orb.Point

// Lookup returns the registered position of area.
func (r Registry) Lookup(area string) (orb.Point, bool) {
	p, ok := r[area]
	return p, ok
}

// Bangalore is the static registry of monitored areas.
func Bangalore() Registry {
	return Registry{
		// Central
		"MG Road":      latLon(12.9756, 77.6063),
		"Indiranagar":  latLon(12.9784, 77.6458),
		"Koramangala":  latLon(12.9352, 77.6245),
		"Basavanagudi": latLon(12.9425, 77.5750),

		// North
		"Hebbal":       latLon(13.0458, 77.5920),
		"Yelahanka":    latLon(13.1105, 77.5863),
		"Malleshwaram": latLon(13.0135, 77.5591),
		"Rajajinagar":  latLon(12.9914, 77.5421),

		// South
		"JP Nagar":     latLon(12.8963, 77.5757),
		"Jayanagar":    latLon(12.9199, 77.5738),
		"Banashankari": latLon(12.9155, 77.5368),
		"BTM Layout":   latLon(12.9066, 77.6101),
		"HSR Layout":   latLon(12.9016, 77.6489),
		"Bannerghatta": latLon(12.8624, 77.5972),

		// East
		"Whitefield":   latLon(12.9798, 77.7600),
		"Marathahalli": latLon(12.9591, 77.7074),
		"KR Puram":     latLon(13.0160, 77.7060),
		"Mahadevapura": latLon(12.9814, 77.7170),
		"Bellandur":    latLon(12.9362, 77.6862),
		"Varthur":      latLon(12.9537, 77.7430),
		"Sarjapur":     latLon(12.8510, 77.7970),

		// West
		"Vijayanagar": latLon(12.9707, 77.5231),
		"Kengeri":     latLon(12.8961, 77.4723),
		"RR Nagar":    latLon(12.9261, 77.5093),

		// South-East
		"Electronic City": latLon(12.8358, 77.6812),
	}
}

// latLon builds an orb.Point, which stores longitude first.
func latLon(lat, lon float64) orb.Point {
	return orb.Point{lon, lat}
}
