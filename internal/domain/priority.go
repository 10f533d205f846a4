package domain

import "strings"

// PriorityTier is the upstream's severity classification for an area.
// It is kept as the raw string so malformed tiers survive to display.
type PriorityTier string

// Known tiers, most severe first.
const (
	PriorityCritical PriorityTier = "CRITICAL"
	PriorityHigh     PriorityTier = "HIGH"
	PriorityMedium   PriorityTier = "MEDIUM"
	PriorityLow      PriorityTier = "LOW"
)

// Tiers lists the known tiers in descending severity.
var Tiers = []PriorityTier{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}

// Display colors per tier.
const (
	ColorCritical = "#c45c4a"
	ColorHigh     = "#d4a754"
	ColorMedium   = "#3d7a5f"
	ColorLow      = "#5a9a7a"
)

// Rank orders tiers: CRITICAL=4 down to LOW=1. Unknown tiers rank 0.
func (p PriorityTier) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Known reports whether p is one of the four defined tiers.
func (p PriorityTier) Known() bool { return p.Rank() > 0 }

// ColorFor maps a tier to its marker color. Anything unrecognised gets the
// LOW color so a malformed record still draws a marker.
func ColorFor(p PriorityTier) string {
	switch p {
	case PriorityCritical:
		return ColorCritical
	case PriorityHigh:
		return ColorHigh
	case PriorityMedium:
		return ColorMedium
	default:
		return ColorLow
	}
}

// ClassFor maps a tier to the badge class used by the ranking table.
func ClassFor(p PriorityTier) string {
	if !p.Known() {
		return strings.ToLower(string(PriorityLow))
	}
	return strings.ToLower(string(p))
}
