package domain

import (
	"context"
	"errors"
	"time"
)

// ErrUnknownArea is returned when an area is not in the current record set.
var ErrUnknownArea = errors.New("unknown area")

// Resources is the extra crew recommended for an area during the festival.
type Resources struct {
	ExtraTrucks  int `json:"extra_trucks" validate:"gte=0"`
	ExtraWorkers int `json:"extra_workers" validate:"gte=0"`
	DaysNeeded   int `json:"days_needed,omitempty" validate:"gte=0"`
}

// AreaRecord is one monitored zone's projected festival waste increase.
type AreaRecord struct {
	Area                 string       `json:"area" validate:"required"`
	Pincode              int          `json:"pincode" validate:"gte=0"`
	Population           int          `json:"population" validate:"gte=0"`
	BaselineWasteKg      float64      `json:"baseline_waste_kg,omitempty" validate:"gte=0"`
	ExtraWasteKg         float64      `json:"extra_waste_kg" validate:"gte=0"`
	TotalWasteKg         float64      `json:"total_waste_kg,omitempty" validate:"gte=0"`
	WasteIncreasePercent float64      `json:"waste_increase_percent" validate:"gte=0"`
	Priority             PriorityTier `json:"priority"`
	RecommendedResources Resources    `json:"recommended_resources"`
}

// Summary is the upstream's aggregate over a festival's areas.
type Summary struct {
	Festival               string  `json:"festival"`
	TotalAreas             int     `json:"total_areas"`
	TotalExtraWasteKg      float64 `json:"total_extra_waste_kg"`
	TotalBaselineKg        float64 `json:"total_baseline_kg,omitempty"`
	AverageIncreasePercent float64 `json:"average_increase_percent"`
	CriticalAreas          int     `json:"critical_areas"`
	HighPriorityAreas      int     `json:"high_priority_areas"`
	TotalExtraTrucks       int     `json:"total_extra_trucks_needed,omitempty"`
	TotalExtraWorkers      int     `json:"total_extra_workers_needed,omitempty"`
}

// InsightsPayload holds narrative recommendations for the loaded festival.
type InsightsPayload struct {
	Festival         string    `json:"festival"`
	KeyInsights      []string  `json:"key_insights"`
	ImmediateActions []string  `json:"immediate_actions"`
	Fallback         bool      `json:"fallback"`
	FetchedAt        time.Time `json:"fetched_at"`
}

// HotspotSource fetches the three upstream resources for a festival.
type HotspotSource interface {
	FetchHotspots(ctx context.Context, festival string) ([]AreaRecord, error)
	FetchSummary(ctx context.Context, festival string) (Summary, error)
	FetchInsights(ctx context.Context, festival string) (InsightsPayload, error)
}

// Event is published downstream whenever a load settles or the selection changes.
type Event struct {
	Type       string    `json:"type"` // "load" or "selection"
	Festival   string    `json:"festival"`
	Generation uint64    `json:"generation,omitempty"`
	Source     string    `json:"source,omitempty"` // load: "live"/"sample"; selection: "map"/"table"/"reload"
	Records    int       `json:"records,omitempty"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Event types.
const (
	EventLoad      = "load"
	EventSelection = "selection"
)
