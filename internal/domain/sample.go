package domain

import "time"

// SampleRecords returns the built-in hotspot set used when a live load fails.
// A fresh slice is returned on every call.
func SampleRecords() []AreaRecord {
	return []AreaRecord{
		{
			Area:                 "Kengeri",
			Pincode:              560063,
			Population:           230902,
			ExtraWasteKg:         112014,
			WasteIncreasePercent: 78.3,
			Priority:             PriorityCritical,
			RecommendedResources: Resources{ExtraTrucks: 5, ExtraWorkers: 20},
		},
		{
			Area:                 "Whitefield",
			Pincode:              560023,
			Population:           673839,
			ExtraWasteKg:         101142,
			WasteIncreasePercent: 67.8,
			Priority:             PriorityCritical,
			RecommendedResources: Resources{ExtraTrucks: 5, ExtraWorkers: 20},
		},
		{
			Area:                 "JP Nagar",
			Pincode:              560042,
			Population:           578576,
			ExtraWasteKg:         99367,
			WasteIncreasePercent: 69.0,
			Priority:             PriorityHigh,
			RecommendedResources: Resources{ExtraTrucks: 4, ExtraWorkers: 18},
		},
	}
}

// SampleSummary returns the summary that accompanies SampleRecords.
func SampleSummary(festival string) Summary {
	return Summary{
		Festival:               festival,
		TotalAreas:             40,
		TotalExtraWasteKg:      1850000,
		AverageIncreasePercent: 45.2,
		CriticalAreas:          8,
		HighPriorityAreas:      12,
	}
}

// FallbackInsights is shown when an insights request fails.
func FallbackInsights(festival string, at time.Time) InsightsPayload {
	return InsightsPayload{
		Festival: festival,
		KeyInsights: []string{
			"Kengeri and Whitefield need immediate attention",
			"Deploy resources 2 days before festival",
		},
		ImmediateActions: []string{
			"Pre-position vehicles in critical areas",
			"Set up temporary collection points",
		},
		Fallback:  true,
		FetchedAt: at,
	}
}
