package domain

// TierCount is one row of the priority distribution.
type TierCount struct {
	Tier    PriorityTier `json:"tier"`
	Count   int          `json:"count"`
	Percent float64      `json:"percent"`
}

// Breakdown is derived from the current record set and never edited directly.
type Breakdown struct {
	Areas                  int         `json:"areas"`
	TotalExtraWasteKg      float64     `json:"total_extra_waste_kg"`
	AverageIncreasePercent float64     `json:"average_increase_percent"`
	MaxExtraWasteKg        float64     `json:"max_extra_waste_kg"`
	Tiers                  []TierCount `json:"tiers"`
	Unclassified           int         `json:"unclassified,omitempty"`
}

// ComputeBreakdown aggregates records into totals and per-tier counts.
func ComputeBreakdown(records []AreaRecord) Breakdown {
	b := Breakdown{
		Areas: len(records),
		Tiers: make([]TierCount, len(Tiers)),
	}
	for i, t := range Tiers {
		b.Tiers[i].Tier = t
	}

	var increaseSum float64
	for _, r := range records {
		b.TotalExtraWasteKg += r.ExtraWasteKg
		increaseSum += r.WasteIncreasePercent
		if r.ExtraWasteKg > b.MaxExtraWasteKg {
			b.MaxExtraWasteKg = r.ExtraWasteKg
		}
		// Tiers is ordered by descending rank, so rank 4 is index 0.
		if rank := r.Priority.Rank(); rank > 0 {
			b.Tiers[len(Tiers)-rank].Count++
		} else {
			b.Unclassified++
		}
	}

	if len(records) == 0 {
		return b
	}
	b.AverageIncreasePercent = increaseSum / float64(len(records))
	for i := range b.Tiers {
		b.Tiers[i].Percent = float64(b.Tiers[i].Count) / float64(len(records)) * 100
	}
	return b
}

// Count returns the number of records in tier t.
func (b Breakdown) Count(t PriorityTier) int {
	for _, tc := range b.Tiers {
		if tc.Tier == t {
			return tc.Count
		}
	}
	return 0
}
