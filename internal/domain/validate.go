package domain

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// ErrInvalidPayload marks an upstream response that failed boundary validation.
var ErrInvalidPayload = errors.New("invalid upstream payload")

var validate = validator.New()

// HotspotsPayload is the wire form of GET /hotspots/{festival}.
// A missing "hotspots" key is malformed; an empty list is not.
type HotspotsPayload struct {
	Festival string       `json:"festival"`
	Hotspots []AreaRecord `json:"hotspots" validate:"required,unique=Area,dive"`
}

// SummaryPayload is the wire form of GET /hotspots/{festival}/summary.
// Pointer fields must be present in the response.
type SummaryPayload struct {
	Festival               string   `json:"festival"`
	TotalAreas             *int     `json:"total_areas" validate:"omitempty,gte=0"`
	TotalExtraWasteKg      *float64 `json:"total_extra_waste_kg" validate:"required,gte=0"`
	TotalBaselineKg        float64  `json:"total_baseline_kg" validate:"gte=0"`
	AverageIncreasePercent *float64 `json:"average_increase_percent" validate:"required,gte=0"`
	CriticalAreas          *int     `json:"critical_areas" validate:"required,gte=0"`
	HighPriorityAreas      *int     `json:"high_priority_areas" validate:"required,gte=0"`
	TotalExtraTrucks       int      `json:"total_extra_trucks_needed" validate:"gte=0"`
	TotalExtraWorkers      int      `json:"total_extra_workers_needed" validate:"gte=0"`
}

// InsightsBody holds the two narrative lists. Both snake_case and camelCase
// keys are accepted.
type InsightsBody struct {
	KeyInsights      []string `validate:"required,dive,required"`
	ImmediateActions []string `validate:"required,dive,required"`
}

// UnmarshalJSON accepts "key_insights" or "keyInsights" (and the same for actions).
func (b *InsightsBody) UnmarshalJSON(data []byte) error {
	var raw struct {
		KeyInsights           []string `json:"key_insights"`
		KeyInsightsCamel      []string `json:"keyInsights"`
		ImmediateActions      []string `json:"immediate_actions"`
		ImmediateActionsCamel []string `json:"immediateActions"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.KeyInsights = firstNonNil(raw.KeyInsights, raw.KeyInsightsCamel)
	b.ImmediateActions = firstNonNil(raw.ImmediateActions, raw.ImmediateActionsCamel)
	return nil
}

// InsightsPayloadWire is the wire form of GET /hotspots/{festival}/insights.
// The body may sit at the top level or under "ai_insights".
type InsightsPayloadWire struct {
	Festival   string        `json:"festival"`
	Insights   *InsightsBody `json:"insights"`
	AIInsights *struct {
		Insights *InsightsBody `json:"insights"`
		Error    string        `json:"error"`
	} `json:"ai_insights"`
}

// ValidateHotspots checks a decoded hotspot response and returns its records.
func ValidateHotspots(p HotspotsPayload) ([]AreaRecord, error) {
	if err := validate.Struct(p); err != nil {
		return nil, fmt.Errorf("%w: hotspots: %v", ErrInvalidPayload, err)
	}
	return p.Hotspots, nil
}

// ValidateSummary checks a decoded summary response.
func ValidateSummary(p SummaryPayload, festival string) (Summary, error) {
	if err := validate.Struct(p); err != nil {
		return Summary{}, fmt.Errorf("%w: summary: %v", ErrInvalidPayload, err)
	}
	s := Summary{
		Festival:               p.Festival,
		TotalExtraWasteKg:      *p.TotalExtraWasteKg,
		TotalBaselineKg:        p.TotalBaselineKg,
		AverageIncreasePercent: *p.AverageIncreasePercent,
		CriticalAreas:          *p.CriticalAreas,
		HighPriorityAreas:      *p.HighPriorityAreas,
		TotalExtraTrucks:       p.TotalExtraTrucks,
		TotalExtraWorkers:      p.TotalExtraWorkers,
	}
	if p.TotalAreas != nil {
		s.TotalAreas = *p.TotalAreas
	}
	if s.Festival == "" {
		s.Festival = festival
	}
	return s, nil
}

// ValidateInsights checks a decoded insights response and returns its lists.
func ValidateInsights(p InsightsPayloadWire) (InsightsBody, error) {
	body := p.Insights
	if body == nil && p.AIInsights != nil {
		if p.AIInsights.Insights == nil && p.AIInsights.Error != "" {
			return InsightsBody{}, fmt.Errorf("%w: insights: upstream error: %s", ErrInvalidPayload, p.AIInsights.Error)
		}
		body = p.AIInsights.Insights
	}
	if body == nil {
		return InsightsBody{}, fmt.Errorf("%w: insights: missing body", ErrInvalidPayload)
	}
	if err := validate.Struct(body); err != nil {
		return InsightsBody{}, fmt.Errorf("%w: insights: %v", ErrInvalidPayload, err)
	}
	return *body, nil
}

func firstNonNil(a, b []string) []string {
	if a != nil {
		return a
	}
	return b
}
