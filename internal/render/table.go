package render

import (
	"fmt"
	"math"

	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/selection"
)

// DefaultTableRows is how many ranked rows the table shows.
const DefaultTableRows = 15

// topRanks get distinct rank styling.
const topRanks = 3

// Row is one ranked table entry. Records keep the upstream order, so Rank is
// the 1-based list position.
type Row struct {
	Rank                 int                 `json:"rank"`
	Top                  bool                `json:"top"`
	Area                 string              `json:"area"`
	Pincode              int                 `json:"pincode"`
	PopulationK          float64             `json:"population_k"`
	ExtraTonnes          float64             `json:"extra_tonnes"`
	WasteIncreasePercent float64             `json:"waste_increase_percent"`
	Priority             domain.PriorityTier `json:"priority"`
	Class                string              `json:"class"`
	ExtraTrucks          int                 `json:"extra_trucks"`
	ExtraWorkers         int                 `json:"extra_workers"`
	Selected             bool                `json:"selected"`
}

// Detail describes the selected area below the map.
type Detail struct {
	Area         string  `json:"area"`
	PopulationK  float64 `json:"population_k"`
	ExtraTonnes  float64 `json:"extra_tonnes"`
	ExtraTrucks  int     `json:"extra_trucks"`
	ExtraWorkers int     `json:"extra_workers"`
}

// TableView is the ranking table. It never depends on the map engine.
type TableView struct {
	Rows     []Row   `json:"rows"`
	Total    int     `json:"total"`
	Selected *Detail `json:"selected,omitempty"`
}

// Table builds the first limit rows of records under sel. A limit of zero or
// less uses DefaultTableRows. The selected detail is filled even when the
// selected area falls outside the visible rows.
func Table(records []domain.AreaRecord, sel selection.State, limit int) TableView {
	if limit <= 0 {
		limit = DefaultTableRows
	}
	n := min(limit, len(records))

	view := TableView{Rows: make([]Row, n), Total: len(records)}
	for i, rec := range records[:n] {
		view.Rows[i] = Row{
			Rank:                 i + 1,
			Top:                  i < topRanks,
			Area:                 rec.Area,
			Pincode:              rec.Pincode,
			PopulationK:          math.Round(float64(rec.Population) / 1000),
			ExtraTonnes:          tonnes(rec.ExtraWasteKg),
			WasteIncreasePercent: math.Round(rec.WasteIncreasePercent*10) / 10,
			Priority:             rec.Priority,
			Class:                domain.ClassFor(rec.Priority),
			ExtraTrucks:          rec.RecommendedResources.ExtraTrucks,
			ExtraWorkers:         rec.RecommendedResources.ExtraWorkers,
			Selected:             sel.Is(rec.Area),
		}
	}

	if sel.IsSelected() {
		for _, rec := range records {
			if rec.Area != sel.Area {
				continue
			}
			view.Selected = &Detail{
				Area:         rec.Area,
				PopulationK:  math.Round(float64(rec.Population) / 1000),
				ExtraTonnes:  tonnes(rec.ExtraWasteKg),
				ExtraTrucks:  rec.RecommendedResources.ExtraTrucks,
				ExtraWorkers: rec.RecommendedResources.ExtraWorkers,
			}
			break
		}
	}
	return view
}

// ClickRow reports a click on the row for area to reporter.
func ClickRow(view TableView, area string, reporter Reporter) (selection.Transition, error) {
	for _, row := range view.Rows {
		if row.Area == area {
			return reporter.Toggle(area, selection.SourceTable)
		}
	}
	return selection.Transition{}, fmt.Errorf("%w: no table row %q", domain.ErrUnknownArea, area)
}
