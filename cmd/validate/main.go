// Command validate checks a pair of hotspot fixtures (as written by genmock
// or captured from the upstream) for schema validity, internal consistency
// and renderability.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -hotspots data/mock/diwali_hotspots.json \
//	  -summary data/mock/diwali_summary.json
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/geo"
	"github.com/couchcryptid/waste-hotspot-service/internal/render"
	"github.com/couchcryptid/waste-hotspot-service/internal/selection"
	"github.com/goccy/go-json"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	hotspotsPath := flag.String("hotspots", "", "path to the hotspots fixture")
	summaryPath := flag.String("summary", "", "path to the summary fixture")
	flag.Parse()

	if *hotspotsPath == "" || *summaryPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*hotspotsPath, *summaryPath))
}

func run(hotspotsPath, summaryPath string) int {
	fmt.Println("=== Hotspot Fixture Validation ===")
	fmt.Println()

	var hp domain.HotspotsPayload
	if err := loadJSON(hotspotsPath, &hp); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load hotspots: %v\n", err)
		return 1
	}
	var sp domain.SummaryPayload
	if err := loadJSON(summaryPath, &sp); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load summary: %v\n", err)
		return 1
	}

	schema, records, summary := validateSchema(hp, sp)
	phases := []*phase{schema}
	if schema.passed() {
		phases = append(phases,
			validateConsistency(records, summary),
			validateRendering(records),
		)
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d areas, festival %q\n", len(records), hp.Festival)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// ── Phase 1: schema ──

func validateSchema(hp domain.HotspotsPayload, sp domain.SummaryPayload) (*phase, []domain.AreaRecord, domain.Summary) {
	p := &phase{name: "Phase 1: Upstream schema"}

	records, err := domain.ValidateHotspots(hp)
	if err != nil {
		p.errorf("%v", err)
	}
	summary, err := domain.ValidateSummary(sp, hp.Festival)
	if err != nil {
		p.errorf("%v", err)
	}
	if hp.Festival != "" && summary.Festival != "" && hp.Festival != summary.Festival {
		p.errorf("festival mismatch: hotspots %q, summary %q", hp.Festival, summary.Festival)
	}
	for i := range records {
		if !records[i].Priority.Known() {
			p.errorf("record %d (%s): unknown priority %q", i, records[i].Area, records[i].Priority)
		}
	}
	return p, records, summary
}

// ── Phase 2: summary vs records ──

func validateConsistency(records []domain.AreaRecord, s domain.Summary) *phase {
	p := &phase{name: "Phase 2: Summary consistency"}
	b := domain.ComputeBreakdown(records)

	if s.TotalAreas != 0 && s.TotalAreas != b.Areas {
		p.errorf("total_areas: summary %d, records %d", s.TotalAreas, b.Areas)
	}
	if !floatEq(s.TotalExtraWasteKg, b.TotalExtraWasteKg) {
		p.errorf("total_extra_waste_kg: summary %g, records %g", s.TotalExtraWasteKg, b.TotalExtraWasteKg)
	}
	if math.Abs(s.AverageIncreasePercent-b.AverageIncreasePercent) > 0.1 {
		p.errorf("average_increase_percent: summary %g, records %g", s.AverageIncreasePercent, b.AverageIncreasePercent)
	}
	if got := b.Count(domain.PriorityCritical); s.CriticalAreas != got {
		p.errorf("critical_areas: summary %d, records %d", s.CriticalAreas, got)
	}
	if got := b.Count(domain.PriorityHigh); s.HighPriorityAreas != got {
		p.errorf("high_priority_areas: summary %d, records %d", s.HighPriorityAreas, got)
	}
	return p
}

// ── Phase 3: map and table ──

func validateRendering(records []domain.AreaRecord) *phase {
	p := &phase{name: "Phase 3: Map and table rendering"}

	layer := render.BuildLayer(records, geo.NewResolver(geo.Bangalore()), selection.Unselected)
	if len(layer.Markers) != len(records) {
		p.errorf("markers: got %d, want %d", len(layer.Markers), len(records))
	}
	for _, m := range layer.Markers {
		if m.Radius < render.MinRadius || m.Radius > render.MaxRadius {
			p.errorf("marker %s: radius %g outside [%g, %g]", m.ID, m.Radius, render.MinRadius, render.MaxRadius)
		}
		if m.Synthesized {
			fmt.Printf("  note: %s has no known position, placed on the synthetic ring\n", m.ID)
		}
	}

	view := render.Table(records, selection.Unselected, render.DefaultTableRows)
	if want := min(len(records), render.DefaultTableRows); len(view.Rows) != want {
		p.errorf("table rows: got %d, want %d", len(view.Rows), want)
	}
	for i, row := range view.Rows {
		if row.Rank != i+1 {
			p.errorf("row %d: rank %d", i, row.Rank)
		}
		if row.Area != records[i].Area {
			p.errorf("row %d: area %q, upstream order has %q", i, row.Area, records[i].Area)
		}
	}
	return p
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 0.5
}
