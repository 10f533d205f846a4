// Command genmock builds upstream-shaped hotspot fixtures for a festival:
// the hotspot list and the matching summary. Records come from a CSV file,
// or from the built-in sample set when no CSV is given.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -festival Diwali \
//	  -csv data/mock/diwali_areas.csv \
//	  -out data/mock
//
// CSV header: area,pincode,population,baseline_waste_kg,extra_waste_kg,
// waste_increase_percent,priority,extra_trucks,extra_workers
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/geo"
	"github.com/goccy/go-json"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	festival := flag.String("festival", "Diwali", "festival name written into the fixtures")
	csvPath := flag.String("csv", "", "optional CSV of area records; defaults to the built-in sample set")
	outDir := flag.String("out", "", "output directory for the fixtures")
	flag.Parse()

	if *outDir == "" || strings.TrimSpace(*festival) == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -festival")
	}

	records := domain.SampleRecords()
	if *csvPath != "" {
		var err error
		if records, err = processCSV(*csvPath); err != nil {
			return fmt.Errorf("processing %s: %w", *csvPath, err)
		}
	}
	log.Printf("%s: %d areas", *festival, len(records))

	hotspots := domain.HotspotsPayload{Festival: *festival, Hotspots: records}
	if _, err := domain.ValidateHotspots(hotspots); err != nil {
		return err
	}

	slug := strings.ToLower(strings.ReplaceAll(*festival, " ", "_"))
	hotspotsOut := filepath.Join(*outDir, slug+"_hotspots.json")
	if err := writeJSON(hotspotsOut, hotspots); err != nil {
		return fmt.Errorf("writing hotspots fixture: %w", err)
	}
	log.Printf("wrote hotspots fixture: %s", hotspotsOut)

	summaryOut := filepath.Join(*outDir, slug+"_summary.json")
	if err := writeJSON(summaryOut, summarize(*festival, records)); err != nil {
		return fmt.Errorf("writing summary fixture: %w", err)
	}
	log.Printf("wrote summary fixture: %s", summaryOut)

	printStats(records)
	return nil
}

func processCSV(path string) ([]domain.AreaRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(h)] = i
	}

	recs := make([]domain.AreaRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		p := rowParser{row: row, idx: colIdx}
		rec := domain.AreaRecord{
			Area:                 p.str("area"),
			Pincode:              p.atoi("pincode"),
			Population:           p.atoi("population"),
			BaselineWasteKg:      p.atof("baseline_waste_kg"),
			ExtraWasteKg:         p.atof("extra_waste_kg"),
			WasteIncreasePercent: p.atof("waste_increase_percent"),
			Priority:             domain.PriorityTier(strings.ToUpper(p.str("priority"))),
			RecommendedResources: domain.Resources{
				ExtraTrucks:  p.atoi("extra_trucks"),
				ExtraWorkers: p.atoi("extra_workers"),
			},
		}
		if p.err != nil {
			return nil, fmt.Errorf("line %d: %w", n+2, p.err)
		}
		if rec.BaselineWasteKg > 0 {
			rec.TotalWasteKg = rec.BaselineWasteKg + rec.ExtraWasteKg
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// rowParser reads typed columns and keeps the first conversion error.
type rowParser struct {
	row []string
	idx map[string]int
	err error
}

func (p *rowParser) str(col string) string {
	i, ok := p.idx[col]
	if !ok || i >= len(p.row) {
		return ""
	}
	return strings.TrimSpace(p.row[i])
}

func (p *rowParser) atoi(col string) int {
	s := p.str(col)
	if s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", col, err)
	}
	return v
}

func (p *rowParser) atof(col string) float64 {
	s := p.str(col)
	if s == "" || p.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.err = fmt.Errorf("%s: %w", col, err)
	}
	return v
}

// summaryFixture mirrors the upstream summary response.
type summaryFixture struct {
	Festival               string  `json:"festival"`
	TotalAreas             int     `json:"total_areas"`
	TotalExtraWasteKg      float64 `json:"total_extra_waste_kg"`
	TotalBaselineKg        float64 `json:"total_baseline_kg"`
	AverageIncreasePercent float64 `json:"average_increase_percent"`
	CriticalAreas          int     `json:"critical_areas"`
	HighPriorityAreas      int     `json:"high_priority_areas"`
	TotalExtraTrucks       int     `json:"total_extra_trucks_needed"`
	TotalExtraWorkers      int     `json:"total_extra_workers_needed"`
}

func summarize(festival string, records []domain.AreaRecord) summaryFixture {
	b := domain.ComputeBreakdown(records)
	s := summaryFixture{
		Festival:               festival,
		TotalAreas:             b.Areas,
		TotalExtraWasteKg:      b.TotalExtraWasteKg,
		AverageIncreasePercent: b.AverageIncreasePercent,
		CriticalAreas:          b.Count(domain.PriorityCritical),
		HighPriorityAreas:      b.Count(domain.PriorityHigh),
	}
	for i := range records {
		s.TotalBaselineKg += records[i].BaselineWasteKg
		s.TotalExtraTrucks += records[i].RecommendedResources.ExtraTrucks
		s.TotalExtraWorkers += records[i].RecommendedResources.ExtraWorkers
	}
	return s
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(records []domain.AreaRecord) {
	b := domain.ComputeBreakdown(records)
	static := geo.Bangalore()

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", b.Areas)
	for _, tc := range b.Tiers {
		fmt.Printf("  %-8s %3d (%.1f%%)\n", tc.Tier, tc.Count, tc.Percent)
	}
	if b.Unclassified > 0 {
		fmt.Printf("  %-8s %3d\n", "other", b.Unclassified)
	}
	fmt.Printf("Extra waste: %.0f kg (max %.0f kg)\n", b.TotalExtraWasteKg, b.MaxExtraWasteKg)
	fmt.Printf("Average increase: %.1f%%\n", b.AverageIncreasePercent)

	var unplaced []string
	for i := range records {
		if _, ok := static.Lookup(records[i].Area); !ok {
			unplaced = append(unplaced, records[i].Area)
		}
	}
	sort.Strings(unplaced)
	fmt.Printf("Not in static registry (%d): %s\n", len(unplaced), strings.Join(unplaced, ", "))
}
