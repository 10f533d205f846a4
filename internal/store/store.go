// Package store holds the hotspot snapshot for the current festival and the
// independently fetched insights slot.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/geo"
	"github.com/couchcryptid/waste-hotspot-service/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Snapshot sources.
const (
	SourceLive   = "live"
	SourceSample = "sample"
)

// Insights request errors.
var (
	ErrNotLoaded        = errors.New("no festival loaded")
	ErrFestivalMismatch = errors.New("festival is not the loaded context")
)

// Snapshot is one committed load: records and summary always come from the
// same source.
type Snapshot struct {
	Festival   string              `json:"festival"`
	Generation uint64              `json:"generation"`
	Source     string              `json:"source"`
	Reason     string              `json:"reason,omitempty"`
	Records    []domain.AreaRecord `json:"records"`
	Summary    domain.Summary      `json:"summary"`
	Breakdown  domain.Breakdown    `json:"breakdown"`
	Overlay    geo.Registry        `json:"-"`
	LoadedAt   time.Time           `json:"loaded_at"`
}

// HasArea reports whether area is in the snapshot's records.
func (s Snapshot) HasArea(area string) bool {
	return slices.ContainsFunc(s.Records, func(r domain.AreaRecord) bool { return r.Area == area })
}

// Sample reports whether the snapshot is the built-in fallback set.
func (s Snapshot) Sample() bool { return s.Source == SourceSample }

func (s Snapshot) clone() Snapshot {
	s.Records = slices.Clone(s.Records)
	s.Breakdown.Tiers = slices.Clone(s.Breakdown.Tiers)
	s.Overlay = maps.Clone(s.Overlay)
	return s
}

// Store owns the current snapshot and the insights slot. Every load is
// numbered; a load that settles after a newer one began is discarded.
type Store struct {
	source   domain.HotspotSource
	geocoder domain.Geocoder
	region   string
	static   geo.Registry
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu         sync.RWMutex
	generation uint64
	festival   string
	snapshot   Snapshot
	loaded     bool

	insights        *domain.InsightsPayload
	insightsLoading bool
}

// New creates a Store. geocoder may be nil, in which case unregistered areas
// are always synthesized.
func New(source domain.HotspotSource, geocoder domain.Geocoder, region string, static geo.Registry, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		source:   source,
		geocoder: geocoder,
		region:   region,
		static:   static,
		logger:   logger,
		metrics:  metrics,
	}
}

// Load fetches hotspots and summary for festival concurrently. If either
// fetch fails both are replaced by the sample set. It returns the snapshot
// and whether it was committed; false means a newer load began meanwhile.
// The load runs to completion even if ctx is cancelled; a caller going away is
// not an upstream failure. The source's own timeouts bound the fetches.
func (s *Store) Load(ctx context.Context, festival string) (Snapshot, bool) {
	ctx = context.WithoutCancel(ctx)
	start := time.Now()
	gen := s.begin(festival)

	snap := Snapshot{Festival: festival, Generation: gen, Source: SourceLive}
	records, summary, err := s.fetchPair(ctx, festival)
	if err != nil {
		s.logger.Warn("hotspot load failed, using sample data",
			"festival", festival,
			"generation", gen,
			"error", err,
		)
		records = domain.SampleRecords()
		summary = domain.SampleSummary(festival)
		snap.Source = SourceSample
		snap.Reason = err.Error()
	}
	snap.Records = records
	snap.Summary = summary
	snap.Breakdown = domain.ComputeBreakdown(records)
	snap.Overlay = geo.GeocodeOverlay(ctx, records, s.static, s.geocoder, s.region, s.logger)
	snap.LoadedAt = domain.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.metrics.StaleLoadsDiscarded.Inc()
		s.logger.Info("discarding stale load",
			"festival", festival,
			"generation", gen,
			"current_generation", s.generation,
		)
		return snap, false
	}
	s.snapshot = snap
	s.loaded = true

	s.metrics.Loads.WithLabelValues(snap.Source).Inc()
	s.metrics.LoadDuration.Observe(time.Since(start).Seconds())
	s.logger.Info("hotspot load settled",
		"festival", festival,
		"generation", gen,
		"source", snap.Source,
		"records", len(records),
	)
	return snap.clone(), true
}

// begin opens a new generation and clears the insights slot.
func (s *Store) begin(festival string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.festival = festival
	s.insights = nil
	s.insightsLoading = false
	return s.generation
}

// fetchPair runs both fetches together and returns only when both settled.
func (s *Store) fetchPair(ctx context.Context, festival string) ([]domain.AreaRecord, domain.Summary, error) {
	var (
		records []domain.AreaRecord
		summary domain.Summary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		records, err = s.source.FetchHotspots(gctx, festival)
		if err != nil {
			return fmt.Errorf("fetch hotspots: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		summary, err = s.source.FetchSummary(gctx, festival)
		if err != nil {
			return fmt.Errorf("fetch summary: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, domain.Summary{}, err
	}
	if summary.Festival == "" {
		summary.Festival = festival
	}
	return records, summary, nil
}

// Snapshot returns a copy of the committed snapshot. ok is false before the
// first load settles.
func (s *Store) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.clone(), s.loaded
}

// Records returns a copy of the current records.
func (s *Store) Records() []domain.AreaRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.snapshot.Records)
}

// HasArea reports whether area is among the current records.
func (s *Store) HasArea(area string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.HasArea(area)
}

// Summary returns the current upstream (or sample) summary.
func (s *Store) Summary() domain.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Summary
}

// Breakdown returns the aggregate derived from the current records.
func (s *Store) Breakdown() domain.Breakdown {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.snapshot.Breakdown
	b.Tiers = slices.Clone(b.Tiers)
	return b
}

// Festival returns the context of the most recently begun load.
func (s *Store) Festival() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.festival
}

// Insights returns the insights slot and whether a request is in flight.
func (s *Store) Insights() (*domain.InsightsPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.insights == nil {
		return nil, s.insightsLoading
	}
	p := *s.insights
	p.KeyInsights = slices.Clone(p.KeyInsights)
	p.ImmediateActions = slices.Clone(p.ImmediateActions)
	return &p, s.insightsLoading
}

// beginInsights marks an insights request in flight for festival. started is
// false when one is already pending for the current generation.
func (s *Store) beginInsights(festival string) (gen uint64, started bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == 0 {
		return 0, false, ErrNotLoaded
	}
	if festival != s.festival {
		return 0, false, fmt.Errorf("%w: requested %q, loaded %q", ErrFestivalMismatch, festival, s.festival)
	}
	if s.insightsLoading {
		return s.generation, false, nil
	}
	s.insightsLoading = true
	return s.generation, true, nil
}

// commitInsights stores p if no load began since gen.
func (s *Store) commitInsights(gen uint64, p domain.InsightsPayload) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || p.Festival != s.festival {
		return false
	}
	s.insights = &p
	s.insightsLoading = false
	return true
}
