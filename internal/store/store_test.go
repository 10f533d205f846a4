package store

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/geo"
	"github.com/couchcryptid/waste-hotspot-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(src domain.HotspotSource, geocoder domain.Geocoder) (*Store, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return New(src, geocoder, "Bengaluru", geo.Bangalore(), discardLogger(), m), m
}

func TestLoad_Live(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC))
	domain.SetClock(clock)
	t.Cleanup(func() { domain.SetClock(nil) })

	s, m := newTestStore(okSource(), nil)

	snap, committed := s.Load(context.Background(), "Diwali")
	require.True(t, committed)
	assert.Equal(t, SourceLive, snap.Source)
	assert.False(t, snap.Sample())
	assert.Equal(t, liveRecords(), snap.Records)
	assert.Equal(t, liveSummary("Diwali"), snap.Summary)
	assert.Equal(t, uint64(1), snap.Generation)
	assert.True(t, clock.Now().Equal(snap.LoadedAt))
	assert.InDelta(t, 400, snap.Breakdown.TotalExtraWasteKg, 1e-9)
	assert.Equal(t, 1, snap.Breakdown.Count(domain.PriorityCritical))

	assert.Equal(t, liveRecords(), s.Records())
	assert.Equal(t, liveSummary("Diwali"), s.Summary())
	assert.InDelta(t, 300, s.Breakdown().MaxExtraWasteKg, 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Loads.WithLabelValues(SourceLive)), 0)
}

func TestLoad_SummaryFailsFallsBackEntirely(t *testing.T) {
	src := okSource()
	src.summary = func(context.Context, string) (domain.Summary, error) {
		return domain.Summary{}, errUpstream
	}
	s, m := newTestStore(src, nil)

	snap, committed := s.Load(context.Background(), "Diwali")
	require.True(t, committed)
	assert.Equal(t, SourceSample, snap.Source)
	assert.Equal(t, domain.SampleRecords(), snap.Records)
	assert.Equal(t, domain.SampleSummary("Diwali"), snap.Summary)
	assert.False(t, snap.HasArea("X"), "live records must not mix with the sample summary")
	assert.Contains(t, snap.Reason, "fetch summary")
	assert.InDelta(t, 1, testutil.ToFloat64(m.Loads.WithLabelValues(SourceSample)), 0)
}

func TestLoad_HotspotsFailFallsBackEntirely(t *testing.T) {
	src := okSource()
	src.hotspots = func(context.Context, string) ([]domain.AreaRecord, error) {
		return nil, domain.ErrInvalidPayload
	}
	s, _ := newTestStore(src, nil)

	snap, _ := s.Load(context.Background(), "Holi")
	assert.Equal(t, domain.SampleRecords(), snap.Records)
	assert.Equal(t, domain.SampleSummary("Holi"), snap.Summary)
	assert.Equal(t, 3, snap.Breakdown.Areas)
}

func TestLoad_FetchesRunConcurrently(t *testing.T) {
	hotspotsStarted, summaryStarted := newGate(), newGate()
	src := okSource()
	src.hotspots = func(ctx context.Context, _ string) ([]domain.AreaRecord, error) {
		hotspotsStarted.open()
		if err := summaryStarted.wait(ctx); err != nil {
			return nil, err
		}
		return liveRecords(), nil
	}
	src.summary = func(ctx context.Context, f string) (domain.Summary, error) {
		summaryStarted.open()
		if err := hotspotsStarted.wait(ctx); err != nil {
			return domain.Summary{}, err
		}
		return liveSummary(f), nil
	}
	s, _ := newTestStore(src, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, _ := s.Load(ctx, "Diwali")
	assert.Equal(t, SourceLive, snap.Source)
}

func TestLoad_StaleLoadDiscarded(t *testing.T) {
	release := newGate()
	src := okSource()
	src.hotspots = func(ctx context.Context, festival string) ([]domain.AreaRecord, error) {
		if festival == "Slow" {
			if err := release.wait(ctx); err != nil {
				return nil, err
			}
		}
		return []domain.AreaRecord{{Area: festival, Priority: domain.PriorityLow}}, nil
	}
	s, m := newTestStore(src, nil)

	type result struct {
		snap      Snapshot
		committed bool
	}
	slow := make(chan result, 1)
	go func() {
		snap, ok := s.Load(context.Background(), "Slow")
		slow <- result{snap, ok}
	}()

	require.Eventually(t, func() bool { return s.Festival() == "Slow" }, time.Second, time.Millisecond)

	fast, committed := s.Load(context.Background(), "Fast")
	require.True(t, committed)
	release.open()

	r := <-slow
	assert.False(t, r.committed)
	current, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, fast.Generation, current.Generation)
	assert.Equal(t, "Fast", current.Festival)
	assert.True(t, current.HasArea("Fast"))
	assert.InDelta(t, 1, testutil.ToFloat64(m.StaleLoadsDiscarded), 0)
}

func TestLoad_CallerCancellationKeepsLiveData(t *testing.T) {
	src := okSource()
	src.hotspots = func(ctx context.Context, _ string) ([]domain.AreaRecord, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return liveRecords(), nil
	}
	src.summary = func(ctx context.Context, f string) (domain.Summary, error) {
		if err := ctx.Err(); err != nil {
			return domain.Summary{}, err
		}
		return liveSummary(f), nil
	}
	s, m := newTestStore(src, nil)

	_, committed := s.Load(context.Background(), "Diwali")
	require.True(t, committed)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	snap, committed := s.Load(ctx, "Diwali")
	require.True(t, committed)
	assert.Equal(t, SourceLive, snap.Source)
	assert.Empty(t, snap.Reason)

	current, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, SourceLive, current.Source)
	assert.Equal(t, liveRecords(), current.Records)
	assert.InDelta(t, 0, testutil.ToFloat64(m.Loads.WithLabelValues(SourceSample)), 0)
}

func TestLoad_EmptyListIsLive(t *testing.T) {
	src := okSource()
	src.hotspots = func(context.Context, string) ([]domain.AreaRecord, error) {
		return []domain.AreaRecord{}, nil
	}
	s, _ := newTestStore(src, nil)

	snap, _ := s.Load(context.Background(), "Diwali")
	assert.Equal(t, SourceLive, snap.Source)
	assert.Empty(t, snap.Records)
	assert.InDelta(t, 0, snap.Breakdown.MaxExtraWasteKg, 0)
}

func TestLoad_GeocodesUnregisteredAreas(t *testing.T) {
	geocoder := geocoderFunc(func(_ context.Context, area, _ string) (domain.GeocodingResult, error) {
		if area == "X" {
			return domain.GeocodingResult{Lat: 12.95, Lon: 77.60, FormattedAddress: "X, Bengaluru"}, nil
		}
		return domain.GeocodingResult{}, nil
	})
	s, _ := newTestStore(okSource(), geocoder)

	snap, _ := s.Load(context.Background(), "Diwali")
	assert.Equal(t, orb.Point{77.60, 12.95}, snap.Overlay["X"])
	_, registered := snap.Overlay["Koramangala"]
	assert.False(t, registered, "registered areas are not geocoded")
}

func TestSnapshot_ReadsAreCopies(t *testing.T) {
	s, _ := newTestStore(okSource(), nil)
	_, ok := s.Snapshot()
	assert.False(t, ok)

	s.Load(context.Background(), "Diwali")
	recs := s.Records()
	recs[0].Area = "mutated"

	snap, ok := s.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "X", snap.Records[0].Area)
}

type geocoderFunc func(ctx context.Context, area, region string) (domain.GeocodingResult, error)

func (f geocoderFunc) ForwardGeocode(ctx context.Context, area, region string) (domain.GeocodingResult, error) {
	return f(ctx, area, region)
}
