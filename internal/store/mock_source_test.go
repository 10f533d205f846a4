package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
)

var errUpstream = errors.New("upstream unavailable")

// mockSource is a scriptable domain.HotspotSource.
type mockSource struct {
	hotspots func(ctx context.Context, festival string) ([]domain.AreaRecord, error)
	summary  func(ctx context.Context, festival string) (domain.Summary, error)
	insights func(ctx context.Context, festival string) (domain.InsightsPayload, error)

	insightCalls atomic.Int32
}

func (m *mockSource) FetchHotspots(ctx context.Context, festival string) ([]domain.AreaRecord, error) {
	return m.hotspots(ctx, festival)
}

func (m *mockSource) FetchSummary(ctx context.Context, festival string) (domain.Summary, error) {
	return m.summary(ctx, festival)
}

func (m *mockSource) FetchInsights(ctx context.Context, festival string) (domain.InsightsPayload, error) {
	m.insightCalls.Add(1)
	return m.insights(ctx, festival)
}

func liveRecords() []domain.AreaRecord {
	return []domain.AreaRecord{
		{Area: "X", ExtraWasteKg: 100, WasteIncreasePercent: 10, Priority: domain.PriorityHigh},
		{Area: "Koramangala", ExtraWasteKg: 300, WasteIncreasePercent: 30, Priority: domain.PriorityCritical},
	}
}

func liveSummary(festival string) domain.Summary {
	return domain.Summary{Festival: festival, TotalAreas: 2, TotalExtraWasteKg: 400, AverageIncreasePercent: 20, CriticalAreas: 1, HighPriorityAreas: 1}
}

func okSource() *mockSource {
	return &mockSource{
		hotspots: func(context.Context, string) ([]domain.AreaRecord, error) { return liveRecords(), nil },
		summary:  func(_ context.Context, f string) (domain.Summary, error) { return liveSummary(f), nil },
		insights: func(_ context.Context, f string) (domain.InsightsPayload, error) {
			return domain.InsightsPayload{
				Festival:         f,
				KeyInsights:      []string{"Koramangala leads"},
				ImmediateActions: []string{"Add trucks"},
			}, nil
		},
	}
}

// gate blocks callers until opened.
type gate struct {
	once sync.Once
	ch   chan struct{}
}

func newGate() *gate { return &gate{ch: make(chan struct{})} }

func (g *gate) open() { g.once.Do(func() { close(g.ch) }) }

func (g *gate) wait(ctx context.Context) error {
	select {
	case <-g.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
