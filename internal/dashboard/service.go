// Package dashboard wires the hotspot store, the selection coordinator and the
// two views into the operations the HTTP API exposes.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/waste-hotspot-service/internal/adapter/ws"
	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/geo"
	"github.com/couchcryptid/waste-hotspot-service/internal/observability"
	"github.com/couchcryptid/waste-hotspot-service/internal/render"
	"github.com/couchcryptid/waste-hotspot-service/internal/selection"
	"github.com/couchcryptid/waste-hotspot-service/internal/store"
)

// Request validation errors.
var (
	ErrFestivalRequired = errors.New("festival is required")
	ErrInvalidSource    = errors.New("source must be map or table")
)

// Publisher sends domain events downstream.
type Publisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
}

// Broadcaster pushes messages to live viewers.
type Broadcaster interface {
	Broadcast(msg ws.Message)
}

// Options holds the optional collaborators of a Service.
type Options struct {
	TableRows   int
	Publisher   Publisher
	Broadcaster Broadcaster
}

// View is everything a client needs to draw the dashboard.
type View struct {
	Loaded          bool                    `json:"loaded"`
	Festival        string                  `json:"festival,omitempty"`
	Generation      uint64                  `json:"generation,omitempty"`
	Source          string                  `json:"source,omitempty"`
	Reason          string                  `json:"reason,omitempty"`
	LoadedAt        time.Time               `json:"loaded_at"`
	Summary         domain.Summary          `json:"summary"`
	Breakdown       domain.Breakdown        `json:"breakdown"`
	Layer           render.Layer            `json:"layer"`
	Table           render.TableView        `json:"table"`
	Selection       selection.State         `json:"selection"`
	Insights        *domain.InsightsPayload `json:"insights,omitempty"`
	InsightsLoading bool                    `json:"insights_loading"`
}

// Service orchestrates load, render, selection and insights.
type Service struct {
	store    *store.Store
	enricher *store.Enricher
	coord    *selection.Coordinator
	renderer *render.MapRenderer
	resolver *geo.Resolver
	opts     Options
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// New creates a Service and subscribes it to selection changes.
func New(st *store.Store, enricher *store.Enricher, coord *selection.Coordinator, renderer *render.MapRenderer, resolver *geo.Resolver, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Service {
	if opts.TableRows <= 0 {
		opts.TableRows = render.DefaultTableRows
	}
	s := &Service{
		store:    st,
		enricher: enricher,
		coord:    coord,
		renderer: renderer,
		resolver: resolver,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
	}
	coord.Guard(st.HasArea)
	coord.Subscribe(selection.ObserverFunc(s.selectionChanged))
	enricher.OnSettled(s.insightsSettled)
	return s
}

// CheckReadiness returns nil once the first load has settled.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("no hotspot load has settled yet")
	}
	return nil
}

// Load replaces the current snapshot with festival's hotspots. A failed fetch
// still yields a view, backed by the sample set. A load that has started is
// not abandoned when ctx is cancelled.
func (s *Service) Load(ctx context.Context, festival string) (View, error) {
	festival = strings.TrimSpace(festival)
	if festival == "" {
		return View{}, ErrFestivalRequired
	}
	ctx = context.WithoutCancel(ctx)

	snap, committed := s.store.Load(ctx, festival)
	if !committed {
		return s.View(ctx), nil
	}
	s.ready.Store(true)
	s.coord.Reconcile(snap.HasArea)

	s.publish(ctx, domain.Event{
		Type:       domain.EventLoad,
		Festival:   snap.Festival,
		Generation: snap.Generation,
		Source:     snap.Source,
		Records:    len(snap.Records),
		OccurredAt: snap.LoadedAt,
	})

	view := s.View(ctx)
	s.broadcast(ws.Message{Type: ws.MessageTypeView, Data: view})
	return view, nil
}

// View renders the current snapshot under the current selection.
func (s *Service) View(ctx context.Context) View {
	snap, ok := s.store.Snapshot()
	sel := s.coord.Current()
	insights, loading := s.store.Insights()

	return View{
		Loaded:          ok,
		Festival:        snap.Festival,
		Generation:      snap.Generation,
		Source:          snap.Source,
		Reason:          snap.Reason,
		LoadedAt:        snap.LoadedAt,
		Summary:         snap.Summary,
		Breakdown:       snap.Breakdown,
		Layer:           s.renderer.Render(ctx, snap.Records, s.resolver.WithOverlay(snap.Overlay), sel),
		Table:           render.Table(snap.Records, sel, s.opts.TableRows),
		Selection:       sel,
		Insights:        insights,
		InsightsLoading: loading,
	}
}

// Layer renders only the map layer.
func (s *Service) Layer(ctx context.Context) render.Layer {
	snap, _ := s.store.Snapshot()
	return s.renderer.Render(ctx, snap.Records, s.resolver.WithOverlay(snap.Overlay), s.coord.Current())
}

// Table builds only the ranking table.
func (s *Service) Table() render.TableView {
	return render.Table(s.store.Records(), s.coord.Current(), s.opts.TableRows)
}

// Selection returns the current selection.
func (s *Service) Selection() selection.State {
	return s.coord.Current()
}

// Select handles a click on area from the map or the table.
func (s *Service) Select(ctx context.Context, area string, source selection.Source) (selection.Transition, error) {
	if !source.Valid() {
		return selection.Transition{}, fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}
	snap, ok := s.store.Snapshot()
	if !ok || !snap.HasArea(area) {
		return selection.Transition{}, fmt.Errorf("%w: %q", domain.ErrUnknownArea, area)
	}

	if source == selection.SourceMap {
		// Render first so the click targets the markers currently on screen.
		layer := s.renderer.Render(ctx, snap.Records, s.resolver.WithOverlay(snap.Overlay), s.coord.Current())
		if layer.Placeholder {
			return selection.Transition{}, render.ErrEngineUnavailable
		}
		return s.renderer.Click(area)
	}
	return render.ClickRow(render.Table(snap.Records, s.coord.Current(), s.opts.TableRows), area, s.coord)
}

// RequestInsights starts a background insights fetch for festival, or for
// the loaded festival when festival is empty.
func (s *Service) RequestInsights(ctx context.Context, festival string) (bool, error) {
	if festival = strings.TrimSpace(festival); festival == "" {
		festival = s.store.Festival()
	}
	return s.enricher.Request(ctx, festival)
}

// Insights returns the insights slot and whether a request is in flight.
func (s *Service) Insights() (*domain.InsightsPayload, bool) {
	return s.store.Insights()
}

// selectionChanged runs under the coordinator lock; both calls are non-blocking.
func (s *Service) selectionChanged(t selection.Transition) {
	s.broadcast(ws.Message{Type: ws.MessageTypeSelection, Data: t})
	s.publish(context.Background(), domain.Event{
		Type:       domain.EventSelection,
		Festival:   s.store.Festival(),
		Source:     string(t.Source),
		From:       t.From.Area,
		To:         t.To.Area,
		OccurredAt: domain.Now(),
	})
}

func (s *Service) insightsSettled(p domain.InsightsPayload) {
	s.broadcast(ws.Message{Type: ws.MessageTypeInsights, Data: p})
}

func (s *Service) publish(ctx context.Context, e domain.Event) {
	if s.opts.Publisher == nil {
		return
	}
	if err := s.opts.Publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("publish event failed", "type", e.Type, "festival", e.Festival, "error", err)
	}
}

func (s *Service) broadcast(msg ws.Message) {
	if s.opts.Broadcaster == nil {
		return
	}
	s.opts.Broadcaster.Broadcast(msg)
}
