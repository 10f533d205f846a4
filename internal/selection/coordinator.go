// Package selection owns the single shared "currently selected area" and fans
// every change out to the map, the table and any other observer.
package selection

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/observability"
)

// Source identifies which input produced a transition.
type Source string

// Transition sources.
const (
	SourceMap    Source = "map"
	SourceTable  Source = "table"
	SourceReload Source = "reload"
)

// Valid reports whether s is a source a user interaction may report.
func (s Source) Valid() bool {
	return s == SourceMap || s == SourceTable
}

// Kind classifies a transition.
type Kind string

// Transition kinds.
const (
	KindSelect  Kind = "select"  // Unselected -> Selected(a)
	KindReplace Kind = "replace" // Selected(a) -> Selected(b)
	KindClear   Kind = "clear"   // Selected(a) -> Unselected
)

// State is either Unselected (zero value) or Selected(Area).
type State struct {
	Area string `json:"area,omitempty"`
}

// Unselected is the initial state.
var Unselected = State{}

// Selected returns the state holding area.
func Selected(area string) State { return State{Area: area} }

// IsSelected reports whether any area is selected.
func (s State) IsSelected() bool { return s.Area != "" }

// Is reports whether area is the selected one.
func (s State) Is(area string) bool { return s.IsSelected() && s.Area == area }

// Transition is one observed state change. Seq increases by one per transition.
type Transition struct {
	Seq    uint64 `json:"seq"`
	From   State  `json:"from"`
	To     State  `json:"to"`
	Kind   Kind   `json:"kind"`
	Source Source `json:"source"`
}

// Observer is notified of every transition, in registration order.
// Observers run while the coordinator is locked and must not call back into it.
type Observer interface {
	SelectionChanged(t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Transition)

// SelectionChanged calls f(t).
func (f ObserverFunc) SelectionChanged(t Transition) { f(t) }

// Coordinator is the only writer of the selection state.
type Coordinator struct {
	mu        sync.Mutex
	state     State
	seq       uint64
	observers []Observer
	known     func(area string) bool
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Coordinator in the Unselected state.
func New(logger *slog.Logger, metrics *observability.Metrics) *Coordinator {
	return &Coordinator{logger: logger, metrics: metrics}
}

// Subscribe registers o for all future transitions.
func (c *Coordinator) Subscribe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Current returns the current state.
func (c *Coordinator) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Guard makes Toggle reject areas for which known returns false. known is
// evaluated under the coordinator lock, so a click racing a reload is checked
// against whichever record set Reconcile last saw or will see next.
func (c *Coordinator) Guard(known func(area string) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.known = known
}

// Toggle handles a click on area. Clicking the selected area clears the
// selection; clicking any other area selects it directly. Selecting an area
// the guard does not know fails with domain.ErrUnknownArea.
func (c *Coordinator) Toggle(area string, source Source) (Transition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.state
	if !from.Is(area) && c.known != nil && !c.known(area) {
		return Transition{}, fmt.Errorf("%w: %q", domain.ErrUnknownArea, area)
	}
	var t Transition
	switch {
	case from.Is(area):
		t = Transition{From: from, To: Unselected, Kind: KindClear, Source: source}
	case from.IsSelected():
		t = Transition{From: from, To: Selected(area), Kind: KindReplace, Source: source}
	default:
		t = Transition{From: from, To: Selected(area), Kind: KindSelect, Source: source}
	}
	return c.apply(t), nil
}

// Reconcile clears the selection when its area is no longer among known.
// It reports whether a transition happened.
func (c *Coordinator) Reconcile(known func(area string) bool) (Transition, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.IsSelected() || known(c.state.Area) {
		return Transition{}, false
	}
	t := c.apply(Transition{From: c.state, To: Unselected, Kind: KindClear, Source: SourceReload})
	return t, true
}

// apply commits t and notifies observers. c.mu must be held.
func (c *Coordinator) apply(t Transition) Transition {
	c.seq++
	t.Seq = c.seq
	c.state = t.To

	c.metrics.SelectionTransitions.WithLabelValues(string(t.Source), string(t.Kind)).Inc()
	c.logger.Debug("selection changed",
		"seq", t.Seq,
		"from", t.From.Area,
		"to", t.To.Area,
		"kind", t.Kind,
		"source", t.Source,
	)

	for _, o := range c.observers {
		o.SelectionChanged(t)
	}
	return t
}
