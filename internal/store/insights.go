package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/observability"
	"golang.org/x/sync/singleflight"
)

// Enricher fetches insights on request, in the background. Failures store the
// fallback payload so a requested slot is always filled.
type Enricher struct {
	source  domain.HotspotSource
	store   *Store
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics

	group     singleflight.Group
	wg        sync.WaitGroup
	onSettled func(domain.InsightsPayload)
}

// NewEnricher creates an Enricher writing into store.
func NewEnricher(source domain.HotspotSource, store *Store, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Enricher {
	return &Enricher{
		source:  source,
		store:   store,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// Request starts an insights fetch for festival and returns immediately.
// started is false if a request for the loaded context is already pending.
// Values carried by ctx (such as the session) are kept; its cancellation is not.
func (e *Enricher) Request(ctx context.Context, festival string) (bool, error) {
	gen, started, err := e.store.beginInsights(festival)
	if err != nil {
		return false, err
	}
	if !started {
		e.metrics.InsightsRequests.WithLabelValues("deduplicated").Inc()
		return false, nil
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.fetch(context.WithoutCancel(ctx), gen, festival)
	}()
	return true, nil
}

// OnSettled registers fn to be called with every payload that is stored.
// It must be set before the first Request.
func (e *Enricher) OnSettled(fn func(domain.InsightsPayload)) {
	e.onSettled = fn
}

// Wait blocks until all in-flight requests have settled.
func (e *Enricher) Wait() {
	e.wg.Wait()
}

func (e *Enricher) fetch(ctx context.Context, gen uint64, festival string) {
	v, err, shared := e.group.Do(festival, func() (any, error) {
		fctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		return e.source.FetchInsights(fctx, festival)
	})

	outcome := "live"
	var payload domain.InsightsPayload
	if err != nil {
		e.logger.Warn("insights fetch failed, using fallback",
			"festival", festival,
			"error", err,
		)
		payload = domain.FallbackInsights(festival, domain.Now())
		outcome = "fallback"
	} else {
		payload = v.(domain.InsightsPayload)
		payload.Festival = festival
		if payload.FetchedAt.IsZero() {
			payload.FetchedAt = domain.Now()
		}
	}

	if !e.store.commitInsights(gen, payload) {
		e.logger.Info("discarding insights for superseded load",
			"festival", festival,
			"generation", gen,
		)
		outcome = "stale"
	} else if e.onSettled != nil {
		e.onSettled(payload)
	}
	e.metrics.InsightsRequests.WithLabelValues(outcome).Inc()
	e.logger.Debug("insights request settled",
		"festival", festival,
		"generation", gen,
		"outcome", outcome,
		"shared", shared,
	)
}
