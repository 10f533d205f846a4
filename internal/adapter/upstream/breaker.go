package upstream

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/observability"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Breaker settings.
const (
	breakerName        = "upstream"
	breakerMinRequests = 5
	breakerTripRatio   = 0.6
	breakerInterval    = time.Minute
	breakerOpenTimeout = 30 * time.Second
)

// BreakerSource wraps a HotspotSource with a circuit breaker. It never
// retries: an open breaker fails fast and the caller falls back.
type BreakerSource struct {
	inner   domain.HotspotSource
	cb      *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewBreakerSource creates a BreakerSource around inner.
func NewBreakerSource(inner domain.HotspotSource, logger *slog.Logger, metrics *observability.Metrics) *BreakerSource {
	metrics.CircuitBreakerState.Set(0)

	b := &BreakerSource{inner: inner, logger: logger, metrics: metrics}
	b.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    breakerInterval,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= breakerTripRatio
		},
		// A missing festival or a malformed body says nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrFestivalNotFound) || errors.Is(err, domain.ErrInvalidPayload)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.CircuitBreakerState.Set(stateToFloat(to))
		},
	})
	return b
}

// FetchHotspots calls the inner source through the breaker.
func (b *BreakerSource) FetchHotspots(ctx context.Context, festival string) ([]domain.AreaRecord, error) {
	return execute(b, endpointHotspots, func() ([]domain.AreaRecord, error) {
		return b.inner.FetchHotspots(ctx, festival)
	})
}

// FetchSummary calls the inner source through the breaker.
func (b *BreakerSource) FetchSummary(ctx context.Context, festival string) (domain.Summary, error) {
	return execute(b, endpointSummary, func() (domain.Summary, error) {
		return b.inner.FetchSummary(ctx, festival)
	})
}

// FetchInsights calls the inner source through the breaker.
func (b *BreakerSource) FetchInsights(ctx context.Context, festival string) (domain.InsightsPayload, error) {
	return execute(b, endpointInsights, func() (domain.InsightsPayload, error) {
		return b.inner.FetchInsights(ctx, festival)
	})
}

// State returns the breaker's current state.
func (b *BreakerSource) State() gobreaker.State {
	return b.cb.State()
}

func execute[T any](b *BreakerSource, endpoint string, fn func() (T, error)) (T, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			b.metrics.UpstreamRequests.WithLabelValues(endpoint, "rejected").Inc()
			b.logger.Warn("upstream request rejected by circuit breaker", "endpoint", endpoint, "error", err)
		}
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
