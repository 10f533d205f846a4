package upstream

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	err   error
	calls int
}

func (s *stubSource) FetchHotspots(context.Context, string) ([]domain.AreaRecord, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return domain.SampleRecords(), nil
}

func (s *stubSource) FetchSummary(_ context.Context, festival string) (domain.Summary, error) {
	s.calls++
	return domain.SampleSummary(festival), s.err
}

func (s *stubSource) FetchInsights(_ context.Context, festival string) (domain.InsightsPayload, error) {
	s.calls++
	return domain.InsightsPayload{Festival: festival}, s.err
}

func TestBreakerSource_PassesThrough(t *testing.T) {
	inner := &stubSource{}
	b := NewBreakerSource(inner, discardLogger(), observability.NewMetricsForTesting())

	records, err := b.FetchHotspots(context.Background(), "Diwali")
	require.NoError(t, err)
	assert.Len(t, records, 3)

	s, err := b.FetchSummary(context.Background(), "Diwali")
	require.NoError(t, err)
	assert.Equal(t, "Diwali", s.Festival)

	p, err := b.FetchInsights(context.Background(), "Diwali")
	require.NoError(t, err)
	assert.Equal(t, "Diwali", p.Festival)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerSource_OpensAfterFailures(t *testing.T) {
	inner := &stubSource{err: errors.New("connection refused")}
	m := observability.NewMetricsForTesting()
	b := NewBreakerSource(inner, discardLogger(), m)

	for i := 0; i < breakerMinRequests; i++ {
		_, err := b.FetchHotspots(context.Background(), "Diwali")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())
	assert.InDelta(t, 2, testutil.ToFloat64(m.CircuitBreakerState), 0)

	callsBefore := inner.calls
	_, err := b.FetchSummary(context.Background(), "Diwali")
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, callsBefore, inner.calls, "open breaker must not call upstream")
	assert.InDelta(t, 1, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("summary", "rejected")), 0)
}

func TestBreakerSource_ClientErrorsDoNotTrip(t *testing.T) {
	for _, err := range []error{ErrFestivalNotFound, domain.ErrInvalidPayload} {
		inner := &stubSource{err: err}
		b := NewBreakerSource(inner, discardLogger(), observability.NewMetricsForTesting())

		for i := 0; i < 2*breakerMinRequests; i++ {
			_, got := b.FetchHotspots(context.Background(), "Onam")
			require.ErrorIs(t, got, err)
		}
		assert.Equal(t, gobreaker.StateClosed, b.State())
	}
}
