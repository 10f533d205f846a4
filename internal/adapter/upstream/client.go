// Package upstream is the HTTP client for the waste prediction service.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/observability"
	"github.com/goccy/go-json"
)

// Endpoint labels used in metrics and logs.
const (
	endpointHotspots = "hotspots"
	endpointSummary  = "summary"
	endpointInsights = "insights"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// ErrFestivalNotFound is returned when the upstream does not know the festival.
var ErrFestivalNotFound = errors.New("festival not found")

// StatusError is a non-200 response from the upstream.
type StatusError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s: status %d: %s", e.Endpoint, e.Status, e.Body)
}

// Client implements domain.HotspotSource over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an upstream client. baseURL has no trailing slash.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// FetchHotspots calls GET {base}/hotspots/{festival}.
func (c *Client) FetchHotspots(ctx context.Context, festival string) ([]domain.AreaRecord, error) {
	var p domain.HotspotsPayload
	if err := c.get(ctx, endpointHotspots, c.path(festival), &p); err != nil {
		return nil, err
	}
	records, err := domain.ValidateHotspots(p)
	c.observeValidation(endpointHotspots, err)
	return records, err
}

// FetchSummary calls GET {base}/hotspots/{festival}/summary.
func (c *Client) FetchSummary(ctx context.Context, festival string) (domain.Summary, error) {
	var p domain.SummaryPayload
	if err := c.get(ctx, endpointSummary, c.path(festival, "summary"), &p); err != nil {
		return domain.Summary{}, err
	}
	s, err := domain.ValidateSummary(p, festival)
	c.observeValidation(endpointSummary, err)
	return s, err
}

// FetchInsights calls GET {base}/hotspots/{festival}/insights.
func (c *Client) FetchInsights(ctx context.Context, festival string) (domain.InsightsPayload, error) {
	var p domain.InsightsPayloadWire
	if err := c.get(ctx, endpointInsights, c.path(festival, "insights"), &p); err != nil {
		return domain.InsightsPayload{}, err
	}
	body, err := domain.ValidateInsights(p)
	c.observeValidation(endpointInsights, err)
	if err != nil {
		return domain.InsightsPayload{}, err
	}
	return domain.InsightsPayload{
		Festival:         festival,
		KeyInsights:      body.KeyInsights,
		ImmediateActions: body.ImmediateActions,
		FetchedAt:        domain.Now(),
	}, nil
}

func (c *Client) path(festival string, rest ...string) string {
	u := c.baseURL + "/hotspots/" + url.PathEscape(festival)
	for _, r := range rest {
		u += "/" + r
	}
	return u
}

// get performs the request and decodes a 200 body into v.
func (c *Client) get(ctx context.Context, endpoint, fullURL string, v any) error {
	start := time.Now()
	defer func() {
		c.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s, ok := domain.SessionFrom(ctx); ok {
		req.Header.Set("X-Session-ID", s.ID.String())
		if s.Token != "" {
			req.Header.Set("Authorization", "Bearer "+s.Token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%s request: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, "error").Inc()
		statusErr := &StatusError{Endpoint: endpoint, Status: resp.StatusCode, Body: truncate(string(body), 256)}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", ErrFestivalNotFound, statusErr)
		}
		return statusErr
	}

	if err := json.Unmarshal(body, v); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, "invalid").Inc()
		return fmt.Errorf("%w: decode %s: %v", domain.ErrInvalidPayload, endpoint, err)
	}
	return nil
}

func (c *Client) observeValidation(endpoint string, err error) {
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(endpoint, "invalid").Inc()
		c.logger.Warn("upstream payload rejected", "endpoint", endpoint, "error", err)
		return
	}
	c.metrics.UpstreamRequests.WithLabelValues(endpoint, "success").Inc()
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
