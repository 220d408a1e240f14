package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all custom instruments. A nil *Metrics records nothing, so
// components can take one without checking whether observability is on.
type Metrics struct {
	// AI operation metrics
	AIRequestDuration metric.Float64Histogram
	AIRequestCount    metric.Int64Counter
	AIErrorCount      metric.Int64Counter
	AITokenUsage      metric.Int64Counter

	// Pipeline metrics
	SourceCalls metric.Int64Counter
	Listings    metric.Int64Counter
	Runs        metric.Int64Counter

	// HTTP surface metrics
	HTTPRequests  metric.Int64Counter
	RateLimitHits metric.Int64Counter
}

// NewMetrics creates every instrument on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.AIRequestDuration, err = meter.Float64Histogram(
		"hybridhunter_ai_request_duration_seconds",
		metric.WithDescription("Time spent waiting on the language model"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI duration metric: %w", err)
	}

	m.AIRequestCount, err = meter.Int64Counter(
		"hybridhunter_ai_requests_total",
		metric.WithDescription("Total number of language model requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI request count metric: %w", err)
	}

	m.AIErrorCount, err = meter.Int64Counter(
		"hybridhunter_ai_errors_total",
		metric.WithDescription("Total number of failed language model requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI error count metric: %w", err)
	}

	m.AITokenUsage, err = meter.Int64Counter(
		"hybridhunter_ai_tokens_total",
		metric.WithDescription("Tokens consumed by language model requests"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	m.SourceCalls, err = meter.Int64Counter(
		"hybridhunter_source_calls_total",
		metric.WithDescription("Listing source calls by source and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create source calls metric: %w", err)
	}

	m.Listings, err = meter.Int64Counter(
		"hybridhunter_listings_total",
		metric.WithDescription("Listings seen at each pipeline stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create listings metric: %w", err)
	}

	m.Runs, err = meter.Int64Counter(
		"hybridhunter_runs_total",
		metric.WithDescription("Completed search runs by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runs metric: %w", err)
	}

	m.HTTPRequests, err = meter.Int64Counter(
		"hybridhunter_http_requests_total",
		metric.WithDescription("HTTP API requests by route and status class"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP requests metric: %w", err)
	}

	m.RateLimitHits, err = meter.Int64Counter(
		"hybridhunter_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return m, nil
}

// TokenUsage is the token accounting of one model call
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// RecordAIRequest records one language model call
func (m *Metrics) RecordAIRequest(ctx context.Context, operation string, duration time.Duration, err error, usage *TokenUsage) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	)
	m.AIRequestCount.Add(ctx, 1, attrs)
	m.AIRequestDuration.Record(ctx, duration.Seconds(), attrs)
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, attrs)
	}

	if usage == nil {
		return
	}
	for _, tt := range []struct {
		tokenType string
		value     int64
	}{
		{"input", usage.InputTokens},
		{"output", usage.OutputTokens},
	} {
		m.AITokenUsage.Add(ctx, tt.value, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("token_type", tt.tokenType),
		))
	}
}

// RecordSourceCall records one adapter call. outcome is ok, error or rejected.
func (m *Metrics) RecordSourceCall(ctx context.Context, source, outcome string, listings int) {
	if m == nil {
		return
	}
	m.SourceCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
	if listings > 0 {
		m.Listings.Add(ctx, int64(listings), metric.WithAttributes(
			attribute.String("stage", "fetched"),
			attribute.String("source", source),
		))
	}
}

// RecordListings records the listing count leaving a pipeline stage
func (m *Metrics) RecordListings(ctx context.Context, stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Listings.Add(ctx, int64(n), metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordRun records the terminal status of one run
func (m *Metrics) RecordRun(ctx context.Context, status string) {
	if m == nil {
		return
	}
	m.Runs.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordHTTPRequest records one API request
func (m *Metrics) RecordHTTPRequest(ctx context.Context, route string, status int) {
	if m == nil {
		return
	}
	m.HTTPRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("status_class", fmt.Sprintf("%dxx", status/100)),
	))
}

// RecordRateLimitHit records a rejected request
func (m *Metrics) RecordRateLimitHit(ctx context.Context) {
	if m == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1)
}
