// Package metrics records cache, upstream and tool-call counters through OpenTelemetry.
// Without a configured MeterProvider the global no-op provider is used.
package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// InstrumentationName is the meter name used for all instruments
const InstrumentationName = "rxmcp"

// Recorder holds the instruments. A nil *Recorder is valid and records nothing.
type Recorder struct {
	cacheLookups     metric.Int64Counter
	upstreamRequests metric.Int64Counter
	upstreamRetries  metric.Int64Counter
	toolCalls        metric.Int64Counter
	toolDuration     metric.Float64Histogram
	cacheSwept       metric.Int64Counter
}

// New creates a Recorder using meter, or the global meter provider when meter is nil
func New(meter metric.Meter) (*Recorder, error) {
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(InstrumentationName)
	}

	cacheLookups, err := meter.Int64Counter(
		"rxmcp.cache.lookups",
		metric.WithDescription("Cache lookups by operation and result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	cacheSwept, err := meter.Int64Counter(
		"rxmcp.cache.swept",
		metric.WithDescription("Expired cache entries removed by the sweeper"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	upstreamRequests, err := meter.Int64Counter(
		"rxmcp.upstream.requests",
		metric.WithDescription("Outbound openFDA requests by endpoint and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	upstreamRetries, err := meter.Int64Counter(
		"rxmcp.upstream.retries",
		metric.WithDescription("Retries scheduled by failure category"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	toolCalls, err := meter.Int64Counter(
		"rxmcp.tool.calls",
		metric.WithDescription("Tool calls by tool and outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	toolDuration, err := meter.Float64Histogram(
		"rxmcp.tool.duration_ms",
		metric.WithDescription("Tool call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Recorder{
		cacheLookups:     cacheLookups,
		cacheSwept:       cacheSwept,
		upstreamRequests: upstreamRequests,
		upstreamRetries:  upstreamRetries,
		toolCalls:        toolCalls,
		toolDuration:     toolDuration,
	}, nil
}

// CacheLookup records a cache hit or miss for an operation
func (r *Recorder) CacheLookup(ctx context.Context, operation string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result),
	))
}

// CacheSwept records entries removed by a sweep
func (r *Recorder) CacheSwept(ctx context.Context, removed int) {
	if r == nil || removed == 0 {
		return
	}
	r.cacheSwept.Add(ctx, int64(removed))
}

// UpstreamRequest records one outbound HTTP attempt. status is the HTTP status or 0 for transport errors.
func (r *Recorder) UpstreamRequest(ctx context.Context, endpoint string, status int) {
	if r == nil {
		return
	}
	r.upstreamRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.Int("status", status),
	))
}

// UpstreamRetry records a scheduled retry
func (r *Recorder) UpstreamRetry(ctx context.Context, category string) {
	if r == nil {
		return
	}
	r.upstreamRetries.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
}

// ToolCall records a finished tool call
func (r *Recorder) ToolCall(ctx context.Context, tool, outcome string, duration time.Duration) {
	if r == nil {
		return
	}
	opt := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("outcome", outcome),
	)
	r.toolCalls.Add(ctx, 1, opt)
	r.toolDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}
