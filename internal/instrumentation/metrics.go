package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrMethod  = "method"
	attrOutcome = "outcome"
	attrReason  = "reason"
)

// Attempt outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeRetry     = "retry"
	OutcomeFailure   = "failure"
	OutcomeExhausted = "exhausted"
)

// Metrics records executor, limiter and paginator metrics.
type Metrics struct {
	attemptsTotal     metric.Int64Counter
	retriesTotal      metric.Int64Counter
	limiterWait       metric.Float64Histogram
	pagesTotal        metric.Int64Counter
	truncationsTotal  metric.Int64Counter
	authFailuresTotal metric.Int64Counter
}

// NewMetrics creates all instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.attemptsTotal, err = meter.Int64Counter(
		"gmail_api_attempts_total",
		metric.WithDescription("Total number of Gmail API network attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_api_attempts_total counter: %w", err)
	}

	m.retriesTotal, err = meter.Int64Counter(
		"gmail_api_retries_total",
		metric.WithDescription("Total number of Gmail API attempts scheduled for retry"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_api_retries_total counter: %w", err)
	}

	m.limiterWait, err = meter.Float64Histogram(
		"gmail_rate_limiter_wait_seconds",
		metric.WithDescription("Time spent waiting for a rate limiter token"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_rate_limiter_wait_seconds histogram: %w", err)
	}

	m.pagesTotal, err = meter.Int64Counter(
		"gmail_pages_fetched_total",
		metric.WithDescription("Total number of result pages fetched"),
		metric.WithUnit("{page}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_pages_fetched_total counter: %w", err)
	}

	m.truncationsTotal, err = meter.Int64Counter(
		"gmail_pagination_truncated_total",
		metric.WithDescription("Total number of paginations stopped before the end of results"),
		metric.WithUnit("{pagination}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_pagination_truncated_total counter: %w", err)
	}

	m.authFailuresTotal, err = meter.Int64Counter(
		"gmail_auth_failures_total",
		metric.WithDescription("Total number of calls aborted because no valid credential was available"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gmail_auth_failures_total counter: %w", err)
	}

	return m, nil
}

// RecordAttempt records one network attempt and how it was classified.
func (m *Metrics) RecordAttempt(ctx context.Context, method, outcome string) {
	if m == nil || m.attemptsTotal == nil {
		return
	}

	m.attemptsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrOutcome, outcome),
	))
}

// RecordRetry records a retry scheduled for method.
func (m *Metrics) RecordRetry(ctx context.Context, method string) {
	if m == nil || m.retriesTotal == nil {
		return
	}

	m.retriesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrMethod, method)))
}

// RecordLimiterWait records how long an attempt waited for admission.
func (m *Metrics) RecordLimiterWait(ctx context.Context, d time.Duration) {
	if m == nil || m.limiterWait == nil {
		return
	}

	m.limiterWait.Record(ctx, d.Seconds())
}

// RecordPage records one fetched page for method.
func (m *Metrics) RecordPage(ctx context.Context, method string) {
	if m == nil || m.pagesTotal == nil {
		return
	}

	m.pagesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrMethod, method)))
}

// RecordTruncation records a pagination cut short, reason being the stop reason.
func (m *Metrics) RecordTruncation(ctx context.Context, method, reason string) {
	if m == nil || m.truncationsTotal == nil {
		return
	}

	m.truncationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrMethod, method),
		attribute.String(attrReason, reason),
	))
}

// RecordAuthFailure records a call that could not obtain a credential.
func (m *Metrics) RecordAuthFailure(ctx context.Context, method string) {
	if m == nil || m.authFailuresTotal == nil {
		return
	}

	m.authFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrMethod, method)))
}
