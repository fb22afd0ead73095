package gservice

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/hal9000y/gmail-reader/internal/clock"
	"github.com/hal9000y/gmail-reader/internal/instrumentation"
	"github.com/hal9000y/gmail-reader/internal/logging"
	"github.com/hal9000y/gmail-reader/internal/retry"
)

// DefaultAttemptTimeout bounds a single network attempt.
const DefaultAttemptTimeout = 30 * time.Second

// Credentials supplies a valid bearer token. Implementations refresh
// transparently and block concurrent callers while a refresh is running.
type Credentials interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

// Limiter admits one attempt per call.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// Descriptor describes one API call. It is built per call and not modified
// afterwards. Do performs exactly one network attempt.
type Descriptor[T any] struct {
	Method string
	Params map[string]string
	Fields googleapi.Field
	Do     func(ctx context.Context, fields googleapi.Field) (T, error)
}

// Executor runs descriptors through credential, rate limiter and retry policy.
// It is safe for concurrent use; the limiter is the only shared mutable state.
type Executor struct {
	creds          Credentials
	limiter        Limiter
	policy         retry.Policy
	attemptTimeout time.Duration
	clock          clock.Clock
	logger         *slog.Logger
	metrics        *instrumentation.Metrics
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithAttemptTimeout sets the per-attempt deadline; zero disables it.
func WithAttemptTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.attemptTimeout = d }
}

// WithClock replaces the clock used for backoff sleeps.
func WithClock(c clock.Clock) ExecutorOption {
	return func(e *Executor) { e.clock = c }
}

func WithLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = logging.OrDefault(l) }
}

func WithMetrics(m *instrumentation.Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// NewExecutor shares limiter and policy across every call it runs.
func NewExecutor(creds Credentials, limiter Limiter, policy retry.Policy, opts ...ExecutorOption) *Executor {
	e := &Executor{
		creds:          creds,
		limiter:        limiter,
		policy:         policy,
		attemptTimeout: DefaultAttemptTimeout,
		clock:          clock.Real{},
		logger:         slog.Default(),
		metrics:        &instrumentation.Metrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs d until it succeeds, fails permanently or runs out of attempts.
// Every admitted attempt, retries included, consumes one limiter token.
// Credential failures return immediately and do not count as attempts.
func Execute[T any](ctx context.Context, ex *Executor, d Descriptor[T]) (T, error) {
	var zero T
	logger := logging.WithMethod(ex.logger, d.Method)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, canceled(d.Method, attempt-1, err)
		}

		tok, err := ex.creds.Token(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return zero, canceled(d.Method, attempt-1, ctx.Err())
			}
			ex.metrics.RecordAuthFailure(ctx, d.Method)
			logger.Error("credential unavailable", logging.Err(err))
			return zero, &Error{Kind: KindAuthentication, Method: d.Method, Attempts: attempt - 1, Err: err}
		}

		waitStart := ex.clock.Now()
		if err := ex.limiter.Acquire(ctx); err != nil {
			if ctx.Err() != nil {
				return zero, canceled(d.Method, attempt-1, ctx.Err())
			}
			return zero, &Error{Kind: KindFatal, Method: d.Method, Attempts: attempt - 1, Err: err}
		}
		ex.metrics.RecordLimiterWait(ctx, ex.clock.Now().Sub(waitStart))

		logger.Debug("executing request", logging.Attempt(attempt), slog.Any("params", d.Params))

		val, outcome := attemptOnce(ctx, ex.attemptTimeout, tok, d)
		if ctx.Err() != nil {
			return zero, canceled(d.Method, attempt, ctx.Err())
		}

		decision := ex.policy.Decide(attempt, outcome)
		switch decision.Action {
		case retry.Succeed:
			ex.metrics.RecordAttempt(ctx, d.Method, instrumentation.OutcomeSuccess)
			return val, nil

		case retry.RetryAfter:
			ex.metrics.RecordAttempt(ctx, d.Method, instrumentation.OutcomeRetry)
			ex.metrics.RecordRetry(ctx, d.Method)
			logger.Warn("retrying request",
				logging.Attempt(attempt),
				logging.Status(outcome.StatusCode),
				logging.Delay(decision.Delay),
				logging.Err(outcome.Err))

			if err := ex.clock.Sleep(ctx, decision.Delay); err != nil {
				return zero, canceled(d.Method, attempt, err)
			}

		default:
			cerr := classify(d.Method, attempt, outcome, decision)
			if decision.Reason == retry.ReasonExhausted {
				ex.metrics.RecordAttempt(ctx, d.Method, instrumentation.OutcomeExhausted)
				logger.Error("retries exhausted", logging.Attempt(attempt), logging.Status(outcome.StatusCode), logging.Err(outcome.Err))
			} else {
				ex.metrics.RecordAttempt(ctx, d.Method, instrumentation.OutcomeFailure)
				logger.Warn("request failed", logging.Status(outcome.StatusCode), logging.Err(outcome.Err))
			}
			return zero, cerr
		}
	}
}

func attemptOnce[T any](ctx context.Context, timeout time.Duration, tok *oauth2.Token, d Descriptor[T]) (T, retry.Outcome) {
	actx := withCredential(ctx, tok)
	if timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(actx, timeout)
		defer cancel()
	}

	val, err := d.Do(actx, d.Fields)
	timedOut := err != nil && errors.Is(actx.Err(), context.DeadlineExceeded) && ctx.Err() == nil

	return val, outcomeOf(err, timedOut)
}

func canceled(method string, attempts int, err error) *Error {
	return &Error{Kind: KindCanceled, Method: method, Attempts: attempts, Err: err}
}
