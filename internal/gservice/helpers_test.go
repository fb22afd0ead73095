package gservice_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"

	"github.com/hal9000y/gmail-reader/internal/clock"
	"github.com/hal9000y/gmail-reader/internal/gservice"
	"github.com/hal9000y/gmail-reader/internal/logging"
	"github.com/hal9000y/gmail-reader/internal/retry"
)

var epoch = time.Date(2025, 9, 14, 12, 0, 0, 0, time.UTC)

type credsMock struct {
	TokenFunc func(ctx context.Context) (*oauth2.Token, error)
}

func (m *credsMock) Token(ctx context.Context) (*oauth2.Token, error) {
	return m.TokenFunc(ctx)
}

func staticCreds() *credsMock {
	return &credsMock{TokenFunc: func(context.Context) (*oauth2.Token, error) {
		return &oauth2.Token{AccessToken: "test-access-token", TokenType: "Bearer"}, nil
	}}
}

var errNoToken = errors.New("no token defined")

func missingCreds() *credsMock {
	return &credsMock{TokenFunc: func(context.Context) (*oauth2.Token, error) {
		return nil, errNoToken
	}}
}

type countingLimiter struct {
	n atomic.Int32
}

func (l *countingLimiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.n.Add(1)
	return nil
}

func (l *countingLimiter) Count() int { return int(l.n.Load()) }

func testPolicy(maxAttempts int) retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = maxAttempts
	p.JitterFraction = 0
	return p
}

type harness struct {
	clock   *clock.Fake
	limiter *countingLimiter
	ex      *gservice.Executor
}

func newHarness(creds gservice.Credentials, policy retry.Policy, opts ...gservice.ExecutorOption) *harness {
	h := &harness{
		clock:   clock.NewFake(epoch),
		limiter: &countingLimiter{},
	}
	opts = append([]gservice.ExecutorOption{
		gservice.WithClock(h.clock),
		gservice.WithLogger(logging.Discard()),
	}, opts...)
	h.ex = gservice.NewExecutor(creds, h.limiter, policy, opts...)
	return h
}

// scripted returns a Do func that replays results in order and counts calls.
type scripted[T any] struct {
	mu      sync.Mutex
	results []func() (T, error)
	calls   int
}

func (s *scripted[T]) Do(context.Context) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.calls
	s.calls++
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.results[i]()
}

func (s *scripted[T]) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
