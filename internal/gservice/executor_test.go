package gservice_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/hal9000y/gmail-reader/internal/gservice"
	"github.com/hal9000y/gmail-reader/internal/validate"
)

func status(code int) func() (string, error) {
	return func() (string, error) {
		if code == http.StatusOK {
			return "payload", nil
		}
		return "", fmt.Errorf("messages.List failed: %w", &googleapi.Error{Code: code, Message: http.StatusText(code)})
	}
}

func descriptor(s *scripted[string]) gservice.Descriptor[string] {
	return gservice.Descriptor[string]{
		Method: gservice.MethodMessagesList,
		Fields: gservice.FieldsMessageList,
		Do: func(ctx context.Context, fields googleapi.Field) (string, error) {
			if fields != gservice.FieldsMessageList {
				return "", errors.New("field mask not attached")
			}
			return s.Do(ctx)
		},
	}
}

func TestExecuteRetriesThenSucceeds(t *testing.T) {
	h := newHarness(staticCreds(), testPolicy(3))
	s := &scripted[string]{results: []func() (string, error){
		status(http.StatusTooManyRequests),
		status(http.StatusTooManyRequests),
		status(http.StatusOK),
	}}

	got, err := gservice.Execute(context.Background(), h.ex, descriptor(s))
	require.NoError(t, err)
	assert.Equal(t, "payload", got)

	assert.Equal(t, 3, s.Calls())
	assert.Equal(t, 3, h.limiter.Count())
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, h.clock.Sleeps())
	assert.Equal(t, 3*time.Second, h.clock.Elapsed(epoch))
}

func TestExecuteBackoffDelaysWithinBounds(t *testing.T) {
	p := testPolicy(5)
	p.JitterFraction = 0.2
	h := newHarness(staticCreds(), p)

	s := &scripted[string]{results: []func() (string, error){
		status(http.StatusServiceUnavailable),
		status(http.StatusBadGateway),
		status(http.StatusInternalServerError),
		status(http.StatusOK),
	}}

	_, err := gservice.Execute(context.Background(), h.ex, descriptor(s))
	require.NoError(t, err)

	sleeps := h.clock.Sleeps()
	require.Len(t, sleeps, 3)
	for i, d := range sleeps {
		floor := p.BaseDelay << i
		assert.GreaterOrEqual(t, d, floor, "retry %d", i+1)
		assert.LessOrEqual(t, d, p.MaxDelay, "retry %d", i+1)
	}
}

func TestExecuteExhausted(t *testing.T) {
	cases := []struct {
		name string
		code int
		kind gservice.Kind
	}{
		{name: "throttled", code: http.StatusTooManyRequests, kind: gservice.KindRateLimitExhausted},
		{name: "unavailable", code: http.StatusServiceUnavailable, kind: gservice.KindTransient},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(staticCreds(), testPolicy(4))
			s := &scripted[string]{results: []func() (string, error){status(tc.code)}}

			_, err := gservice.Execute(context.Background(), h.ex, descriptor(s))

			var gerr *gservice.Error
			require.ErrorAs(t, err, &gerr)
			assert.Equal(t, tc.kind, gerr.Kind)
			assert.Equal(t, 4, gerr.Attempts)
			assert.Equal(t, tc.code, gerr.StatusCode)
			assert.True(t, gservice.IsRetryExhausted(err))

			assert.Equal(t, 4, s.Calls())
			assert.Equal(t, 4, h.limiter.Count())
			assert.Len(t, h.clock.Sleeps(), 3)
		})
	}
}

func TestExecuteFatalNotRetried(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound} {
		t.Run(http.StatusText(code), func(t *testing.T) {
			h := newHarness(staticCreds(), testPolicy(4))
			s := &scripted[string]{results: []func() (string, error){status(code)}}

			_, err := gservice.Execute(context.Background(), h.ex, descriptor(s))

			assert.Equal(t, gservice.KindFatal, gservice.KindOf(err))
			assert.True(t, gservice.IsFatal(err))
			assert.Equal(t, 1, s.Calls())
			assert.Empty(t, h.clock.Sleeps())

			var apiErr *googleapi.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, code, apiErr.Code)
		})
	}
}

func TestExecuteUnauthorizedIsAuthentication(t *testing.T) {
	h := newHarness(staticCreds(), testPolicy(4))
	s := &scripted[string]{results: []func() (string, error){status(http.StatusUnauthorized)}}

	_, err := gservice.Execute(context.Background(), h.ex, descriptor(s))
	assert.True(t, gservice.IsAuthentication(err))
	assert.Equal(t, 1, s.Calls())
}

func TestExecuteCredentialFailure(t *testing.T) {
	h := newHarness(missingCreds(), testPolicy(4))
	s := &scripted[string]{results: []func() (string, error){status(http.StatusOK)}}

	_, err := gservice.Execute(context.Background(), h.ex, descriptor(s))

	var gerr *gservice.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, gservice.KindAuthentication, gerr.Kind)
	assert.Zero(t, gerr.Attempts)
	assert.ErrorIs(t, err, errNoToken)
	assert.Zero(t, s.Calls())
	assert.Zero(t, h.limiter.Count())
}

func TestExecuteTransportFailureRetried(t *testing.T) {
	h := newHarness(staticCreds(), testPolicy(3))
	s := &scripted[string]{results: []func() (string, error){
		func() (string, error) { return "", fmt.Errorf("messages.Get failed: %w", io.ErrUnexpectedEOF) },
		status(http.StatusOK),
	}}

	got, err := gservice.Execute(context.Background(), h.ex, descriptor(s))
	require.NoError(t, err)
	assert.Equal(t, "payload", got)
	assert.Equal(t, 2, s.Calls())
}

func TestExecuteAttemptTimeoutIsRetryable(t *testing.T) {
	h := newHarness(staticCreds(), testPolicy(2), gservice.WithAttemptTimeout(10*time.Millisecond))

	calls := 0
	d := gservice.Descriptor[string]{
		Method: gservice.MethodMessagesGet,
		Do: func(ctx context.Context, _ googleapi.Field) (string, error) {
			calls++
			<-ctx.Done()
			return "", ctx.Err()
		},
	}

	_, err := gservice.Execute(context.Background(), h.ex, d)

	var gerr *gservice.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, gservice.KindTransient, gerr.Kind)
	assert.Equal(t, 2, calls)
}

func TestExecuteRetryAfterHeader(t *testing.T) {
	h := newHarness(staticCreds(), testPolicy(2))
	s := &scripted[string]{results: []func() (string, error){
		func() (string, error) {
			return "", &googleapi.Error{Code: http.StatusTooManyRequests, Header: http.Header{"Retry-After": []string{"7"}}}
		},
		status(http.StatusOK),
	}}

	_, err := gservice.Execute(context.Background(), h.ex, descriptor(s))
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{7 * time.Second}, h.clock.Sleeps())
}

func TestExecuteCanceled(t *testing.T) {
	h := newHarness(staticCreds(), testPolicy(3))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &scripted[string]{results: []func() (string, error){status(http.StatusOK)}}
	_, err := gservice.Execute(ctx, h.ex, descriptor(s))

	assert.Equal(t, gservice.KindCanceled, gservice.KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, s.Calls())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, gservice.KindUnknown, gservice.KindOf(nil))
	assert.Equal(t, gservice.KindUnknown, gservice.KindOf(errors.New("boom")))
	assert.Equal(t, gservice.KindValidation, gservice.KindOf(validate.ResourceID("", "message ID")))
	assert.True(t, gservice.IsValidation(fmt.Errorf("wrapped: %w", validate.QueryLength("abc", 1))))
	assert.Equal(t, gservice.KindCanceled, gservice.KindOf(context.DeadlineExceeded))
}

func TestErrorMessage(t *testing.T) {
	err := &gservice.Error{
		Kind:       gservice.KindRateLimitExhausted,
		Method:     gservice.MethodMessagesList,
		StatusCode: http.StatusTooManyRequests,
		Attempts:   4,
		Err:        errors.New("quota"),
	}
	assert.Equal(t, "messages.list rate limit exhausted (status 429) after 4 attempts: quota", err.Error())
}
