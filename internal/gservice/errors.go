package gservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"syscall"
	"time"

	"google.golang.org/api/googleapi"

	"github.com/hal9000y/gmail-reader/internal/retry"
	"github.com/hal9000y/gmail-reader/internal/validate"
)

// Kind classifies every error the executor returns.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is a local input check failure; never retried.
	KindValidation
	// KindAuthentication means no valid credential could be obtained or the
	// service rejected it. Callers should prompt for re-authentication.
	KindAuthentication
	// KindRateLimitExhausted means every attempt was throttled.
	KindRateLimitExhausted
	// KindTransient means retries against 5xx or transport failures ran out.
	KindTransient
	// KindFatal is a non-retryable service response such as 404 or 403.
	KindFatal
	// KindCanceled means the caller's context ended the call.
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindRateLimitExhausted:
		return "rate limit exhausted"
	case KindTransient:
		return "transient service failure"
	case KindFatal:
		return "service error"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error is a classified failure of one executed request.
type Error struct {
	Kind       Kind
	Method     string
	StatusCode int
	// Attempts is the number of network attempts made, zero when the call
	// never reached the network.
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %s", e.Method, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Kind == KindRateLimitExhausted || e.Kind == KindTransient {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the classification of err. Validation errors are recognized
// even when they were never wrapped by the executor.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Kind
	}

	var verr *validate.Error
	if errors.As(err, &verr) {
		return KindValidation
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}

	return KindUnknown
}

func IsAuthentication(err error) bool { return KindOf(err) == KindAuthentication }

func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsRetryExhausted reports whether err is one of the two exhausted variants.
func IsRetryExhausted(err error) bool {
	k := KindOf(err)
	return k == KindRateLimitExhausted || k == KindTransient
}

// IsFatal reports a non-retryable service response.
func IsFatal(err error) bool { return KindOf(err) == KindFatal }

// outcomeOf converts the result of one attempt into a retry outcome.
// attemptTimedOut is true when the per-attempt deadline fired while the
// caller's context was still live.
func outcomeOf(err error, attemptTimedOut bool) retry.Outcome {
	if err == nil {
		return retry.Outcome{StatusCode: http.StatusOK}
	}

	o := retry.Outcome{Err: err}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		o.StatusCode = gerr.Code
		o.RetryAfter = retryAfter(gerr.Header)
		return o
	}

	if attemptTimedOut || isTransportError(err) {
		o.Transport = true
	}

	return o
}

func isTransportError(err error) bool {
	if errors.Is(err, errNoCredential) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr) && !errors.Is(err, context.Canceled)
}

// retryAfter reads a Retry-After header expressed in seconds or as an HTTP date.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}

	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}

	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}

	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}

	return 0
}

// classify builds the final error for a failed call.
func classify(method string, attempts int, o retry.Outcome, d retry.Decision) *Error {
	e := &Error{
		Method:     method,
		StatusCode: o.StatusCode,
		Attempts:   attempts,
		Err:        o.Err,
	}

	switch {
	case d.Reason == retry.ReasonExhausted && o.StatusCode == http.StatusTooManyRequests:
		e.Kind = KindRateLimitExhausted
	case d.Reason == retry.ReasonExhausted:
		e.Kind = KindTransient
	case o.StatusCode == http.StatusUnauthorized:
		e.Kind = KindAuthentication
	default:
		e.Kind = KindFatal
	}

	return e
}
