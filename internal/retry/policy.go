// Package retry decides, attempt by attempt, whether a Gmail API call should
// succeed, be retried after a delay, or fail.
package retry

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"time"
)

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("invalid retry policy")

// Action is the kind of a Decision.
type Action int

const (
	Succeed Action = iota
	RetryAfter
	Fail
)

func (a Action) String() string {
	switch a {
	case Succeed:
		return "succeed"
	case RetryAfter:
		return "retry"
	case Fail:
		return "fail"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Reason explains a Fail decision.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonNotRetryable Reason = "not retryable"
	ReasonExhausted    Reason = "retries exhausted"
)

// Decision is the result of classifying one attempt.
type Decision struct {
	Action Action
	Delay  time.Duration
	Reason Reason
}

// Outcome describes what one network attempt produced.
type Outcome struct {
	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int
	// Transport marks timeouts, connection resets and similar failures
	// where no usable response arrived.
	Transport bool
	// RetryAfter is the server supplied Retry-After hint, if any.
	RetryAfter time.Duration
	Err        error
}

// Success reports whether the attempt produced a usable response.
func (o Outcome) Success() bool {
	if o.Err != nil || o.Transport {
		return false
	}
	return o.StatusCode == 0 || (o.StatusCode >= 200 && o.StatusCode < 300)
}

// DefaultRetryableStatus is the set of HTTP statuses treated as transient.
var DefaultRetryableStatus = []int{
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Policy is immutable once handed to an executor.
type Policy struct {
	// MaxAttempts counts network attempts, including the first one.
	MaxAttempts     int
	BaseDelay       time.Duration
	Multiplier      float64
	MaxDelay        time.Duration
	JitterFraction  float64
	RetryableStatus []int

	// Rand returns a value in [0, 1); nil uses math/rand/v2.
	Rand func() float64
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:     4,
		BaseDelay:       time.Second,
		Multiplier:      2,
		MaxDelay:        32 * time.Second,
		JitterFraction:  0.1,
		RetryableStatus: DefaultRetryableStatus,
	}
}

// Validate checks the policy for values that would loop forever or never wait.
func (p Policy) Validate() error {
	switch {
	case p.MaxAttempts < 1:
		return fmt.Errorf("%w: max attempts %d", ErrInvalidPolicy, p.MaxAttempts)
	case p.BaseDelay < 0:
		return fmt.Errorf("%w: base delay %s", ErrInvalidPolicy, p.BaseDelay)
	case p.Multiplier < 1:
		return fmt.Errorf("%w: multiplier %v", ErrInvalidPolicy, p.Multiplier)
	case p.MaxDelay < p.BaseDelay:
		return fmt.Errorf("%w: max delay %s below base delay %s", ErrInvalidPolicy, p.MaxDelay, p.BaseDelay)
	case p.JitterFraction < 0 || p.JitterFraction > 1:
		return fmt.Errorf("%w: jitter fraction %v", ErrInvalidPolicy, p.JitterFraction)
	}
	return nil
}

// Retryable reports whether the outcome may be retried at all.
func (p Policy) Retryable(o Outcome) bool {
	if o.Transport {
		return true
	}
	for _, code := range p.RetryableStatus {
		if code == o.StatusCode {
			return true
		}
	}
	return false
}

// Decide classifies the outcome of the given attempt (1-based).
func (p Policy) Decide(attempt int, o Outcome) Decision {
	if o.Success() {
		return Decision{Action: Succeed}
	}
	if !p.Retryable(o) {
		return Decision{Action: Fail, Reason: ReasonNotRetryable}
	}
	if attempt >= p.MaxAttempts {
		return Decision{Action: Fail, Reason: ReasonExhausted}
	}

	delay := p.Backoff(attempt)
	if o.RetryAfter > delay {
		delay = min(o.RetryAfter, p.MaxDelay)
	}

	return Decision{Action: RetryAfter, Delay: delay}
}

// Backoff returns the delay before retry k (1-based): the exponential base
// capped at MaxDelay, plus up to JitterFraction of it, never above MaxDelay.
func (p Policy) Backoff(k int) time.Duration {
	if k < 1 {
		k = 1
	}

	raw := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(k-1))
	d := time.Duration(math.Min(raw, float64(p.MaxDelay)))

	if p.JitterFraction > 0 && d > 0 {
		r := p.Rand
		if r == nil {
			r = rand.Float64
		}
		d += time.Duration(r() * p.JitterFraction * float64(d))
	}

	return min(d, p.MaxDelay)
}
