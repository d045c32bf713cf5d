// Package guard wraps provider HTTP transports with rate limiting and
// circuit breaking so upstream outages fail fast instead of piling up.
package guard

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/leaklens/leaklens/internal/net/ratelimit"
)

// Error wraps a transport failure with the provider and failure class.
type Error struct {
	Provider   string
	Type       string // "rate_limit", "circuit", "transport", "http_error"
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s %s error (HTTP %d): %v", e.Provider, e.Type, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("provider %s %s error: %v", e.Provider, e.Type, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsCircuitOpen reports whether err is a fast-failed request on an open
// breaker.
func IsCircuitOpen(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Type == "circuit"
}

// Config tunes one provider's guard.
type Config struct {
	Provider         string
	RPS              float64
	Burst            int
	FailureThreshold uint32        // consecutive failures that open the breaker
	OpenTimeout      time.Duration // how long the breaker stays open
}

// Transport is an http.RoundTripper applying the guard stack: rate
// limiter first, then the breaker around the actual round trip.
type Transport struct {
	provider string
	limiter  *ratelimit.Limiter
	breaker  *gobreaker.CircuitBreaker
	next     http.RoundTripper
}

// NewTransport builds a guarded transport. next defaults to
// http.DefaultTransport.
func NewTransport(cfg Config, next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	failures := cfg.FailureThreshold
	if failures == 0 {
		failures = 5
	}
	openTimeout := cfg.OpenTimeout
	if openTimeout == 0 {
		openTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    cfg.Provider,
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("provider", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}

	return &Transport{
		provider: cfg.Provider,
		limiter:  ratelimit.NewLimiter(cfg.RPS, cfg.Burst),
		breaker:  gobreaker.NewCircuitBreaker(settings),
		next:     next,
	}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context(), req.URL.Host); err != nil {
		return nil, &Error{Provider: t.provider, Type: "rate_limit", Err: err}
	}

	result, err := t.breaker.Execute(func() (any, error) {
		resp, err := t.next.RoundTrip(req)
		if err != nil {
			return nil, &Error{Provider: t.provider, Type: "transport", Err: err}
		}
		// 5xx and 429 count against the breaker; other 4xx are the
		// caller's problem and must not open it.
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, &Error{
				Provider:   t.provider,
				Type:       "http_error",
				StatusCode: resp.StatusCode,
				Err:        fmt.Errorf("upstream returned %s", resp.Status),
			}
		}
		return resp, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &Error{Provider: t.provider, Type: "circuit", Err: err}
		}
		return nil, err
	}
	return result.(*http.Response), nil
}

// Healthy reports the breaker state for health endpoints: nil while
// requests flow, an error once the breaker has opened.
func (t *Transport) Healthy() error {
	if t.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("%s circuit open", t.provider)
	}
	return nil
}
