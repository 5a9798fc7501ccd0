package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"
)

// ErrBreakerOpen is returned while the breaker rejects calls.
var ErrBreakerOpen = gobreaker.ErrOpenState

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "storefront_upstream_breaker_state",
		Help: "State of the upstream circuit breaker (0=closed, 1=half-open, 2=open).",
	},
	[]string{"upstream"},
)

// BreakerOptions configures a Breaker.
type BreakerOptions struct {
	Name string

	// Probes is how many calls may pass while half-open.
	Probes uint32
	// Window clears the closed-state counts.
	Window time.Duration
	// Cooldown is how long the breaker stays open.
	Cooldown time.Duration

	// The breaker trips once at least TripAfter calls were made in the
	// window and the failing share reaches TripRatio.
	TripAfter uint32
	TripRatio float64
}

// BreakerDefaults returns the options used for the marketplace API.
func BreakerDefaults(name string) BreakerOptions {
	return BreakerOptions{
		Name:      name,
		Probes:    1,
		Window:    time.Minute,
		Cooldown:  30 * time.Second,
		TripAfter: 10,
		TripRatio: 0.5,
	}
}

// upstreamFailure carries a 5xx answer through the breaker so it counts as
// a failure while the caller still gets the response.
type upstreamFailure struct {
	resp *http.Response
}

func (e *upstreamFailure) Error() string {
	return fmt.Sprintf("upstream answered %d", e.resp.StatusCode)
}

// Breaker guards a Doer with a circuit breaker. Transport errors and 5xx
// answers count as failures; 4xx answers and canceled calls do not.
type Breaker struct {
	next   Doer
	cb     *gobreaker.CircuitBreaker[*http.Response]
	name   string
	logger *slog.Logger
}

// NewBreaker wraps next.
func NewBreaker(next Doer, opts BreakerOptions, logger *slog.Logger) *Breaker {
	gauge := breakerState.WithLabelValues(opts.Name)
	gauge.Set(stateValue(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        opts.Name,
		MaxRequests: opts.Probes,
		Interval:    opts.Window,
		Timeout:     opts.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= opts.TripAfter &&
				float64(c.TotalFailures) >= opts.TripRatio*float64(c.Requests)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("upstream breaker changed state",
				slog.String("upstream", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			gauge.Set(stateValue(to))
		},
	})

	return &Breaker{next: next, cb: cb, name: opts.Name, logger: logger}
}

// Do sends req through the breaker. A 5xx answer is returned with a nil
// error so the caller can read its body.
func (b *Breaker) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := b.cb.Execute(func() (*http.Response, error) {
		resp, err := b.next.Do(ctx, req)
		if err == nil && resp.StatusCode >= http.StatusInternalServerError {
			return nil, &upstreamFailure{resp: resp}
		}
		return resp, err
	})

	var failure *upstreamFailure
	switch {
	case errors.As(err, &failure):
		return failure.resp, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		b.logger.WarnContext(ctx, "upstream breaker rejected call",
			slog.String("upstream", b.name),
			slog.String("path", req.URL.Path),
		)
		return nil, err
	case err != nil:
		return nil, err
	}
	return resp, nil
}

// State reports the breaker state.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
