package resilience

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"egadget-storefront/internal/telemetry"
)

type FallbackMode string

const (
	// FallbackAny runs the local path whenever the remote call fails.
	FallbackAny FallbackMode = "any"
	// FallbackUnavailable runs the local path only when the backend could not
	// serve the call; rejections such as 4xx responses reach the caller.
	FallbackUnavailable FallbackMode = "unavailable"
)

// DualPath tries an operation against the remote API first and falls back to
// an equivalent local implementation when it fails.
type DualPath struct {
	mode    FallbackMode
	breaker *CircuitBreaker
}

// NewDualPath builds the policy. breaker may be nil.
func NewDualPath(mode FallbackMode, breaker *CircuitBreaker) *DualPath {
	if mode == "" {
		mode = FallbackAny
	}
	return &DualPath{mode: mode, breaker: breaker}
}

func (p *DualPath) Mode() FallbackMode {
	return p.mode
}

// Run executes remote and, depending on the mode and the failure, local.
// Only unavailability counts against the circuit breaker.
func (p *DualPath) Run(ctx context.Context, op string, remote func(context.Context) error, local func() error) error {
	var rejected error
	call := func() error {
		err := remote(ctx)
		if err != nil && !IsUnavailable(err) {
			rejected = err
			return nil
		}
		return err
	}

	var err error
	if p.breaker != nil {
		err = p.breaker.Execute(call)
	} else {
		err = call()
	}
	if err == nil {
		err = rejected
	}
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}
	if p.mode == FallbackUnavailable && !IsUnavailable(err) {
		return err
	}

	slog.Warn("Remote call failed, using local path", "op", op, "error", err)
	telemetry.FallbackTotal.WithLabelValues(op).Inc()
	return local()
}

// IsUnavailable reports whether err means the backend could not serve the
// call at all: transport failures, timeouts, an open breaker, or an error
// that declares itself unavailable (for example a 5xx response).
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var u interface{ Unavailable() bool }
	if errors.As(err, &u) {
		return u.Unavailable()
	}

	var ne net.Error
	return errors.As(err, &ne)
}
