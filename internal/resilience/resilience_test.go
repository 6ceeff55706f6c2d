package resilience

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"egadget-storefront/internal/telemetry"
)

type statusErr struct{ code int }

func (e statusErr) Error() string     { return "status" }
func (e statusErr) Unavailable() bool { return e.code >= 500 }

var errDown = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

func TestCircuitBreaker_OpensAndRecovers(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker(2, 10*time.Second)
	cb.now = func() time.Time { return now }

	fail := func() error { return errDown }
	ok := func() error { return nil }

	assert.ErrorIs(t, cb.Execute(fail), errDown)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(fail), errDown)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	now = now.Add(11 * time.Second)
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_FailedTrialReopens(t *testing.T) {
	now := time.Unix(0, 0)
	cb := NewCircuitBreaker(1, time.Second)
	cb.now = func() time.Time { return now }

	_ = cb.Execute(func() error { return errDown })
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(2 * time.Second)
	_ = cb.Execute(func() error { return errDown })
	assert.Equal(t, StateOpen, cb.State())
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := Retry(ctx, 3, 0, func() error {
		calls++
		if calls < 3 {
			return errDown
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = Retry(ctx, 3, 0, func() error {
		calls++
		return Permanent(statusErr{code: 400})
	})
	assert.Equal(t, 1, calls)
	assert.Equal(t, statusErr{code: 400}, err)

	err = Retry(ctx, 2, 0, func() error { return errDown })
	assert.ErrorIs(t, err, errDown)
	assert.Contains(t, err.Error(), "after 2 attempts")

	err = Retry(ctx, 1, 0, func() error { return errDown })
	assert.Equal(t, error(errDown), err)
}

func TestPause_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Pause(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, Pause(ctx, 0), context.Canceled)
	assert.NoError(t, Pause(context.Background(), 0))
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, IsUnavailable(errDown))
	assert.True(t, IsUnavailable(ErrCircuitOpen))
	assert.True(t, IsUnavailable(context.DeadlineExceeded))
	assert.True(t, IsUnavailable(statusErr{code: 503}))
	assert.False(t, IsUnavailable(statusErr{code: 409}))
	assert.False(t, IsUnavailable(errors.New("invalid credentials")))
	assert.False(t, IsUnavailable(nil))
}

func TestDualPath_RemoteSuccess(t *testing.T) {
	p := NewDualPath(FallbackAny, nil)

	localCalled := false
	err := p.Run(context.Background(), "test.ok",
		func(context.Context) error { return nil },
		func() error { localCalled = true; return nil })
	require.NoError(t, err)
	assert.False(t, localCalled)
}

func TestDualPath_AnyFallsBackOnRejection(t *testing.T) {
	p := NewDualPath(FallbackAny, nil)
	before := testutil.ToFloat64(telemetry.FallbackTotal.WithLabelValues("test.any"))

	localCalled := false
	err := p.Run(context.Background(), "test.any",
		func(context.Context) error { return statusErr{code: 409} },
		func() error { localCalled = true; return nil })
	require.NoError(t, err)
	assert.True(t, localCalled)
	assert.Equal(t, before+1, testutil.ToFloat64(telemetry.FallbackTotal.WithLabelValues("test.any")))
}

func TestDualPath_UnavailableMode(t *testing.T) {
	p := NewDualPath(FallbackUnavailable, nil)

	localCalled := false
	err := p.Run(context.Background(), "test.strict",
		func(context.Context) error { return statusErr{code: 409} },
		func() error { localCalled = true; return nil })
	assert.Equal(t, statusErr{code: 409}, err)
	assert.False(t, localCalled)

	err = p.Run(context.Background(), "test.strict",
		func(context.Context) error { return errDown },
		func() error { localCalled = true; return nil })
	require.NoError(t, err)
	assert.True(t, localCalled)
}

func TestDualPath_RejectionsDoNotTripBreaker(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute)
	p := NewDualPath(FallbackAny, cb)

	for i := 0; i < 3; i++ {
		_ = p.Run(context.Background(), "test.breaker",
			func(context.Context) error { return statusErr{code: 401} },
			func() error { return nil })
	}
	assert.Equal(t, StateClosed, cb.State())

	_ = p.Run(context.Background(), "test.breaker",
		func(context.Context) error { return errDown },
		func() error { return nil })
	assert.Equal(t, StateOpen, cb.State())

	remoteCalled := false
	localCalled := false
	err := p.Run(context.Background(), "test.breaker",
		func(context.Context) error { remoteCalled = true; return nil },
		func() error { localCalled = true; return nil })
	require.NoError(t, err)
	assert.False(t, remoteCalled)
	assert.True(t, localCalled)
}

func TestDualPath_LocalErrorSurfaces(t *testing.T) {
	p := NewDualPath("", nil)
	assert.Equal(t, FallbackAny, p.Mode())

	localErr := errors.New("no such user")
	err := p.Run(context.Background(), "test.local",
		func(context.Context) error { return errDown },
		func() error { return localErr })
	assert.ErrorIs(t, err, localErr)
}
