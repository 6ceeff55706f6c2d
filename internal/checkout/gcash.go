package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"egadget-storefront/internal/models"
	"egadget-storefront/internal/resilience"
)

type Step int

const (
	StepPhone Step = iota + 1
	StepOTP
	StepSuccess
)

func (s Step) String() string {
	switch s {
	case StepPhone:
		return "phone"
	case StepOTP:
		return "otp"
	case StepSuccess:
		return "success"
	default:
		return "unknown"
	}
}

const (
	gcashStepDelay       = 1500 * time.Millisecond
	gcashCompletionDelay = 2 * time.Second
	otpResendInterval    = 60 * time.Second
)

var (
	ErrWrongStep     = errors.New("gcash: action not allowed at this step")
	ErrResendTooSoon = errors.New("gcash: OTP was sent recently")
	ErrStepInFlight  = errors.New("gcash: previous step still processing")
)

// GCashFlow simulates the GCash wallet confirmation. No money moves and no
// OTP is checked; only the input lengths are.
type GCashFlow struct {
	mu         sync.Mutex
	step       Step
	phone      string
	resendAt   time.Time
	completed  bool
	busy       bool
	gen        int
	onComplete func()
	delayScale float64
	now        func() time.Time
}

// NewGCashFlow starts at phone entry. onComplete may be nil.
func NewGCashFlow(onComplete func(), delayScale float64) *GCashFlow {
	return &GCashFlow{
		step:       StepPhone,
		onComplete: onComplete,
		delayScale: delayScale,
		now:        time.Now,
	}
}

func (g *GCashFlow) Step() Step {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.step
}

func (g *GCashFlow) Phone() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phone
}

// Completed reports whether the payment reached success and the completion
// delay has elapsed.
func (g *GCashFlow) Completed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.completed
}

func (g *GCashFlow) SubmitPhone(ctx context.Context, phone string) error {
	if strings.TrimSpace(phone) == "" || len(phone) < 10 {
		return models.Invalid("please enter a valid GCash phone number", "phone")
	}
	gen, err := g.begin(StepPhone)
	if err != nil {
		return err
	}
	defer g.finish()

	if err := resilience.Pause(ctx, resilience.Scale(gcashStepDelay, g.delayScale)); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		return ErrWrongStep
	}
	g.phone = phone
	g.step = StepOTP
	g.resendAt = g.now().Add(otpResendInterval)
	return nil
}

// SubmitOTP accepts any code of six or more characters. It returns once the
// completion callback has run.
func (g *GCashFlow) SubmitOTP(ctx context.Context, otp string) error {
	if strings.TrimSpace(otp) == "" || len(otp) < 6 {
		return models.Invalid("please enter a valid 6-digit OTP", "otp")
	}
	gen, err := g.begin(StepOTP)
	if err != nil {
		return err
	}
	defer g.finish()

	if err := resilience.Pause(ctx, resilience.Scale(gcashStepDelay, g.delayScale)); err != nil {
		return err
	}
	if !g.advance(gen, StepSuccess) {
		return ErrWrongStep
	}

	if err := resilience.Pause(ctx, resilience.Scale(gcashCompletionDelay, g.delayScale)); err != nil {
		return err
	}
	g.mu.Lock()
	if g.gen != gen {
		g.mu.Unlock()
		return ErrWrongStep
	}
	g.completed = true
	cb := g.onComplete
	g.mu.Unlock()

	if cb != nil {
		cb()
	}
	return nil
}

// begin claims the flow for one step. Only one step runs at a time; the
// returned generation lets the step notice a Reset made while it waited.
func (g *GCashFlow) begin(want Step) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return 0, ErrStepInFlight
	}
	if g.step != want {
		return 0, ErrWrongStep
	}
	g.busy = true
	return g.gen, nil
}

func (g *GCashFlow) finish() {
	g.mu.Lock()
	g.busy = false
	g.mu.Unlock()
}

func (g *GCashFlow) advance(gen int, to Step) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		return false
	}
	g.step = to
	return true
}

// ResendIn is the time left before another OTP may be requested.
func (g *GCashFlow) ResendIn() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.step != StepOTP {
		return 0
	}
	if left := g.resendAt.Sub(g.now()); left > 0 {
		return left
	}
	return 0
}

func (g *GCashFlow) ResendOTP() error {
	if g.Step() != StepOTP {
		return ErrWrongStep
	}
	if g.ResendIn() > 0 {
		return ErrResendTooSoon
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.resendAt = g.now().Add(otpResendInterval)
	return nil
}

// Reset goes back to phone entry, as when the dialog is reopened or the
// user changes the number.
func (g *GCashFlow) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.step = StepPhone
	g.phone = ""
	g.resendAt = time.Time{}
	g.completed = false
	g.gen++
}
