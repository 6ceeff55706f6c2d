// Package auth tracks the signed-in shopper. Every operation tries the
// storefront API first and falls back to the local user list.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"egadget-storefront/internal/models"
	"egadget-storefront/internal/resilience"
	"egadget-storefront/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
)

const passwordResetDelay = 1500 * time.Millisecond

// Remote is the slice of the auth API the session needs.
type Remote interface {
	Login(ctx context.Context, email, password string) (models.User, error)
	Register(ctx context.Context, name, email, password string) (models.User, error)
	Check(ctx context.Context) (*models.User, bool)
	Logout(ctx context.Context) error
}

type Profile struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

type Session struct {
	mu         sync.Mutex
	store      storage.Store
	remote     Remote
	policy     *resilience.DualPath
	users      *UserStore
	user       *models.User
	delayScale float64
}

type Option func(*Session)

// WithBcryptCost sets the hash cost used for the local user list.
func WithBcryptCost(cost int) Option {
	return func(s *Session) { s.users = NewUserStore(s.store, cost) }
}

// WithDelayScale scales simulated latencies; 0 removes them.
func WithDelayScale(f float64) Option {
	return func(s *Session) { s.delayScale = f }
}

func NewSession(store storage.Store, remote Remote, policy *resilience.DualPath, opts ...Option) *Session {
	s := &Session{
		store:      store,
		remote:     remote,
		policy:     policy,
		delayScale: 1,
	}
	s.users = NewUserStore(store, 0)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// Restore seeds the local user list and resumes a previous session: from
// the API when the stored token is still valid, otherwise from the stored
// user snapshot.
func (s *Session) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.users.Seed(ctx); err != nil {
		return fmt.Errorf("seed local users: %w", err)
	}

	if u, ok := s.remote.Check(ctx); ok {
		s.user = u
		slog.Info("Session restored from API", "user_id", u.ID)
		return nil
	}

	var stored models.User
	err := storage.GetJSON(ctx, s.store, storage.KeyUser, &stored)
	switch {
	case err == nil:
		s.user = &stored
		slog.Info("Session restored from local snapshot", "user_id", stored.ID)
	case errors.Is(err, storage.ErrNotFound):
	default:
		slog.Warn("Discarding unreadable user snapshot", "error", err)
		if err := s.store.Delete(ctx, storage.KeyUser); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return models.Invalid("email and password are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var user models.User
	err := s.policy.Run(ctx, "auth.login",
		func(ctx context.Context) error {
			u, err := s.remote.Login(ctx, email, password)
			if err != nil {
				return err
			}
			user = u
			return nil
		},
		func() error {
			u, err := s.users.Authenticate(ctx, email, password)
			if err != nil {
				return err
			}
			user = u
			return nil
		},
	)
	if err != nil {
		slog.Error("Login failed", "email", email, "error", err)
		if errors.Is(err, context.Canceled) {
			return err
		}
		return ErrInvalidCredentials
	}

	return s.signIn(ctx, user)
}

func (s *Session) Register(ctx context.Context, name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return models.Invalid("all fields are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var user models.User
	err := s.policy.Run(ctx, "auth.register",
		func(ctx context.Context) error {
			u, err := s.remote.Register(ctx, name, email, password)
			if err != nil {
				return err
			}
			user = u
			return nil
		},
		func() error {
			u, err := s.users.Register(ctx, name, email, password)
			if err != nil {
				return err
			}
			user = u
			return nil
		},
	)
	if err != nil {
		slog.Error("Registration failed", "email", email, "error", err)
		return err
	}

	return s.signIn(ctx, user)
}

// Logout always ends the local session, even when the API cannot be told.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.remote.Logout(ctx); err != nil {
		slog.Warn("API logout failed", "error", err)
	}

	s.user = nil
	return s.store.Delete(ctx, storage.KeyUser)
}

// UpdateProfile changes the signed-in user locally; nothing is sent to the
// API. It is a no-op when nobody is signed in.
func (s *Session) UpdateProfile(ctx context.Context, p Profile) error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Email) == "" {
		return models.Invalid("name and email are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}

	updated := *s.user
	updated.Name = p.Name
	updated.Email = p.Email
	updated.Phone = p.Phone
	updated.Address = p.Address

	if err := storage.SetJSON(ctx, s.store, storage.KeyUser, updated); err != nil {
		return err
	}
	s.user = &updated

	return s.users.UpdateProfile(ctx, updated.ID, p)
}

// RequestPasswordReset pretends to send a reset link.
func (s *Session) RequestPasswordReset(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return models.Invalid("email is required")
	}
	if err := resilience.Pause(ctx, resilience.Scale(passwordResetDelay, s.delayScale)); err != nil {
		return err
	}
	slog.Info("Password reset link sent", "email", email)
	return nil
}

func (s *Session) signIn(ctx context.Context, user models.User) error {
	if err := storage.SetJSON(ctx, s.store, storage.KeyUser, user); err != nil {
		return fmt.Errorf("persist user: %w", err)
	}
	s.user = &user
	slog.Info("User signed in", "user_id", user.ID)
	return nil
}
