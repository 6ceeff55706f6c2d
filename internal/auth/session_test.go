package auth

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"egadget-storefront/internal/models"
	"egadget-storefront/internal/resilience"
	"egadget-storefront/internal/storage"
)

var errOffline = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

// fakeRemote stands in for the auth API.
type fakeRemote struct {
	loginUser    models.User
	loginErr     error
	registerErr  error
	checkUser    *models.User
	logoutErr    error
	loginCalls   int
	registerCall int
}

func (f *fakeRemote) Login(ctx context.Context, email, password string) (models.User, error) {
	f.loginCalls++
	return f.loginUser, f.loginErr
}

func (f *fakeRemote) Register(ctx context.Context, name, email, password string) (models.User, error) {
	f.registerCall++
	if f.registerErr != nil {
		return models.User{}, f.registerErr
	}
	return models.User{ID: "99", Name: name, Email: email}, nil
}

func (f *fakeRemote) Check(ctx context.Context) (*models.User, bool) {
	return f.checkUser, f.checkUser != nil
}

func (f *fakeRemote) Logout(ctx context.Context) error { return f.logoutErr }

type statusErr int

func (e statusErr) Error() string     { return "rejected" }
func (e statusErr) Unavailable() bool { return e >= 500 }

func newSession(t *testing.T, remote *fakeRemote, mode resilience.FallbackMode) (*Session, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	s := NewSession(store, remote, resilience.NewDualPath(mode, nil), WithBcryptCost(bcrypt.MinCost), WithDelayScale(0))
	require.NoError(t, s.Restore(context.Background()))
	return s, store
}

func TestLogin_RemoteSuccess(t *testing.T) {
	remote := &fakeRemote{loginUser: models.User{ID: "5", Name: "Remote", Email: "r@example.com"}}
	s, store := newSession(t, remote, resilience.FallbackAny)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "r@example.com", "pw"))
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "5", s.User().ID)

	var stored models.User
	require.NoError(t, storage.GetJSON(ctx, store, storage.KeyUser, &stored))
	assert.Equal(t, "Remote", stored.Name)
}

func TestLogin_LocalFallback(t *testing.T) {
	s, store := newSession(t, &fakeRemote{loginErr: errOffline}, resilience.FallbackAny)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "user@example.com", "password123"))
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "John Doe", s.User().Name)

	var stored models.User
	require.NoError(t, storage.GetJSON(ctx, store, storage.KeyUser, &stored))
	assert.Equal(t, "1", stored.ID)
}

func TestLogin_WrongPasswordLeavesStateUnchanged(t *testing.T) {
	s, store := newSession(t, &fakeRemote{loginErr: errOffline}, resilience.FallbackAny)
	ctx := context.Background()

	err := s.Login(ctx, "user@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, s.IsAuthenticated())
	assert.Nil(t, s.User())

	_, err = store.Get(ctx, storage.KeyUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLogin_Validation(t *testing.T) {
	remote := &fakeRemote{}
	s, _ := newSession(t, remote, resilience.FallbackAny)

	var verr *models.ValidationError
	assert.ErrorAs(t, s.Login(context.Background(), "", "pw"), &verr)
	assert.Zero(t, remote.loginCalls)
}

func TestLogin_RejectionModes(t *testing.T) {
	// The API knows nothing of the local demo user and answers 401.
	s, _ := newSession(t, &fakeRemote{loginErr: statusErr(401)}, resilience.FallbackAny)
	require.NoError(t, s.Login(context.Background(), "user@example.com", "password123"))

	s, _ = newSession(t, &fakeRemote{loginErr: statusErr(401)}, resilience.FallbackUnavailable)
	err := s.Login(context.Background(), "user@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, s.IsAuthenticated())
}

func TestRegister_LocalFallback(t *testing.T) {
	s, store := newSession(t, &fakeRemote{loginErr: errOffline, registerErr: errOffline}, resilience.FallbackAny)
	ctx := context.Background()

	require.NoError(t, s.Register(ctx, "Maria Clara", "maria@example.com", "secret1"))
	assert.Equal(t, "3", s.User().ID)

	var users []localUser
	require.NoError(t, storage.GetJSON(ctx, store, storage.KeyUsers, &users))
	require.Len(t, users, 3)
	assert.NotEqual(t, "secret1", users[2].PasswordHash)

	require.NoError(t, s.Logout(ctx))
	require.NoError(t, s.Login(ctx, "maria@example.com", "secret1"))
}

func TestRegister_DuplicateEmailDoesNotMutate(t *testing.T) {
	s, store := newSession(t, &fakeRemote{registerErr: errOffline}, resilience.FallbackAny)
	ctx := context.Background()

	before, err := store.Get(ctx, storage.KeyUsers)
	require.NoError(t, err)

	err = s.Register(ctx, "Copy", "user@example.com", "x")
	assert.ErrorIs(t, err, ErrEmailInUse)
	assert.False(t, s.IsAuthenticated())

	after, err := store.Get(ctx, storage.KeyUsers)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestLocalEmailMatchIgnoresCase(t *testing.T) {
	s, _ := newSession(t, &fakeRemote{loginErr: errOffline, registerErr: errOffline}, resilience.FallbackAny)
	ctx := context.Background()

	assert.ErrorIs(t, s.Register(ctx, "Shout", "USER@example.com", "x"), ErrEmailInUse)

	require.NoError(t, s.Login(ctx, "USER@Example.com", "password123"))
	assert.Equal(t, "John Doe", s.User().Name)
	require.NoError(t, s.Logout(ctx))

	require.NoError(t, s.Register(ctx, "Ana", "Ana@Example.com", "secret"))
	require.NoError(t, s.Logout(ctx))
	require.NoError(t, s.Login(ctx, "ana@example.com", "secret"))
	assert.Equal(t, "Ana", s.User().Name)
}

func TestRegister_Remote(t *testing.T) {
	remote := &fakeRemote{}
	s, _ := newSession(t, remote, resilience.FallbackAny)

	require.NoError(t, s.Register(context.Background(), "Ana", "ana@example.com", "pw"))
	assert.Equal(t, "99", s.User().ID)
	assert.Equal(t, 1, remote.registerCall)
}

func TestLogout_IgnoresRemoteFailure(t *testing.T) {
	remote := &fakeRemote{loginErr: errOffline, logoutErr: errOffline}
	s, store := newSession(t, remote, resilience.FallbackAny)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, "admin@example.com", "admin123"))
	require.NoError(t, s.Logout(ctx))
	assert.False(t, s.IsAuthenticated())

	_, err := store.Get(ctx, storage.KeyUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	s, store := newSession(t, &fakeRemote{loginErr: errOffline}, resilience.FallbackAny)
	ctx := context.Background()

	// nobody signed in: no-op
	require.NoError(t, s.UpdateProfile(ctx, Profile{Name: "X", Email: "x@example.com"}))
	assert.Nil(t, s.User())

	require.NoError(t, s.Login(ctx, "user@example.com", "password123"))
	require.NoError(t, s.UpdateProfile(ctx, Profile{Name: "Johnny", Email: "user@example.com", Phone: "0917"}))
	assert.Equal(t, "Johnny", s.User().Name)
	assert.Equal(t, "", s.User().Address)

	var users []localUser
	require.NoError(t, storage.GetJSON(ctx, store, storage.KeyUsers, &users))
	assert.Equal(t, "Johnny", users[0].Name)
	assert.Equal(t, "0917", users[0].Phone)

	var stored models.User
	require.NoError(t, storage.GetJSON(ctx, store, storage.KeyUser, &stored))
	assert.Equal(t, "Johnny", stored.Name)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("from api", func(t *testing.T) {
		s, _ := newSession(t, &fakeRemote{checkUser: &models.User{ID: "8", Name: "Remote"}}, resilience.FallbackAny)
		assert.Equal(t, "8", s.User().ID)
	})

	t.Run("from snapshot", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, storage.SetJSON(ctx, store, storage.KeyUser, models.User{ID: "2", Name: "Admin User"}))

		s := NewSession(store, &fakeRemote{}, resilience.NewDualPath(resilience.FallbackAny, nil), WithBcryptCost(bcrypt.MinCost))
		require.NoError(t, s.Restore(ctx))
		assert.True(t, s.IsAuthenticated())
		assert.Equal(t, "Admin User", s.User().Name)
	})

	t.Run("corrupt snapshot", func(t *testing.T) {
		store := storage.NewMemoryStore()
		require.NoError(t, store.Set(ctx, storage.KeyUser, []byte("{")))

		s := NewSession(store, &fakeRemote{}, resilience.NewDualPath(resilience.FallbackAny, nil), WithBcryptCost(bcrypt.MinCost))
		require.NoError(t, s.Restore(ctx))
		assert.False(t, s.IsAuthenticated())
		_, err := store.Get(ctx, storage.KeyUser)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestRequestPasswordReset(t *testing.T) {
	s, _ := newSession(t, &fakeRemote{}, resilience.FallbackAny)

	var verr *models.ValidationError
	assert.ErrorAs(t, s.RequestPasswordReset(context.Background(), " "), &verr)
	assert.NoError(t, s.RequestPasswordReset(context.Background(), "user@example.com"))

	slow := NewSession(storage.NewMemoryStore(), &fakeRemote{}, resilience.NewDualPath(resilience.FallbackAny, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, slow.RequestPasswordReset(ctx, "user@example.com"), context.DeadlineExceeded)
}
