package cart

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"egadget-storefront/internal/models"
	"egadget-storefront/internal/resilience"
	"egadget-storefront/internal/storage"
)

var errOffline = &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

type fakeAuth bool

func (f fakeAuth) IsAuthenticated() bool { return bool(f) }

// fakeRemote records calls and answers with a canned cart or error.
type fakeRemote struct {
	cart  models.Cart
	err   error
	calls []string
	ids   []string
}

func (f *fakeRemote) record(call, id string) (models.Cart, error) {
	f.calls = append(f.calls, call)
	f.ids = append(f.ids, id)
	return f.cart, f.err
}

func (f *fakeRemote) Get(ctx context.Context) (models.Cart, error) { return f.record("get", "") }
func (f *fakeRemote) Add(ctx context.Context, productID string, q int) (models.Cart, error) {
	return f.record("add", productID)
}
func (f *fakeRemote) Update(ctx context.Context, itemID string, q int) (models.Cart, error) {
	return f.record("update", itemID)
}
func (f *fakeRemote) Remove(ctx context.Context, itemID string) (models.Cart, error) {
	return f.record("remove", itemID)
}
func (f *fakeRemote) Clear(ctx context.Context) (models.Cart, error) { return f.record("clear", "") }

var (
	laptop = models.Product{ID: "1", Name: "TechPro UltraBook X5", Price: 65999, Stock: 15}
	earbud = models.Product{ID: "2", Name: "SoundWave Buds", Price: 2499, Stock: 3}
)

func newProvider(authed bool, remote *fakeRemote) (*Provider, storage.Store) {
	store := storage.NewMemoryStore()
	return NewProvider(fakeAuth(authed), remote, resilience.NewDualPath(resilience.FallbackAny, nil), store), store
}

func TestAdd_GuestUsesLocalPathOnly(t *testing.T) {
	remote := &fakeRemote{}
	p, store := newProvider(false, remote)
	ctx := context.Background()

	require.NoError(t, p.Add(ctx, laptop, 1))
	require.NoError(t, p.Add(ctx, earbud, 2))
	require.NoError(t, p.Add(ctx, laptop, 2))

	assert.Empty(t, remote.calls)
	lines := p.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Equal(t, models.SourceLocal, lines[0].Source)

	var stored models.Cart
	require.NoError(t, storage.GetJSON(ctx, store, storage.KeyCart, &stored))
	assert.Len(t, stored.Items, 2)
}

func TestAdd_ClampsToStock(t *testing.T) {
	p, _ := newProvider(false, &fakeRemote{})
	ctx := context.Background()

	require.NoError(t, p.Add(ctx, earbud, 10))
	assert.Equal(t, 3, p.Lines()[0].Quantity)

	require.NoError(t, p.Add(ctx, earbud, 1))
	assert.Equal(t, 3, p.Lines()[0].Quantity)
}

func TestAdd_Rejects(t *testing.T) {
	p, _ := newProvider(false, &fakeRemote{})
	ctx := context.Background()

	var verr *models.ValidationError
	assert.ErrorAs(t, p.Add(ctx, laptop, 0), &verr)
	assert.ErrorIs(t, p.Add(ctx, models.Product{ID: "9", Stock: 0}, 1), ErrOutOfStock)
	assert.Empty(t, p.Lines())
}

func TestAdd_AuthenticatedAdoptsRemoteCart(t *testing.T) {
	remote := &fakeRemote{cart: models.Cart{Items: []models.CartLine{models.RemoteLine("31", laptop, 4)}}}
	p, store := newProvider(true, remote)
	ctx := context.Background()

	require.NoError(t, p.Add(ctx, laptop, 1))
	assert.Equal(t, []string{"add"}, remote.calls)
	assert.Equal(t, remote.cart.Items, p.Lines())

	_, err := store.Get(ctx, storage.KeyCart)
	assert.ErrorIs(t, err, storage.ErrNotFound, "signed-in carts are not persisted locally")
}

func TestAdd_AuthenticatedFallsBackLocally(t *testing.T) {
	remote := &fakeRemote{err: errOffline}
	p, store := newProvider(true, remote)
	ctx := context.Background()

	require.NoError(t, p.Add(ctx, laptop, 2))
	assert.Equal(t, []string{"add"}, remote.calls)
	require.Len(t, p.Lines(), 1)
	assert.Equal(t, 2, p.Lines()[0].Quantity)

	_, err := store.Get(ctx, storage.KeyCart)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.True(t, p.Detached())
}

func TestDetached_ClearedByRemoteSuccess(t *testing.T) {
	remote := &fakeRemote{err: errOffline}
	p, _ := newProvider(true, remote)
	ctx := context.Background()

	assert.False(t, p.Detached())
	require.NoError(t, p.Add(ctx, laptop, 1))
	assert.True(t, p.Detached())

	remote.err = nil
	remote.cart = models.Cart{Items: []models.CartLine{models.RemoteLine("31", laptop, 1)}}
	require.NoError(t, p.Add(ctx, laptop, 1))
	assert.False(t, p.Detached())

	require.NoError(t, p.BuyNow(ctx, earbud, 1))
	assert.True(t, p.Detached())

	guest, _ := newProvider(false, &fakeRemote{})
	require.NoError(t, guest.Add(ctx, laptop, 1))
	require.NoError(t, guest.BuyNow(ctx, earbud, 1))
	assert.False(t, guest.Detached())
}

func TestRemove_UsesRemoteLineID(t *testing.T) {
	remote := &fakeRemote{cart: models.Cart{Items: []models.CartLine{
		models.RemoteLine("31", laptop, 1),
		models.RemoteLine("32", earbud, 1),
	}}}
	p, _ := newProvider(true, remote)
	ctx := context.Background()
	require.NoError(t, p.Load(ctx))

	remote.cart = models.Cart{Items: []models.CartLine{models.RemoteLine("32", earbud, 1)}}
	require.NoError(t, p.Remove(ctx, laptop.ID))
	assert.Equal(t, []string{"get", "remove"}, remote.calls)
	assert.Equal(t, "31", remote.ids[1])
	require.Len(t, p.Lines(), 1)

	// unknown products never reach the API
	require.NoError(t, p.Remove(ctx, "nope"))
	assert.Len(t, remote.calls, 2)
}

func TestRemove_LocalLinesUseProductID(t *testing.T) {
	remote := &fakeRemote{err: errOffline}
	p, _ := newProvider(true, remote)
	ctx := context.Background()

	require.NoError(t, p.Add(ctx, laptop, 1))
	require.NoError(t, p.Remove(ctx, laptop.ID))
	assert.Equal(t, []string{"add", "remove"}, remote.calls)
	assert.Equal(t, laptop.ID, remote.ids[1])
	assert.Empty(t, p.Lines())
}

func TestUpdateQuantity_Local(t *testing.T) {
	p, _ := newProvider(false, &fakeRemote{})
	ctx := context.Background()
	require.NoError(t, p.Add(ctx, earbud, 1))

	require.NoError(t, p.UpdateQuantity(ctx, earbud.ID, 2))
	assert.Equal(t, 2, p.Lines()[0].Quantity)

	require.NoError(t, p.UpdateQuantity(ctx, earbud.ID, 99))
	assert.Equal(t, 3, p.Lines()[0].Quantity)

	// zero is kept as-is; the line stays
	require.NoError(t, p.UpdateQuantity(ctx, earbud.ID, 0))
	require.Len(t, p.Lines(), 1)
	assert.Equal(t, 0, p.Lines()[0].Quantity)

	require.NoError(t, p.UpdateQuantity(ctx, earbud.ID, -4))
	assert.Equal(t, 0, p.Lines()[0].Quantity)
}

func TestClear(t *testing.T) {
	remote := &fakeRemote{err: errOffline}
	p, _ := newProvider(true, remote)
	ctx := context.Background()

	require.NoError(t, p.Add(ctx, laptop, 1))
	require.NoError(t, p.Clear(ctx))
	assert.Empty(t, p.Lines())
	assert.Zero(t, p.Total())

	remote.err = nil
	require.NoError(t, p.Add(ctx, laptop, 1))
	require.NoError(t, p.Clear(ctx))
	assert.Empty(t, p.Lines())
	assert.Equal(t, "clear", remote.calls[len(remote.calls)-1])
}

func TestBuyNow_ReplacesCart(t *testing.T) {
	remote := &fakeRemote{}
	p, _ := newProvider(false, remote)
	ctx := context.Background()

	require.NoError(t, p.Add(ctx, laptop, 2))
	require.NoError(t, p.Add(ctx, earbud, 1))
	require.NoError(t, p.BuyNow(ctx, earbud, 7))

	lines := p.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, earbud.ID, lines[0].Product.ID)
	assert.Equal(t, 3, lines[0].Quantity)
	assert.Empty(t, remote.calls)
}

func TestTotal(t *testing.T) {
	p, _ := newProvider(false, &fakeRemote{})
	ctx := context.Background()
	assert.Zero(t, p.Total())

	require.NoError(t, p.Add(ctx, laptop, 1))
	require.NoError(t, p.Add(ctx, earbud, 2))
	assert.InDelta(t, 65999.0+2*2499.0, p.Total(), 1e-9)
	assert.Equal(t, 3, p.Count())
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("guest reads storage", func(t *testing.T) {
		p, store := newProvider(false, &fakeRemote{})
		require.NoError(t, storage.SetJSON(ctx, store, storage.KeyCart, models.Cart{Items: []models.CartLine{models.LocalLine(laptop, 2)}}))
		require.NoError(t, p.Load(ctx))
		assert.Equal(t, 2, p.Count())
	})

	t.Run("corrupt cart removed", func(t *testing.T) {
		p, store := newProvider(false, &fakeRemote{})
		require.NoError(t, store.Set(ctx, storage.KeyCart, []byte("[")))
		require.NoError(t, p.Load(ctx))
		assert.Empty(t, p.Lines())
		_, err := store.Get(ctx, storage.KeyCart)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("signed in falls back to storage", func(t *testing.T) {
		p, store := newProvider(true, &fakeRemote{err: errOffline})
		require.NoError(t, storage.SetJSON(ctx, store, storage.KeyCart, models.Cart{Items: []models.CartLine{models.LocalLine(earbud, 1)}}))
		require.NoError(t, p.Load(ctx))
		assert.Equal(t, 1, p.Count())
	})
}
