// Package cart keeps the shopper's cart. Signed-in shoppers mutate the
// remote cart and adopt its response; guests, or anyone when the API fails,
// mutate the local copy.
package cart

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"egadget-storefront/internal/models"
	"egadget-storefront/internal/resilience"
	"egadget-storefront/internal/storage"
)

var ErrOutOfStock = errors.New("product is out of stock")

type Authenticator interface {
	IsAuthenticated() bool
}

// Remote is the cart API. Each call returns the full cart after the change.
type Remote interface {
	Get(ctx context.Context) (models.Cart, error)
	Add(ctx context.Context, productID string, quantity int) (models.Cart, error)
	Update(ctx context.Context, itemID string, quantity int) (models.Cart, error)
	Remove(ctx context.Context, itemID string) (models.Cart, error)
	Clear(ctx context.Context) (models.Cart, error)
}

type Provider struct {
	mu     sync.Mutex
	auth   Authenticator
	remote Remote
	policy *resilience.DualPath
	store  storage.Store
	cart   models.Cart

	// detached is set when a signed-in shopper's change could only be applied
	// to the in-memory copy.
	detached bool
}

func NewProvider(auth Authenticator, remote Remote, policy *resilience.DualPath, store storage.Store) *Provider {
	return &Provider{
		auth:   auth,
		remote: remote,
		policy: policy,
		store:  store,
		cart:   models.Cart{Items: []models.CartLine{}},
	}
}

// Load fills the cart from the API for signed-in shoppers, otherwise (or
// when the API fails) from storage.
func (p *Provider) Load(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.auth.IsAuthenticated() {
		return p.loadStored(ctx)
	}
	return p.policy.Run(ctx, "cart.load",
		func(ctx context.Context) error {
			c, err := p.remote.Get(ctx)
			if err != nil {
				return err
			}
			p.cart = c
			p.detached = false
			return nil
		},
		func() error { return p.loadStored(ctx) },
	)
}

func (p *Provider) Snapshot() models.Cart {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cart.Clone()
}

// Detached reports whether the cart holds signed-in changes the API never
// received. Such changes are not persisted and end with the process.
func (p *Provider) Detached() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detached
}

func (p *Provider) Lines() []models.CartLine {
	return p.Snapshot().Items
}

func (p *Provider) Total() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cart.Total()
}

func (p *Provider) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cart.Count()
}

func (p *Provider) Add(ctx context.Context, product models.Product, quantity int) error {
	if quantity < 1 {
		return models.Invalid("quantity must be at least 1")
	}
	if product.Stock < 1 {
		return ErrOutOfStock
	}
	return p.mutate(ctx, "cart.add",
		func(ctx context.Context, _ models.Cart) (models.Cart, error) {
			return p.remote.Add(ctx, product.ID, quantity)
		},
		func(c models.Cart) models.Cart { return addLine(c, product, quantity) },
	)
}

// Remove drops the line holding productID. Unknown products are ignored.
func (p *Provider) Remove(ctx context.Context, productID string) error {
	return p.mutate(ctx, "cart.remove",
		func(ctx context.Context, c models.Cart) (models.Cart, error) {
			line, ok := c.Find(productID)
			if !ok {
				return c, nil
			}
			return p.remote.Remove(ctx, line.ItemID())
		},
		func(c models.Cart) models.Cart { return removeLine(c, productID) },
	)
}

// UpdateQuantity sets the quantity of the line holding productID, clamped
// to [0, stock]. A zero quantity keeps the line; callers enforce the floor.
func (p *Provider) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	return p.mutate(ctx, "cart.update",
		func(ctx context.Context, c models.Cart) (models.Cart, error) {
			line, ok := c.Find(productID)
			if !ok {
				return c, nil
			}
			return p.remote.Update(ctx, line.ItemID(), quantity)
		},
		func(c models.Cart) models.Cart { return setQuantity(c, productID, quantity) },
	)
}

func (p *Provider) Clear(ctx context.Context) error {
	return p.mutate(ctx, "cart.clear",
		func(ctx context.Context, _ models.Cart) (models.Cart, error) {
			if _, err := p.remote.Clear(ctx); err != nil {
				return models.Cart{}, err
			}
			return models.Cart{Items: []models.CartLine{}}, nil
		},
		func(models.Cart) models.Cart { return models.Cart{Items: []models.CartLine{}} },
	)
}

// BuyNow replaces the whole cart with a single line for product. The remote
// cart is not touched, so for a signed-in shopper the result is detached.
func (p *Provider) BuyNow(ctx context.Context, product models.Product, quantity int) error {
	if quantity < 1 {
		return models.Invalid("quantity must be at least 1")
	}
	if product.Stock < 1 {
		return ErrOutOfStock
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.cart = models.Cart{Items: []models.CartLine{
		models.LocalLine(product, clamp(quantity, 1, product.Stock)),
	}}
	p.detached = p.auth.IsAuthenticated()
	return p.persist(ctx)
}

func (p *Provider) mutate(
	ctx context.Context,
	op string,
	remote func(context.Context, models.Cart) (models.Cart, error),
	local func(models.Cart) models.Cart,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.auth.IsAuthenticated() {
		p.cart = local(p.cart.Clone())
		return p.persist(ctx)
	}

	return p.policy.Run(ctx, op,
		func(ctx context.Context) error {
			c, err := remote(ctx, p.cart.Clone())
			if err != nil {
				return err
			}
			p.cart = c
			p.detached = false
			return nil
		},
		func() error {
			p.cart = local(p.cart.Clone())
			p.detached = true
			return nil
		},
	)
}

// persist writes the cart for guests only; a signed-in shopper's cart lives
// on the API.
func (p *Provider) persist(ctx context.Context) error {
	if p.auth.IsAuthenticated() {
		return nil
	}
	return storage.SetJSON(ctx, p.store, storage.KeyCart, p.cart)
}

func (p *Provider) loadStored(ctx context.Context) error {
	var c models.Cart
	err := storage.GetJSON(ctx, p.store, storage.KeyCart, &c)
	switch {
	case err == nil:
		if c.Items == nil {
			c.Items = []models.CartLine{}
		}
		p.cart = c
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return nil
	}

	slog.Error("Failed to parse stored cart", "error", err)
	return p.store.Delete(ctx, storage.KeyCart)
}
