// Package catalog supplies read-only product data and the browsing filters
// applied on top of it.
package catalog

import (
	"context"
	"errors"

	"egadget-storefront/internal/models"
	"egadget-storefront/internal/services"
)

var ErrNotFound = errors.New("product not found")

type Source interface {
	Products(ctx context.Context) ([]models.Product, error)
	Product(ctx context.Context, id string) (models.Product, error)
}

type ProductLister interface {
	List(ctx context.Context, filters map[string]string) ([]models.Product, error)
	Get(ctx context.Context, id string) (models.Product, error)
}

// RemoteSource reads products from the storefront API.
type RemoteSource struct {
	api ProductLister
}

func NewRemoteSource(api ProductLister) *RemoteSource {
	return &RemoteSource{api: api}
}

func (r *RemoteSource) Products(ctx context.Context) ([]models.Product, error) {
	return r.api.List(ctx, nil)
}

func (r *RemoteSource) Product(ctx context.Context, id string) (models.Product, error) {
	p, err := r.api.Get(ctx, id)
	if services.IsNotFound(err) {
		return models.Product{}, ErrNotFound
	}
	return p, err
}

// Fallback reads from primary and switches to secondary when primary fails
// for any reason other than a missing product.
type Fallback struct {
	primary   Source
	secondary Source
}

func NewFallback(primary, secondary Source) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) Products(ctx context.Context) ([]models.Product, error) {
	products, err := f.primary.Products(ctx)
	if err == nil {
		return products, nil
	}
	return f.secondary.Products(ctx)
}

func (f *Fallback) Product(ctx context.Context, id string) (models.Product, error) {
	p, err := f.primary.Product(ctx, id)
	if err == nil || errors.Is(err, ErrNotFound) {
		return p, err
	}
	return f.secondary.Product(ctx, id)
}
