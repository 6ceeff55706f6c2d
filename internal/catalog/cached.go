package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"egadget-storefront/internal/cache"
	"egadget-storefront/internal/models"
)

const allProductsKey = "products:all"

// CachedSource is a Redis read-through cache in front of another source.
// Cache failures are logged and bypassed.
type CachedSource struct {
	src   Source
	cache *cache.Client
	ttl   time.Duration
}

func NewCachedSource(src Source, c *cache.Client, ttl time.Duration) *CachedSource {
	return &CachedSource{src: src, cache: c, ttl: ttl}
}

func (c *CachedSource) Products(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := c.cache.GetJSON(ctx, allProductsKey, &products)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("Product cache read failed, falling back to source", "error", err)
	}

	products, err = c.src.Products(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetJSON(ctx, allProductsKey, products, c.ttl); err != nil {
		slog.Warn("Failed to populate product cache", "error", err)
	}
	return products, nil
}

func (c *CachedSource) Product(ctx context.Context, id string) (models.Product, error) {
	key := productKey(id)

	var p models.Product
	err := c.cache.GetJSON(ctx, key, &p)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("Product cache read failed, falling back to source", "product_id", id, "error", err)
	}

	p, err = c.src.Product(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if err := c.cache.SetJSON(ctx, key, p, c.ttl); err != nil {
		slog.Warn("Failed to populate product cache", "product_id", id, "error", err)
	}
	return p, nil
}

// Invalidate drops cached copies of the product and of the full listing.
func (c *CachedSource) Invalidate(ctx context.Context, id string) error {
	return c.cache.Delete(ctx, allProductsKey, productKey(id))
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}
