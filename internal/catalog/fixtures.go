package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"egadget-storefront/internal/models"
)

//go:embed fixtures/products.json
var fixtureProducts []byte

// FixtureSource serves the bundled demo catalogue.
type FixtureSource struct {
	products []models.Product
}

func NewFixtureSource() (*FixtureSource, error) {
	var products []models.Product
	if err := json.Unmarshal(fixtureProducts, &products); err != nil {
		return nil, fmt.Errorf("parse product fixtures: %w", err)
	}
	return &FixtureSource{products: products}, nil
}

func (f *FixtureSource) Products(context.Context) ([]models.Product, error) {
	out := make([]models.Product, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *FixtureSource) Product(_ context.Context, id string) (models.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Product{}, ErrNotFound
}
