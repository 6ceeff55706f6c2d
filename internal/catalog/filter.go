package catalog

import (
	"slices"
	"sort"
	"strings"

	"egadget-storefront/internal/models"
)

type SortOrder string

const (
	SortFeatured  SortOrder = "featured"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortRating    SortOrder = "rating"
	SortNewest    SortOrder = "newest"
)

// Filter narrows a product listing. Zero values disable a criterion;
// MaxPrice of 0 means no upper bound.
type Filter struct {
	Category  string
	MinPrice  float64
	MaxPrice  float64
	MinRating float64
	Brands    []string
	Search    string
}

func (f Filter) matches(p models.Product) bool {
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if p.Price < f.MinPrice {
		return false
	}
	if f.MaxPrice > 0 && p.Price > f.MaxPrice {
		return false
	}
	if f.MinRating > 0 && p.Rating < f.MinRating {
		return false
	}
	if len(f.Brands) > 0 && !slices.Contains(f.Brands, p.Brand) {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), term) && !strings.Contains(strings.ToLower(p.Description), term) {
			return false
		}
	}
	return true
}

// Apply returns the products matching f in the given order. The input is
// not modified.
func Apply(products []models.Product, f Filter, order SortOrder) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if f.matches(p) {
			out = append(out, p)
		}
	}

	switch order {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Featured && !out[j].Featured })
	}
	return out
}

type Facets struct {
	Categories []string
	Brands     []string
	MaxPrice   float64
}

// FacetsOf lists the distinct non-empty categories and brands in first-seen
// order, and the highest price.
func FacetsOf(products []models.Product) Facets {
	var f Facets
	seenCat := map[string]bool{}
	seenBrand := map[string]bool{}
	for _, p := range products {
		if p.Category != "" && !seenCat[p.Category] {
			seenCat[p.Category] = true
			f.Categories = append(f.Categories, p.Category)
		}
		if p.Brand != "" && !seenBrand[p.Brand] {
			seenBrand[p.Brand] = true
			f.Brands = append(f.Brands, p.Brand)
		}
		if p.Price > f.MaxPrice {
			f.MaxPrice = p.Price
		}
	}
	return f
}
