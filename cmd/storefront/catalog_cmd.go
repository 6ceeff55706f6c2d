package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"egadget-storefront/internal/catalog"
)

func runProductsCmd(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("products", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		f          catalog.Filter
		brands     string
		sortOrder  string
		jsonOutput bool
	)
	cmd.StringVar(&f.Category, "category", "", "Only this category")
	cmd.StringVar(&brands, "brand", "", "Comma-separated brands")
	cmd.Float64Var(&f.MinPrice, "min-price", 0, "Minimum price")
	cmd.Float64Var(&f.MaxPrice, "max-price", 0, "Maximum price (0 = no limit)")
	cmd.Float64Var(&f.MinRating, "min-rating", 0, "Minimum rating")
	cmd.StringVar(&f.Search, "search", "", "Search name and description")
	cmd.StringVar(&sortOrder, "sort", string(catalog.SortFeatured), "featured | price-low | price-high | rating | newest")
	cmd.BoolVar(&jsonOutput, "json", false, "Output as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if brands != "" {
		for _, b := range strings.Split(brands, ",") {
			if b = strings.TrimSpace(b); b != "" {
				f.Brands = append(f.Brands, b)
			}
		}
	}

	all, err := a.catalog.Products(ctx)
	if err != nil {
		return fail(stderr, err)
	}
	products := catalog.Apply(all, f, catalog.SortOrder(sortOrder))

	if jsonOutput {
		return printJSON(stdout, products)
	}
	if len(products) == 0 {
		_, _ = fmt.Fprintln(stdout, "No products match your filters.")
		return 0
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tBRAND\tPRICE\tRATING\tSTOCK")
	for _, p := range products {
		stock := fmt.Sprint(p.Stock)
		if p.Stock == 0 {
			stock = "out of stock"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.1f\t%s\n", p.ID, p.Name, p.Brand, peso(p.Price), p.Rating, stock)
	}
	_ = tw.Flush()

	facets := catalog.FacetsOf(all)
	_, _ = fmt.Fprintf(stdout, "\n%d of %d products. Categories: %s\n", len(products), len(all), strings.Join(facets.Categories, ", "))
	return 0
}

func runProductCmd(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("product", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var id string
	var jsonOutput bool
	cmd.StringVar(&id, "id", "", "Product id (REQUIRED)")
	cmd.BoolVar(&jsonOutput, "json", false, "Output as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if id == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --id is required")
		return 2
	}

	p, err := a.catalog.Product(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		_, _ = fmt.Fprintf(stderr, "Product %s not found.\n", id)
		return 1
	}
	if err != nil {
		return fail(stderr, err)
	}

	if jsonOutput {
		return printJSON(stdout, p)
	}

	_, _ = fmt.Fprintf(stdout, "%s (%s)\n", p.Name, p.Brand)
	_, _ = fmt.Fprintf(stdout, "Price:  %s", peso(p.Price))
	if p.OriginalPrice > p.Price {
		_, _ = fmt.Fprintf(stdout, "  (was %s, -%.0f%%)", peso(p.OriginalPrice), p.Discount)
	}
	_, _ = fmt.Fprintln(stdout)
	_, _ = fmt.Fprintf(stdout, "Rating: %.1f   Stock: %d\n", p.Rating, p.Stock)
	if p.Description != "" {
		_, _ = fmt.Fprintf(stdout, "\n%s\n", p.Description)
	}
	for _, feat := range p.Features {
		_, _ = fmt.Fprintf(stdout, "  - %s\n", feat)
	}
	if len(p.Reviews) > 0 {
		_, _ = fmt.Fprintf(stdout, "\nReviews (%d):\n", len(p.Reviews))
		for _, r := range p.Reviews {
			_, _ = fmt.Fprintf(stdout, "  %d/5 %s: %s\n", r.Rating, r.Name, r.Comment)
		}
	}
	return 0
}

func runReviewCmd(ctx context.Context, a *app, args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("review", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var id, comment string
	var rating int
	cmd.StringVar(&id, "id", "", "Product id (REQUIRED)")
	cmd.IntVar(&rating, "rating", 0, "Rating from 1 to 5 (REQUIRED)")
	cmd.StringVar(&comment, "comment", "", "Review text (REQUIRED)")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if id == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --id is required")
		return 2
	}
	if !a.session.IsAuthenticated() {
		_, _ = fmt.Fprintln(stderr, "Please log in to write a review.")
		return 1
	}

	if err := a.reviews.Submit(ctx, id, rating, comment); err != nil {
		return fail(stderr, err)
	}
	_, _ = fmt.Fprintln(stdout, "Thank you for your review!")
	return 0
}
