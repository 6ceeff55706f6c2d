package main

import (
	"context"
	"fmt"
	"log/slog"

	"egadget-storefront/internal/auth"
	"egadget-storefront/internal/cart"
	"egadget-storefront/internal/catalog"
	"egadget-storefront/internal/checkout"
	"egadget-storefront/internal/config"
	"egadget-storefront/internal/resilience"
	"egadget-storefront/internal/services"
	"egadget-storefront/internal/storage"
)

// app wires one CLI invocation: persisted state, the API client and the
// providers built on top of them.
type app struct {
	cfg      *config.Config
	store    storage.Store
	session  *auth.Session
	cart     *cart.Provider
	catalog  catalog.Source
	reviews  *catalog.Reviews
	orders   *checkout.OrderBook
	checkout *checkout.Checkout
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := storage.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	client := services.NewClient(cfg, store)
	breaker := resilience.NewCircuitBreaker(cfg.BreakerThreshold, cfg.BreakerTimeout)
	policy := resilience.NewDualPath(resilience.FallbackMode(cfg.FallbackMode), breaker)

	session := auth.NewSession(store, services.NewAuthAPI(client), policy,
		auth.WithBcryptCost(cfg.BcryptCost),
		auth.WithDelayScale(cfg.DelayScale),
	)
	if err := session.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	fixtures, err := catalog.NewFixtureSource()
	if err != nil {
		return nil, err
	}
	products := services.NewProductAPI(client)

	cartProvider := cart.NewProvider(session, services.NewCartAPI(client), policy, store)
	if err := cartProvider.Load(ctx); err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}

	orders := checkout.NewOrderBook(store)

	return &app{
		cfg:      cfg,
		store:    store,
		session:  session,
		cart:     cartProvider,
		catalog:  catalog.NewFallback(catalog.NewRemoteSource(products), fixtures),
		reviews:  catalog.NewReviews(products, policy, cfg.DelayScale),
		orders:   orders,
		checkout: checkout.New(cartProvider, orders, cfg.DelayScale),
	}, nil
}

func (a *app) Close() {
	if c, ok := a.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			slog.Warn("Failed to close storage", "error", err)
		}
	}
}
