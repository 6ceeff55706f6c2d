package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"egadget-storefront/internal/api"
	"egadget-storefront/internal/auth"
	"egadget-storefront/internal/cache"
	"egadget-storefront/internal/catalog"
	"egadget-storefront/internal/config"
)

var demoAccounts = []struct{ name, email, password string }{
	{"John Doe", "user@example.com", "password123"},
	{"Admin User", "admin@example.com", "admin123"},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.NewConfig()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.Info("Starting storefront API", "port", cfg.HTTPPort)

	var redisClient *cache.Client
	if cfg.RedisAddr != "" {
		redisClient, err = cache.NewClient(cfg.RedisAddr)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		slog.Info("Connected to Redis", "addr", cfg.RedisAddr)
	}

	var src catalog.Source
	if cfg.DatabaseURL != "" {
		db, err := catalog.OpenPostgres(context.Background(), cfg.DatabaseURL)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("Serving products from PostgreSQL")
		src = catalog.NewPostgresSource(db)
	} else {
		fixtures, err := catalog.NewFixtureSource()
		if err != nil {
			slog.Error("Failed to load product fixtures", "error", err)
			os.Exit(1)
		}
		slog.Info("Serving bundled demo products")
		src = fixtures
	}
	if redisClient != nil {
		src = catalog.NewCachedSource(src, redisClient, 5*time.Minute)
	}

	handler := api.NewHandler(src, auth.NewMiddleware(cfg.JWTSecret), redisClient, api.WithBcryptCost(cfg.BcryptCost))
	for _, a := range demoAccounts {
		if err := handler.SeedUser(a.name, a.email, a.password); err != nil {
			slog.Error("Failed to seed demo account", "email", a.email, "error", err)
			os.Exit(1)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/api/", handler.Routes())

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	slog.Info("Server listening", "addr", serverAddr)

	if err := http.ListenAndServe(serverAddr, mux); err != nil {
		slog.Error("Server shutdown error", "error", err)
		os.Exit(1)
	}
}
