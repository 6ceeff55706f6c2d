// Package api is a self-contained storefront backend: JWT auth, the product
// catalogue and per-user carts, served over the same REST contract the
// client speaks. It backs local development and the integration tests.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"egadget-storefront/internal/auth"
	"egadget-storefront/internal/cache"
	"egadget-storefront/internal/catalog"
	"egadget-storefront/internal/telemetry"
)

type account struct {
	id           int
	name         string
	email        string
	passwordHash []byte
	createdAt    time.Time
}

type cartRow struct {
	id        int
	productID string
	quantity  int
}

type invalidator interface {
	Invalidate(ctx context.Context, id string) error
}

type Handler struct {
	catalog catalog.Source
	tokens  *auth.Middleware
	limiter *cache.Client

	rateLimit  int
	rateWindow time.Duration
	bcryptCost int

	mu         sync.Mutex
	accounts   []account
	carts      map[int][]cartRow
	reviews    map[string][]reviewJSON
	nextUserID int
	nextLineID int
	nextReview int
}

type Option func(*Handler)

// WithRateLimit caps requests per client IP and window. It has no effect
// without a limiter.
func WithRateLimit(limit int, window time.Duration) Option {
	return func(h *Handler) {
		h.rateLimit = limit
		h.rateWindow = window
	}
}

func WithBcryptCost(cost int) Option {
	return func(h *Handler) { h.bcryptCost = cost }
}

// NewHandler builds the backend. limiter may be nil to disable rate limiting.
func NewHandler(src catalog.Source, tokens *auth.Middleware, limiter *cache.Client, opts ...Option) *Handler {
	h := &Handler{
		catalog:    src,
		tokens:     tokens,
		limiter:    limiter,
		rateLimit:  100,
		rateWindow: time.Minute,
		bcryptCost: bcrypt.DefaultCost,
		carts:      map[int][]cartRow{},
		reviews:    map[string][]reviewJSON{},
		nextUserID: 1,
		nextLineID: 1,
		nextReview: 1,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", h.rateLimited(h.Register))
	mux.HandleFunc("POST /api/auth/login", h.rateLimited(h.Login))
	mux.HandleFunc("GET /api/auth/check", h.Check)
	mux.HandleFunc("GET /api/auth/me", h.tokens.ValidateToken(h.Me))

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.HandleFunc("POST /api/products/{id}/reviews", h.tokens.ValidateToken(h.rateLimited(h.AddReview)))

	mux.HandleFunc("GET /api/cart", h.tokens.ValidateToken(h.GetCart))
	mux.HandleFunc("POST /api/cart", h.tokens.ValidateToken(h.AddToCart))
	mux.HandleFunc("PUT /api/cart/{id}", h.tokens.ValidateToken(h.UpdateCartItem))
	mux.HandleFunc("DELETE /api/cart/{id}", h.tokens.ValidateToken(h.RemoveCartItem))
	mux.HandleFunc("DELETE /api/cart", h.tokens.ValidateToken(h.ClearCart))

	return telemetry.Middleware(mux)
}

func (h *Handler) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.limiter == nil {
			next(w, r)
			return
		}

		clientIP := r.RemoteAddr
		if idx := strings.LastIndex(clientIP, ":"); idx != -1 {
			clientIP = clientIP[:idx]
		}

		if h.limiter.IsRateLimited(r.Context(), clientIP, h.rateLimit, h.rateWindow) {
			slog.Warn("Rate limit exceeded", "ip", clientIP, "path", r.URL.Path)
			writeMessage(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("JSON encode error", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// decodeBody reads a JSON object body. It reports false after writing a 400
// when the body is missing or malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// idField accepts identifiers sent either as JSON strings or numbers.
type idField string

func (f *idField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = idField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = idField(n.String())
	return nil
}
