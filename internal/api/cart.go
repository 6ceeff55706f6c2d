package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"egadget-storefront/internal/catalog"
)

type cartItemJSON struct {
	ID       int         `json:"id"`
	Product  productJSON `json:"product"`
	Quantity int         `json:"quantity"`
	Subtotal float64     `json:"subtotal"`
}

type cartJSON struct {
	Items []cartItemJSON `json:"items"`
	Total float64        `json:"total"`
	Count int            `json:"count"`
}

// cartView renders a user's lines. Lines whose product has disappeared are
// left out.
func (h *Handler) cartView(ctx context.Context, userID int) cartJSON {
	h.mu.Lock()
	rows := append([]cartRow(nil), h.carts[userID]...)
	h.mu.Unlock()

	view := cartJSON{Items: []cartItemJSON{}}
	for _, row := range rows {
		p, err := h.catalog.Product(ctx, row.productID)
		if err != nil {
			slog.Warn("Skipping cart line", "line_id", row.id, "product_id", row.productID, "error", err)
			continue
		}
		item := cartItemJSON{
			ID:       row.id,
			Product:  h.toJSON(p),
			Quantity: row.quantity,
			Subtotal: p.Price * float64(row.quantity),
		}
		view.Items = append(view.Items, item)
		view.Total += item.Subtotal
	}
	view.Count = len(view.Items)
	return view
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.cartView(r.Context(), user.id))
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		ProductID *idField `json:"product_id"`
		Quantity  *int     `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == nil || req.Quantity == nil {
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if *req.Quantity <= 0 {
		writeMessage(w, http.StatusBadRequest, "Quantity must be greater than 0")
		return
	}

	productID := string(*req.ProductID)
	p, err := h.catalog.Product(r.Context(), productID)
	if errors.Is(err, catalog.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		slog.Error("Failed to load product", "product_id", productID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to add to cart")
		return
	}
	if p.Stock < *req.Quantity {
		writeMessage(w, http.StatusBadRequest, "Insufficient stock")
		return
	}

	h.mu.Lock()
	rows := h.carts[user.id]
	merged := false
	for i := range rows {
		if rows[i].productID != productID {
			continue
		}
		if rows[i].quantity+*req.Quantity > p.Stock {
			h.mu.Unlock()
			writeMessage(w, http.StatusBadRequest, "Insufficient stock")
			return
		}
		rows[i].quantity += *req.Quantity
		merged = true
		break
	}
	if !merged {
		h.carts[user.id] = append(rows, cartRow{id: h.nextLineID, productID: productID, quantity: *req.Quantity})
		h.nextLineID++
	}
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, h.cartView(r.Context(), user.id))
}

// lineIndexLocked finds the caller's line by its path id. Ids that are not
// integers never match.
func (h *Handler) lineIndexLocked(userID int, rawID string) int {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return -1
	}
	for i, row := range h.carts[userID] {
		if row.id == id {
			return i
		}
	}
	return -1
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Quantity *int `json:"quantity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		writeMessage(w, http.StatusBadRequest, "Missing quantity field")
		return
	}
	if *req.Quantity <= 0 {
		writeMessage(w, http.StatusBadRequest, "Quantity must be greater than 0")
		return
	}

	h.mu.Lock()
	idx := h.lineIndexLocked(user.id, r.PathValue("id"))
	var productID string
	if idx >= 0 {
		productID = h.carts[user.id][idx].productID
	}
	h.mu.Unlock()

	if idx < 0 {
		writeMessage(w, http.StatusNotFound, "Cart item not found")
		return
	}

	p, err := h.catalog.Product(r.Context(), productID)
	if err != nil {
		writeMessage(w, http.StatusNotFound, "Cart item not found")
		return
	}
	if *req.Quantity > p.Stock {
		writeMessage(w, http.StatusBadRequest, "Insufficient stock")
		return
	}

	h.mu.Lock()
	if idx = h.lineIndexLocked(user.id, r.PathValue("id")); idx >= 0 {
		h.carts[user.id][idx].quantity = *req.Quantity
	}
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, h.cartView(r.Context(), user.id))
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	idx := h.lineIndexLocked(user.id, r.PathValue("id"))
	if idx >= 0 {
		rows := h.carts[user.id]
		h.carts[user.id] = append(rows[:idx:idx], rows[idx+1:]...)
	}
	h.mu.Unlock()

	if idx < 0 {
		writeMessage(w, http.StatusNotFound, "Cart item not found")
		return
	}
	writeJSON(w, http.StatusOK, h.cartView(r.Context(), user.id))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	h.mu.Lock()
	delete(h.carts, user.id)
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Cart cleared successfully",
		"items":   []cartItemJSON{},
		"total":   0,
		"count":   0,
	})
}
