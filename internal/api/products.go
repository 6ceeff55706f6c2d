package api

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"egadget-storefront/internal/catalog"
	"egadget-storefront/internal/models"
)

type reviewUserJSON struct {
	Name string `json:"name"`
}

type reviewJSON struct {
	ID        int             `json:"id"`
	User      *reviewUserJSON `json:"user"`
	Rating    int             `json:"rating"`
	Comment   string          `json:"comment"`
	CreatedAt string          `json:"createdAt"`
}

type productJSON struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Price         float64      `json:"price"`
	OriginalPrice float64      `json:"originalPrice"`
	Discount      float64      `json:"discount"`
	Stock         int          `json:"stock"`
	Category      string       `json:"category"`
	Brand         string       `json:"brand"`
	Images        []string     `json:"images"`
	IsNew         bool         `json:"isNew"`
	Featured      bool         `json:"featured"`
	Trending      bool         `json:"trending"`
	Rating        float64      `json:"rating"`
	CreatedAt     string       `json:"createdAt"`
	Reviews       []reviewJSON `json:"reviews"`
}

func (h *Handler) toJSON(p models.Product) productJSON {
	out := productJSON{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		Discount:      p.Discount,
		Stock:         p.Stock,
		Category:      p.Category,
		Brand:         p.Brand,
		Images:        p.Images,
		IsNew:         p.IsNew,
		Featured:      p.Featured,
		Trending:      p.Trending,
		Rating:        p.Rating,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		Reviews:       []reviewJSON{},
	}
	if out.Images == nil {
		out.Images = []string{}
	}
	for i, r := range p.Reviews {
		out.Reviews = append(out.Reviews, reviewJSON{
			ID:        i + 1,
			User:      &reviewUserJSON{Name: r.Name},
			Rating:    r.Rating,
			Comment:   r.Comment,
			CreatedAt: r.Date,
		})
	}

	h.mu.Lock()
	out.Reviews = append(out.Reviews, h.reviews[p.ID]...)
	h.mu.Unlock()
	return out
}

type listQuery struct {
	filter   catalog.Filter
	isNew    *bool
	trending *bool
	sort     string
	limit    int
	offset   int
}

func parseListQuery(r *http.Request) (listQuery, error) {
	q := r.URL.Query()
	lq := listQuery{limit: 100, sort: q.Get("sort")}

	category := q.Get("category")
	switch category {
	case "new-arrivals":
		t := true
		lq.isNew = &t
	case "trending":
		t := true
		lq.trending = &t
	default:
		lq.filter.Category = category
	}
	lq.filter.Search = q.Get("search")

	var err error
	if v := q.Get("min_price"); v != "" {
		if lq.filter.MinPrice, err = strconv.ParseFloat(v, 64); err != nil {
			return lq, errors.New("min_price must be a number")
		}
	}
	if v := q.Get("max_price"); v != "" {
		if lq.filter.MaxPrice, err = strconv.ParseFloat(v, 64); err != nil {
			return lq, errors.New("max_price must be a number")
		}
	}
	if v := q.Get("is_new"); v != "" && lq.isNew == nil {
		b := strings.EqualFold(v, "true")
		lq.isNew = &b
	}
	if v := q.Get("trending"); v != "" && lq.trending == nil {
		b := strings.EqualFold(v, "true")
		lq.trending = &b
	}
	if v := q.Get("limit"); v != "" {
		if lq.limit, err = strconv.Atoi(v); err != nil || lq.limit < 0 {
			return lq, errors.New("limit must be a non-negative integer")
		}
	}
	if v := q.Get("offset"); v != "" {
		if lq.offset, err = strconv.Atoi(v); err != nil || lq.offset < 0 {
			return lq, errors.New("offset must be a non-negative integer")
		}
	}
	return lq, nil
}

// sortProducts orders by one of price, rating, createdAt or name; a leading
// "-" sorts descending. Unknown fields keep the source order.
func sortProducts(products []models.Product, field string) {
	desc := strings.HasPrefix(field, "-")
	field = strings.TrimPrefix(field, "-")

	var less func(a, b models.Product) bool
	switch field {
	case "price":
		less = func(a, b models.Product) bool { return a.Price < b.Price }
	case "rating":
		less = func(a, b models.Product) bool { return a.Rating < b.Rating }
	case "createdAt":
		less = func(a, b models.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case "name":
		less = func(a, b models.Product) bool { return a.Name < b.Name }
	default:
		return
	}

	sort.SliceStable(products, func(i, j int) bool {
		if desc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	lq, err := parseListQuery(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	all, err := h.catalog.Products(r.Context())
	if err != nil {
		slog.Error("Failed to load products", "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to load products")
		return
	}

	matched := catalog.Apply(all, lq.filter, "")
	products := matched[:0]
	for _, p := range matched {
		if lq.isNew != nil && p.IsNew != *lq.isNew {
			continue
		}
		if lq.trending != nil && p.Trending != *lq.trending {
			continue
		}
		products = append(products, p)
	}
	sortProducts(products, lq.sort)

	if lq.offset > len(products) {
		lq.offset = len(products)
	}
	products = products[lq.offset:]
	if lq.limit < len(products) {
		products = products[:lq.limit]
	}

	out := make([]productJSON, 0, len(products))
	for _, p := range products {
		out = append(out, h.toJSON(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": out, "count": len(out)})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Product(r.Context(), r.PathValue("id"))
	if errors.Is(err, catalog.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		slog.Error("Failed to load product", "product_id", r.PathValue("id"), "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to load product")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": h.toJSON(p)})
}

func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Rating  *int    `json:"rating"`
		Comment *string `json:"comment"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Rating == nil || req.Comment == nil {
		writeMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if *req.Rating < 1 || *req.Rating > 5 {
		writeMessage(w, http.StatusBadRequest, "Rating must be between 1 and 5")
		return
	}

	id := r.PathValue("id")
	p, err := h.catalog.Product(r.Context(), id)
	if errors.Is(err, catalog.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		slog.Error("Failed to load product", "product_id", id, "error", err)
		writeMessage(w, http.StatusInternalServerError, "Failed to add review")
		return
	}

	h.mu.Lock()
	h.reviews[id] = append(h.reviews[id], reviewJSON{
		ID:        h.nextReview,
		User:      &reviewUserJSON{Name: user.name},
		Rating:    *req.Rating,
		Comment:   *req.Comment,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	h.nextReview++
	h.mu.Unlock()

	if inv, ok := h.catalog.(invalidator); ok {
		if err := inv.Invalidate(r.Context(), id); err != nil {
			slog.Warn("Failed to invalidate cached product", "product_id", id, "error", err)
		}
	}

	slog.Info("Review added", "product_id", id, "user_id", user.id)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Review added successfully",
		"product": h.toJSON(p),
	})
}
