package services

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"egadget-storefront/internal/models"
)

// flexibleID accepts both numeric and string identifiers; the backend
// serialises row ids as numbers.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

type userPayload struct {
	ID      flexibleID `json:"id"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Phone   string     `json:"phone"`
	Address string     `json:"address"`
}

func (u userPayload) toModel() models.User {
	return models.User{
		ID:      string(u.ID),
		Name:    u.Name,
		Email:   u.Email,
		Phone:   u.Phone,
		Address: u.Address,
	}
}

type reviewPayload struct {
	ID   flexibleID `json:"id"`
	User *struct {
		Name string `json:"name"`
	} `json:"user"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"createdAt"`
}

type productPayload struct {
	ID            flexibleID      `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         float64         `json:"price"`
	OriginalPrice float64         `json:"originalPrice"`
	Discount      float64         `json:"discount"`
	Rating        float64         `json:"rating"`
	Stock         int             `json:"stock"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	Images        []string        `json:"images"`
	Reviews       []reviewPayload `json:"reviews"`
	IsNew         bool            `json:"isNew"`
	Featured      bool            `json:"featured"`
	Trending      bool            `json:"trending"`
	CreatedAt     string          `json:"createdAt"`
}

// toModel fills the fields the backend does not track with empty values.
func (p productPayload) toModel() models.Product {
	product := models.Product{
		ID:              string(p.ID),
		Name:            p.Name,
		Description:     p.Description,
		FullDescription: p.Description,
		Price:           p.Price,
		OriginalPrice:   p.OriginalPrice,
		Discount:        p.Discount,
		Rating:          p.Rating,
		Stock:           p.Stock,
		Category:        p.Category,
		Brand:           p.Brand,
		Images:          p.Images,
		Features:        []string{},
		Specifications:  map[string]string{},
		Reviews:         make([]models.Review, 0, len(p.Reviews)),
		IsNew:           p.IsNew,
		Featured:        p.Featured,
		Trending:        p.Trending,
		CreatedAt:       parseTime(p.CreatedAt),
	}
	if product.Images == nil {
		product.Images = []string{}
	}
	for _, r := range p.Reviews {
		name := "Anonymous"
		if r.User != nil && strings.TrimSpace(r.User.Name) != "" {
			name = r.User.Name
		}
		product.Reviews = append(product.Reviews, models.Review{
			ID:      string(r.ID),
			Name:    name,
			Rating:  r.Rating,
			Comment: r.Comment,
			Date:    r.CreatedAt,
		})
	}
	return product
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

type cartPayload struct {
	Items []struct {
		ID       flexibleID     `json:"id"`
		Product  productPayload `json:"product"`
		Quantity int            `json:"quantity"`
	} `json:"items"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

func (c cartPayload) toModel() models.Cart {
	cart := models.Cart{Items: make([]models.CartLine, 0, len(c.Items))}
	for _, item := range c.Items {
		cart.Items = append(cart.Items, models.RemoteLine(string(item.ID), item.Product.toModel(), item.Quantity))
	}
	return cart
}
