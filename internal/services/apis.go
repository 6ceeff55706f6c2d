package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"egadget-storefront/internal/models"
)

type AuthAPI struct {
	api *Client
}

func NewAuthAPI(api *Client) *AuthAPI {
	return &AuthAPI{api: api}
}

type authResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) (models.User, error) {
	var resp authResponse
	if err := a.api.Post(ctx, "/auth/login", map[string]string{"email": email, "password": password}, &resp); err != nil {
		return models.User{}, err
	}
	if err := a.api.SetToken(ctx, resp.Token); err != nil {
		return models.User{}, fmt.Errorf("store token: %w", err)
	}
	return resp.User.toModel(), nil
}

func (a *AuthAPI) Register(ctx context.Context, name, email, password string) (models.User, error) {
	var resp authResponse
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := a.api.Post(ctx, "/auth/register", body, &resp); err != nil {
		return models.User{}, err
	}
	if err := a.api.SetToken(ctx, resp.Token); err != nil {
		return models.User{}, fmt.Errorf("store token: %w", err)
	}
	return resp.User.toModel(), nil
}

// Check asks the API whether the stored token is still good. Any failure
// clears the token and reports unauthenticated.
func (a *AuthAPI) Check(ctx context.Context) (*models.User, bool) {
	var resp struct {
		Authenticated bool         `json:"authenticated"`
		User          *userPayload `json:"user"`
	}
	if err := a.api.Get(ctx, "/auth/check", &resp); err != nil {
		slog.Warn("Authentication check failed", "error", err)
		a.api.ClearToken(ctx)
		return nil, false
	}
	if !resp.Authenticated || resp.User == nil {
		return nil, false
	}
	u := resp.User.toModel()
	return &u, true
}

func (a *AuthAPI) Me(ctx context.Context) (models.User, error) {
	var resp struct {
		User userPayload `json:"user"`
	}
	if err := a.api.Get(ctx, "/auth/me", &resp); err != nil {
		a.api.ClearToken(ctx)
		return models.User{}, err
	}
	return resp.User.toModel(), nil
}

// Logout forgets the token. The API keeps no server-side session to end.
func (a *AuthAPI) Logout(ctx context.Context) error {
	a.api.ClearToken(ctx)
	return nil
}

type ProductAPI struct {
	api *Client
}

func NewProductAPI(api *Client) *ProductAPI {
	return &ProductAPI{api: api}
}

// List fetches products; empty filter values are not sent.
func (p *ProductAPI) List(ctx context.Context, filters map[string]string) ([]models.Product, error) {
	endpoint := "/products"
	q := url.Values{}
	for k, v := range filters {
		if v != "" {
			q.Set(k, v)
		}
	}
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var resp struct {
		Products []productPayload `json:"products"`
	}
	if err := p.api.Get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(resp.Products))
	for _, pp := range resp.Products {
		products = append(products, pp.toModel())
	}
	return products, nil
}

func (p *ProductAPI) Get(ctx context.Context, id string) (models.Product, error) {
	var resp struct {
		Product productPayload `json:"product"`
	}
	if err := p.api.Get(ctx, "/products/"+url.PathEscape(id), &resp); err != nil {
		return models.Product{}, err
	}
	return resp.Product.toModel(), nil
}

func (p *ProductAPI) AddReview(ctx context.Context, id string, rating int, comment string) (models.Product, error) {
	var resp struct {
		Product productPayload `json:"product"`
	}
	body := map[string]any{"rating": rating, "comment": comment}
	if err := p.api.Post(ctx, "/products/"+url.PathEscape(id)+"/reviews", body, &resp); err != nil {
		return models.Product{}, err
	}
	return resp.Product.toModel(), nil
}

type CartAPI struct {
	api *Client
}

func NewCartAPI(api *Client) *CartAPI {
	return &CartAPI{api: api}
}

func (c *CartAPI) Get(ctx context.Context) (models.Cart, error) {
	var resp cartPayload
	if err := c.api.Get(ctx, "/cart", &resp); err != nil {
		return models.Cart{}, err
	}
	return resp.toModel(), nil
}

func (c *CartAPI) Add(ctx context.Context, productID string, quantity int) (models.Cart, error) {
	var resp cartPayload
	body := map[string]any{"product_id": productID, "quantity": quantity}
	if err := c.api.Post(ctx, "/cart", body, &resp); err != nil {
		return models.Cart{}, err
	}
	return resp.toModel(), nil
}

func (c *CartAPI) Update(ctx context.Context, itemID string, quantity int) (models.Cart, error) {
	var resp cartPayload
	if err := c.api.Put(ctx, "/cart/"+url.PathEscape(itemID), map[string]int{"quantity": quantity}, &resp); err != nil {
		return models.Cart{}, err
	}
	return resp.toModel(), nil
}

func (c *CartAPI) Remove(ctx context.Context, itemID string) (models.Cart, error) {
	var resp cartPayload
	if err := c.api.Delete(ctx, "/cart/"+url.PathEscape(itemID), &resp); err != nil {
		return models.Cart{}, err
	}
	return resp.toModel(), nil
}

func (c *CartAPI) Clear(ctx context.Context) (models.Cart, error) {
	var resp cartPayload
	if err := c.api.Delete(ctx, "/cart", &resp); err != nil {
		return models.Cart{}, err
	}
	return resp.toModel(), nil
}
