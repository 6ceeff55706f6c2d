package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"egadget-storefront/internal/config"
	"egadget-storefront/internal/resilience"
	"egadget-storefront/internal/storage"
	"egadget-storefront/internal/telemetry"
)

var ErrUnauthorized = errors.New("unauthorized - please log in again")

// APIError is a non-success response other than 401.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Unavailable reports whether the backend failed on its own side.
func (e *APIError) Unavailable() bool {
	return e.Status >= http.StatusInternalServerError
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client speaks JSON to the storefront REST API. The bearer token lives in
// the shared store so that every component sees the same session.
type Client struct {
	baseURL       string
	client        *http.Client
	store         storage.Store
	retryAttempts int
	retryDelay    time.Duration
}

func NewClient(cfg *config.Config, store storage.Store) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		store:         store,
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    500 * time.Millisecond,
	}
}

func (c *Client) Token(ctx context.Context) string {
	token, err := c.store.Get(ctx, storage.KeyToken)
	if err != nil {
		return ""
	}
	return string(token)
}

func (c *Client) SetToken(ctx context.Context, token string) error {
	return c.store.Set(ctx, storage.KeyToken, []byte(token))
}

func (c *Client) ClearToken(ctx context.Context) {
	if err := c.store.Delete(ctx, storage.KeyToken); err != nil {
		slog.Warn("Failed to clear stored token", "error", err)
	}
}

func (c *Client) Get(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

func (c *Client) Post(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPost, endpoint, body, out)
}

func (c *Client) Put(ctx context.Context, endpoint string, body, out any) error {
	return c.do(ctx, http.MethodPut, endpoint, body, out)
}

func (c *Client) Delete(ctx context.Context, endpoint string, out any) error {
	return c.do(ctx, http.MethodDelete, endpoint, nil, out)
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = c.retryAttempts
	}

	err := resilience.Retry(ctx, attempts, c.retryDelay, func() error {
		return c.roundTrip(ctx, method, endpoint, payload, out)
	})
	if err != nil {
		slog.Error("API request failed", "method", method, "endpoint", endpoint, "error", err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, payload []byte, out any) error {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.Token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	route := routeOf(endpoint)
	start := time.Now()

	resp, err := c.client.Do(req)
	if err != nil {
		telemetry.ObserveAPIRequest(method, route, "error", time.Since(start))
		return err
	}
	defer resp.Body.Close()

	telemetry.ObserveAPIRequest(method, route, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode == http.StatusUnauthorized {
		c.ClearToken(ctx)
		return resilience.Permanent(ErrUnauthorized)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		if apiErr.Unavailable() {
			return apiErr
		}
		return resilience.Permanent(apiErr)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resilience.Permanent(fmt.Errorf("decode %s %s response: %w", method, endpoint, err))
	}
	return nil
}

func decodeError(resp *http.Response) *APIError {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return &APIError{Status: resp.StatusCode, Message: "Unknown error"}
	}
	if body.Message == "" {
		return &APIError{Status: resp.StatusCode, Message: fmt.Sprintf("API error: %d", resp.StatusCode)}
	}
	return &APIError{Status: resp.StatusCode, Message: body.Message}
}

// routeOf turns "/cart/17?x=1" into "/cart/:id" for metric labels.
func routeOf(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	parts := strings.Split(endpoint, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if strings.IndexFunc(p, func(r rune) bool { return r < 'a' || r > 'z' }) >= 0 {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}
