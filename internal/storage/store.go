// Package storage holds the client's persisted state: the session token, the
// signed-in user, the local user list, the guest cart and placed orders.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"egadget-storefront/internal/config"
)

const (
	KeyToken  = "egadget_token"
	KeyUser   = "egadget_user"
	KeyUsers  = "egadget_users"
	KeyCart   = "egadget_cart"
	KeyOrders = "egadget_orders"
)

var ErrNotFound = errors.New("storage: key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Open returns the store selected by cfg.StorageBackend.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(cfg.StoragePath), nil
	case "redis":
		return NewRedisStore(cfg.RedisAddr)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

func GetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, data)
}
