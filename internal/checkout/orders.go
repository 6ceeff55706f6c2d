package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"egadget-storefront/internal/models"
	"egadget-storefront/internal/storage"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrRefundNotAllowed = errors.New("refund not allowed for this order status")
)

// OrderBook is the local order history. Orders are kept newest first.
type OrderBook struct {
	mu    sync.Mutex
	store storage.Store
}

func NewOrderBook(store storage.Store) *OrderBook {
	return &OrderBook{store: store}
}

func (b *OrderBook) List(ctx context.Context) ([]models.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.load(ctx)
}

func (b *OrderBook) Get(ctx context.Context, id string) (models.Order, error) {
	orders, err := b.List(ctx)
	if err != nil {
		return models.Order{}, err
	}
	for _, o := range orders {
		if o.ID == id {
			return o, nil
		}
	}
	return models.Order{}, ErrOrderNotFound
}

func (b *OrderBook) Save(ctx context.Context, order models.Order) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	orders, err := b.load(ctx)
	if err != nil {
		return err
	}
	return b.write(ctx, append([]models.Order{order}, orders...))
}

// RequestRefund moves an order to refund_requested. A reason is required.
func (b *OrderBook) RequestRefund(ctx context.Context, id, reason string) (models.Order, error) {
	if strings.TrimSpace(reason) == "" {
		return models.Order{}, models.Invalid("please provide a reason for the refund", "reason")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	orders, err := b.load(ctx)
	if err != nil {
		return models.Order{}, err
	}
	for i := range orders {
		if orders[i].ID != id {
			continue
		}
		if !orders[i].Status.CanRequestRefund() {
			return models.Order{}, fmt.Errorf("%w: %s", ErrRefundNotAllowed, orders[i].Status)
		}
		orders[i].Status = models.StatusRefundRequested
		orders[i].RefundReason = strings.TrimSpace(reason)
		if err := b.write(ctx, orders); err != nil {
			return models.Order{}, err
		}
		slog.Info("Refund requested", "order_id", id)
		return orders[i], nil
	}
	return models.Order{}, ErrOrderNotFound
}

func (b *OrderBook) load(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := storage.GetJSON(ctx, b.store, storage.KeyOrders, &orders)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	return orders, nil
}

func (b *OrderBook) write(ctx context.Context, orders []models.Order) error {
	if err := storage.SetJSON(ctx, b.store, storage.KeyOrders, orders); err != nil {
		return fmt.Errorf("save orders: %w", err)
	}
	return nil
}
