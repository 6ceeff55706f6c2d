package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"egadget-storefront/internal/models"
	"egadget-storefront/internal/resilience"
	"egadget-storefront/internal/telemetry"
)

const orderDelay = 1500 * time.Millisecond

var (
	ErrEmptyCart         = errors.New("your cart is empty")
	ErrPaymentIncomplete = errors.New("gcash payment has not been completed")
)

type Cart interface {
	Snapshot() models.Cart
	Clear(ctx context.Context) error
}

type Request struct {
	Address       models.Address
	PaymentMethod models.PaymentMethod
	// Payment must be a completed flow when PaymentMethod is gcash.
	Payment *GCashFlow
}

type Checkout struct {
	cart       Cart
	orders     *OrderBook
	delayScale float64
	now        func() time.Time
	newID      func() string
}

func New(cart Cart, orders *OrderBook, delayScale float64) *Checkout {
	return &Checkout{
		cart:       cart,
		orders:     orders,
		delayScale: delayScale,
		now:        time.Now,
		newID:      randomOrderID,
	}
}

// PlaceOrder synthesises an order from the current cart. Nothing is sent to
// the backend; the order is recorded locally and the cart is emptied.
func (c *Checkout) PlaceOrder(ctx context.Context, req Request) (models.Order, error) {
	if err := ValidateAddress(req.Address); err != nil {
		return models.Order{}, err
	}
	method, ok := models.ParsePaymentMethod(string(req.PaymentMethod))
	if !ok {
		return models.Order{}, models.Invalid("unknown payment method", "paymentMethod")
	}

	cart := c.cart.Snapshot()
	if len(cart.Items) == 0 {
		return models.Order{}, ErrEmptyCart
	}
	if method == models.PaymentGCash && (req.Payment == nil || !req.Payment.Completed()) {
		return models.Order{}, ErrPaymentIncomplete
	}

	if err := resilience.Pause(ctx, resilience.Scale(orderDelay, c.delayScale)); err != nil {
		return models.Order{}, err
	}

	totals := ComputeTotals(cart.Total())
	order := models.Order{
		ID:            c.newID(),
		Date:          c.now(),
		Status:        models.StatusProcessing,
		Items:         snapshotItems(cart),
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Shipping:      totals.Shipping,
		Total:         totals.Total,
		PaymentMethod: method,
		Address:       req.Address,
	}

	if err := c.orders.Save(ctx, order); err != nil {
		return models.Order{}, fmt.Errorf("record order: %w", err)
	}
	if err := c.cart.Clear(ctx); err != nil {
		slog.Warn("Order placed but cart could not be cleared", "order_id", order.ID, "error", err)
	}

	telemetry.OrdersPlaced.WithLabelValues(string(order.PaymentMethod)).Inc()
	slog.Info("Order placed", "order_id", order.ID, "total", order.Total, "payment_method", order.PaymentMethod)
	return order, nil
}

func snapshotItems(cart models.Cart) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, models.OrderItem{
			ID:       line.Product.ID,
			Name:     line.Product.Name,
			Price:    line.Product.Price,
			Quantity: line.Quantity,
			Image:    line.Product.FirstImage(),
		})
	}
	return items
}

func randomOrderID() string {
	return fmt.Sprintf("%06d", rand.IntN(1000000))
}
