package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartLine_ItemID(t *testing.T) {
	p := Product{ID: "p-1", Price: 100}

	assert.Equal(t, "p-1", LocalLine(p, 1).ItemID())
	assert.Equal(t, "42", RemoteLine("42", p, 1).ItemID())
	assert.Equal(t, "p-1", RemoteLine("", p, 1).ItemID())
}

func TestCart_TotalAndCount(t *testing.T) {
	assert.Zero(t, Cart{}.Total())

	c := Cart{Items: []CartLine{
		LocalLine(Product{ID: "a", Price: 65999}, 1),
		LocalLine(Product{ID: "b", Price: 1250.50}, 2),
	}}
	assert.InDelta(t, 68500.0, c.Total(), 1e-9)
	assert.Equal(t, 3, c.Count())

	line, ok := c.Find("b")
	assert.True(t, ok)
	assert.Equal(t, 2, line.Quantity)
	_, ok = c.Find("missing")
	assert.False(t, ok)
}

func TestOrderStatus_CanRequestRefund(t *testing.T) {
	assert.True(t, StatusProcessing.CanRequestRefund())
	assert.True(t, StatusDelivered.CanRequestRefund())
	assert.False(t, StatusRefundRequested.CanRequestRefund())
	assert.False(t, StatusCancelled.CanRequestRefund())
}

func TestParsePaymentMethod(t *testing.T) {
	m, ok := ParsePaymentMethod(" GCash ")
	assert.True(t, ok)
	assert.Equal(t, PaymentGCash, m)

	_, ok = ParsePaymentMethod("paypal")
	assert.False(t, ok)
}

func TestValidationError(t *testing.T) {
	err := Invalid("missing information", "street", "barangay")
	assert.Equal(t, "missing information: street, barangay", err.Error())
	assert.Equal(t, "bad", Invalid("bad").Error())
}
