package models

import (
	"strings"
	"time"
)

type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type Review struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
	Date    string `json:"date"`
}

type Product struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	FullDescription string            `json:"fullDescription,omitempty"`
	Price           float64           `json:"price"`
	OriginalPrice   float64           `json:"originalPrice,omitempty"`
	Discount        float64           `json:"discount"`
	Rating          float64           `json:"rating"`
	Stock           int               `json:"stock"`
	Sold            int               `json:"sold"`
	Category        string            `json:"category"`
	Brand           string            `json:"brand"`
	SKU             string            `json:"sku"`
	Images          []string          `json:"images"`
	Features        []string          `json:"features"`
	Specifications  map[string]string `json:"specifications,omitempty"`
	Reviews         []Review          `json:"reviews"`
	IsNew           bool              `json:"isNew"`
	Featured        bool              `json:"featured"`
	Trending        bool              `json:"trending"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// FirstImage returns the product's lead image, or "" when it has none.
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// LineSource tells where a cart line came from. Only remote lines carry a
// server-side line id.
type LineSource string

const (
	SourceLocal  LineSource = "local"
	SourceRemote LineSource = "remote"
)

type CartLine struct {
	Source   LineSource `json:"source"`
	RemoteID string     `json:"id,omitempty"`
	Product  Product    `json:"product"`
	Quantity int        `json:"quantity"`
}

func LocalLine(p Product, quantity int) CartLine {
	return CartLine{Source: SourceLocal, Product: p, Quantity: quantity}
}

func RemoteLine(id string, p Product, quantity int) CartLine {
	return CartLine{Source: SourceRemote, RemoteID: id, Product: p, Quantity: quantity}
}

// ItemID is the identifier the cart API expects for this line: the remote
// line id for remote lines, the product id otherwise.
func (l CartLine) ItemID() string {
	if l.Source == SourceRemote && l.RemoteID != "" {
		return l.RemoteID
	}
	return l.Product.ID
}

func (l CartLine) Subtotal() float64 {
	return l.Product.Price * float64(l.Quantity)
}

type Cart struct {
	Items []CartLine `json:"items"`
}

func (c Cart) Total() float64 {
	var total float64
	for _, line := range c.Items {
		total += line.Subtotal()
	}
	return total
}

// Count is the number of units across all lines.
func (c Cart) Count() int {
	var n int
	for _, line := range c.Items {
		n += line.Quantity
	}
	return n
}

func (c Cart) Find(productID string) (CartLine, bool) {
	for _, line := range c.Items {
		if line.Product.ID == productID {
			return line, true
		}
	}
	return CartLine{}, false
}

// Clone returns a copy whose Items slice can be modified freely.
func (c Cart) Clone() Cart {
	items := make([]CartLine, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

type OrderStatus string

const (
	StatusProcessing      OrderStatus = "processing"
	StatusShipped         OrderStatus = "shipped"
	StatusDelivered       OrderStatus = "delivered"
	StatusRefundRequested OrderStatus = "refund_requested"
	StatusCancelled       OrderStatus = "cancelled"
)

// CanRequestRefund reports whether a refund may still be asked for.
func (s OrderStatus) CanRequestRefund() bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentGCash PaymentMethod = "gcash"
	PaymentCOD   PaymentMethod = "cod"
	PaymentCard  PaymentMethod = "card"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentGCash, PaymentCOD, PaymentCard:
		return m, true
	}
	return "", false
}

type Address struct {
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	Street       string `json:"street"`
	Barangay     string `json:"barangay"`
	Municipality string `json:"municipality"`
	Province     string `json:"province"`
	Region       string `json:"region"`
	IslandGroup  string `json:"islandGroup"`
	PostalCode   string `json:"postalCode,omitempty"`
}

type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    string  `json:"image"`
}

type Order struct {
	ID            string        `json:"id"`
	Date          time.Time     `json:"date"`
	Status        OrderStatus   `json:"status"`
	Items         []OrderItem   `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	Tax           float64       `json:"tax"`
	Shipping      float64       `json:"shipping"`
	Total         float64       `json:"total"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	Address       Address       `json:"address"`
	RefundReason  string        `json:"refundReason,omitempty"`
}
