package order

import (
	"time"

	"github.com/rakadenny/backend-kedai/internal/catalog"
	"github.com/rakadenny/backend-kedai/internal/pricing"
)

// Item is one purchased line with its price locked in at checkout time.
type Item struct {
	ProductID string            `json:"productId"`
	Slug      string            `json:"slug,omitempty"`
	Title     string            `json:"title"`
	Selection catalog.Selection `json:"selection,omitempty"`
	UnitPrice pricing.Money     `json:"unitPrice"`
	Qty       int               `json:"qty"`
	Subtotal  pricing.Money     `json:"subtotal"`
}

// Order is the immutable snapshot persisted at checkout. Refund computation
// re-derives per-unit values from this record only; it never consults current
// product prices.
type Order struct {
	ID             string        `json:"id"`
	UserID         string        `json:"userId"`
	Status         string        `json:"status"`
	Currency       string        `json:"currency"`
	Subtotal       pricing.Money `json:"subtotal"`
	Shipping       pricing.Money `json:"shipping"`
	DiscountCode   string        `json:"discountCode,omitempty"`
	CodeDiscount   pricing.Money `json:"codeDiscount"`
	PointsRedeemed int           `json:"pointsRedeemed"`
	PointsDiscount pricing.Money `json:"pointsDiscount"`
	Total          pricing.Money `json:"total"`
	PaymentMethod  string        `json:"paymentMethod,omitempty"`
	Items          []Item        `json:"items"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// TotalQty is the number of units across all lines.
func (o Order) TotalQty() int {
	var total int
	for _, it := range o.Items {
		total += it.Qty
	}
	return total
}
