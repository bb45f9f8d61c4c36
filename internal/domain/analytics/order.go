package analytics

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// OrderStatus is the fulfilment state of an order as reported by the order
// management subsystem.
type OrderStatus string

// Order statuses
const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// ParseOrderStatus normalizes a store value. Unknown values are kept verbatim
// (lower-cased) so they still count as sales.
func ParseOrderStatus(s string) OrderStatus {
	return OrderStatus(strings.ToLower(strings.TrimSpace(s)))
}

// IsRevenue reports whether an order in this status contributes to revenue.
// Cancelled and refunded orders never do.
func (s OrderStatus) IsRevenue() bool {
	return s != OrderStatusCancelled && s != OrderStatusRefunded
}

// Channel is the sales channel an order came through.
type Channel string

// Sales channels
const (
	ChannelWeb       Channel = "WEB"
	ChannelPOS       Channel = "POS"
	ChannelAmazonFBA Channel = "AMAZON_FBA"
)

// ParseChannel normalizes a store value; empty defaults to WEB.
func ParseChannel(s string) Channel {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ChannelWeb
	}
	return Channel(s)
}

// CustomerRef is the denormalized customer reference carried on an order.
type CustomerRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NormalizedEmail returns the lower-cased, trimmed email used to merge
// identities across channels.
func (c CustomerRef) NormalizedEmail() string {
	return NormalizeEmail(c.Email)
}

// IdentityKey returns the key orders are grouped by: the customer id, or the
// normalized email when no id is present.
func (c CustomerRef) IdentityKey() string {
	if id := strings.TrimSpace(c.ID); id != "" {
		return id
	}
	return c.NormalizedEmail()
}

// NormalizeEmail trims an email address, maps compatibility characters
// (full-width letters and the like) to their canonical form and case-folds
// it. A Caser is stateful, so one is built per call.
func NormalizeEmail(email string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(email)))
}

// OrderItem is one line of an order.
type OrderItem struct {
	ProductID string           `json:"product_id"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Quantity  int64            `json:"quantity"`
	Subtotal  *decimal.Decimal `json:"subtotal,omitempty"`
}

// Revenue returns the line revenue: the subtotal when the store provided
// one, otherwise unit price times quantity.
func (i OrderItem) Revenue() decimal.Decimal {
	if i.Subtotal != nil {
		return *i.Subtotal
	}
	return i.UnitPrice.Mul(decimal.NewFromInt(i.Quantity))
}

// Order is an immutable order snapshot as materialized for an analysis window.
type Order struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Status    OrderStatus     `json:"status"`
	Channel   Channel         `json:"channel"`
	Total     decimal.Decimal `json:"total"`
	Items     []OrderItem     `json:"items"`
	Customer  CustomerRef     `json:"customer"`
}

// CountsAsSale reports whether the order contributes to revenue analytics.
func (o Order) CountsAsSale() bool {
	return o.Status.IsRevenue()
}

// Amount returns the order total, or the sum of its line revenues when the
// store recorded no total.
func (o Order) Amount() decimal.Decimal {
	if o.Total.IsPositive() {
		return o.Total
	}
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.Revenue())
	}
	return sum
}
