package persistence

import (
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/shopspring/decimal"
)

// OrderModel is the orders table row
type OrderModel struct {
	ID            string           `gorm:"type:varchar(64);primaryKey"`
	CreatedAt     time.Time        `gorm:"not null;index"`
	Status        string           `gorm:"type:varchar(20);not null;index"`
	Channel       string           `gorm:"type:varchar(20);not null;default:'WEB'"`
	Total         decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0"`
	CustomerID    string           `gorm:"type:varchar(64);index"`
	CustomerEmail string           `gorm:"type:varchar(255);index"`
	CustomerName  string           `gorm:"type:varchar(200)"`
	Items         []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is the order_items table row
type OrderItemModel struct {
	ID        uint                `gorm:"primaryKey;autoIncrement"`
	OrderID   string              `gorm:"type:varchar(64);not null;index"`
	Position  int                 `gorm:"not null;default:0"`
	ProductID string              `gorm:"type:varchar(64);not null"`
	UnitPrice decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Quantity  int64               `gorm:"not null"`
	Subtotal  decimal.NullDecimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ProductModel is the products table row
type ProductModel struct {
	ID         string              `gorm:"type:varchar(64);primaryKey"`
	Name       string              `gorm:"type:varchar(200);not null"`
	SKU        string              `gorm:"type:varchar(64);index"`
	CategoryID string              `gorm:"type:varchar(64);index"`
	Brand      string              `gorm:"type:varchar(100)"`
	Price      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	CostPrice  decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	Stock      int64               `gorm:"not null;default:0"`
	Active     bool                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the row to a domain order. Items keep their stored order.
func (m *OrderModel) ToDomain() analytics.Order {
	order := analytics.Order{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		Status:    analytics.ParseOrderStatus(m.Status),
		Channel:   analytics.ParseChannel(m.Channel),
		Total:     m.Total,
		Customer: analytics.CustomerRef{
			ID:    m.CustomerID,
			Email: m.CustomerEmail,
			Name:  m.CustomerName,
		},
		Items: make([]analytics.OrderItem, len(m.Items)),
	}
	for i, it := range m.Items {
		order.Items[i] = analytics.OrderItem{
			ProductID: it.ProductID,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		}
		if it.Subtotal.Valid {
			sub := it.Subtotal.Decimal
			order.Items[i].Subtotal = &sub
		}
	}
	return order
}

// FromDomain populates the row from a domain order.
func (m *OrderModel) FromDomain(o analytics.Order) {
	m.ID = o.ID
	m.CreatedAt = o.CreatedAt
	m.Status = string(o.Status)
	m.Channel = string(o.Channel)
	m.Total = o.Total
	m.CustomerID = o.Customer.ID
	m.CustomerEmail = o.Customer.Email
	m.CustomerName = o.Customer.Name
	m.Items = make([]OrderItemModel, len(o.Items))
	for i, it := range o.Items {
		m.Items[i] = OrderItemModel{
			OrderID:   o.ID,
			Position:  i,
			ProductID: it.ProductID,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		}
		if it.Subtotal != nil {
			m.Items[i].Subtotal = decimal.NewNullDecimal(*it.Subtotal)
		}
	}
}

// ToDomain converts the row to a domain product.
func (m *ProductModel) ToDomain() analytics.Product {
	p := analytics.Product{
		ID:         m.ID,
		Name:       m.Name,
		SKU:        m.SKU,
		CategoryID: m.CategoryID,
		Brand:      m.Brand,
		Price:      m.Price,
		Stock:      m.Stock,
		Active:     m.Active,
	}
	if m.CostPrice.Valid {
		cost := m.CostPrice.Decimal
		p.CostPrice = &cost
	}
	return p
}

// FromDomain populates the row from a domain product.
func (m *ProductModel) FromDomain(p analytics.Product) {
	m.ID = p.ID
	m.Name = p.Name
	m.SKU = p.SKU
	m.CategoryID = p.CategoryID
	m.Brand = p.Brand
	m.Price = p.Price
	m.Stock = p.Stock
	m.Active = p.Active
	m.CostPrice = decimal.NullDecimal{}
	if p.CostPrice != nil {
		m.CostPrice = decimal.NewNullDecimal(*p.CostPrice)
	}
}
