// Package seed generates deterministic demo catalogs and order histories for
// development record stores.
package seed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
)

// ErrInvalidConfig is returned for unusable generator settings.
var ErrInvalidConfig = errors.New("invalid seed config")

// Config controls the size and shape of the generated dataset.
type Config struct {
	Seed         uint64    // Non-zero for reproducible output
	Products     int       // Catalog size
	Customers    int       // Customer pool size
	Orders       int       // Orders spread across the window
	Days         int       // Window length ending at End
	End          time.Time // Exclusive window end
	MaxLineItems int
}

// DefaultConfig returns a small dataset covering the last 180 days.
func DefaultConfig(now time.Time) Config {
	return Config{
		Seed:         42,
		Products:     60,
		Customers:    150,
		Orders:       1500,
		Days:         180,
		End:          analytics.StartOfDay(now),
		MaxLineItems: 4,
	}
}

func (c Config) validate() error {
	switch {
	case c.Products <= 0:
		return fmt.Errorf("%w: products must be positive", ErrInvalidConfig)
	case c.Customers <= 0:
		return fmt.Errorf("%w: customers must be positive", ErrInvalidConfig)
	case c.Orders < 0:
		return fmt.Errorf("%w: orders cannot be negative", ErrInvalidConfig)
	case c.Days <= 0:
		return fmt.Errorf("%w: days must be positive", ErrInvalidConfig)
	case c.MaxLineItems <= 0:
		return fmt.Errorf("%w: max line items must be positive", ErrInvalidConfig)
	case c.End.IsZero():
		return fmt.Errorf("%w: end is required", ErrInvalidConfig)
	}
	return nil
}

// Dataset is a generated catalog plus its order history.
type Dataset struct {
	Products []analytics.Product
	Orders   []analytics.Order
}

// Generator produces datasets from a seeded faker.
type Generator struct {
	faker  *gofakeit.Faker
	config Config
}

// NewGenerator creates a generator for the given configuration.
func NewGenerator(cfg Config) (*Generator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Generator{
		faker:  gofakeit.New(cfg.Seed),
		config: cfg,
	}, nil
}

var (
	channels = []analytics.Channel{analytics.ChannelWeb, analytics.ChannelWeb, analytics.ChannelPOS, analytics.ChannelAmazonFBA}
	statuses = []analytics.OrderStatus{
		analytics.OrderStatusDelivered, analytics.OrderStatusDelivered, analytics.OrderStatusDelivered,
		analytics.OrderStatusShipped, analytics.OrderStatusProcessing, analytics.OrderStatusPending,
		analytics.OrderStatusCancelled, analytics.OrderStatusRefunded,
	}
)

// Generate builds a full dataset. Orders are returned in creation order.
func (g *Generator) Generate() Dataset {
	products := g.products()
	customers := g.customers()

	start := g.config.End.AddDate(0, 0, -g.config.Days)
	span := int(g.config.End.Sub(start) / time.Second)

	orders := make([]analytics.Order, 0, g.config.Orders)
	for i := 0; i < g.config.Orders; i++ {
		createdAt := start.Add(time.Duration(g.faker.Number(0, span-1)) * time.Second)
		orders = append(orders, g.order(i, createdAt, products, customers))
	}
	sortByCreatedAt(orders)

	return Dataset{Products: products, Orders: orders}
}

func (g *Generator) products() []analytics.Product {
	brands := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		brands = append(brands, g.faker.Company())
	}

	products := make([]analytics.Product, 0, g.config.Products)
	for i := 0; i < g.config.Products; i++ {
		price := decimal.NewFromFloat(g.faker.Price(5, 500)).Round(2)
		p := analytics.Product{
			ID:         fmt.Sprintf("prod-%04d", i+1),
			Name:       g.faker.ProductName(),
			SKU:        fmt.Sprintf("SKU-%05d", g.faker.Number(10000, 99999)),
			CategoryID: slug(g.faker.ProductCategory()),
			Brand:      brands[g.faker.Number(0, len(brands)-1)],
			Price:      price,
			Stock:      int64(g.faker.Number(0, 400)),
			Active:     g.faker.Number(1, 10) > 1,
		}
		// Some products carry no cost so the default cost ratio applies.
		if g.faker.Number(1, 4) > 1 {
			ratio := decimal.NewFromFloat(g.faker.Float64Range(0.4, 0.8))
			cost := price.Mul(ratio).Round(2)
			p.CostPrice = &cost
		}
		products = append(products, p)
	}
	return products
}

func (g *Generator) customers() []analytics.CustomerRef {
	customers := make([]analytics.CustomerRef, 0, g.config.Customers)
	for i := 0; i < g.config.Customers; i++ {
		c := analytics.CustomerRef{
			ID:    fmt.Sprintf("cust-%05d", i+1),
			Email: g.faker.Email(),
			Name:  g.faker.Name(),
		}
		switch g.faker.Number(1, 10) {
		case 1:
			// Guest checkout: identified by email only.
			c.ID = ""
		case 2:
			// Same person on another channel with a differently cased email.
			if i > 0 {
				prev := customers[g.faker.Number(0, i-1)]
				c.Email = strings.ToUpper(prev.Email)
				c.Name = prev.Name
			}
		}
		customers = append(customers, c)
	}
	return customers
}

func (g *Generator) order(i int, createdAt time.Time, products []analytics.Product, customers []analytics.CustomerRef) analytics.Order {
	lines := g.faker.Number(1, g.config.MaxLineItems)
	items := make([]analytics.OrderItem, 0, lines)
	total := decimal.Zero
	for j := 0; j < lines; j++ {
		p := products[g.faker.Number(0, len(products)-1)]
		item := analytics.OrderItem{
			ProductID: p.ID,
			UnitPrice: p.Price,
			Quantity:  int64(g.faker.Number(1, 5)),
		}
		items = append(items, item)
		total = total.Add(item.Revenue())
	}

	return analytics.Order{
		ID:        fmt.Sprintf("ord-%06d", i+1),
		CreatedAt: createdAt,
		Status:    statuses[g.faker.Number(0, len(statuses)-1)],
		Channel:   channels[g.faker.Number(0, len(channels)-1)],
		Total:     total,
		Items:     items,
		Customer:  customers[g.faker.Number(0, len(customers)-1)],
	}
}

// Writer is the subset of a record store that accepts seeded data.
type Writer interface {
	SaveProducts(ctx context.Context, products []analytics.Product) error
	SaveOrders(ctx context.Context, orders []analytics.Order) error
}

// Load writes the dataset in batches, products first so every order line
// references an existing product.
func Load(ctx context.Context, w Writer, ds Dataset, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	if err := w.SaveProducts(ctx, ds.Products); err != nil {
		return fmt.Errorf("save products: %w", err)
	}
	for start := 0; start < len(ds.Orders); start += batchSize {
		end := min(start+batchSize, len(ds.Orders))
		if err := w.SaveOrders(ctx, ds.Orders[start:end]); err != nil {
			return fmt.Errorf("save orders %d-%d: %w", start, end, err)
		}
	}
	return nil
}

func sortByCreatedAt(orders []analytics.Order) {
	slices.SortStableFunc(orders, func(a, b analytics.Order) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
}

// slug turns a faker category like "home appliances" into "home-appliances".
func slug(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "-")
}
