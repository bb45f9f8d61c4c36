package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRecordStore(t *testing.T) *GormRecordStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	store := NewGormRecordStore(db)
	require.NoError(t, store.Migrate())
	return store
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 12, 0, 0, 0, time.UTC)
}

func TestGormRecordStore_QueryOrders(t *testing.T) {
	store := setupRecordStore(t)
	ctx := context.Background()

	sub := decimal.NewFromInt(45)
	orders := []analytics.Order{
		{
			ID: "o1", CreatedAt: day(1), Status: analytics.OrderStatusDelivered, Channel: analytics.ChannelWeb,
			Total:    decimal.NewFromInt(100),
			Customer: analytics.CustomerRef{ID: "c1", Email: "a@example.com", Name: "Ana"},
			Items: []analytics.OrderItem{
				{ProductID: "p1", UnitPrice: decimal.NewFromInt(50), Quantity: 1},
				{ProductID: "p2", UnitPrice: decimal.NewFromInt(25), Quantity: 2, Subtotal: &sub},
			},
		},
		{ID: "o2", CreatedAt: day(5), Status: analytics.OrderStatusCancelled, Channel: analytics.ChannelPOS, Total: decimal.NewFromInt(10)},
		{ID: "o3", CreatedAt: day(10), Status: analytics.OrderStatusShipped, Channel: analytics.ChannelAmazonFBA, Total: decimal.NewFromInt(30)},
	}
	require.NoError(t, store.SaveOrders(ctx, orders))

	t.Run("all orders oldest first", func(t *testing.T) {
		got, err := store.QueryOrders(ctx, analytics.OrderFilter{})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "o1", got[0].ID)
		assert.Equal(t, "o3", got[2].ID)
	})

	t.Run("items and customer round trip", func(t *testing.T) {
		got, err := store.QueryOrders(ctx, analytics.OrderFilter{})
		require.NoError(t, err)
		first := got[0]
		assert.Equal(t, "c1", first.Customer.ID)
		assert.Equal(t, "a@example.com", first.Customer.Email)
		require.Len(t, first.Items, 2)
		assert.Equal(t, "p1", first.Items[0].ProductID)
		assert.Nil(t, first.Items[0].Subtotal)
		require.NotNil(t, first.Items[1].Subtotal)
		assert.True(t, first.Items[1].Subtotal.Equal(sub))
		assert.True(t, first.Total.Equal(decimal.NewFromInt(100)))
	})

	t.Run("range is half open", func(t *testing.T) {
		r, err := analytics.NewDateRange(day(1), day(10))
		require.NoError(t, err)
		got, err := store.QueryOrders(ctx, analytics.OrderFilter{Range: &r})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "o1", got[0].ID)
		assert.Equal(t, "o2", got[1].ID)
	})

	t.Run("status filter", func(t *testing.T) {
		got, err := store.QueryOrders(ctx, analytics.OrderFilter{
			Statuses: []analytics.OrderStatus{analytics.OrderStatusShipped},
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "o3", got[0].ID)
		assert.Equal(t, analytics.ChannelAmazonFBA, got[0].Channel)
	})
}

func TestGormRecordStore_SaveOrdersReplacesItems(t *testing.T) {
	store := setupRecordStore(t)
	ctx := context.Background()

	order := analytics.Order{
		ID: "o1", CreatedAt: day(1), Status: analytics.OrderStatusPending, Total: decimal.NewFromInt(20),
		Items: []analytics.OrderItem{{ProductID: "p1", UnitPrice: decimal.NewFromInt(10), Quantity: 2}},
	}
	require.NoError(t, store.SaveOrders(ctx, []analytics.Order{order}))

	order.Status = analytics.OrderStatusDelivered
	order.Items = []analytics.OrderItem{{ProductID: "p2", UnitPrice: decimal.NewFromInt(5), Quantity: 4}}
	require.NoError(t, store.SaveOrders(ctx, []analytics.Order{order}))

	got, err := store.QueryOrders(ctx, analytics.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, analytics.OrderStatusDelivered, got[0].Status)
	require.Len(t, got[0].Items, 1)
	assert.Equal(t, "p2", got[0].Items[0].ProductID)
}

func TestGormRecordStore_QueryProducts(t *testing.T) {
	store := setupRecordStore(t)
	ctx := context.Background()

	cost := decimal.NewFromInt(4)
	require.NoError(t, store.SaveProducts(ctx, []analytics.Product{
		{ID: "p2", Name: "Brake pad", Price: decimal.NewFromInt(10), Stock: 3, Active: true},
		{ID: "p1", Name: "Tire", Price: decimal.NewFromInt(8), CostPrice: &cost, Stock: 12, CategoryID: "tires", Brand: "Acme", Active: true},
	}))

	got, err := store.QueryProducts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
	require.NotNil(t, got[0].CostPrice)
	assert.True(t, got[0].CostPrice.Equal(cost))
	assert.Equal(t, int64(12), got[0].Stock)
	assert.Nil(t, got[1].CostPrice)
	assert.Equal(t, analytics.UncategorizedKey, got[1].CategoryKey())
}

func TestGormRecordStore_QueryOrdersError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	dialector := postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT \* FROM "orders"`).WillReturnError(boom)

	store := NewGormRecordStore(gormDB)
	_, err = store.QueryOrders(context.Background(), analytics.OrderFilter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to query orders")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRecordStore_QueryProductsError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	dialector := postgres.New(postgres.Config{Conn: mockDB, DriverName: "postgres"})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT \* FROM "products"`).WillReturnError(errors.New("timeout"))

	_, err = NewGormRecordStore(gormDB).QueryProducts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query products")
}
