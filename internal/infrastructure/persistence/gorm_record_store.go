package persistence

import (
	"context"
	"fmt"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRecordStore implements analytics.RecordStore over SQL tables.
type GormRecordStore struct {
	db *gorm.DB
}

// NewGormRecordStore creates a new GORM-backed record store
func NewGormRecordStore(db *gorm.DB) *GormRecordStore {
	return &GormRecordStore{db: db}
}

// Migrate creates the record tables. Used by tests and the sqlite dev setup.
func (s *GormRecordStore) Migrate() error {
	return s.db.AutoMigrate(&OrderModel{}, &OrderItemModel{}, &ProductModel{})
}

// QueryOrders returns orders matching filter with their items, oldest first.
func (s *GormRecordStore) QueryOrders(ctx context.Context, filter analytics.OrderFilter) ([]analytics.Order, error) {
	query := s.db.WithContext(ctx).
		Model(&OrderModel{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})

	if filter.Range != nil {
		query = query.Where("created_at >= ? AND created_at < ?", filter.Range.Start, filter.Range.End)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			statuses[i] = string(st)
		}
		query = query.Where("status IN ?", statuses)
	}

	var rows []OrderModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}

	orders := make([]analytics.Order, len(rows))
	for i := range rows {
		orders[i] = rows[i].ToDomain()
	}
	return orders, nil
}

// QueryProducts returns the full catalog.
func (s *GormRecordStore) QueryProducts(ctx context.Context) ([]analytics.Product, error) {
	var rows []ProductModel
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products := make([]analytics.Product, len(rows))
	for i := range rows {
		products[i] = rows[i].ToDomain()
	}
	return products, nil
}

// SaveOrders upserts orders with their items. Used for seeding.
func (s *GormRecordStore) SaveOrders(ctx context.Context, orders []analytics.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, o := range orders {
			var m OrderModel
			m.FromDomain(o)
			if err := tx.Where("order_id = ?", o.ID).Delete(&OrderItemModel{}).Error; err != nil {
				return fmt.Errorf("failed to replace items of order %s: %w", o.ID, err)
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error; err != nil {
				return fmt.Errorf("failed to save order %s: %w", o.ID, err)
			}
		}
		return nil
	})
}

// SaveProducts upserts products. Used for seeding.
func (s *GormRecordStore) SaveProducts(ctx context.Context, products []analytics.Product) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range products {
			var m ProductModel
			m.FromDomain(p)
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error; err != nil {
				return fmt.Errorf("failed to save product %s: %w", p.ID, err)
			}
		}
		return nil
	})
}
