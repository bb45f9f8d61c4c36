package analytics

import "context"

// OrderFilter narrows a bulk order query. A nil Range means all time; an
// empty Statuses slice means every status.
type OrderFilter struct {
	Range    *DateRange
	Statuses []OrderStatus
}

// Matches reports whether an order satisfies the filter.
func (f OrderFilter) Matches(o Order) bool {
	if f.Range != nil && !f.Range.Contains(o.CreatedAt) {
		return false
	}
	if len(f.Statuses) == 0 {
		return true
	}
	for _, s := range f.Statuses {
		if o.Status == s {
			return true
		}
	}
	return false
}

// RecordStore is the read-only gateway to order and product records.
// Implementations normalize store-native timestamps at the boundary.
type RecordStore interface {
	QueryOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
	QueryProducts(ctx context.Context) ([]Product, error)
}
