package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/GrupoEuro/SmartEC-sub000/internal/domain/analytics"
	"github.com/GrupoEuro/SmartEC-sub000/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoRecordStore reads orders and products from document collections
// whose shape varies between writers (timestamps, field aliases, numeric
// encodings). Decoding is lenient and normalizes everything to domain types.
type MongoRecordStore struct {
	client   *mongo.Client
	orders   *mongo.Collection
	products *mongo.Collection
	logger   *zap.Logger
	now      func() time.Time
}

// NewMongoRecordStore connects to MongoDB and pings the primary.
func NewMongoRecordStore(ctx context.Context, cfg *config.MongoConfig, logger *zap.Logger) (*MongoRecordStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	logger.Info("Mongo record store connected",
		zap.String("database", cfg.Database),
		zap.String("orders_collection", cfg.OrdersCollection),
		zap.String("products_collection", cfg.ProductsCollection),
	)
	return &MongoRecordStore{
		client:   client,
		orders:   db.Collection(cfg.OrdersCollection),
		products: db.Collection(cfg.ProductsCollection),
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Ping checks the primary is reachable
func (s *MongoRecordStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client
func (s *MongoRecordStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// QueryOrders filters on createdAt and status server-side and decodes the rest.
func (s *MongoRecordStore) QueryOrders(ctx context.Context, filter analytics.OrderFilter) ([]analytics.Order, error) {
	cursor, err := s.orders.Find(ctx, orderQuery(filter), options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	orders := make([]analytics.Order, 0, len(docs))
	for _, doc := range docs {
		o, err := decodeOrder(doc, s.now)
		if err != nil {
			s.logger.Warn("Skipping malformed order document", zap.Error(err))
			continue
		}
		// Documents with non-date timestamps escape the server-side range filter.
		if !filter.Matches(o) {
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// QueryProducts returns the whole product collection.
func (s *MongoRecordStore) QueryProducts(ctx context.Context) ([]analytics.Product, error) {
	cursor, err := s.products.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}

	products := make([]analytics.Product, 0, len(docs))
	for _, doc := range docs {
		p, err := decodeProduct(doc)
		if err != nil {
			s.logger.Warn("Skipping malformed product document", zap.Error(err))
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

func orderQuery(filter analytics.OrderFilter) bson.D {
	q := bson.D{}
	if filter.Range != nil {
		q = append(q, bson.E{Key: "$or", Value: bson.A{
			bson.M{"createdAt": bson.M{
				"$gte": primitive.NewDateTimeFromTime(filter.Range.Start),
				"$lt":  primitive.NewDateTimeFromTime(filter.Range.End),
			}},
			bson.M{"createdAt": bson.M{"$not": bson.M{"$type": "date"}}},
		}})
	}
	if len(filter.Statuses) > 0 {
		statuses := bson.A{}
		for _, st := range filter.Statuses {
			statuses = append(statuses, string(st))
		}
		q = append(q, bson.E{Key: "status", Value: bson.M{"$in": statuses}})
	}
	return q
}

var errMissingID = errors.New("document has no id")

func decodeOrder(doc bson.M, now func() time.Time) (analytics.Order, error) {
	id := documentID(doc)
	if id == "" {
		return analytics.Order{}, errMissingID
	}

	o := analytics.Order{
		ID:        id,
		CreatedAt: normalizeTimestamp(doc["createdAt"], now),
		Status:    analytics.ParseOrderStatus(stringField(doc, "status")),
		Channel:   analytics.ParseChannel(stringField(doc, "channel")),
		Total:     toDecimal(doc["total"]),
		Customer:  decodeCustomer(doc),
	}

	if raw, ok := doc["items"].(bson.A); ok {
		o.Items = make([]analytics.OrderItem, 0, len(raw))
		for _, r := range raw {
			item, ok := asMap(r)
			if !ok {
				continue
			}
			o.Items = append(o.Items, decodeItem(item))
		}
	}
	return o, nil
}

func decodeItem(m bson.M) analytics.OrderItem {
	item := analytics.OrderItem{
		ProductID: stringField(m, "productId", "product_id"),
		UnitPrice: toDecimal(firstPresent(m, "price", "unit_price", "unitPrice")),
		Quantity:  toDecimal(m["quantity"]).IntPart(),
	}
	if raw, ok := m["subtotal"]; ok && raw != nil {
		sub := toDecimal(raw)
		item.Subtotal = &sub
	}
	return item
}

func decodeCustomer(doc bson.M) analytics.CustomerRef {
	ref := analytics.CustomerRef{
		ID:    stringField(doc, "customerId", "userId"),
		Email: stringField(doc, "customerEmail", "email"),
		Name:  stringField(doc, "customerName"),
	}
	if nested, ok := asMap(doc["customer"]); ok {
		if ref.ID == "" {
			ref.ID = stringField(nested, "id", "uid")
		}
		if ref.Email == "" {
			ref.Email = stringField(nested, "email")
		}
		if ref.Name == "" {
			ref.Name = stringField(nested, "name")
		}
	}
	return ref
}

func decodeProduct(doc bson.M) (analytics.Product, error) {
	id := documentID(doc)
	if id == "" {
		return analytics.Product{}, errMissingID
	}
	p := analytics.Product{
		ID:         id,
		Name:       stringField(doc, "name"),
		SKU:        stringField(doc, "sku"),
		CategoryID: stringField(doc, "categoryId", "category"),
		Brand:      stringField(doc, "brand"),
		Price:      toDecimal(doc["price"]),
		Stock:      toDecimal(doc["stockQuantity"]).IntPart(),
		Active:     true,
	}
	if p.Stock == 0 {
		p.Stock = toDecimal(doc["stock"]).IntPart()
	}
	if raw, ok := doc["costPrice"]; ok && raw != nil {
		cost := toDecimal(raw)
		p.CostPrice = &cost
	}
	if active, ok := doc["active"].(bool); ok {
		p.Active = active
	}
	return p, nil
}

// normalizeTimestamp accepts BSON dates, native times, {seconds, nanoseconds}
// objects, epoch milliseconds and RFC3339 strings. Anything else maps to now.
func normalizeTimestamp(v any, now func() time.Time) time.Time {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time()
	case time.Time:
		return t
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0)
	case int64:
		return time.UnixMilli(t)
	case int32:
		return time.UnixMilli(int64(t))
	case float64:
		return time.UnixMilli(int64(t))
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	default:
		if m, ok := asMap(v); ok {
			secs, hasSecs := m["seconds"]
			if !hasSecs {
				secs, hasSecs = m["_seconds"]
			}
			if hasSecs {
				nanos := firstPresent(m, "nanoseconds", "_nanoseconds")
				return time.Unix(toDecimal(secs).IntPart(), toDecimal(nanos).IntPart())
			}
		}
	}
	return now()
}

// toDecimal converts any numeric BSON value, or a numeric string, to a decimal.
// Unparseable values become zero.
func toDecimal(v any) decimal.Decimal {
	switch n := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return n
	case int:
		return decimal.NewFromInt(int64(n))
	case int32:
		return decimal.NewFromInt32(n)
	case int64:
		return decimal.NewFromInt(n)
	case float64:
		return decimal.NewFromFloat(n)
	case float32:
		return decimal.NewFromFloat32(n)
	case primitive.Decimal128:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero
		}
		return d
	case string:
		d, err := decimal.NewFromString(n)
		if err != nil {
			return decimal.Zero
		}
		return d
	}
	return decimal.Zero
}

func documentID(doc bson.M) string {
	for _, key := range []string{"id", "_id"} {
		switch v := doc[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case primitive.ObjectID:
			return v.Hex()
		case int32:
			return strconv.FormatInt(int64(v), 10)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

func stringField(m bson.M, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstPresent(m bson.M, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asMap(v any) (bson.M, bool) {
	switch m := v.(type) {
	case bson.M:
		return m, true
	case map[string]any:
		return bson.M(m), true
	case bson.D:
		return m.Map(), true
	}
	return nil, false
}
