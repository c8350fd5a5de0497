package mongo

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/internal/repository"
	"github.com/fabworks/orderapi/pkg/errors"
)

type orderRepository struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository backed by the orders collection
func NewOrderRepository(db *mongo.Database, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		coll:   db.Collection(ordersCollection),
		logger: logger,
	}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	now := time.Now().UTC()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}

	if _, err := r.coll.InsertOne(ctx, toOrderDocument(order)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &errors.ErrConflict{Message: "order already exists: " + order.ID.String()}
		}
		r.logger.Error("Failed to create order", zap.Error(err))
		return err
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var doc orderDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Error(err))
		return nil, err
	}
	return doc.toDomain()
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	filter = repository.NormalizeFilter(filter)

	query := bson.M{}
	if filter.CustomerEmail != "" {
		query["customerEmail"] = filter.CustomerEmail
	}
	if filter.PlacedBy != "" {
		query["placedBy"] = filter.PlacedBy
	}
	if filter.Status != "" {
		query["orderStatus"] = string(filter.Status)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(filter.Offset)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := make([]*domain.Order, 0)
	for cursor.Next(ctx) {
		var doc orderDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		order, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, cursor.Err()
}

func (r *orderRepository) CountByCustomerEmailExcludingStatuses(ctx context.Context, email string, excluded []domain.OrderStatus) (int, error) {
	statuses := make(bson.A, len(excluded))
	for i, s := range excluded {
		statuses[i] = string(s)
	}

	count, err := r.coll.CountDocuments(ctx, bson.M{
		"customerEmail": domain.NormalizeEmail(email),
		"orderStatus":   bson.M{"$nin": statuses},
	})
	if err != nil {
		r.logger.Error("Failed to count active orders", zap.Error(err))
		return 0, err
	}
	return int(count), nil
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": order.ID.String(), "orderStatus": string(expected)},
		bson.M{"$set": bson.M{
			"orderStatus": string(order.Status),
			"tracking":    toTrackingDocuments(order.Tracking),
			"updatedAt":   order.UpdatedAt,
		}},
	)
	if err != nil {
		r.logger.Error("Failed to update order", zap.Error(err))
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": order.ID.String()})
	if err != nil {
		return err
	}
	if n == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: order.ID.String()}
	}
	r.logger.Warn("Order status changed concurrently",
		zap.String("order_id", order.ID.String()),
		zap.String("expected", string(expected)),
	)
	return &errors.ErrConflict{Message: "order was modified concurrently, reload and retry"}
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		r.logger.Error("Failed to delete order", zap.Error(err))
		return err
	}
	if res.DeletedCount == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return nil
}
