package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/domain"
)

type orderEventRepository struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

// NewOrderEventRepository creates a new order event repository
func NewOrderEventRepository(db *mongo.Database, logger *zap.Logger) *orderEventRepository {
	return &orderEventRepository{
		coll:   db.Collection(orderEventsCollection),
		logger: logger,
	}
}

func (r *orderEventRepository) Create(ctx context.Context, event *domain.OrderEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := r.coll.InsertOne(ctx, orderEventDocument{
		ID:        event.ID.String(),
		OrderID:   event.OrderID.String(),
		EventType: event.EventType,
		EventData: event.EventData,
		CreatedAt: event.CreatedAt,
	})
	if err != nil {
		r.logger.Error("Failed to create order event", zap.Error(err))
		return err
	}
	return nil
}

func (r *orderEventRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error) {
	cursor, err := r.coll.Find(ctx,
		bson.M{"orderId": orderID.String()},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		r.logger.Error("Failed to get order events by order ID", zap.Error(err))
		return nil, err
	}
	defer cursor.Close(ctx)

	events := make([]*domain.OrderEvent, 0)
	for cursor.Next(ctx) {
		var doc orderEventDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, err
		}
		events = append(events, &domain.OrderEvent{
			ID:        id,
			OrderID:   orderID,
			EventType: doc.EventType,
			EventData: doc.EventData,
			CreatedAt: doc.CreatedAt.UTC(),
		})
	}
	return events, cursor.Err()
}
