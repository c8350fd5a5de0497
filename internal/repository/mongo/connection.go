package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/config"
)

const (
	ordersCollection          = "orders"
	orderEventsCollection     = "order_events"
	idempotencyKeysCollection = "idempotency_keys"
)

// NewConnection connects to MongoDB and returns the configured database
func NewConnection(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the indexes the order queries rely on
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	orderIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "customerEmail", Value: 1}, {Key: "orderStatus", Value: 1}},
			Options: options.Index().SetName("customer_email_status"),
		},
		{
			Keys:    bson.D{{Key: "placedBy", Value: 1}},
			Options: options.Index().SetName("placed_by"),
		},
		{
			Keys:    bson.D{{Key: "orderStatus", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("status_created_at"),
		},
	}
	if _, err := db.Collection(ordersCollection).Indexes().CreateMany(ctx, orderIndexes); err != nil {
		logger.Error("Failed to create order indexes", zap.Error(err))
		return err
	}

	eventIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "orderId", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("order_id_created_at"),
	}
	if _, err := db.Collection(orderEventsCollection).Indexes().CreateOne(ctx, eventIndex); err != nil {
		logger.Error("Failed to create order event index", zap.Error(err))
		return err
	}

	logger.Info("Mongo indexes ensured")
	return nil
}
