// Package mongo stores orders as single documents in MongoDB. Items and
// tracking live inside the order document, so every update is one atomic write.
package mongo

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/repository"
)

// NewRepositories creates a new set of repositories
func NewRepositories(db *mongo.Database, logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Order:          NewOrderRepository(db, logger),
		IdempotencyKey: NewIdempotencyKeyRepository(db, logger),
		OrderEvent:     NewOrderEventRepository(db, logger),
	}
}
