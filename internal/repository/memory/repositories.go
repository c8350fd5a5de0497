// Package memory keeps orders in process memory. It backs STORE_DRIVER=memory
// for local runs and the service and API tests.
package memory

import (
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/repository"
)

// NewRepositories creates a new set of in-memory repositories
func NewRepositories(logger *zap.Logger) *repository.Repositories {
	return &repository.Repositories{
		Order:          NewOrderRepository(logger),
		IdempotencyKey: NewIdempotencyKeyRepository(logger),
		OrderEvent:     NewOrderEventRepository(logger),
	}
}
