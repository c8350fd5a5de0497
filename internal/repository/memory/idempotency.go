package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/pkg/errors"
)

type idempotencyKeyRepository struct {
	mu     sync.RWMutex
	keys   map[string]domain.IdempotencyKey
	logger *zap.Logger
}

// NewIdempotencyKeyRepository creates a new in-memory idempotency key repository
func NewIdempotencyKeyRepository(logger *zap.Logger) *idempotencyKeyRepository {
	return &idempotencyKeyRepository{
		keys:   make(map[string]domain.IdempotencyKey),
		logger: logger,
	}
}

func (r *idempotencyKeyRepository) GetByKey(ctx context.Context, key string) (*domain.IdempotencyKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.keys[key]
	if !ok {
		return nil, nil
	}
	return &k, nil
}

func (r *idempotencyKeyRepository) Create(ctx context.Context, key *domain.IdempotencyKey) error {
	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.keys[key.Key]; exists {
		return &errors.ErrConflict{Message: "idempotency key already used"}
	}
	r.keys[key.Key] = *key
	return nil
}
