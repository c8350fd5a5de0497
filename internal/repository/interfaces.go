package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/fabworks/orderapi/internal/domain"
)

// OrderFilter narrows order listings. Zero values mean "any".
type OrderFilter struct {
	CustomerEmail string
	PlacedBy      string
	Status        domain.OrderStatus
	Limit         int
	Offset        int
}

// OrderRepository defines order data access methods
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, error)
	// CountByCustomerEmailExcludingStatuses counts a customer's orders whose status is not in excluded.
	CountByCustomerEmailExcludingStatuses(ctx context.Context, email string, excluded []domain.OrderStatus) (int, error)
	// Update writes status, tracking and updated_at in one atomic step, provided the
	// stored status still equals expected. A mismatch returns *errors.ErrConflict.
	Update(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// IdempotencyKeyRepository defines idempotency key data access methods
type IdempotencyKeyRepository interface {
	GetByKey(ctx context.Context, key string) (*domain.IdempotencyKey, error)
	Create(ctx context.Context, key *domain.IdempotencyKey) error
}

// OrderEventRepository defines order event data access methods
type OrderEventRepository interface {
	Create(ctx context.Context, event *domain.OrderEvent) error
	GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error)
}

// Repositories aggregates all repositories
type Repositories struct {
	Order          OrderRepository
	IdempotencyKey IdempotencyKeyRepository
	OrderEvent     OrderEventRepository
}

// DefaultListLimit is applied when a listing asks for no limit
const DefaultListLimit = 50

// MaxListLimit caps a single listing page
const MaxListLimit = 500

// NormalizeFilter clamps paging values into the supported range
func NormalizeFilter(f OrderFilter) OrderFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	f.CustomerEmail = domain.NormalizeEmail(f.CustomerEmail)
	f.PlacedBy = domain.NormalizeEmail(f.PlacedBy)
	return f
}
