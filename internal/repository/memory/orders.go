package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/internal/repository"
	"github.com/fabworks/orderapi/pkg/errors"
)

type orderRepository struct {
	mu     sync.RWMutex
	orders map[uuid.UUID]*domain.Order
	logger *zap.Logger
}

// NewOrderRepository creates a new in-memory order repository
func NewOrderRepository(logger *zap.Logger) *orderRepository {
	return &orderRepository{
		orders: make(map[uuid.UUID]*domain.Order),
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

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return &errors.ErrConflict{Message: "order already exists: " + order.ID.String()}
	}
	r.orders[order.ID] = order.Clone()
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return order.Clone(), nil
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	filter = repository.NormalizeFilter(filter)

	r.mu.RLock()
	matched := make([]*domain.Order, 0)
	for _, o := range r.orders {
		if filter.CustomerEmail != "" && o.CustomerEmail != filter.CustomerEmail {
			continue
		}
		if filter.PlacedBy != "" && o.PlacedBy != filter.PlacedBy {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		matched = append(matched, o.Clone())
	}
	r.mu.RUnlock()

	// newest first, same as the SQL store
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if filter.Offset >= len(matched) {
		return []*domain.Order{}, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], nil
}

func (r *orderRepository) CountByCustomerEmailExcludingStatuses(ctx context.Context, email string, excluded []domain.OrderStatus) (int, error) {
	email = domain.NormalizeEmail(email)

	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, o := range r.orders {
		if o.CustomerEmail != email || containsStatus(excluded, o.Status) {
			continue
		}
		count++
	}
	return count, nil
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return &errors.ErrNotFound{Resource: "order", ID: order.ID.String()}
	}
	if stored.Status != expected {
		r.logger.Warn("Order status changed concurrently",
			zap.String("order_id", order.ID.String()),
			zap.String("expected", string(expected)),
			zap.String("actual", string(stored.Status)),
		)
		return &errors.ErrConflict{Message: "order was modified concurrently, reload and retry"}
	}

	stored.Status = order.Status
	stored.Tracking = domain.CloneTracking(order.Tracking)
	stored.UpdatedAt = order.UpdatedAt
	return nil
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	delete(r.orders, id)
	return nil
}

func containsStatus(list []domain.OrderStatus, s domain.OrderStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
