package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/domain"
)

type orderEventRepository struct {
	mu     sync.RWMutex
	events map[uuid.UUID][]*domain.OrderEvent
	logger *zap.Logger
}

// NewOrderEventRepository creates a new in-memory order event repository
func NewOrderEventRepository(logger *zap.Logger) *orderEventRepository {
	return &orderEventRepository{
		events: make(map[uuid.UUID][]*domain.OrderEvent),
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

	stored := *event
	if event.EventData != nil {
		stored.EventData = make(map[string]interface{}, len(event.EventData))
		for k, v := range event.EventData {
			stored.EventData[k] = v
		}
	}

	r.mu.Lock()
	r.events[event.OrderID] = append(r.events[event.OrderID], &stored)
	r.mu.Unlock()
	return nil
}

func (r *orderEventRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]*domain.OrderEvent, 0, len(r.events[orderID]))
	for _, e := range r.events[orderID] {
		cp := *e
		events = append(events, &cp)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt.Before(events[j].CreatedAt)
	})
	return events, nil
}
