package service

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/admission"
	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/internal/notification"
	"github.com/fabworks/orderapi/internal/repository"
	"github.com/fabworks/orderapi/pkg/errors"
)

// DefaultActiveOrderLimit is the number of non-completed orders a customer may hold
const DefaultActiveOrderLimit = 3

// OrderService is the order lifecycle: placement, admin decisions and tracking
type OrderService interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error)
	SetOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error)
	SetTracking(ctx context.Context, orderID uuid.UUID, stages []TrackingStageInput) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error)
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	GetOrderEvents(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error)
}

// Options tunes the order service
type Options struct {
	ActiveOrderLimit int
}

type orderService struct {
	repos    *repository.Repositories
	notifier notification.Notifier
	locker   admission.Locker
	clock    Clock
	validate *validator.Validate
	limit    int
	logger   *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	repos *repository.Repositories,
	notifier notification.Notifier,
	locker admission.Locker,
	clock Clock,
	opts Options,
	logger *zap.Logger,
) *orderService {
	if locker == nil {
		locker = admission.NewLocalLocker()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if opts.ActiveOrderLimit <= 0 {
		opts.ActiveOrderLimit = DefaultActiveOrderLimit
	}
	return &orderService{
		repos:    repos,
		notifier: notifier,
		locker:   locker,
		clock:    clock,
		validate: newValidator(),
		limit:    opts.ActiveOrderLimit,
		logger:   logger,
	}
}

// PlaceOrder validates the request, applies admission control and stores a Pending order
func (s *orderService) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	delivery, err := s.validatePlaceOrder(&req)
	if err != nil {
		return nil, err
	}

	// Count and insert under one per-customer lock so the cap holds under concurrency
	unlock, err := s.locker.Lock(ctx, req.CustomerEmail)
	if err != nil {
		s.logger.Error("Failed to acquire admission lock", zap.String("customer_email", req.CustomerEmail), zap.Error(err))
		return nil, fmt.Errorf("acquire admission lock: %w", err)
	}
	defer unlock()

	if existing, err := s.replayIdempotent(ctx, req); existing != nil || err != nil {
		return existing, err
	}

	if err := s.checkAdmission(ctx, req.CustomerEmail); err != nil {
		return nil, err
	}

	order := domain.NewOrder(req.CustomerEmail, buildItems(req.Items), s.clock.Now())
	order.ID = uuid.New()
	order.PlacedBy = req.PlacedBy
	if order.PlacedBy == "" {
		order.PlacedBy = order.CustomerEmail
	}
	order.BusinessName = req.BusinessName
	order.OrderPlacerName = req.OrderPlacerName
	order.PhoneNumber = req.PhoneNumber
	order.ExpectedDeliveryDate = delivery

	s.logger.Info("Creating order",
		zap.String("customer_email", order.CustomerEmail),
		zap.String("placed_by", order.PlacedBy),
		zap.Int("item_count", len(order.Items)),
	)
	if err := s.repos.Order.Create(ctx, order); err != nil {
		s.logger.Error("Failed to create order in database", zap.Error(err))
		return nil, err
	}

	if req.IdempotencyKey != "" {
		key := &domain.IdempotencyKey{
			Key:          req.IdempotencyKey,
			AccountEmail: req.PlacedBy,
			OrderID:      order.ID,
			RequestHash:  req.RequestHash,
		}
		if err := s.repos.IdempotencyKey.Create(ctx, key); err != nil {
			s.logger.Warn("Failed to store idempotency key", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}

	s.recordEvent(ctx, order.ID, domain.EventTypeOrderCreated, map[string]interface{}{
		"customer_email": order.CustomerEmail,
		"placed_by":      order.PlacedBy,
		"status":         order.Status,
		"item_count":     len(order.Items),
	})
	s.notifier.NotifyOrderCreated(order)

	return order, nil
}

// checkAdmission enforces the active-order cap. Every status except Completed counts.
func (s *orderService) checkAdmission(ctx context.Context, email string) error {
	active, err := s.repos.Order.CountByCustomerEmailExcludingStatuses(ctx, email, domain.InactiveOrderStatuses())
	if err != nil {
		return fmt.Errorf("count active orders: %w", err)
	}
	if active >= s.limit {
		s.logger.Info("Order rejected by admission control",
			zap.String("customer_email", email),
			zap.Int("active", active),
			zap.Int("limit", s.limit),
		)
		return &errors.ErrAdmissionLimitExceeded{CustomerEmail: email, Active: active, Limit: s.limit}
	}
	return nil
}

// replayIdempotent returns the order a previous request with the same key created
func (s *orderService) replayIdempotent(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	if req.IdempotencyKey == "" {
		return nil, nil
	}
	existing, err := s.repos.IdempotencyKey.GetByKey(ctx, req.IdempotencyKey)
	if err != nil {
		s.logger.Error("Failed to check idempotency key", zap.Error(err))
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	if existing.RequestHash != req.RequestHash || existing.AccountEmail != req.PlacedBy {
		return nil, &errors.ErrConflict{Message: "idempotency key conflict: same key used with different payload"}
	}

	order, err := s.repos.Order.GetByID(ctx, existing.OrderID)
	var nf *errors.ErrNotFound
	if stderrors.As(err, &nf) {
		s.logger.Warn("Idempotency key refers to a deleted order",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.String("order_id", existing.OrderID.String()),
		)
		return nil, &errors.ErrConflict{Message: "idempotency key already used for an order that no longer exists"}
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("Replaying idempotent order placement",
		zap.String("idempotency_key", req.IdempotencyKey),
		zap.String("order_id", order.ID.String()),
	)
	return order, nil
}

// buildItems copies only the whitelisted item fields
func buildItems(in []OrderItemRequest) []domain.OrderItem {
	items := make([]domain.OrderItem, len(in))
	for i, it := range in {
		items[i] = domain.OrderItem{
			ItemCode:    it.ItemCode,
			ProductName: it.ProductName,
			DrawingCode: it.DrawingCode,
			Revision:    it.Revision,
			Quantity:    it.Quantity,
		}
	}
	return items
}

// SetOrderStatus applies an admin decision through the transition table
func (s *orderService) SetOrderStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	trackingBefore := len(order.Tracking)
	if !order.ApplyStatus(status, s.clock.Now()) {
		return nil, &errors.ErrInvalidStateTransition{From: from, To: status}
	}

	if err := s.repos.Order.Update(ctx, order, from); err != nil {
		s.logger.Error("Failed to update order status",
			zap.String("order_id", orderID.String()),
			zap.String("to", string(status)),
			zap.Error(err),
		)
		return nil, err
	}

	data := map[string]interface{}{
		"from": from,
		"to":   order.Status,
	}
	if len(order.Tracking) != trackingBefore {
		data["pipeline_installed"] = true
	}
	s.recordEvent(ctx, order.ID, domain.EventTypeStatusChange, data)
	s.logger.Info("Order status changed",
		zap.String("order_id", order.ID.String()),
		zap.String("from", string(from)),
		zap.String("to", string(order.Status)),
	)

	s.notifier.NotifyStatusChanged(order)
	return order, nil
}

// SetTracking replaces the tracking list and promotes the status when stages are complete
func (s *orderService) SetTracking(ctx context.Context, orderID uuid.UUID, inputs []TrackingStageInput) (*domain.Order, error) {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.AllowsTrackingEdits() {
		return nil, &errors.ErrInvalidState{Status: order.Status, Operation: "update tracking"}
	}

	stages, err := parseTracking(inputs)
	if err != nil {
		return nil, err
	}

	from := order.ReplaceTracking(stages, s.clock.Now())
	if err := s.repos.Order.Update(ctx, order, from); err != nil {
		s.logger.Error("Failed to update order tracking", zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, err
	}

	current := ""
	if idx := domain.CurrentStageIndex(order.Tracking); idx >= 0 {
		current = order.Tracking[idx].Stage
	}
	s.recordEvent(ctx, order.ID, domain.EventTypeTrackingUpdated, map[string]interface{}{
		"stage_count":   len(order.Tracking),
		"current_stage": current,
	})

	if order.Status != from {
		s.recordEvent(ctx, order.ID, domain.EventTypeStatusChange, map[string]interface{}{
			"from":   from,
			"to":     order.Status,
			"source": "tracking",
		})
		s.logger.Info("Order status promoted from tracking",
			zap.String("order_id", order.ID.String()),
			zap.String("from", string(from)),
			zap.String("to", string(order.Status)),
		)
		s.notifier.NotifyStatusChanged(order)
	}

	s.notifier.NotifyTrackingUpdated(order)
	return order, nil
}

// GetOrder returns an order by id
func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.repos.Order.GetByID(ctx, orderID)
}

// ListOrders returns orders matching the filter, newest first
func (s *orderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, &errors.ErrValidation{
			Message: "invalid status filter",
			Fields:  map[string]string{"status": "must be one of Pending, Accepted, Rejected, In Progress, Completed"},
		}
	}
	filter.CustomerEmail = domain.NormalizeEmail(filter.CustomerEmail)
	filter.PlacedBy = domain.NormalizeEmail(filter.PlacedBy)
	return s.repos.Order.List(ctx, filter)
}

// DeleteOrder removes an order. Its audit events are kept.
func (s *orderService) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.repos.Order.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := s.repos.Order.Delete(ctx, orderID); err != nil {
		var nf *errors.ErrNotFound
		if !stderrors.As(err, &nf) {
			s.logger.Error("Failed to delete order", zap.String("order_id", orderID.String()), zap.Error(err))
		}
		return err
	}

	s.recordEvent(ctx, orderID, domain.EventTypeOrderDeleted, map[string]interface{}{
		"customer_email": order.CustomerEmail,
		"status":         order.Status,
	})
	s.logger.Info("Order deleted", zap.String("order_id", orderID.String()))
	return nil
}

// GetOrderEvents returns the audit trail of an order, oldest first
func (s *orderService) GetOrderEvents(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderEvent, error) {
	return s.repos.OrderEvent.GetByOrderID(ctx, orderID)
}

// recordEvent writes an audit event. Failures are logged only.
func (s *orderService) recordEvent(ctx context.Context, orderID uuid.UUID, eventType string, data map[string]interface{}) {
	event := &domain.OrderEvent{
		OrderID:   orderID,
		EventType: eventType,
		EventData: data,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repos.OrderEvent.Create(ctx, event); err != nil {
		s.logger.Warn("Failed to record order event",
			zap.String("order_id", orderID.String()),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
