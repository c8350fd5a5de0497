package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/internal/repository"
	"github.com/fabworks/orderapi/pkg/errors"
)

type orderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB, logger *zap.Logger) *orderRepository {
	return &orderRepository{
		db:     db,
		logger: logger,
	}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	now := domain.Stamp(time.Now())
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	trackingJSON, err := json.Marshal(order.Tracking)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query,
		order.ID,
		order.CustomerEmail,
		order.PlacedBy,
		order.BusinessName,
		order.OrderPlacerName,
		order.PhoneNumber,
		order.ExpectedDeliveryDate,
		itemsJSON,
		order.Status,
		trackingJSON,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create order", zap.Error(err))
		return err
	}

	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	if err != nil {
		r.logger.Error("Failed to get order by ID", zap.Error(err))
		return nil, err
	}

	return order, nil
}

func (r *orderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, error) {
	filter = repository.NormalizeFilter(filter)

	var conds []string
	var args []interface{}
	if filter.CustomerEmail != "" {
		args = append(args, filter.CustomerEmail)
		conds = append(conds, fmt.Sprintf("customer_email = $%d", len(args)))
	}
	if filter.PlacedBy != "" {
		args = append(args, filter.PlacedBy)
		conds = append(conds, fmt.Sprintf("placed_by = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("order_status = $%d", len(args)))
	}

	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

func (r *orderRepository) CountByCustomerEmailExcludingStatuses(ctx context.Context, email string, excluded []domain.OrderStatus) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE customer_email = $1 AND NOT (order_status = ANY($2))
	`

	statuses := make([]string, len(excluded))
	for i, s := range excluded {
		statuses[i] = string(s)
	}

	var count int
	if err := r.db.QueryRowContext(ctx, query, domain.NormalizeEmail(email), pq.Array(statuses)).Scan(&count); err != nil {
		r.logger.Error("Failed to count active orders", zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (r *orderRepository) Update(ctx context.Context, order *domain.Order, expected domain.OrderStatus) error {
	query := `
		UPDATE orders
		SET order_status = $2, tracking = $3, updated_at = $4
		WHERE id = $1 AND order_status = $5
	`

	trackingJSON, err := json.Marshal(order.Tracking)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, query, order.ID, order.Status, trackingJSON, order.UpdatedAt, expected)
	if err != nil {
		r.logger.Error("Failed to update order", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 1 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)`, order.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return &errors.ErrNotFound{Resource: "order", ID: order.ID.String()}
	}
	r.logger.Warn("Order status changed concurrently",
		zap.String("order_id", order.ID.String()),
		zap.String("expected", string(expected)),
	)
	return &errors.ErrConflict{Message: "order was modified concurrently, reload and retry"}
}

func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete order", zap.Error(err))
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &errors.ErrNotFound{Resource: "order", ID: id.String()}
	}
	return nil
}
