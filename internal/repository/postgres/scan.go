package postgres

import (
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/fabworks/orderapi/internal/domain"
)

const (
	orderColumns = `id, customer_email, placed_by, business_name, order_placer_name, phone_number,
			expected_delivery_date, items, order_status, tracking, created_at, updated_at`
	orderEventColumns     = `id, order_id, event_type, event_data, created_at`
	idempotencyKeyColumns = `key, account_email, order_id, request_hash, created_at`
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var deliveryDate sql.NullTime
	var itemsJSON, trackingJSON []byte

	err := row.Scan(
		&order.ID,
		&order.CustomerEmail,
		&order.PlacedBy,
		&order.BusinessName,
		&order.OrderPlacerName,
		&order.PhoneNumber,
		&deliveryDate,
		&itemsJSON,
		&order.Status,
		&trackingJSON,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if deliveryDate.Valid {
		d := deliveryDate.Time.UTC()
		order.ExpectedDeliveryDate = &d
	}
	if err := decodeJSON("items", itemsJSON, &order.Items); err != nil {
		return nil, err
	}
	if err := decodeJSON("tracking", trackingJSON, &order.Tracking); err != nil {
		return nil, err
	}
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()

	return &order, nil
}

func scanOrderEvent(row rowScanner) (*domain.OrderEvent, error) {
	var event domain.OrderEvent
	var data []byte

	if err := row.Scan(&event.ID, &event.OrderID, &event.EventType, &data, &event.CreatedAt); err != nil {
		return nil, err
	}
	if err := decodeJSON("event data", data, &event.EventData); err != nil {
		return nil, err
	}
	event.CreatedAt = event.CreatedAt.UTC()

	return &event, nil
}

func scanIdempotencyKey(row rowScanner) (*domain.IdempotencyKey, error) {
	var key domain.IdempotencyKey

	if err := row.Scan(&key.Key, &key.AccountEmail, &key.OrderID, &key.RequestHash, &key.CreatedAt); err != nil {
		return nil, err
	}
	key.CreatedAt = key.CreatedAt.UTC()

	return &key, nil
}

// decodeJSON leaves dst untouched for a NULL column
func decodeJSON(column string, raw []byte, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", column, err)
	}
	return nil
}

// encodeJSON writes NULL for a nil map so optional JSONB columns stay empty
func encodeJSON(v map[string]interface{}) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == "23505"
}
