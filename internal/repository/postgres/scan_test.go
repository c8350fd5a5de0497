package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabworks/orderapi/internal/domain"
)

// fakeRow hands fixed column values to Scan the way database/sql would
type fakeRow struct {
	values []interface{}
	err    error
}

func (r fakeRow) Scan(dest ...interface{}) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("expected %d destinations, got %d", len(r.values), len(dest))
	}
	for i, d := range dest {
		v := r.values[i]
		switch p := d.(type) {
		case *uuid.UUID:
			*p = v.(uuid.UUID)
		case *string:
			*p = v.(string)
		case *domain.OrderStatus:
			*p = domain.OrderStatus(v.(string))
		case *[]byte:
			if v != nil {
				*p = []byte(v.(string))
			}
		case *time.Time:
			*p = v.(time.Time)
		case *sql.NullTime:
			if v != nil {
				*p = sql.NullTime{Time: v.(time.Time), Valid: true}
			}
		default:
			return fmt.Errorf("unsupported destination %T", d)
		}
	}
	return nil
}

var berlin = time.FixedZone("CEST", 2*60*60)

func TestScanOrder(t *testing.T) {
	id := uuid.New()
	created := time.Date(2026, 6, 15, 16, 0, 0, 0, berlin)

	order, err := scanOrder(fakeRow{values: []interface{}{
		id, "buyer@x.io", "noter@x.io", "Acme", "Dana", "5551234567",
		nil,
		`[{"item_code":"BR-10","product_name":"Bracket","quantity":4}]`,
		"Accepted",
		`[{"stage":"Order Placed"}]`,
		created, created,
	}})
	require.NoError(t, err)

	assert.Equal(t, id, order.ID)
	assert.Equal(t, domain.OrderStatusAccepted, order.Status)
	assert.Nil(t, order.ExpectedDeliveryDate)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "BR-10", order.Items[0].ItemCode)
	assert.Equal(t, 4, order.Items[0].Quantity)
	require.Len(t, order.Tracking, 1)
	assert.Equal(t, domain.StageOrderPlaced, order.Tracking[0].Stage)
	assert.Equal(t, time.UTC, order.CreatedAt.Location())
	assert.True(t, created.Equal(order.CreatedAt))
}

func TestScanOrder_MalformedTracking(t *testing.T) {
	now := time.Now()
	_, err := scanOrder(fakeRow{values: []interface{}{
		uuid.New(), "a@x.io", "a@x.io", "", "", "", nil, `[]`, "Pending", `{not json`, now, now,
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode tracking")
}

func TestScanOrderEvent(t *testing.T) {
	orderID := uuid.New()
	created := time.Date(2026, 6, 15, 16, 0, 0, 0, berlin)

	event, err := scanOrderEvent(fakeRow{values: []interface{}{
		uuid.New(), orderID, domain.EventTypeOrderCreated, `{"status":"Pending","item_count":2}`, created,
	}})
	require.NoError(t, err)

	assert.Equal(t, orderID, event.OrderID)
	assert.Equal(t, domain.EventTypeOrderCreated, event.EventType)
	assert.Equal(t, "Pending", event.EventData["status"])
	assert.Equal(t, float64(2), event.EventData["item_count"])
	assert.Equal(t, time.UTC, event.CreatedAt.Location())
}

func TestScanOrderEvent_NullData(t *testing.T) {
	event, err := scanOrderEvent(fakeRow{values: []interface{}{
		uuid.New(), uuid.New(), domain.EventTypeOrderDeleted, nil, time.Now(),
	}})
	require.NoError(t, err)
	assert.Nil(t, event.EventData)
}

func TestScanIdempotencyKey(t *testing.T) {
	orderID := uuid.New()

	key, err := scanIdempotencyKey(fakeRow{values: []interface{}{
		"k-1", "buyer@x.io", orderID, "abc123", time.Date(2026, 6, 15, 16, 0, 0, 0, berlin),
	}})
	require.NoError(t, err)
	assert.Equal(t, "k-1", key.Key)
	assert.Equal(t, orderID, key.OrderID)
	assert.Equal(t, "abc123", key.RequestHash)
	assert.Equal(t, time.UTC, key.CreatedAt.Location())

	_, err = scanIdempotencyKey(fakeRow{err: sql.ErrNoRows})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEncodeJSON_NilMapIsNull(t *testing.T) {
	data, err := encodeJSON(nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = encodeJSON(map[string]interface{}{"to": "Accepted"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"to":"Accepted"}`, string(data))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(sql.ErrConnDone))
	assert.False(t, isUniqueViolation(nil))
}
