package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fabworks/orderapi/internal/domain"
)

func TestOrderDocument_PreservesTrackingNulls(t *testing.T) {
	created := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	o := domain.NewOrder("c@x.io", []domain.OrderItem{{ItemCode: "A", ProductName: "Angle", Quantity: 3, Revision: "B"}}, created)
	require.True(t, o.ApplyStatus(domain.OrderStatusAccepted, created))

	doc := toOrderDocument(o)
	assert.Equal(t, o.ID.String(), doc.ID)
	assert.Equal(t, "Accepted", doc.OrderStatus)
	require.Len(t, doc.Tracking, 6)
	assert.Nil(t, doc.Tracking[3].ActualDate)

	back, err := doc.toDomain()
	require.NoError(t, err)
	assert.Equal(t, o.Items, back.Items)
	assert.Equal(t, o.Tracking, back.Tracking)
	assert.Equal(t, domain.OrderStatusAccepted, back.Status)
}

func TestOrderDocument_RejectsBadID(t *testing.T) {
	_, err := orderDocument{ID: "not-a-uuid"}.toDomain()
	assert.Error(t, err)
}
