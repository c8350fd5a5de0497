package memory

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fabworks/orderapi/internal/domain"
	"github.com/fabworks/orderapi/internal/repository"
	"github.com/fabworks/orderapi/pkg/errors"
)

func seedOrder(t *testing.T, repo *orderRepository, email string, status domain.OrderStatus, createdAt time.Time) *domain.Order {
	t.Helper()
	o := domain.NewOrder(email, []domain.OrderItem{{ItemCode: "P-1", ProductName: "Panel", Quantity: 1}}, createdAt)
	o.Status = status
	require.NoError(t, repo.Create(context.Background(), o))
	return o
}

func TestOrderRepository_CountExcludesCompletedOnly(t *testing.T) {
	repo := NewOrderRepository(zap.NewNop())
	now := time.Now()
	for _, s := range domain.AllOrderStatuses() {
		seedOrder(t, repo, "a@x.io", s, now)
	}
	seedOrder(t, repo, "b@x.io", domain.OrderStatusPending, now)

	n, err := repo.CountByCustomerEmailExcludingStatuses(context.Background(), " A@X.io", domain.InactiveOrderStatuses())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestOrderRepository_GetByIDReturnsCopy(t *testing.T) {
	repo := NewOrderRepository(zap.NewNop())
	o := seedOrder(t, repo, "a@x.io", domain.OrderStatusPending, time.Now())

	got, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	got.Status = domain.OrderStatusCompleted

	again, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, again.Status)
}

func TestOrderRepository_GetByIDNotFound(t *testing.T) {
	repo := NewOrderRepository(zap.NewNop())
	_, err := repo.GetByID(context.Background(), uuid.New())

	var nf *errors.ErrNotFound
	assert.True(t, stderrors.As(err, &nf))
}

func TestOrderRepository_UpdateGuardsStatus(t *testing.T) {
	repo := NewOrderRepository(zap.NewNop())
	o := seedOrder(t, repo, "a@x.io", domain.OrderStatusPending, time.Now())

	first := o.Clone()
	require.True(t, first.ApplyStatus(domain.OrderStatusAccepted, time.Now()))
	require.NoError(t, repo.Update(context.Background(), first, domain.OrderStatusPending))

	second := o.Clone()
	require.True(t, second.ApplyStatus(domain.OrderStatusRejected, time.Now()))
	err := repo.Update(context.Background(), second, domain.OrderStatusPending)

	var conflict *errors.ErrConflict
	require.True(t, stderrors.As(err, &conflict))

	stored, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusAccepted, stored.Status)
	assert.Len(t, stored.Tracking, 6)
}

func TestOrderRepository_ListFiltersAndPages(t *testing.T) {
	repo := NewOrderRepository(zap.NewNop())
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		ids = append(ids, seedOrder(t, repo, "a@x.io", domain.OrderStatusPending, base.Add(time.Duration(i)*time.Hour)).ID)
	}
	seedOrder(t, repo, "b@x.io", domain.OrderStatusAccepted, base)

	page, err := repo.List(context.Background(), repository.OrderFilter{CustomerEmail: "a@x.io", Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[3], page[0].ID)
	assert.Equal(t, ids[2], page[1].ID)

	accepted, err := repo.List(context.Background(), repository.OrderFilter{Status: domain.OrderStatusAccepted})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, "b@x.io", accepted[0].CustomerEmail)

	empty, err := repo.List(context.Background(), repository.OrderFilter{Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOrderRepository_Delete(t *testing.T) {
	repo := NewOrderRepository(zap.NewNop())
	o := seedOrder(t, repo, "a@x.io", domain.OrderStatusPending, time.Now())

	require.NoError(t, repo.Delete(context.Background(), o.ID))
	var nf *errors.ErrNotFound
	assert.True(t, stderrors.As(repo.Delete(context.Background(), o.ID), &nf))
}
