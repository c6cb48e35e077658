package memshop

import (
	"context"
	"testing"
	"time"

	"github.com/lighthub/lighthub/internal/models"
	"github.com/stretchr/testify/require"
)

func TestStore_OrderFlow(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()
	next := now.Add(7 * time.Second)

	o := &models.Order{
		ID:     "order-1",
		Status: models.OrderStatusPending,
		StatusHistory: []models.StatusHistoryEntry{
			{Status: models.OrderStatusPending, Timestamp: now, Message: models.StatusMessage(models.OrderStatusPending)},
		},
		NextAdvanceAt: &next,
	}
	require.NoError(t, s.CreateOrder(ctx, o))

	got, err := s.GetOrderByID(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusPending, got.Status)

	_, err = s.GetOrderByID(ctx, "order-missing")
	require.ErrorIs(t, err, models.ErrOrderNotFound)

	loc := models.StatusLocations[models.OrderStatusProcessing]
	require.NoError(t, s.ApplyOrderStatusUpdate(ctx, models.OrderStatusUpdate{
		OrderID:   "order-1",
		Status:    models.OrderStatusProcessing,
		Message:   models.StatusMessage(models.OrderStatusProcessing),
		Timestamp: now.Add(time.Second),
		Location:  &loc,
	}))

	got, err = s.GetOrderByID(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusProcessing, got.Status)
	require.Len(t, got.StatusHistory, 2)
	require.NotNil(t, got.CurrentLocation)
	require.Equal(t, "Processing Center, Lagos", got.CurrentLocation.Address)
	require.Nil(t, got.NextAdvanceAt)
}

func TestStore_ApplyOrderStatusUpdate_silentNoOps(t *testing.T) {
	ctx := context.Background()
	s := New()

	// unknown id: no error, no effect
	require.NoError(t, s.ApplyOrderStatusUpdate(ctx, models.OrderStatusUpdate{
		OrderID: "ghost", Status: models.OrderStatusShipped, Timestamp: time.Now(),
	}))

	require.NoError(t, s.CreateOrder(ctx, &models.Order{ID: "o", Status: models.OrderStatusCancelled}))
	// terminal order: a late progression step must not resurrect it
	require.NoError(t, s.ApplyOrderStatusUpdate(ctx, models.OrderStatusUpdate{
		OrderID: "o", Status: models.OrderStatusShipped, Timestamp: time.Now(),
	}))
	got, err := s.GetOrderByID(ctx, "o")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, got.Status)
	require.Empty(t, got.StatusHistory)
}

func TestStore_ClaimDueOrders_leases(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	due := now.Add(-time.Second)
	later := now.Add(time.Hour)
	require.NoError(t, s.CreateOrder(ctx, &models.Order{ID: "due", Status: models.OrderStatusPending, NextAdvanceAt: &due}))
	require.NoError(t, s.CreateOrder(ctx, &models.Order{ID: "later", Status: models.OrderStatusPending, NextAdvanceAt: &later}))
	require.NoError(t, s.CreateOrder(ctx, &models.Order{ID: "done", Status: models.OrderStatusDelivered, NextAdvanceAt: &due}))
	require.NoError(t, s.CreateOrder(ctx, &models.Order{ID: "cancelled", Status: models.OrderStatusCancelled, NextAdvanceAt: &due}))

	lease := 30 * time.Second
	claimed, err := s.ClaimDueOrders(ctx, now, 10, lease)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	require.Equal(t, "due", claimed[0].ID)
	require.WithinDuration(t, now.Add(lease), *claimed[0].NextAdvanceAt, time.Second)

	// leased: a second cycle inside the lease window claims nothing
	claimed, err = s.ClaimDueOrders(ctx, now, 10, lease)
	require.NoError(t, err)
	require.Empty(t, claimed)
}

func TestStore_PromoUses(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreatePromoCode(ctx, &models.PromoCode{ID: "1", Code: "WELCOME20", CurrentUses: 5}))

	require.ErrorIs(t, s.CreatePromoCode(ctx, &models.PromoCode{ID: "2", Code: "welcome20"}), models.ErrPromoCodeExists)

	require.NoError(t, s.IncrementPromoUses(ctx, "welcome20"))
	require.NoError(t, s.IncrementPromoUses(ctx, "NOPE")) // no-op

	codes, err := s.ListPromoCodes(ctx)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	require.Equal(t, int64(6), codes[0].CurrentUses)
}

func TestStore_Notifications(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.CreateNotification(ctx, &models.Notification{ID: "a", Type: models.NotificationSuccess}))
	require.NoError(t, s.CreateNotification(ctx, &models.Notification{ID: "b", Type: models.NotificationInfo}))

	ns, err := s.ListNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, ns, 2)
	require.Equal(t, "b", ns[0].ID) // newest first

	require.NoError(t, s.MarkNotificationRead(ctx, "a"))
	require.ErrorIs(t, s.MarkNotificationRead(ctx, "zzz"), models.ErrNotificationNotFound)

	require.NoError(t, s.MarkAllNotificationsRead(ctx))
	ns, _ = s.ListNotifications(ctx)
	require.True(t, ns[0].Read && ns[1].Read)
}

func TestStore_Products(t *testing.T) {
	ctx := context.Background()
	s := New()
	p, err := s.CreateProduct(ctx, &models.Product{Name: "Aurora Pendant Light", Price: 45_000, Stock: 12})
	require.NoError(t, err)
	require.Equal(t, int64(1), p.ID)

	p.Stock = 11
	require.NoError(t, s.UpdateProduct(ctx, p))

	got, err := s.GetProductByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(11), got.Stock)

	require.NoError(t, s.DeleteProduct(ctx, 1))
	_, err = s.GetProductByID(ctx, 1)
	require.ErrorIs(t, err, models.ErrProductNotFound)
}
