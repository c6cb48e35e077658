package pgshop

import (
	"context"
	"testing"
	"time"

	"github.com/lighthub/lighthub/internal/models"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPGShop_RepoFlow(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "lighthub_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/lighthub_test?sslmode=disable"
	st, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(st.Close)

	now := time.Now().UTC().Truncate(time.Millisecond)
	next := now.Add(-time.Minute) // already due
	order := &models.Order{
		ID:             "order-1",
		OrderNumber:    "ORD-1",
		TrackingNumber: "TRK-ABC1234",
		Items: []models.OrderItem{
			{ProductID: 1, Name: "Aurora Pendant Light", Price: 30_000, Quantity: 2, Category: "pendant"},
		},
		Subtotal:          60_000,
		Shipping:          2_000,
		Tax:               4_500,
		Total:             66_500,
		Status:            models.OrderStatusPending,
		CreatedAt:         now,
		EstimatedDelivery: now.Add(7 * 24 * time.Hour),
		ShippingAddress:   models.ShippingAddress{FirstName: "Ada", LastName: "Obi", City: "Lagos"},
		ShippingMethod:    models.ShippingStandard,
		StatusHistory: []models.StatusHistoryEntry{
			{Status: models.OrderStatusPending, Timestamp: now, Message: models.StatusMessage(models.OrderStatusPending)},
		},
		NextAdvanceAt: &next,
		UpdatedAt:     now,
	}
	require.NoError(t, st.CreateOrder(ctx, order))

	got, err := st.GetOrderByID(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, int64(66_500), got.Total)
	require.Len(t, got.Items, 1)
	require.Len(t, got.StatusHistory, 1)

	_, err = st.GetOrderByID(ctx, "nope")
	require.ErrorIs(t, err, models.ErrOrderNotFound)

	// claim + lease
	lease := 10 * time.Second
	claimNow := time.Now().UTC()
	due, err := st.ClaimDueOrders(ctx, claimNow, 10, lease)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, "order-1", due[0].ID)
	require.WithinDuration(t, claimNow.Add(lease), *due[0].NextAdvanceAt, 2*time.Second)

	due, err = st.ClaimDueOrders(ctx, claimNow, 10, lease)
	require.NoError(t, err)
	require.Empty(t, due)

	// advance to processing
	loc := models.StatusLocations[models.OrderStatusProcessing]
	stepAt := time.Now().UTC()
	require.NoError(t, st.ApplyOrderStatusUpdate(ctx, models.OrderStatusUpdate{
		OrderID:   "order-1",
		Status:    models.OrderStatusProcessing,
		Message:   models.StatusMessage(models.OrderStatusProcessing),
		Timestamp: stepAt,
		Location:  &loc,
	}))

	got, err = st.GetOrderByID(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusProcessing, got.Status)
	require.Len(t, got.StatusHistory, 2)
	require.NotNil(t, got.CurrentLocation)
	require.Nil(t, got.NextAdvanceAt)

	// cancel, then a stale progression step must be ignored
	cancelLoc := models.StatusLocations[models.OrderStatusCancelled]
	require.NoError(t, st.ApplyOrderStatusUpdate(ctx, models.OrderStatusUpdate{
		OrderID:   "order-1",
		Status:    models.OrderStatusCancelled,
		Message:   models.StatusMessage(models.OrderStatusCancelled),
		Timestamp: time.Now().UTC(),
		Location:  &cancelLoc,
	}))
	require.NoError(t, st.ApplyOrderStatusUpdate(ctx, models.OrderStatusUpdate{
		OrderID:   "order-1",
		Status:    models.OrderStatusShipped,
		Timestamp: time.Now().UTC(),
	}))
	got, err = st.GetOrderByID(ctx, "order-1")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, got.Status)
	require.Len(t, got.StatusHistory, 3)
}

func TestPGShop_PromosProductsNotifications(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "lighthub_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	st, err := New("postgres://admin:admin@" + host + ":" + port.Port() + "/lighthub_test?sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(st.Close)

	now := time.Now().UTC()
	promo := &models.PromoCode{
		ID: "1", Code: "WELCOME20", DiscountType: models.DiscountTypePercentage,
		DiscountValue: 20, MaxUses: 100, CurrentUses: 5, MinOrderAmount: 10_000,
		ExpiryDate: now.Add(90 * 24 * time.Hour), IsActive: true, CreatedAt: now,
	}
	require.NoError(t, st.CreatePromoCode(ctx, promo))
	require.ErrorIs(t, st.CreatePromoCode(ctx, &models.PromoCode{
		ID: "2", Code: "welcome20", DiscountType: models.DiscountTypeFixed,
		ExpiryDate: now, CreatedAt: now,
	}), models.ErrPromoCodeExists)

	require.NoError(t, st.IncrementPromoUses(ctx, "welcome20"))
	require.NoError(t, st.IncrementPromoUses(ctx, "GHOST"))
	codes, err := st.ListPromoCodes(ctx)
	require.NoError(t, err)
	require.Len(t, codes, 1)
	require.Equal(t, int64(6), codes[0].CurrentUses)

	promo.IsActive = false
	require.NoError(t, st.UpdatePromoCode(ctx, promo))
	require.ErrorIs(t, st.DeletePromoCode(ctx, "zzz"), models.ErrPromoCodeNotFound)
	require.NoError(t, st.DeletePromoCode(ctx, "1"))

	p, err := st.CreateProduct(ctx, &models.Product{Name: "Nova Floor Lamp", Price: 80_000, Stock: 4})
	require.NoError(t, err)
	require.NotZero(t, p.ID)
	p.Price = 75_000
	require.NoError(t, st.UpdateProduct(ctx, p))
	got, err := st.GetProductByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, int64(75_000), got.Price)
	require.NoError(t, st.DeleteProduct(ctx, p.ID))
	_, err = st.GetProductByID(ctx, p.ID)
	require.ErrorIs(t, err, models.ErrProductNotFound)

	require.NoError(t, st.CreateNotification(ctx, &models.Notification{
		ID: "n1", Type: models.NotificationSuccess, Title: "Order Confirmed",
		Timestamp: now, OrderID: "order-1",
	}))
	ns, err := st.ListNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, ns, 1)
	require.Equal(t, "order-1", ns[0].OrderID)
	require.NoError(t, st.MarkNotificationRead(ctx, "n1"))
	require.NoError(t, st.MarkAllNotificationsRead(ctx))
}
