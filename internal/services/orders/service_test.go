package orders

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/lighthub/lighthub/internal/broker/messages"
	paymentfake "github.com/lighthub/lighthub/internal/integrations/payment/fake"
	"github.com/lighthub/lighthub/internal/models"
	"github.com/lighthub/lighthub/internal/services/promo"
	"github.com/lighthub/lighthub/internal/storage/memshop"
	"github.com/stretchr/testify/require"
)

type fakeCache struct {
	m map[string][]byte
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok := c.m[key]
	return b, ok, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.m[key] = value
	return nil
}

func newService(t *testing.T) (*Service, *memshop.Store) {
	t.Helper()
	store := memshop.New()
	require.NoError(t, promo.Seed(context.Background(), store))
	svc := New(store, promo.New(store), paymentfake.New(), nil, 0).
		WithStepDelay(func() time.Duration { return 5 * time.Second })
	return svc, store
}

func lampOrder() models.OrderCreateInput {
	return models.OrderCreateInput{
		Items: []models.OrderItem{
			{ProductID: 1, Name: "Brass Pendant Lamp", Price: 25_000, Quantity: 2, Category: "pendant"},
			{ProductID: 2, Name: "LED Floor Lamp", Price: 10_000, Quantity: 1, Category: "floor"},
		},
		ShippingAddress: models.ShippingAddress{
			FirstName: "Ada", LastName: "Obi", Email: "ada@example.com",
			Phone: "0800", Address: "12 Marina Rd", City: "Lagos", State: "LA", ZipCode: "100001",
		},
		ShippingMethod: models.ShippingStandard,
	}
}

func TestCreate_ChecksOutWithPromo(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	in := lampOrder()
	in.PromoCode = "welcome20"
	before := time.Now().UTC()

	o, err := svc.Create(ctx, in)
	require.NoError(t, err)

	require.Equal(t, int64(60_000), o.Subtotal)
	require.NotNil(t, o.Discount)
	require.Equal(t, "WELCOME20", o.Discount.Code)
	require.Equal(t, int64(12_000), o.Discount.DiscountAmount)
	require.Equal(t, int64(2_000), o.Shipping)
	require.Equal(t, int64(3_600), o.Tax)
	require.Equal(t, int64(53_600), o.Total)

	require.Equal(t, models.OrderStatusPending, o.Status)
	require.True(t, strings.HasPrefix(o.ID, "order-"))
	require.True(t, strings.HasPrefix(o.OrderNumber, "ORD-"))
	require.True(t, strings.HasPrefix(o.TrackingNumber, "TRK-"))
	require.Len(t, o.TrackingNumber, len("TRK-")+7)

	require.Len(t, o.StatusHistory, 1)
	require.Equal(t, "Order received. Processing your request.", o.StatusHistory[0].Message)
	require.NotNil(t, o.CurrentLocation)
	require.Equal(t, "Lagos Warehouse", o.CurrentLocation.Address)

	require.WithinDuration(t, before.Add(7*24*time.Hour), o.EstimatedDelivery, 2*time.Second)
	require.NotNil(t, o.NextAdvanceAt)
	require.WithinDuration(t, before.Add(5*time.Second), *o.NextAdvanceAt, 2*time.Second)

	// the promo counter moved exactly once
	codes, err := store.ListPromoCodes(ctx)
	require.NoError(t, err)
	for _, p := range codes {
		if p.Code == "WELCOME20" {
			require.Equal(t, int64(6), p.CurrentUses)
		}
	}

	got, err := store.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, o.Total, got.Total)
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.OrderCreateInput{})
	require.Error(t, err)

	in := lampOrder()
	in.Items[0].Quantity = 0
	_, err = svc.Create(ctx, in)
	require.Error(t, err)

	in = lampOrder()
	in.ShippingAddress.Address = "  "
	_, err = svc.Create(ctx, in)
	require.Error(t, err)
}

func TestCreate_IneligiblePromoFailsCheckout(t *testing.T) {
	svc, store := newService(t)

	in := lampOrder() // subtotal 60 000 < BULK10 minimum
	in.PromoCode = "BULK10"
	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, models.ErrPromoNotEligible)

	orders, err := store.ListOrders(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)
}

func TestCreate_PaymentDeclined(t *testing.T) {
	store := memshop.New()
	require.NoError(t, promo.Seed(context.Background(), store))
	pay := &paymentfake.FakeClient{DeclineOver: 1_000}
	svc := New(store, promo.New(store), pay, nil, 0).
		WithStepDelay(func() time.Duration { return 5 * time.Second })

	in := lampOrder()
	in.PromoCode = "WELCOME20"
	_, err := svc.Create(context.Background(), in)
	require.ErrorIs(t, err, models.ErrPaymentDeclined)

	orders, err := store.ListOrders(context.Background())
	require.NoError(t, err)
	require.Empty(t, orders)

	// declined checkout must not burn a promo use
	codes, err := store.ListPromoCodes(context.Background())
	require.NoError(t, err)
	for _, p := range codes {
		if p.Code == "WELCOME20" {
			require.Equal(t, int64(5), p.CurrentUses)
		}
	}
}

func TestGet_CacheHitSkipsRepo(t *testing.T) {
	store := memshop.New()
	c := &fakeCache{m: map[string][]byte{}}
	svc := New(store, nil, nil, c, 10*time.Minute)

	want := &models.Order{ID: "order-7", Status: models.OrderStatusShipped}
	b, _ := json.Marshal(want)
	c.m["order:order-7:current"] = b

	got, err := svc.Get(context.Background(), "order-7")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusShipped, got.Status)
}

func TestGet_MissBackfillsCache(t *testing.T) {
	store := memshop.New()
	c := &fakeCache{m: map[string][]byte{}}
	svc := New(store, nil, nil, c, 10*time.Minute)

	require.NoError(t, store.CreateOrder(context.Background(), &models.Order{ID: "order-9", Status: models.OrderStatusPending}))

	got, err := svc.Get(context.Background(), "order-9")
	require.NoError(t, err)
	require.Equal(t, "order-9", got.ID)
	require.Contains(t, c.m, "order:order-9:current")

	_, err = svc.Get(context.Background(), "nope")
	require.ErrorIs(t, err, models.ErrOrderNotFound)
}

func TestAdvanceStatus(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, lampOrder())
	require.NoError(t, err)

	require.Error(t, svc.AdvanceStatus(ctx, o.ID, "teleported", ""))

	require.NoError(t, svc.AdvanceStatus(ctx, o.ID, models.OrderStatusShipped, ""))
	got, err := store.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusShipped, got.Status)
	require.Len(t, got.StatusHistory, 2)
	require.Equal(t, "Your order has been shipped!", got.StatusHistory[1].Message)
	require.Equal(t, "In Transit - Lagos to Abuja", got.CurrentLocation.Address)
	require.NotNil(t, got.NextAdvanceAt)

	// repeated landing of the same status appends again
	require.NoError(t, svc.AdvanceStatus(ctx, o.ID, models.OrderStatusShipped, ""))
	got, err = store.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, got.StatusHistory, 3)
}

func TestCancel_StopsProgression(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, lampOrder())
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, o.ID))
	got, err := store.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, got.Status)
	require.Equal(t, "Order cancelled by user.", got.StatusHistory[len(got.StatusHistory)-1].Message)
	require.Nil(t, got.NextAdvanceAt)

	// a step claimed before the cancel landed must not resurrect the order
	na := time.Now().UTC().Add(5 * time.Second)
	require.NoError(t, svc.ApplyStatusChanged(ctx, messages.OrderStatusChanged{
		OrderID:       o.ID,
		Status:        models.OrderStatusProcessing,
		OccurredAt:    time.Now().UTC(),
		NextAdvanceAt: &na,
	}))
	got, err = store.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, got.Status)
	require.Nil(t, got.NextAdvanceAt)
}

func TestApplyStatusChanged_FullProgression(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, lampOrder())
	require.NoError(t, err)

	for _, status := range models.ProgressSequence {
		msg := messages.OrderStatusChanged{
			OrderID:    o.ID,
			Status:     status,
			OccurredAt: time.Now().UTC(),
		}
		if !models.IsTerminalStatus(status) {
			na := time.Now().UTC().Add(5 * time.Second)
			msg.NextAdvanceAt = &na
		}
		require.NoError(t, svc.ApplyStatusChanged(ctx, msg))
	}

	got, err := store.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusDelivered, got.Status)
	require.Len(t, got.StatusHistory, 5)
	require.Nil(t, got.NextAdvanceAt)

	// timestamps never move backwards along the history
	for i := 1; i < len(got.StatusHistory); i++ {
		require.False(t, got.StatusHistory[i].Timestamp.Before(got.StatusHistory[i-1].Timestamp))
	}

	require.Error(t, svc.ApplyStatusChanged(ctx, messages.OrderStatusChanged{}))
}

func TestApplyStatusChanged_UnknownStatusRejected(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	o, err := svc.Create(ctx, lampOrder())
	require.NoError(t, err)

	err = svc.ApplyStatusChanged(ctx, messages.OrderStatusChanged{
		OrderID:    o.ID,
		Status:     "teleported",
		OccurredAt: time.Now().UTC(),
	})
	require.Error(t, err)

	got, err := store.GetOrderByID(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusPending, got.Status)
	require.Len(t, got.StatusHistory, 1)
}
