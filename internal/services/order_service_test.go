package services_test

import (
	"context"
	"testing"
	"time"

	"spiceexport/internal/models"
	"spiceexport/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)

func pepperInput(qty int64) services.OrderItemInput {
	return services.OrderItemInput{ProductID: "black-pepper", Quantity: decimal.NewFromInt(qty), Unit: models.UnitKilogram}
}

func createPepperOrder(t *testing.T, f *fixture, buyerID string) *models.Order {
	t.Helper()
	order, err := f.service.CreateOrder(context.Background(), buyerID, services.CreateOrderInput{
		Products: []services.OrderItemInput{pepperInput(10)},
	})
	require.NoError(t, err)
	return order
}

func priceAndConfirm(t *testing.T, f *fixture, id string, delivery time.Time) *models.Order {
	t.Helper()
	ctx := context.Background()
	_, err := f.service.UpdatePricing(ctx, id, services.PricingInput{
		LineItems:      []models.PriceLine{{ProductID: "black-pepper", UnitPrice: decimal.NewFromInt(500)}},
		Currency:       "INR",
		ShippingCharge: decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	order, err := f.service.UpdateStatus(ctx, id, services.StatusInput{Status: models.StatusConfirmed, EstimatedDeliveryDate: services.At(delivery)})
	require.NoError(t, err)
	return order
}

func TestOrderService_CreateOrder(t *testing.T) {
	f := newFixture(t, baseTime, time.UTC)

	order := createPepperOrder(t, f, "buyer-1")

	assert.Equal(t, models.StatusPending, order.Status)
	assert.True(t, order.TotalAmount.IsZero())
	assert.Equal(t, "Black Pepper", order.Products[0].Name)
	assert.Equal(t, baseTime, order.CreatedAt)
	assert.Len(t, f.notifier.to("buyer1@acme.test"), 1)
	assert.Len(t, f.notifier.to(adminEmail), 1)

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)
}

func TestOrderService_CreateOrderRejectsBadInput(t *testing.T) {
	f := newFixture(t, baseTime, time.UTC)
	ctx := context.Background()
	var ve *models.ValidationError

	_, err := f.service.CreateOrder(ctx, "buyer-1", services.CreateOrderInput{})
	assert.ErrorAs(t, err, &ve)

	_, err = f.service.CreateOrder(ctx, "buyer-1", services.CreateOrderInput{
		Products: []services.OrderItemInput{{ProductID: "saffron", Quantity: decimal.NewFromInt(1), Unit: models.UnitKilogram}},
	})
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, err.Error(), "unknown product")

	all, err := f.orders.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, f.notifier.sent)
}

func TestOrderService_PricingThenConfirm(t *testing.T) {
	f := newFixture(t, baseTime, time.UTC)
	ctx := context.Background()
	order := createPepperOrder(t, f, "buyer-1")
	f.notifier.reset()

	priced, err := f.service.UpdatePricing(ctx, order.ID, services.PricingInput{
		LineItems:      []models.PriceLine{{ProductID: "black-pepper", UnitPrice: decimal.NewFromInt(500)}},
		Currency:       "INR",
		ShippingCharge: decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(5200).Equal(priced.TotalAmount))
	require.Len(t, f.notifier.to("buyer1@acme.test"), 1)
	assert.Contains(t, f.notifier.to("buyer1@acme.test")[0].Subject, "Quotation for order")

	tomorrow := baseTime.Add(24 * time.Hour)
	confirmed, err := f.service.UpdateStatus(ctx, order.ID, services.StatusInput{Status: models.StatusConfirmed, EstimatedDeliveryDate: services.At(tomorrow)})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)
	assert.Len(t, confirmed.PriceUpdateHistory, 1)
	assert.Len(t, f.notifier.to("buyer1@acme.test"), 2)
	assert.Len(t, f.notifier.to(adminEmail), 1)
	assert.Equal(t, 3, confirmed.Version)
}

func TestOrderService_ConfirmWithoutPricing(t *testing.T) {
	f := newFixture(t, baseTime, time.UTC)
	order := createPepperOrder(t, f, "buyer-1")
	tomorrow := baseTime.Add(24 * time.Hour)

	_, err := f.service.UpdateStatus(context.Background(), order.ID, services.StatusInput{Status: models.StatusConfirmed, EstimatedDeliveryDate: services.At(tomorrow)})
	var ise *models.InvalidStateError
	require.ErrorAs(t, err, &ise)
	assert.Contains(t, err.Error(), "pricing required before confirmation")

	stored, err := f.orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, 1, stored.Version)
}

func TestOrderService_BuyerModification(t *testing.T) {
	f := newFixture(t, baseTime, time.UTC)
	ctx := context.Background()
	order := createPepperOrder(t, f, "buyer-1")
	f.notifier.reset()

	modified, err := f.service.ModifyProducts(ctx, order.ID, "buyer-1", services.ModifyProductsInput{
		Products: []services.OrderItemInput{pepperInput(20), {ProductID: "cloves", Quantity: decimal.NewFromInt(500), Unit: models.UnitGram}},
	})
	require.NoError(t, err)
	assert.Len(t, modified.Products, 2)
	assert.Equal(t, "Cloves", modified.Products[1].Name)
	assert.Len(t, modified.ModificationHistory, 1)
	assert.Len(t, f.notifier.to(adminEmail), 1)

	_, err = f.service.ModifyProducts(ctx, order.ID, "buyer-2", services.ModifyProductsInput{Products: []services.OrderItemInput{pepperInput(1)}})
	assert.True(t, models.IsNotFound(err))

	_, err = f.service.ModifyProducts(ctx, order.ID, "buyer-1", services.ModifyProductsInput{})
	var ve *models.ValidationError
	assert.ErrorAs(t, err, &ve)

	stored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.ModificationHistory, 1)
}

func TestOrderService_ModificationAfterConfirmation(t *testing.T) {
	f := newFixture(t, baseTime, time.UTC)
	ctx := context.Background()
	order := createPepperOrder(t, f, "buyer-1")
	confirmed := priceAndConfirm(t, f, order.ID, baseTime.Add(24*time.Hour))

	_, err := f.service.ModifyProducts(ctx, order.ID, "buyer-1", services.ModifyProductsInput{Products: []services.OrderItemInput{pepperInput(99)}})
	var ise *models.InvalidStateError
	require.ErrorAs(t, err, &ise)
	assert.Contains(t, err.Error(), "order already processed")

	stored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, confirmed.Version, stored.Version)
	assert.Empty(t, stored.ModificationHistory)
	assert.True(t, decimal.NewFromInt(10).Equal(stored.Products[0].Quantity))
}

func TestOrderService_RejectIsFinal(t *testing.T) {
	f := newFixture(t, baseTime, time.UTC)
	ctx := context.Background()
	order := createPepperOrder(t, f, "buyer-1")
	f.notifier.reset()

	notes := "out of stock"
	rejected, err := f.service.UpdateStatus(ctx, order.ID, services.StatusInput{Status: models.StatusRejected, AdminNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	buyerMail := f.notifier.to("buyer1@acme.test")
	require.Len(t, buyerMail, 1)
	assert.Contains(t, buyerMail[0].Body, "out of stock")
	assert.Empty(t, f.notifier.to(adminEmail))

	tomorrow := baseTime.Add(24 * time.Hour)
	_, err = f.service.UpdateStatus(ctx, order.ID, services.StatusInput{Status: models.StatusConfirmed, EstimatedDeliveryDate: services.At(tomorrow)})
	var ite *models.InvalidTransitionError
	assert.ErrorAs(t, err, &ite)

	noted, err := f.service.UpdateNotes(ctx, order.ID, services.NotesInput{AdminNotes: "new harvest arrives in May"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, noted.Status)
	assert.Equal(t, "new harvest arrives in May", noted.AdminNotes)
}

func TestOrderService_RepricingConfirmedOrder(t *testing.T) {
	f := newFixture(t, baseTime, time.UTC)
	ctx := context.Background()
	order := createPepperOrder(t, f, "buyer-1")
	priceAndConfirm(t, f, order.ID, baseTime.Add(48*time.Hour))
	f.notifier.reset()

	repriced, err := f.service.UpdatePricing(ctx, order.ID, services.PricingInput{
		LineItems:      []models.PriceLine{{ProductID: "black-pepper", UnitPrice: decimal.NewFromInt(540)}},
		ShippingCharge: decimal.NewFromInt(200),
		Notes:          "monsoon shortage",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, repriced.Status)
	assert.True(t, decimal.NewFromInt(5600).Equal(repriced.TotalAmount))
	assert.Len(t, repriced.PriceUpdateHistory, 2)

	mail := f.notifier.to("buyer1@acme.test")
	require.Len(t, mail, 1)
	assert.Contains(t, mail[0].Subject, "Revised pricing")
	assert.Contains(t, mail[0].Body, "monsoon shortage")
}

func TestOrderService_NotificationFailureKeepsStateChange(t *testing.T) {
	f := newFixture(t, baseTime, time.UTC)
	ctx := context.Background()
	order := createPepperOrder(t, f, "buyer-1")
	f.notifier.failTo["buyer1@acme.test"] = true

	notes := "no capacity this month"
	rejected, err := f.service.UpdateStatus(ctx, order.ID, services.StatusInput{Status: models.StatusRejected, AdminNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)

	stored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, stored.Status)
}

func TestOrderService_VersionConflict(t *testing.T) {
	f := newFixture(t, baseTime, time.UTC)
	ctx := context.Background()
	order := createPepperOrder(t, f, "buyer-1")

	_, err := f.service.ModifyProducts(ctx, order.ID, "buyer-1", services.ModifyProductsInput{Products: []services.OrderItemInput{pepperInput(5)}, Version: 1})
	require.NoError(t, err)

	// Admin still holds version 1.
	_, err = f.service.UpdatePricing(ctx, order.ID, services.PricingInput{
		LineItems: []models.PriceLine{{ProductID: "black-pepper", UnitPrice: decimal.NewFromInt(500)}},
		Version:   1,
	})
	var ce *models.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 2, ce.Actual)

	_, err = f.service.UpdateStatus(ctx, "missing", services.StatusInput{Status: models.StatusRejected})
	assert.True(t, models.IsNotFound(err))
}

func TestOrderService_Listing(t *testing.T) {
	f := newFixture(t, baseTime, time.UTC)
	ctx := context.Background()

	first := createPepperOrder(t, f, "buyer-1")
	f.now = baseTime.Add(time.Hour)
	second := createPepperOrder(t, f, "buyer-1")
	createPepperOrder(t, f, "buyer-2")

	mine, err := f.service.ListMyOrders(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)
	assert.Equal(t, first.ID, mine[1].ID)

	all, err := f.service.ListAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, o := range all {
		require.NotNil(t, o.Buyer)
		assert.Equal(t, o.BuyerID, o.Buyer.ID)
	}

	_, err = f.service.GetOrder(ctx, first.ID, "buyer-2", models.RoleBuyer)
	assert.True(t, models.IsNotFound(err))
	got, err := f.service.GetOrder(ctx, first.ID, "admin-1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Buyer.Username)
}

func TestOrderService_ProductAnalytics(t *testing.T) {
	f := newFixture(t, baseTime, time.UTC)
	ctx := context.Background()

	createPepperOrder(t, f, "buyer-1")
	_, err := f.service.CreateOrder(ctx, "buyer-2", services.CreateOrderInput{Products: []services.OrderItemInput{
		pepperInput(5),
		{ProductID: "black-pepper", Quantity: decimal.NewFromInt(500), Unit: models.UnitGram},
		{ProductID: "turmeric", Quantity: decimal.NewFromInt(2), Unit: models.UnitKilogram},
	}})
	require.NoError(t, err)

	demand, err := f.service.ProductAnalytics(ctx)
	require.NoError(t, err)
	require.Len(t, demand, 2)
	assert.Equal(t, "black-pepper", demand[0].ProductID)
	assert.Equal(t, "15.5", demand[0].TotalKg.String())
	assert.Equal(t, 2, demand[0].OrderCount)
	assert.Equal(t, "turmeric", demand[1].ProductID)
}
