package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"spiceexport/internal/models"
	"spiceexport/internal/notify"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) DialAndSend(msgs ...*gomail.Message) error {
	args := m.Called(len(msgs))
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishNotification(body []byte) error {
	args := m.Called(body)
	return args.Error(0)
}

var buyer = &models.UserSummary{ID: "buyer-1", Username: "acme", Email: "buyer@acme.test", Company: "Acme Foods"}

func pricedOrder(t *testing.T) *models.Order {
	t.Helper()
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	o, err := models.NewOrder("buyer-1", []models.LineItem{
		{ProductID: "black-pepper", Name: "Black Pepper", Quantity: decimal.NewFromInt(10), Unit: models.UnitKilogram},
	}, "", nil, now)
	require.NoError(t, err)
	o.ID = "3f2b9c1e-7d4a-4c1b-9e2f-0a1b2c3d4e5f"
	require.NoError(t, o.ApplyPricing([]models.PriceLine{{ProductID: "black-pepper", UnitPrice: decimal.NewFromInt(500)}}, "INR", decimal.NewFromInt(200), "", now))
	return o
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "₹5,200.00", notify.FormatMoney("INR", decimal.NewFromInt(5200)))
	assert.Equal(t, "$12.50", notify.FormatMoney("usd", decimal.RequireFromString("12.5")))
	assert.Equal(t, "AED 0.00", notify.FormatMoney("AED", decimal.Zero))
}

func TestFormatDate(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	d := time.Date(2026, 3, 11, 20, 0, 0, 0, time.UTC) // 01:30 next day in Kolkata
	assert.Equal(t, "Thu, 12 Mar 2026", notify.FormatDate(&d, loc))
	assert.Equal(t, "to be confirmed", notify.FormatDate(nil, loc))
}

func TestRenderer_StatusChangedConfirmed(t *testing.T) {
	r := notify.NewRenderer("admin@spice.test", time.UTC)
	o := pricedOrder(t)
	tomorrow := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	require.NoError(t, o.SetStatus(models.StatusConfirmed, nil, &tomorrow, time.Now()))

	msgs := r.StatusChanged(o, buyer)
	require.Len(t, msgs, 2)
	assert.Equal(t, "buyer@acme.test", msgs[0].To)
	assert.Equal(t, "admin@spice.test", msgs[1].To)
	assert.Contains(t, msgs[0].Subject, "#2C3D4E5F")
	assert.Contains(t, msgs[0].Body, "Black Pepper: 10 kg")
	assert.Contains(t, msgs[0].Body, "₹5,200.00")
	assert.Contains(t, msgs[0].Body, "Wed, 11 Mar 2026")
}

func TestRenderer_RejectedOmitsDeliveryDate(t *testing.T) {
	r := notify.NewRenderer("admin@spice.test", time.UTC)
	o := pricedOrder(t)
	notes := "out of stock"
	require.NoError(t, o.SetStatus(models.StatusRejected, &notes, nil, time.Now()))

	msgs := r.StatusChanged(o, buyer)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Body, "out of stock")
	assert.NotContains(t, msgs[0].Body, "Delivery date")
}

func TestRenderer_OrderCreatedAndDigest(t *testing.T) {
	r := notify.NewRenderer("admin@spice.test", time.UTC)
	o := pricedOrder(t)

	msgs := r.OrderCreated(o, buyer)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[1].Subject, "acme (Acme Foods)")

	digest, ok := r.ReminderDigest([]models.Order{*o}, map[string]*models.UserSummary{"buyer-1": buyer})
	require.True(t, ok)
	assert.Contains(t, digest.Subject, "(1)")
	assert.Contains(t, digest.Body, "#2C3D4E5F")

	_, ok = r.ReminderDigest(nil, nil)
	assert.False(t, ok)

	_, ok = r.DeliveryReminder(o, nil)
	assert.False(t, ok)
}

func TestRenderer_PricingRevision(t *testing.T) {
	r := notify.NewRenderer("", time.UTC)
	o := pricedOrder(t)

	msgs := r.PricingUpdated(o, buyer, true)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Subject, "Revised pricing")
	assert.Contains(t, msgs[0].Body, "₹5,200.00")
	assert.Empty(t, r.BuyerModified(o, buyer))
}

func TestMailer_SendsAndTrips(t *testing.T) {
	sender := new(mockSender)
	mailer := notify.NewMailerWithSender(sender, "orders@spice.test")
	n := notify.Notification{To: "buyer@acme.test", Subject: "hi", Body: "body"}

	sender.On("DialAndSend", 1).Return(nil).Once()
	assert.NoError(t, mailer.Notify(context.Background(), n))

	sender.On("DialAndSend", 1).Return(errors.New("connection refused")).Times(5)
	for i := 0; i < 5; i++ {
		assert.Error(t, mailer.Notify(context.Background(), n))
	}

	// Breaker is open now: no further dial attempts.
	err := mailer.Notify(context.Background(), n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	sender.AssertExpectations(t)
	sender.AssertNumberOfCalls(t, "DialAndSend", 6)
}

func TestQueueNotifier_RoundTrip(t *testing.T) {
	pub := new(mockPublisher)
	var captured []byte
	pub.On("PublishNotification", mock.Anything).Run(func(args mock.Arguments) {
		captured = args.Get(0).([]byte)
	}).Return(nil).Once()

	q := notify.NewQueueNotifier(pub)
	n := notify.Notification{To: "buyer@acme.test", Subject: "Order #1 shipped", Body: "on its way"}
	require.NoError(t, q.Notify(context.Background(), n))

	var decoded notify.Notification
	require.NoError(t, json.Unmarshal(captured, &decoded))
	assert.Equal(t, n, decoded)

	var delivered []notify.Notification
	handler := notify.DeliveryHandler(notify.NotifierFunc(func(_ context.Context, got notify.Notification) error {
		delivered = append(delivered, got)
		return nil
	}))
	require.NoError(t, handler(captured))
	assert.Equal(t, []notify.Notification{n}, delivered)

	assert.Error(t, handler([]byte("{not json")))
	assert.Error(t, handler([]byte(`{"subject":"no recipient"}`)))
	pub.AssertExpectations(t)
}

func TestQueueNotifier_PublishError(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("PublishNotification", mock.Anything).Return(errors.New("channel closed")).Once()

	err := notify.NewQueueNotifier(pub).Notify(context.Background(), notify.Notification{To: "x@y.z"})
	assert.EqualError(t, err, "channel closed")
}
