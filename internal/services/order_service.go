package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"spiceexport/internal/catalog"
	"spiceexport/internal/metrics"
	"spiceexport/internal/models"
	"spiceexport/internal/notify"
	"spiceexport/internal/repositories"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// OrderItemInput is one product line as submitted by a buyer.
type OrderItemInput struct {
	ProductID string          `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      models.Unit     `json:"unit" validate:"required,oneof=kg g"`
}

// CreateOrderInput is the body of a quotation request.
type CreateOrderInput struct {
	Products              []OrderItemInput `json:"products" validate:"required,min=1,dive"`
	DeliveryRequest       string           `json:"delivery_request" validate:"max=2000"`
	RequestedDeliveryDate *DateInput       `json:"requested_delivery_date"`
}

// ModifyProductsInput replaces the products of a pending order.
type ModifyProductsInput struct {
	Products []OrderItemInput `json:"products" validate:"required,min=1,dive"`
	Version  int              `json:"version" validate:"gte=0"`
}

// StatusInput moves an order along the state machine.
type StatusInput struct {
	Status                models.OrderStatus `json:"status" validate:"required"`
	AdminNotes            *string            `json:"admin_notes" validate:"omitempty,max=2000"`
	EstimatedDeliveryDate *DateInput         `json:"estimated_delivery_date"`
	Version               int                `json:"version" validate:"gte=0"`
}

// PricingInput is an admin quotation.
type PricingInput struct {
	LineItems      []models.PriceLine `json:"line_items" validate:"required,min=1,dive"`
	Currency       string             `json:"currency" validate:"omitempty,len=3"`
	ShippingCharge decimal.Decimal    `json:"shipping_charge"`
	Notes          string             `json:"notes" validate:"max=2000"`
	Version        int                `json:"version" validate:"gte=0"`
}

// NotesInput replaces the admin notes without changing status.
type NotesInput struct {
	AdminNotes string `json:"admin_notes" validate:"max=2000"`
	Version    int    `json:"version" validate:"gte=0"`
}

// ProductDemand aggregates ordered quantity per product, normalised to kilograms.
type ProductDemand struct {
	ProductID  string          `json:"product_id"`
	Name       string          `json:"name"`
	TotalKg    decimal.Decimal `json:"total_kg"`
	OrderCount int             `json:"order_count"`
}

// OrderService runs the quotation workflow: it validates requests, applies ledger
// rules, persists the result and notifies buyer and admin.
type OrderService struct {
	orders   repositories.OrderRepository
	users    repositories.UserRepository
	catalog  *catalog.Catalog
	notifier notify.Notifier
	renderer *notify.Renderer
	location *time.Location
	now      func() time.Time
}

// NewOrderService creates a new OrderService. Calendar dates in requests are read in loc.
func NewOrderService(orders repositories.OrderRepository, users repositories.UserRepository, cat *catalog.Catalog, notifier notify.Notifier, renderer *notify.Renderer, loc *time.Location) *OrderService {
	if loc == nil {
		loc = time.UTC
	}
	return &OrderService{
		orders:   orders,
		users:    users,
		catalog:  cat,
		notifier: notifier,
		renderer: renderer,
		location: loc,
		now:      time.Now,
	}
}

// SetClock overrides the time source.
func (s *OrderService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateOrder turns a buyer's cart into a pending quotation request.
func (s *OrderService) CreateOrder(ctx context.Context, buyerID string, in CreateOrderInput) (*models.Order, error) {
	items, err := s.labelItems(in.Products)
	if err != nil {
		return nil, err
	}
	order, err := models.NewOrder(buyerID, items, in.DeliveryRequest, in.RequestedDeliveryDate.resolve(s.location), s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	metrics.OrderTransitions.WithLabelValues("create", string(order.Status)).Inc()
	log.WithFields(log.Fields{"order_id": order.ID, "buyer_id": buyerID}).Info("Order created")
	s.dispatch(ctx, order, s.renderer.OrderCreated(order, s.buyerSummary(ctx, buyerID)))
	return order, nil
}

// GetOrder returns an order visible to the actor: its buyer or an admin.
func (s *OrderService) GetOrder(ctx context.Context, id, actorID string, role models.Role) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != actorID && !models.CanAdministerOrders(role) {
		return nil, &models.NotFoundError{Entity: "order", ID: id}
	}
	if models.CanAdministerOrders(role) {
		order.Buyer = s.buyerSummary(ctx, order.BuyerID)
	}
	return order, nil
}

// ListMyOrders returns the buyer's orders, newest first.
func (s *OrderService) ListMyOrders(ctx context.Context, buyerID string) ([]models.Order, error) {
	return s.orders.ListByBuyer(ctx, buyerID)
}

// ListAllOrders returns every order with the buyer identity populated.
func (s *OrderService) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	buyers := make(map[string]*models.UserSummary)
	for i := range orders {
		id := orders[i].BuyerID
		if _, seen := buyers[id]; !seen {
			buyers[id] = s.buyerSummary(ctx, id)
		}
		orders[i].Buyer = buyers[id]
	}
	return orders, nil
}

// UpdateStatus applies an admin status transition.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, in StatusInput) (*models.Order, error) {
	order, err := s.mutate(ctx, id, in.Version, func(o *models.Order) error {
		return o.SetStatus(in.Status, in.AdminNotes, in.EstimatedDeliveryDate.resolve(s.location), s.now().UTC())
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues("status", string(order.Status)).Inc()
	log.WithFields(log.Fields{"order_id": order.ID, "status": order.Status}).Info("Order status updated")
	s.dispatch(ctx, order, s.renderer.StatusChanged(order, s.buyerSummary(ctx, order.BuyerID)))
	return order, nil
}

// UpdatePricing applies an admin quotation or a later re-pricing.
func (s *OrderService) UpdatePricing(ctx context.Context, id string, in PricingInput) (*models.Order, error) {
	var revised bool
	order, err := s.mutate(ctx, id, in.Version, func(o *models.Order) error {
		revised = len(o.PriceUpdateHistory) > 0 || o.Status == models.StatusConfirmed || o.Status == models.StatusShipped
		return o.ApplyPricing(in.LineItems, in.Currency, in.ShippingCharge, in.Notes, s.now().UTC())
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues("pricing", string(order.Status)).Inc()
	log.WithFields(log.Fields{"order_id": order.ID, "total": order.TotalAmount.String(), "currency": order.Currency}).Info("Order priced")
	s.dispatch(ctx, order, s.renderer.PricingUpdated(order, s.buyerSummary(ctx, order.BuyerID), revised))
	return order, nil
}

// ModifyProducts lets the owning buyer edit a pending order.
func (s *OrderService) ModifyProducts(ctx context.Context, id, buyerID string, in ModifyProductsInput) (*models.Order, error) {
	items, err := s.labelItems(in.Products)
	if err != nil {
		return nil, err
	}
	order, err := s.mutate(ctx, id, in.Version, func(o *models.Order) error {
		if o.BuyerID != buyerID {
			return &models.NotFoundError{Entity: "order", ID: id}
		}
		return o.ApplyBuyerModification(items, s.now().UTC())
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues("modify", string(order.Status)).Inc()
	log.WithFields(log.Fields{"order_id": order.ID, "buyer_id": buyerID}).Info("Order modified by buyer")
	s.dispatch(ctx, order, s.renderer.BuyerModified(order, s.buyerSummary(ctx, buyerID)))
	return order, nil
}

// UpdateNotes replaces the admin notes in any status, terminal ones included.
func (s *OrderService) UpdateNotes(ctx context.Context, id string, in NotesInput) (*models.Order, error) {
	return s.mutate(ctx, id, in.Version, func(o *models.Order) error {
		o.UpdateAdminNotes(in.AdminNotes, s.now().UTC())
		return nil
	})
}

// ProductAnalytics sums ordered quantity per product across all orders.
func (s *OrderService) ProductAnalytics(ctx context.Context) ([]ProductDemand, error) {
	orders, err := s.orders.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	thousand := decimal.NewFromInt(1000)
	byProduct := make(map[string]*ProductDemand)
	for _, o := range orders {
		counted := make(map[string]bool)
		for _, li := range o.Products {
			d, ok := byProduct[li.ProductID]
			if !ok {
				d = &ProductDemand{ProductID: li.ProductID, Name: li.Name, TotalKg: decimal.Zero}
				byProduct[li.ProductID] = d
			}
			qty := li.Quantity
			if li.Unit == models.UnitGram {
				qty = qty.Div(thousand)
			}
			d.TotalKg = d.TotalKg.Add(qty)
			if !counted[li.ProductID] {
				d.OrderCount++
				counted[li.ProductID] = true
			}
		}
	}

	out := make([]ProductDemand, 0, len(byProduct))
	for _, d := range byProduct {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalKg.Cmp(out[j].TotalKg); c != 0 {
			return c > 0
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

// mutate loads an order, checks the caller's version, applies fn and persists.
// Nothing is written when fn fails.
func (s *OrderService) mutate(ctx context.Context, id string, expectedVersion int, fn func(*models.Order) error) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expectedVersion != 0 && expectedVersion != order.Version {
		return nil, &models.ConflictError{OrderID: id, Expected: expectedVersion, Actual: order.Version}
	}
	if err := fn(order); err != nil {
		return nil, err
	}
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) labelItems(in []OrderItemInput) ([]models.LineItem, error) {
	items := make([]models.LineItem, 0, len(in))
	for i, it := range in {
		p, ok := s.catalog.Lookup(it.ProductID)
		if !ok {
			return nil, &models.ValidationError{Field: fmt.Sprintf("products[%d].product_id", i), Message: fmt.Sprintf("unknown product %q", it.ProductID)}
		}
		items = append(items, models.LineItem{ProductID: p.ID, Name: p.Name, Quantity: it.Quantity, Unit: it.Unit})
	}
	return items, nil
}

func (s *OrderService) buyerSummary(ctx context.Context, buyerID string) *models.UserSummary {
	user, err := s.users.GetByID(ctx, buyerID)
	if err != nil {
		log.WithError(err).WithField("buyer_id", buyerID).Warn("Could not load buyer for order")
		return nil
	}
	return user.Summary()
}

// dispatch sends best-effort notifications; failures are logged and never undo the change.
func (s *OrderService) dispatch(ctx context.Context, order *models.Order, msgs []notify.Notification) {
	for _, n := range msgs {
		if err := s.notifier.Notify(ctx, n); err != nil {
			log.WithError(&models.NotificationDeliveryError{Recipient: n.To, Subject: n.Subject, Err: err}).
				WithField("order_id", order.ID).Warn("Notification not delivered")
			continue
		}
		metrics.NotificationsTotal.WithLabelValues("order", "dispatched").Inc()
	}
}
