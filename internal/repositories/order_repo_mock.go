package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"spiceexport/internal/models"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
type MockOrderRepository struct {
	orders map[string]*models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*models.Order),
	}
}

// Create adds a new order.
func (r *MockOrderRepository) Create(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.Version == 0 {
		order.Version = 1
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = order.Clone()
	return nil
}

// GetByID returns a copy of the order.
func (r *MockOrderRepository) GetByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, &models.NotFoundError{Entity: "order", ID: id}
	}
	return order.Clone(), nil
}

// ListByBuyer returns the buyer's orders, newest first.
func (r *MockOrderRepository) ListByBuyer(_ context.Context, buyerID string) ([]models.Order, error) {
	return r.collect(func(o *models.Order) bool { return o.BuyerID == buyerID }, true), nil
}

// ListAll returns all orders, newest first.
func (r *MockOrderRepository) ListAll(_ context.Context) ([]models.Order, error) {
	return r.collect(func(*models.Order) bool { return true }, true), nil
}

// Update replaces the stored order when versions match.
func (r *MockOrderRepository) Update(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return &models.NotFoundError{Entity: "order", ID: order.ID}
	}
	if stored.Version != order.Version {
		return &models.ConflictError{OrderID: order.ID, Expected: order.Version, Actual: stored.Version}
	}
	order.Version++
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = order.Clone()
	return nil
}

// ListDueForReminder applies the same filter as the SQL implementation.
func (r *MockOrderRepository) ListDueForReminder(_ context.Context, from, to time.Time) ([]models.Order, error) {
	inWindow := func(t *time.Time) bool {
		return t != nil && !t.Before(from) && t.Before(to)
	}
	return r.collect(func(o *models.Order) bool {
		if o.DeliveryReminderSent || (o.Status != models.StatusConfirmed && o.Status != models.StatusShipped) {
			return false
		}
		if o.EstimatedDeliveryDate != nil {
			return inWindow(o.EstimatedDeliveryDate)
		}
		return inWindow(o.RequestedDeliveryDate)
	}, false), nil
}

func (r *MockOrderRepository) collect(keep func(*models.Order) bool, newestFirst bool) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, *o.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if newestFirst {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
