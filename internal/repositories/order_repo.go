package repositories

import (
	"context"
	"time"

	"spiceexport/internal/models"
)

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// ListByBuyer and ListAll return orders newest first.
	ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error)
	ListAll(ctx context.Context) ([]models.Order, error)
	// Update persists order if the stored version still equals order.Version, then
	// increments order.Version. A stale version yields *models.ConflictError.
	Update(ctx context.Context, order *models.Order) error
	// ListDueForReminder returns confirmed or shipped orders not yet reminded whose
	// effective delivery date falls in [from, to).
	ListDueForReminder(ctx context.Context, from, to time.Time) ([]models.Order, error)
}
