package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spiceexport/internal/models"

	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create inserts a new order.
func (r *GORMOrderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.Version == 0 {
		order.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order by its ID.
func (r *GORMOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Entity: "order", ID: id}
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// ListByBuyer retrieves the orders placed by one buyer, newest first.
func (r *GORMOrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders for buyer %s: %w", buyerID, err)
	}
	return orders, nil
}

// ListAll retrieves every order, newest first.
func (r *GORMOrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// Update writes every column of order guarded by its version.
func (r *GORMOrderRepository) Update(ctx context.Context, order *models.Order) error {
	next := order.Clone()
	next.Version = order.Version + 1

	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(next)
	if res.Error != nil {
		return fmt.Errorf("failed to update order %s: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		stored, err := r.GetByID(ctx, order.ID)
		if err != nil {
			return err
		}
		return &models.ConflictError{OrderID: order.ID, Expected: order.Version, Actual: stored.Version}
	}
	order.Version = next.Version
	order.UpdatedAt = next.UpdatedAt
	return nil
}

// ListDueForReminder selects orders whose effective delivery date is in [from, to).
// The estimated date wins whenever it is set.
func (r *GORMOrderRepository) ListDueForReminder(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	from, to = from.UTC(), to.UTC()
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("status IN ?", models.ReminderStatuses).
		Where("delivery_reminder_sent = ?", false).
		Where("((estimated_delivery_date >= ? AND estimated_delivery_date < ?) OR (estimated_delivery_date IS NULL AND requested_delivery_date >= ? AND requested_delivery_date < ?))",
			from, to, from, to).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders due for reminder: %w", err)
	}
	return orders, nil
}
