package repo

import (
	"context"
	"time"

	"github.com/teslo-shop/backend/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormRepo) FindOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID string, limit, offset int) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var orders []models.Order
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Preload("Items").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkOrderPaid records the payment fields in a single update, the only
// mutation an order ever sees after creation.
func (r *GormRepo) MarkOrderPaid(ctx context.Context, orderID, transactionID string, paidAt time.Time) error {
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"is_paid":        true,
			"transaction_id": transactionID,
			"paid_at":        paidAt,
		}).Error
}
