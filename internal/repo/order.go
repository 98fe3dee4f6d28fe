package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/school_bakery/internal/models"
)

type OrderFilter struct {
	// nil means every user
	UserID *uuid.UUID
	Status string
}

func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("Items.Product")
}

// CreateOrder inserts the header and then all line items in one batch,
// numbering the lines in the order given.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	items := order.Items
	if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
		items[i].Position = i
	}
	if len(items) > 0 {
		if err := r.DB.WithContext(ctx).Omit(clause.Associations).Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderDetails(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := withDetails(r.DB.WithContext(ctx)).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter) ([]models.Order, error) {
	q := withDetails(r.DB.WithContext(ctx)).Model(&models.Order{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if s := strings.TrimSpace(f.Status); s != "" && !strings.EqualFold(s, "all") {
		q = q.Where("status = ?", s)
	}

	orders := make([]models.Order, 0)
	if err := q.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus moves the order only if it is still in status from.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
