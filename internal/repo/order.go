package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

type OrderFilter struct {
	UserID *uuid.UUID
	Status string
}

// CreateOrder inserts the order with its items.
func (r *GormRepo) CreateOrder(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Create(o).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Order
	if err := q.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FlagOrderForReview persists the review flag and recorded shortages.
func (r *GormRepo) FlagOrderForReview(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Model(o).Select("NeedsReview", "StockShortages").Updates(o).Error
}
