package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) ListWishlist(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AddWishlist is idempotent; adding the same product twice keeps one row.
func (r *GormRepo) AddWishlist(ctx context.Context, userID, productID uuid.UUID) (*models.WishlistItem, error) {
	item := models.WishlistItem{UserID: userID, ProductID: productID}
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		FirstOrCreate(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) RemoveWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	return r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{}).Error
}
