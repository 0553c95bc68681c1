package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

// GetCart loads the cart with its items, oldest first. A user who never
// added anything gets gorm.ErrRecordNotFound.
func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) getOrCreateCart(db *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	cart := models.Cart{UserID: userID}
	if err := db.Where("user_id = ?", userID).FirstOrCreate(&cart).Error; err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *GormRepo) GetCartItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).
		Joins("JOIN carts ON carts.id = cart_items.cart_id").
		Where("carts.user_id = ? AND cart_items.product_id = ?", userID, productID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// AddCartItem adds qty to the user's line for productID, creating the cart
// and the line as needed. The unit price snapshot is refreshed to price.
func (r *GormRepo) AddCartItem(ctx context.Context, userID, productID uuid.UUID, qty int, price decimal.Decimal) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := r.getOrCreateCart(tx, userID)
		if err != nil {
			return err
		}

		res := tx.Model(&models.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cart.ID, productID).
			Updates(map[string]any{
				"quantity":   gorm.Expr("quantity + ?", qty),
				"unit_price": price,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			item = models.CartItem{CartID: cart.ID, ProductID: productID, Quantity: qty, UnitPrice: price}
			return tx.Create(&item).Error
		}
		return tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) SetCartItemQuantity(ctx context.Context, userID, productID uuid.UUID, qty int) (*models.CartItem, error) {
	item, err := r.GetCartItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if err := r.DB.WithContext(ctx).Model(item).Update("quantity", qty).Error; err != nil {
		return nil, err
	}
	item.Quantity = qty
	return item, nil
}

func (r *GormRepo) RemoveCartItem(ctx context.Context, userID, productID uuid.UUID) error {
	item, err := r.GetCartItem(ctx, userID, productID)
	if err != nil {
		return err
	}
	return r.DB.WithContext(ctx).Delete(item).Error
}

// ClearCart empties the user's cart and keeps the cart row itself.
func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) error {
	sub := r.DB.Model(&models.Cart{}).Select("id").Where("user_id = ?", userID)
	return r.DB.WithContext(ctx).Where("cart_id IN (?)", sub).Delete(&models.CartItem{}).Error
}
