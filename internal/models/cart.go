package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart is created lazily on the first add and emptied, never deleted,
// once its contents become an order.
type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"            json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null"  json:"user_id"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

type CartItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"                     json:"id"`
	CartID    uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_cart_product;not null" json:"-"`
	ProductID uuid.UUID       `gorm:"type:uuid;uniqueIndex:idx_cart_product;not null" json:"product_id"`
	Quantity  int             `gorm:"not null;check:quantity > 0"              json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(20,2);not null"              json:"unit_price"`
	CreatedAt time.Time       `json:"created_at"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

type WishlistItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                         json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_wishlist_user_product;not null" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_wishlist_user_product;not null" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (w *WishlistItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&w.ID)
	return nil
}
