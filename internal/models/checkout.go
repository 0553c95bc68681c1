package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LineItem is a priced snapshot of one cart line taken when checkout starts.
type LineItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price_at_time_of_purchase"`
}

func (li LineItem) Total() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type CheckoutSession struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"               json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;index;not null"           json:"user_id"`
	Items            []LineItem      `gorm:"serializer:json;type:text;not null" json:"items"`
	ShippingAddress  AddressSnapshot `gorm:"serializer:json;type:text;not null" json:"shipping_address"`
	TotalPrice       decimal.Decimal `gorm:"type:numeric(20,2);not null"        json:"total_price"`
	GatewayAuthority string          `gorm:"uniqueIndex;size:64;not null"       json:"gateway_authority"`
	ExpiresAt        time.Time       `gorm:"index;not null"                     json:"expires_at"`
	CreatedAt        time.Time       `json:"created_at"`
}

func (s *CheckoutSession) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}

// Amount is the payable total in the smallest currency unit.
func (s *CheckoutSession) Amount() int64 {
	return s.TotalPrice.IntPart()
}
