package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	OrderStatusProcessing = "PROCESSING"
	OrderStatusShipped    = "SHIPPED"
	OrderStatusDelivered  = "DELIVERED"
)

type Order struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"               json:"id"`
	UserID           uuid.UUID       `gorm:"type:uuid;index;not null"           json:"user_id"`
	Items            []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	ShippingAddress  AddressSnapshot `gorm:"serializer:json;type:text;not null" json:"shipping_address"`
	GatewayAuthority string          `gorm:"uniqueIndex;size:64;not null"       json:"gateway_authority"`
	PaymentRefID     string          `gorm:"size:64"                            json:"payment_ref_id,omitempty"`
	TotalPrice       decimal.Decimal `gorm:"type:numeric(20,2);not null"        json:"total_price"`
	Status           string          `gorm:"size:16;not null;index"             json:"status"`
	TrackingCode     string          `gorm:"size:64"                            json:"tracking_code,omitempty"`
	NeedsReview      bool            `gorm:"not null;default:false"             json:"needs_review"`
	StockShortages   []StockShortage `gorm:"serializer:json;type:text"          json:"stock_shortages,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"     json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"       json:"product_id"`
	Name      string          `gorm:"size:255;not null"        json:"name"`
	Quantity  int             `gorm:"not null;check:quantity > 0" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"price"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// StockShortage records a line whose stock could not be decremented.
type StockShortage struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}
