package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Category struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"        json:"id"`
	Name      string     `gorm:"size:128;not null"           json:"name"`
	Slug      string     `gorm:"uniqueIndex;size:128;not null" json:"slug"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index"             json:"parent_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	Children []*Category `gorm:"-" json:"children,omitempty"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"           json:"id"`
	Name        string          `gorm:"size:255;not null"              json:"name"`
	Description string          `gorm:"type:text;not null"             json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(20,2);not null"    json:"price"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"                json:"category_id,omitempty"`
	Images      []string        `gorm:"serializer:json;type:text"      json:"images"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

func (Product) TableName() string {
	return "products"
}
