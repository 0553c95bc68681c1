package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Comment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"     json:"id"`
	ProductID uuid.UUID  `gorm:"type:uuid;index;not null" json:"product_id"`
	UserID    uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index"          json:"parent_id,omitempty"`
	Body      string     `gorm:"type:text;not null"       json:"body"`
	Rating    int        `gorm:"not null;default:0"       json:"rating,omitempty"`
	Approved  bool       `gorm:"not null;default:false;index" json:"approved"`
	CreatedAt time.Time  `json:"created_at"`

	Replies []*Comment `gorm:"-" json:"replies,omitempty"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

const (
	TicketStatusOpen     = "OPEN"
	TicketStatusAnswered = "ANSWERED"
	TicketStatusClosed   = "CLOSED"
)

type Ticket struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"     json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"user_id"`
	Subject   string          `gorm:"size:255;not null"        json:"subject"`
	Status    string          `gorm:"size:16;not null;index"   json:"status"`
	Messages  []TicketMessage `gorm:"foreignKey:TicketID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

type TicketMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	TicketID  uuid.UUID `gorm:"type:uuid;index;not null" json:"ticket_id"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null"       json:"author_id"`
	FromStaff bool      `gorm:"not null;default:false"   json:"from_staff"`
	Body      string    `gorm:"type:text;not null"       json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (m *TicketMessage) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
