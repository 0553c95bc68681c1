package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TopicOrderEvents   = "order_events"
	TopicProductEvents = "product_events"
	TopicUserEvents    = "user_events"
)

type OutboxEvent struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"  json:"id"`
	AggregateID string     `gorm:"size:64;not null"      json:"aggregate_id"`
	Topic       string     `gorm:"size:64;not null"      json:"topic"`
	EventType   string     `gorm:"size:64;not null"      json:"event_type"`
	Payload     string     `gorm:"type:text;not null"    json:"payload"`
	CreatedAt   time.Time  `gorm:"index"                 json:"created_at"`
	ProcessedAt *time.Time `gorm:"index"                 json:"processed_at,omitempty"`
}

func (e *OutboxEvent) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
