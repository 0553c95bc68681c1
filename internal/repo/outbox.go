package repo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
)

// AddOutbox records an event to be published once the surrounding
// transaction commits.
func (r *GormRepo) AddOutbox(ctx context.Context, topic, eventType, aggregateID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ev := models.OutboxEvent{
		AggregateID: aggregateID,
		Topic:       topic,
		EventType:   eventType,
		Payload:     string(body),
	}
	return r.DB.WithContext(ctx).Create(&ev).Error
}

func (r *GormRepo) PendingOutboxEvents(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var events []models.OutboxEvent
	err := r.DB.WithContext(ctx).
		Where("processed_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *GormRepo) MarkOutboxProcessed(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&models.OutboxEvent{}).
		Where("id IN ?", ids).
		Update("processed_at", at).Error
}
