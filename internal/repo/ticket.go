package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

type TicketFilter struct {
	UserID *uuid.UUID
	Status string
}

// CreateTicket stores the ticket and its opening message together.
func (r *GormRepo) CreateTicket(ctx context.Context, t *models.Ticket) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) GetTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var t models.Ticket
	err := r.DB.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Where("id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormRepo) ListTickets(ctx context.Context, f TicketFilter, offset, limit int) (int64, []models.Ticket, error) {
	q := r.DB.WithContext(ctx).Model(&models.Ticket{})
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

	var items []models.Ticket
	if err := q.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// AddTicketMessage appends msg and moves the ticket to status in one
// transaction. Closed tickets are left untouched and report not found.
func (r *GormRepo) AddTicketMessage(ctx context.Context, msg *models.TicketMessage, status string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Ticket{}).
			Where("id = ? AND status <> ?", msg.TicketID, models.TicketStatusClosed).
			Update("status", status)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(msg).Error
	})
}

func (r *GormRepo) SetTicketStatus(ctx context.Context, id uuid.UUID, status string) error {
	res := r.DB.WithContext(ctx).Model(&models.Ticket{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
