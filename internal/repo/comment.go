package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateComment(ctx context.Context, c *models.Comment) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) GetComment(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var c models.Comment
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListApprovedComments pages over approved top level comments of a product
// and attaches their approved replies.
func (r *GormRepo) ListApprovedComments(ctx context.Context, productID uuid.UUID, offset, limit int) (int64, []*models.Comment, error) {
	q := r.DB.WithContext(ctx).Model(&models.Comment{}).
		Where("product_id = ? AND approved = ? AND parent_id IS NULL", productID, true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var roots []*models.Comment
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&roots).Error; err != nil {
		return 0, nil, err
	}
	if len(roots) == 0 {
		return total, roots, nil
	}

	ids := make([]uuid.UUID, 0, len(roots))
	byID := make(map[uuid.UUID]*models.Comment, len(roots))
	for _, c := range roots {
		ids = append(ids, c.ID)
		byID[c.ID] = c
	}

	var replies []*models.Comment
	err := r.DB.WithContext(ctx).
		Where("parent_id IN ? AND approved = ?", ids, true).
		Order("created_at ASC").
		Find(&replies).Error
	if err != nil {
		return 0, nil, err
	}
	for _, reply := range replies {
		if parent, ok := byID[*reply.ParentID]; ok {
			parent.Replies = append(parent.Replies, reply)
		}
	}
	return total, roots, nil
}

func (r *GormRepo) ListPendingComments(ctx context.Context, offset, limit int) (int64, []models.Comment, error) {
	q := r.DB.WithContext(ctx).Model(&models.Comment{}).Where("approved = ?", false)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Comment
	if err := q.Order("created_at ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ApproveComment(ctx context.Context, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("approved", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteComment removes the comment and its replies.
func (r *GormRepo) DeleteComment(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
