package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateCheckoutSession(ctx context.Context, s *models.CheckoutSession) error {
	return r.DB.WithContext(ctx).Create(s).Error
}

// GetLiveSession finds the session for authority that has not expired at now.
func (r *GormRepo) GetLiveSession(ctx context.Context, authority string, now time.Time) (*models.CheckoutSession, error) {
	var s models.CheckoutSession
	err := r.DB.WithContext(ctx).
		Where("gateway_authority = ? AND expires_at > ?", authority, now).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *GormRepo) DeleteCheckoutSession(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.CheckoutSession{}).Error
}

func (r *GormRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.CheckoutSession{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) OrderExistsByAuthority(ctx context.Context, authority string) (bool, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).Select("id").Where("gateway_authority = ?", authority).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
