package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

var ErrTokenRevoked = errors.New("token expired or revoked")

// FindOrCreateUserByPhone returns the user for phone, creating a regular
// user on first sight. created reports whether a row was inserted.
func (r *GormRepo) FindOrCreateUserByPhone(ctx context.Context, phone string) (*models.User, bool, error) {
	user := models.User{Phone: phone, Role: models.RoleUser}
	tx := r.DB.WithContext(ctx).Where("phone = ?", phone).FirstOrCreate(&user)
	if tx.Error != nil {
		return nil, false, tx.Error
	}
	return &user, tx.RowsAffected > 0, nil
}

func (r *GormRepo) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) UpdateUser(ctx context.Context, id uuid.UUID, updates map[string]any) (*models.User, error) {
	res := r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetUser(ctx, id)
}

func (r *GormRepo) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var users []models.User
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return 0, nil, err
	}
	return total, users, nil
}

func (r *GormRepo) CreateAddress(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *GormRepo) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.Address, error) {
	var items []models.Address
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// GetAddress only resolves addresses that belong to userID.
func (r *GormRepo) GetAddress(ctx context.Context, userID, id uuid.UUID) (*models.Address, error) {
	var a models.Address
	if err := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormRepo) SaveAddress(ctx context.Context, a *models.Address) error {
	return r.DB.WithContext(ctx).Save(a).Error
}

func (r *GormRepo) DeleteAddress(ctx context.Context, userID, id uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Address{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) refreshExpiredOrRevoked(db *gorm.DB, jti string) (bool, error) {
	var refresh models.RefreshToken
	if err := db.Where("jti = ?", jti).First(&refresh).Error; err != nil {
		return false, err
	}
	return refresh.ExpiresAt < time.Now().Unix() || refresh.Revoked, nil
}

// RotateRefreshToken revokes oldJTI and stores newToken atomically.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI string, newToken *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		expired, err := r.refreshExpiredOrRevoked(tx, oldJTI)
		if err != nil {
			return err
		}
		if expired {
			return ErrTokenRevoked
		}

		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND revoked = ?", oldJTI, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenRevoked
		}

		return tx.Create(newToken).Error
	})
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}
