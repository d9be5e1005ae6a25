package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Skotchmaster/freshcart/internal/models"
)

// lockOwner serializes every default-address mutation of one user on the user row.
func lockOwner(tx *gorm.DB, userID uint) error {
	return tx.Clauses(forUpdate).Select("id").Take(&models.User{}, userID).Error
}

// lockAddress takes the address row for update; an address of another user is not found.
func lockAddress(tx *gorm.DB, userID, id uint) error {
	return tx.Clauses(forUpdate).Select("id").Where("user_id = ?", userID).Take(&models.Address{}, id).Error
}

func unsetDefaults(tx *gorm.DB, userID, keepID uint) error {
	return tx.Model(&models.Address{}).
		Where("user_id = ? AND id <> ? AND is_default = ?", userID, keepID, true).
		Update("is_default", false).Error
}

func (r *GormRepo) ListAddresses(ctx context.Context, userID uint) ([]models.Address, error) {
	var out []models.Address
	err := r.DB.WithContext(ctx).
		Preload("ServiceLocation").
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *GormRepo) GetAddress(ctx context.Context, id uint) (*models.Address, error) {
	var a models.Address
	if err := r.DB.WithContext(ctx).Preload("ServiceLocation").Take(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAddress stores a. The user's first address always becomes the default; otherwise
// a.IsDefault decides and, when set, clears the previous default in the same transaction.
func (r *GormRepo) CreateAddress(ctx context.Context, a *models.Address) error {
	wantDefault := a.IsDefault
	return retryOnce(ctx, func() error {
		a.ID = 0
		return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := lockOwner(tx, a.UserID); err != nil {
				return err
			}
			var n int64
			if err := tx.Model(&models.Address{}).Where("user_id = ?", a.UserID).Count(&n).Error; err != nil {
				return err
			}
			a.IsDefault = wantDefault || n == 0
			if a.IsDefault {
				if err := unsetDefaults(tx, a.UserID, 0); err != nil {
					return err
				}
			}
			return tx.Create(a).Error
		})
	})
}

// UpdateAddress applies changes to the user's address; makeDefault moves the default onto it.
func (r *GormRepo) UpdateAddress(ctx context.Context, userID, id uint, changes map[string]any, makeDefault bool) error {
	if changes == nil {
		changes = map[string]any{}
	}
	return retryOnce(ctx, func() error {
		return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := lockOwner(tx, userID); err != nil {
				return err
			}
			if err := lockAddress(tx, userID, id); err != nil {
				return err
			}
			if makeDefault {
				if err := unsetDefaults(tx, userID, id); err != nil {
					return err
				}
				changes["is_default"] = true
			}
			if len(changes) == 0 {
				return nil
			}
			return tx.Model(&models.Address{}).Where("id = ? AND user_id = ?", id, userID).Updates(changes).Error
		})
	})
}

func (r *GormRepo) SetDefaultAddress(ctx context.Context, userID, id uint) error {
	return retryOnce(ctx, func() error {
		return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := lockOwner(tx, userID); err != nil {
				return err
			}
			if err := lockAddress(tx, userID, id); err != nil {
				return err
			}
			if err := unsetDefaults(tx, userID, id); err != nil {
				return err
			}
			return tx.Model(&models.Address{}).Where("id = ? AND user_id = ?", id, userID).Update("is_default", true).Error
		})
	})
}

// DeleteAddress removes the address. If it was the default, the oldest remaining address of the
// user takes over.
func (r *GormRepo) DeleteAddress(ctx context.Context, userID, id uint) error {
	return retryOnce(ctx, func() error {
		return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := lockOwner(tx, userID); err != nil {
				return err
			}
			var a models.Address
			if err := tx.Where("id = ? AND user_id = ?", id, userID).Take(&a).Error; err != nil {
				return err
			}
			if err := tx.Delete(&a).Error; err != nil {
				return err
			}
			if !a.IsDefault {
				return nil
			}

			var next models.Address
			err := tx.Where("user_id = ?", userID).Order("created_at ASC, id ASC").Take(&next).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			return tx.Model(&next).Update("is_default", true).Error
		})
	})
}

func (r *GormRepo) CountDefaultAddresses(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Count(&n).Error
	return n, err
}
