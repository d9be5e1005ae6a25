package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/Skotchmaster/freshcart/internal/models"
)

func (r *GormRepo) ListLocations(ctx context.Context, activeOnly bool) ([]models.ServiceLocation, error) {
	var out []models.ServiceLocation
	q := r.DB.WithContext(ctx).Order("state ASC, district ASC, area_name ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *GormRepo) GetLocation(ctx context.Context, id uint) (*models.ServiceLocation, error) {
	var loc models.ServiceLocation
	if err := r.DB.WithContext(ctx).Take(&loc, id).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *GormRepo) FindActiveLocation(ctx context.Context, pincode string) (*models.ServiceLocation, error) {
	var loc models.ServiceLocation
	err := r.DB.WithContext(ctx).Where("pincode = ? AND is_active = ?", pincode, true).Take(&loc).Error
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *GormRepo) CreateLocation(ctx context.Context, loc *models.ServiceLocation) error {
	return r.DB.WithContext(ctx).Create(loc).Error
}

func (r *GormRepo) UpdateLocation(ctx context.Context, id uint, changes map[string]any) (*models.ServiceLocation, error) {
	var loc models.ServiceLocation
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&loc, id).Error; err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&loc).Updates(changes).Error; err != nil {
			return err
		}
		return tx.Take(&loc, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *GormRepo) DeleteLocation(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Address{}).
			Where("service_location_id = ?", id).
			Update("service_location_id", nil).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.ServiceLocation{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
