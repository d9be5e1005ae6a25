package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/freshcart/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return r.DB.WithContext(ctx).Create(u).Error
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Take(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) GetUserByMobile(ctx context.Context, mobile string) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("mobile = ?", mobile).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormRepo) MobileTaken(ctx context.Context, mobile string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.User{}).Where("mobile = ?", mobile).Count(&n).Error
	return n > 0, err
}

// EmailTaken ignores the user with id exceptID so a profile can keep its own address.
func (r *GormRepo) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var n int64
	q := r.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *GormRepo) UpdateUser(ctx context.Context, id uint, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(changes).Error
}

func (r *GormRepo) MarkEmailVerified(ctx context.Context, id uint, email string, at time.Time) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND email = ?", id, email).
		Update("email_verified_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errNoRows
	}
	return nil
}
