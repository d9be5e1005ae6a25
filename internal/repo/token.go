package repo

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/freshcart/internal/models"
)

var errNoRows = errors.New("no rows affected")

func (r *GormRepo) CreateToken(ctx context.Context, t *models.AuthToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) FindTokenByJTI(ctx context.Context, jti string) (*models.AuthToken, error) {
	var t models.AuthToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).Take(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormRepo) TokenActive(ctx context.Context, jti string, now time.Time) (bool, error) {
	t, err := r.FindTokenByJTI(ctx, jti)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return !t.Revoked && now.Before(t.ExpiresAt), nil
}

func (r *GormRepo) RevokeToken(ctx context.Context, jti string) error {
	return r.DB.WithContext(ctx).Model(&models.AuthToken{}).
		Where("jti = ?", jti).
		Update("revoked", true).Error
}

func (r *GormRepo) RevokeUserTokens(ctx context.Context, userID uint, exceptJTI string) error {
	return r.DB.WithContext(ctx).Model(&models.AuthToken{}).
		Where("user_id = ? AND jti <> ? AND revoked = ?", userID, exceptJTI, false).
		Update("revoked", true).Error
}
