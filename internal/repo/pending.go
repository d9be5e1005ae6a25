package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/pkg/logging"
)

// SavePending writes p under its handle, replacing whatever step 1 stored there before.
func (r *GormRepo) SavePending(ctx context.Context, p *models.PendingFlow) error {
	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "handle"}},
			UpdateAll: true,
		}).
		Create(p).Error
}

// GetPending returns gorm.ErrRecordNotFound for unknown, expired or other-flow handles. Expired
// rows are removed on the way out.
func (r *GormRepo) GetPending(ctx context.Context, handle string, flow models.Flow, now time.Time) (*models.PendingFlow, error) {
	var p models.PendingFlow
	db := r.DB.WithContext(ctx)
	if err := db.Where("handle = ? AND flow = ?", handle, flow).Take(&p).Error; err != nil {
		return nil, err
	}
	if !now.Before(p.ExpiresAt) {
		if err := db.Delete(&models.PendingFlow{}, "handle = ?", handle).Error; err != nil {
			logging.FromContext(ctx).With("repo", "pending").Warn("expired_pending_delete_error", "error", err)
		}
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *GormRepo) DeletePending(ctx context.Context, handle string) error {
	return r.DB.WithContext(ctx).Delete(&models.PendingFlow{}, "handle = ?", handle).Error
}
