package repo

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/freshcart/internal/models"
)

type OtpCheck struct {
	Identifier string
	Channel    models.Channel
	Code       string
}

var errOtpRejected = errors.New("otp rejected")

func (r *GormRepo) CreateOtp(ctx context.Context, rec *models.OtpRecord) error {
	return r.DB.WithContext(ctx).Create(rec).Error
}

// ConsumeOtps checks every code against the newest unconsumed record of its (identifier, channel)
// pair and marks them consumed together. A single rejected code rolls the whole set back.
func (r *GormRepo) ConsumeOtps(ctx context.Context, now time.Time, checks []OtpCheck) (bool, error) {
	if len(checks) == 0 {
		return false, nil
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ch := range checks {
			if err := consumeOtp(tx, now, ch); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errOtpRejected) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func consumeOtp(tx *gorm.DB, now time.Time, ch OtpCheck) error {
	var rec models.OtpRecord
	err := tx.Where("identifier = ? AND channel = ? AND consumed = ?", ch.Identifier, ch.Channel, false).
		Order("id DESC").
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errOtpRejected
	}
	if err != nil {
		return err
	}

	if !now.Before(rec.ExpiresAt) {
		return errOtpRejected
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(ch.Code)) != 1 {
		return errOtpRejected
	}

	res := tx.Model(&models.OtpRecord{}).
		Where("id = ? AND consumed = ?", rec.ID, false).
		Updates(map[string]any{"consumed": true, "consumed_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return errOtpRejected
	}
	return nil
}

type OtpLedgerRow struct {
	Channel  models.Channel
	Consumed bool
	Count    int64
}

type OtpLedgerStats struct {
	Rows           []OtpLedgerRow
	ExpiredPending int64
}

func (r *GormRepo) OtpLedger(ctx context.Context, now time.Time) (*OtpLedgerStats, error) {
	var out OtpLedgerStats
	db := r.DB.WithContext(ctx)

	if err := db.Model(&models.OtpRecord{}).
		Select("channel, consumed, count(*) AS count").
		Group("channel, consumed").
		Order("channel, consumed").
		Scan(&out.Rows).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&models.OtpRecord{}).
		Where("consumed = ? AND expires_at < ?", false, now).
		Count(&out.ExpiredPending).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
