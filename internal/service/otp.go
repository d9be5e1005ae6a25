package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/repo"
)

const DefaultOtpTTL = 10 * time.Minute

// OtpService is the ledger of one-time codes. Every Generate adds a row; only the newest
// unconsumed row of an (identifier, channel) pair can verify, and only once.
type OtpService struct {
	Repo *repo.GormRepo
	TTL  time.Duration
	Now  func() time.Time
}

func (s *OtpService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *OtpService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultOtpTTL
}

func newCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *OtpService) Generate(ctx context.Context, identifier string, channel models.Channel) (string, error) {
	code, err := newCode()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	now := s.now()
	rec := models.OtpRecord{
		Identifier: identifier,
		Channel:    channel,
		Code:       code,
		ExpiresAt:  now.Add(s.ttl()),
		CreatedAt:  now,
	}
	if err := s.Repo.CreateOtp(ctx, &rec); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify reports whether code is the live code for (identifier, channel) and consumes it.
// Wrong, expired, reused or missing codes give false with a nil error.
func (s *OtpService) Verify(ctx context.Context, identifier string, channel models.Channel, code string) (bool, error) {
	return s.VerifyAll(ctx, repo.OtpCheck{Identifier: identifier, Channel: channel, Code: code})
}

// VerifyAll succeeds only if every check passes; otherwise nothing is consumed.
func (s *OtpService) VerifyAll(ctx context.Context, checks ...repo.OtpCheck) (bool, error) {
	for _, c := range checks {
		if len(c.Code) != 6 {
			return false, nil
		}
	}
	return s.Repo.ConsumeOtps(ctx, s.now(), checks)
}
