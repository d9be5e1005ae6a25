package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/repo"
	"github.com/Skotchmaster/freshcart/pkg/hash"
	"github.com/Skotchmaster/freshcart/pkg/tokens"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

type TokenService struct {
	Repo   *repo.GormRepo
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *TokenService) Issue(ctx context.Context, u *models.User) (*IssuedToken, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := s.now()
	exp := now.Add(ttl)
	jti := tokens.NewJTI()

	tok, err := tokens.SignAccessToken(s.Secret, strconv.FormatUint(uint64(u.ID), 10), u.Role, jti, now, exp)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	if err := s.Repo.CreateToken(ctx, &models.AuthToken{
		UserID:    u.ID,
		JTI:       jti,
		TokenHash: hash.Sha256Hex(tok),
		ExpiresAt: exp,
	}); err != nil {
		return nil, fmt.Errorf("store token: %w", err)
	}

	return &IssuedToken{Token: tok, ExpiresAt: exp}, nil
}

func (s *TokenService) IsActive(ctx context.Context, jti string) (bool, error) {
	return s.Repo.TokenActive(ctx, jti, s.now())
}

func (s *TokenService) Revoke(ctx context.Context, jti string) error {
	if jti == "" {
		return nil
	}
	return s.Repo.RevokeToken(ctx, jti)
}
