package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/notify"
	"github.com/Skotchmaster/freshcart/internal/repo"
	"github.com/Skotchmaster/freshcart/pkg/hash"
	"github.com/Skotchmaster/freshcart/pkg/logging"
)

type ProfileService struct {
	Repo     *repo.GormRepo
	OTP      *OtpService
	Notifier notify.Dispatcher
	Now      func() time.Time
}

type Profile struct {
	User      *models.User
	Addresses []models.Address
}

type ProfileUpdate struct {
	Name  *string
	Email *string
}

func (s *ProfileService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *ProfileService) user(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, fmt.Errorf("%w: user no longer exists", ErrUnauthenticated)
		}
		return nil, err
	}
	return u, nil
}

func (s *ProfileService) Get(ctx context.Context, userID uint) (*Profile, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	addrs, err := s.Repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, Addresses: addrs}, nil
}

// Update changes name and email. A new email starts unverified and gets a code on the email
// channel; the second return value reports whether one was sent.
func (s *ProfileService) Update(ctx context.Context, userID uint, upd ProfileUpdate) (*models.User, bool, error) {
	l := logging.FromContext(ctx).With("svc", "profile.update")

	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, false, err
	}

	changes := map[string]any{}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, false, NewValidationError("name", "name is required")
		}
		changes["name"] = name
	}

	var newEmail string
	if upd.Email != nil {
		email := strings.TrimSpace(*upd.Email)
		current := ""
		if u.Email != nil {
			current = *u.Email
		}
		if email != current {
			if email == "" {
				changes["email"] = nil
			} else {
				taken, err := s.Repo.EmailTaken(ctx, email, userID)
				if err != nil {
					return nil, false, err
				}
				if taken {
					return nil, false, fmt.Errorf("%w: email already registered", ErrBusinessRule)
				}
				changes["email"] = email
				newEmail = email
			}
			changes["email_verified_at"] = nil
		}
	}

	if err := s.Repo.UpdateUser(ctx, userID, changes); err != nil {
		if repo.IsDuplicate(err) {
			return nil, false, fmt.Errorf("%w: email already registered", ErrBusinessRule)
		}
		return nil, false, err
	}

	sent := false
	if newEmail != "" {
		code, err := s.OTP.Generate(ctx, newEmail, models.ChannelEmail)
		if err != nil {
			return nil, false, err
		}
		dispatch(ctx, s.Notifier, notify.Message{Channel: models.ChannelEmail, Identifier: newEmail, Code: code})
		sent = true
		l.Info("email_verification_sent", "user_id", userID)
	}

	u, err = s.user(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return u, sent, nil
}

func (s *ProfileService) VerifyEmail(ctx context.Context, userID uint, code string) (*models.User, error) {
	u, err := s.user(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.Email == nil || *u.Email == "" {
		return nil, fmt.Errorf("%w: no email address to verify", ErrBusinessRule)
	}
	if u.EmailVerifiedAt != nil {
		return u, nil
	}

	ok, err := s.OTP.Verify(ctx, *u.Email, models.ChannelEmail, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidOTP
	}
	if err := s.Repo.MarkEmailVerified(ctx, userID, *u.Email, s.now()); err != nil {
		return nil, fmt.Errorf("%w: email changed during verification", ErrConflict)
	}
	return s.user(ctx, userID)
}

// ChangePassword also revokes every other session of the user; keepJTI stays valid.
func (s *ProfileService) ChangePassword(ctx context.Context, userID uint, keepJTI, current, next string) error {
	u, err := s.user(ctx, userID)
	if err != nil {
		return err
	}
	if !hash.CheckPassword(u.PasswordHash, current) {
		return fmt.Errorf("%w: current password is incorrect", ErrBusinessRule)
	}
	if len(next) < 8 {
		return NewValidationError("password", "password must be at least 8 characters")
	}

	pwHash, err := hash.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Repo.UpdateUser(ctx, userID, map[string]any{"password_hash": pwHash}); err != nil {
		return err
	}
	if err := s.Repo.RevokeUserTokens(ctx, userID, keepJTI); err != nil {
		logging.FromContext(ctx).Warn("revoke_sessions_error", "user_id", userID, "error", err)
	}
	return nil
}
