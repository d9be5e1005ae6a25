package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/pkg/hash"
	"github.com/Skotchmaster/freshcart/pkg/tokens"
)

func TestProfileService_EmailChange(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	box := &outbox{}
	svc := &ProfileService{Repo: r, OTP: &OtpService{Repo: r}, Notifier: box}
	ctx := context.Background()
	u := seedUser(t, r, "9876543210")
	other := seedUser(t, r, "9123456780")

	taken := "taken@example.com"
	_, _, err := svc.Update(ctx, other.ID, ProfileUpdate{Email: &taken})
	require.NoError(t, err)

	_, _, err = svc.Update(ctx, u.ID, ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, ErrBusinessRule)

	_, err = svc.VerifyEmail(ctx, u.ID, "123456")
	assert.ErrorIs(t, err, ErrBusinessRule, "no email on file")

	email := "asha@example.com"
	name := "Asha K"
	updated, sent, err := svc.Update(ctx, u.ID, ProfileUpdate{Name: &name, Email: &email})
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, "Asha K", updated.Name)
	require.NotNil(t, updated.Email)
	assert.Equal(t, email, *updated.Email)
	assert.Nil(t, updated.EmailVerifiedAt)

	code := box.last(models.ChannelEmail, email)
	require.Len(t, code, 6)

	_, err = svc.VerifyEmail(ctx, u.ID, wrong(code))
	assert.ErrorIs(t, err, ErrInvalidOTP)

	verified, err := svc.VerifyEmail(ctx, u.ID, code)
	require.NoError(t, err)
	assert.NotNil(t, verified.EmailVerifiedAt)

	// same address again: nothing to resend, verification kept
	again, sent, err := svc.Update(ctx, u.ID, ProfileUpdate{Email: &email})
	require.NoError(t, err)
	assert.False(t, sent)
	assert.NotNil(t, again.EmailVerifiedAt)

	blank := ""
	cleared, sent, err := svc.Update(ctx, u.ID, ProfileUpdate{Email: &blank})
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Nil(t, cleared.Email)

	p, err := svc.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.User.ID)
	assert.Empty(t, p.Addresses)

	_, err = svc.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestProfileService_ChangePassword(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	svc := &ProfileService{Repo: r}
	tokSvc := &TokenService{Repo: r, Secret: []byte("test-jwt-secret")}

	pw, err := hash.HashPassword("old-password")
	require.NoError(t, err)
	u := &models.User{Name: "Asha", Mobile: "9876543210", PasswordHash: pw}
	require.NoError(t, r.CreateUser(ctx, u))

	jti := func(tok *IssuedToken) string {
		c, err := tokens.AccessClaimsFromToken(tok.Token, tokSvc.Secret)
		require.NoError(t, err)
		return c.ID
	}
	current, err := tokSvc.Issue(ctx, u)
	require.NoError(t, err)
	elsewhere, err := tokSvc.Issue(ctx, u)
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, u.ID, jti(current), "wrong-password", "new-password")
	assert.ErrorIs(t, err, ErrBusinessRule)
	assert.Equal(t, "current password is incorrect", Message(err))

	err = svc.ChangePassword(ctx, u.ID, jti(current), "old-password", "short")
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, u.ID, jti(current), "old-password", "new-password"))

	fresh, err := r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, hash.CheckPassword(fresh.PasswordHash, "new-password"))

	active, err := tokSvc.IsActive(ctx, jti(current))
	require.NoError(t, err)
	assert.True(t, active, "the session that changed the password survives")

	active, err = tokSvc.IsActive(ctx, jti(elsewhere))
	require.NoError(t, err)
	assert.False(t, active)
}
