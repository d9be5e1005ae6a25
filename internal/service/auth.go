package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/mykafka"
	"github.com/Skotchmaster/freshcart/internal/notify"
	"github.com/Skotchmaster/freshcart/internal/repo"
	"github.com/Skotchmaster/freshcart/pkg/hash"
	"github.com/Skotchmaster/freshcart/pkg/logging"
)

const DefaultPendingTTL = 10 * time.Minute

var mobileRe = regexp.MustCompile(`^[0-9]{10}$`)

// AuthService drives the two-step register and login flows. Step 1 stores a pending flow and
// sends codes; step 2 proves every required code and turns the flow into a session.
type AuthService struct {
	Repo       *repo.GormRepo
	OTP        *OtpService
	Tokens     *TokenService
	Notifier   notify.Dispatcher
	WhatsApp   notify.CapabilityChecker
	Events     mykafka.Publisher
	PendingTTL time.Duration
	Now        func() time.Time
}

type RegisterInput struct {
	Handle   string
	Name     string
	Mobile   string
	Email    *string
	Password string
}

type FlowStarted struct {
	VerificationToken string
	WhatsappEnabled   bool
	ExpiresIn         int
}

type VerifyInput struct {
	Token        string
	MobileCode   string
	WhatsappCode string
}

type Session struct {
	User      *models.User
	Token     string
	ExpiresAt time.Time
}

// LoginCredentials is one of PasswordLogin or OtpLogin.
type LoginCredentials interface {
	loginCredentials()
}

type PasswordLogin struct {
	Mobile   string
	Password string
}

type OtpLogin struct {
	Token        string
	MobileCode   string
	WhatsappCode string
}

func (PasswordLogin) loginCredentials() {}
func (OtpLogin) loginCredentials()      {}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *AuthService) pendingTTL() time.Duration {
	if s.PendingTTL > 0 {
		return s.PendingTTL
	}
	return DefaultPendingTTL
}

func (s *AuthService) whatsappCapable(ctx context.Context, mobile string) bool {
	return s.WhatsApp != nil && s.WhatsApp.IsWhatsappNumber(ctx, mobile)
}

// sendOTP stores a fresh code and hands it to the dispatcher. Delivery problems are only logged.
func (s *AuthService) sendOTP(ctx context.Context, identifier string, channel models.Channel) error {
	code, err := s.OTP.Generate(ctx, identifier, channel)
	if err != nil {
		return err
	}
	dispatch(ctx, s.Notifier, notify.Message{Channel: channel, Identifier: identifier, Code: code})
	return nil
}

func (s *AuthService) startFlow(ctx context.Context, p *models.PendingFlow) (*FlowStarted, error) {
	if p.Handle == "" {
		p.Handle = uuid.NewString()
	}
	p.WhatsappEnabled = s.whatsappCapable(ctx, p.Mobile)
	p.ExpiresAt = s.now().Add(s.pendingTTL())

	if err := s.Repo.SavePending(ctx, p); err != nil {
		return nil, fmt.Errorf("save pending %s: %w", p.Flow, err)
	}
	if err := s.sendOTP(ctx, p.Mobile, models.ChannelMobile); err != nil {
		return nil, err
	}
	if p.WhatsappEnabled {
		if err := s.sendOTP(ctx, p.Mobile, models.ChannelWhatsapp); err != nil {
			return nil, err
		}
	}

	return &FlowStarted{
		VerificationToken: p.Handle,
		WhatsappEnabled:   p.WhatsappEnabled,
		ExpiresIn:         int(s.pendingTTL().Seconds()),
	}, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*FlowStarted, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if !mobileRe.MatchString(in.Mobile) {
		return nil, NewValidationError("mobile", "mobile must be 10 digits")
	}
	if len(in.Password) < 8 {
		return nil, NewValidationError("password", "password must be at least 8 characters")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, NewValidationError("name", "name is required")
	}

	taken, err := s.Repo.MobileTaken(ctx, in.Mobile)
	if err != nil {
		return nil, err
	}
	if taken {
		l.Warn("register_error", "status", 400, "reason", "mobile taken")
		return nil, fmt.Errorf("%w: mobile number already registered", ErrBusinessRule)
	}
	if in.Email != nil && *in.Email != "" {
		taken, err := s.Repo.EmailTaken(ctx, *in.Email, 0)
		if err != nil {
			return nil, err
		}
		if taken {
			l.Warn("register_error", "status", 400, "reason", "email taken")
			return nil, fmt.Errorf("%w: email already registered", ErrBusinessRule)
		}
	} else {
		in.Email = nil
	}

	pwHash, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	started, err := s.startFlow(ctx, &models.PendingFlow{
		Handle:       in.Handle,
		Flow:         models.FlowRegistration,
		Name:         strings.TrimSpace(in.Name),
		Mobile:       in.Mobile,
		Email:        in.Email,
		PasswordHash: pwHash,
	})
	if err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}
	l.Info("registration_started", "whatsapp_enabled", started.WhatsappEnabled)
	return started, nil
}

// requiredChecks lists the codes step 2 must prove for p. A flow that went out over WhatsApp
// cannot finish on the mobile code alone.
func requiredChecks(p *models.PendingFlow, mobileCode, whatsappCode string) ([]repo.OtpCheck, error) {
	if mobileCode == "" {
		return nil, NewValidationError("mobile_otp", "mobile_otp is required")
	}
	checks := []repo.OtpCheck{{Identifier: p.Mobile, Channel: models.ChannelMobile, Code: mobileCode}}
	if p.WhatsappEnabled {
		if whatsappCode == "" {
			return nil, NewValidationError("whatsapp_otp", "whatsapp_otp is required")
		}
		checks = append(checks, repo.OtpCheck{Identifier: p.Mobile, Channel: models.ChannelWhatsapp, Code: whatsappCode})
	}
	return checks, nil
}

func (s *AuthService) completeFlow(ctx context.Context, handle string, flow models.Flow, mobileCode, whatsappCode string) (*models.PendingFlow, error) {
	p, err := s.Repo.GetPending(ctx, handle, flow, s.now())
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}

	checks, err := requiredChecks(p, mobileCode, whatsappCode)
	if err != nil {
		return nil, err
	}
	ok, err := s.OTP.VerifyAll(ctx, checks...)
	if err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	if !ok {
		return nil, ErrInvalidOTP
	}
	return p, nil
}

func (s *AuthService) VerifyRegistration(ctx context.Context, in VerifyInput) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.verify_registration")

	p, err := s.completeFlow(ctx, in.Token, models.FlowRegistration, in.MobileCode, in.WhatsappCode)
	if err != nil {
		l.Warn("verify_registration_error", "error", err)
		return nil, err
	}

	now := s.now()
	user := &models.User{
		Name:             p.Name,
		Mobile:           p.Mobile,
		Email:            p.Email,
		PasswordHash:     p.PasswordHash,
		Role:             models.RoleUser,
		MobileVerifiedAt: &now,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if repo.IsDuplicate(err) {
			return nil, fmt.Errorf("%w: mobile number or email already registered", ErrBusinessRule)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.Repo.DeletePending(ctx, p.Handle); err != nil {
		l.Warn("delete_pending_error", "error", err)
	}

	tok, err := s.Tokens.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, mykafka.TopicUserEvents, idKey(user.ID), mykafka.NewEvent("user_registered", user.ID, map[string]any{
		"mobile": user.Mobile,
	}))
	l.Info("user_registered", "user_id", user.ID)
	return &Session{User: user, Token: tok.Token, ExpiresAt: tok.ExpiresAt}, nil
}

// RequestLoginOTP starts an OTP login for a registered mobile.
func (s *AuthService) RequestLoginOTP(ctx context.Context, handle, mobile string) (*FlowStarted, error) {
	l := logging.FromContext(ctx).With("svc", "auth.request_otp")

	user, err := s.Repo.GetUserByMobile(ctx, mobile)
	if err != nil {
		if repo.IsNotFound(err) {
			l.Warn("request_otp_error", "status", 401, "reason", "unknown mobile")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	uid := user.ID
	return s.startFlow(ctx, &models.PendingFlow{
		Handle: handle,
		Flow:   models.FlowLogin,
		Name:   user.Name,
		Mobile: user.Mobile,
		UserID: &uid,
	})
}

func (s *AuthService) Login(ctx context.Context, creds LoginCredentials) (*Session, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	var (
		user *models.User
		err  error
	)
	switch c := creds.(type) {
	case PasswordLogin:
		user, err = s.passwordLogin(ctx, c)
	case OtpLogin:
		user, err = s.otpLogin(ctx, c)
	default:
		err = NewValidationError("login_type", "unsupported login type")
	}
	if err != nil {
		l.Warn("login_failed", "error", err)
		return nil, err
	}

	tok, err := s.Tokens.Issue(ctx, user)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, mykafka.TopicUserEvents, idKey(user.ID), mykafka.NewEvent("user_logged_in", user.ID, nil))
	l.Info("user_logged_in", "user_id", user.ID)
	return &Session{User: user, Token: tok.Token, ExpiresAt: tok.ExpiresAt}, nil
}

func (s *AuthService) passwordLogin(ctx context.Context, c PasswordLogin) (*models.User, error) {
	user, err := s.Repo.GetUserByMobile(ctx, c.Mobile)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, c.Password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *AuthService) otpLogin(ctx context.Context, c OtpLogin) (*models.User, error) {
	p, err := s.completeFlow(ctx, c.Token, models.FlowLogin, c.MobileCode, c.WhatsappCode)
	if err != nil {
		return nil, err
	}
	if p.UserID == nil {
		return nil, ErrSessionExpired
	}
	user, err := s.Repo.GetUserByID(ctx, *p.UserID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Repo.DeletePending(ctx, p.Handle); err != nil {
		logging.FromContext(ctx).Warn("delete_pending_error", "error", err)
	}
	return user, nil
}

// ResendOTP issues a new code on one channel. Earlier codes for the pair stop verifying.
func (s *AuthService) ResendOTP(ctx context.Context, identifier string, channel models.Channel) error {
	switch channel {
	case models.ChannelMobile, models.ChannelWhatsapp, models.ChannelEmail:
	default:
		return NewValidationError("channel", "channel must be one of mobile, whatsapp, email")
	}
	if identifier == "" {
		return NewValidationError("identifier", "identifier is required")
	}
	return s.sendOTP(ctx, identifier, channel)
}

func (s *AuthService) Logout(ctx context.Context, jti string) error {
	if err := s.Tokens.Revoke(ctx, jti); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
