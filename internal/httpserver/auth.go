package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/service"
	"github.com/Skotchmaster/freshcart/internal/transport"
	"github.com/Skotchmaster/freshcart/pkg/logging"
	middleware "github.com/Skotchmaster/freshcart/pkg/middleware/auth"
	"github.com/Skotchmaster/freshcart/pkg/middleware/ratelimit"
	"github.com/Skotchmaster/freshcart/pkg/tokens"
)

type AuthHTTP struct {
	Svc *service.AuthService
	// Resend is keyed by channel and identifier, not by client address.
	Resend *ratelimit.Limiter
}

type flowResponse struct {
	VerificationToken string `json:"verification_token"`
	WhatsappEnabled   bool   `json:"whatsapp_enabled"`
	ExpiresIn         int    `json:"expires_in"`
}

type sessionResponse struct {
	User      *models.User `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresAt time.Time    `json:"expires_at"`
}

func newFlowResponse(f *service.FlowStarted) flowResponse {
	return flowResponse{VerificationToken: f.VerificationToken, WhatsappEnabled: f.WhatsappEnabled, ExpiresIn: f.ExpiresIn}
}

func startSession(c echo.Context, s *service.Session) sessionResponse {
	c.SetCookie(tokens.CreateCookie(tokens.AccessCookie, s.Token, "/", s.ExpiresAt))
	return sessionResponse{User: s.User, Token: s.Token, TokenType: "Bearer", ExpiresAt: s.ExpiresAt}
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.RegisterRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "auth.register", "register_error", err)
	}

	started, err := h.Svc.Register(ctx, service.RegisterInput{
		Handle:   req.VerificationToken,
		Name:     req.Name,
		Mobile:   req.Mobile,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return fail(c, "auth.register", "register_error", err)
	}

	return success(c, http.StatusOK, "OTP sent for verification", newFlowResponse(started))
}

func (h *AuthHTTP) VerifyRegistration(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.VerifyRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "auth.register_verify", "register_verify_error", err)
	}

	sess, err := h.Svc.VerifyRegistration(ctx, service.VerifyInput{
		Token:        req.VerificationToken,
		MobileCode:   req.MobileOTP,
		WhatsappCode: req.WhatsappOTP,
	})
	if err != nil {
		return fail(c, "auth.register_verify", "register_verify_error", err)
	}

	return success(c, http.StatusCreated, "Registration successful", startSession(c, sess))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.LoginRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "auth.login", "login_error", err)
	}

	var creds service.LoginCredentials
	switch req.LoginType {
	case "otp":
		creds = service.OtpLogin{Token: req.VerificationToken, MobileCode: req.MobileOTP, WhatsappCode: req.WhatsappOTP}
	default:
		creds = service.PasswordLogin{Mobile: req.Mobile, Password: req.Password}
	}

	sess, err := h.Svc.Login(ctx, creds)
	if err != nil {
		return fail(c, "auth.login", "login_error", err)
	}

	return success(c, http.StatusOK, "Login successful", startSession(c, sess))
}

func (h *AuthHTTP) RequestLoginOTP(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.RequestOTPRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "auth.request_otp", "request_otp_error", err)
	}

	started, err := h.Svc.RequestLoginOTP(ctx, req.VerificationToken, req.Mobile)
	if err != nil {
		return fail(c, "auth.request_otp", "request_otp_error", err)
	}

	return success(c, http.StatusOK, "OTP sent", newFlowResponse(started))
}

func (h *AuthHTTP) ResendOTP(c echo.Context) error {
	ctx := c.Request().Context()

	var req transport.ResendOTPRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "auth.resend_otp", "resend_otp_error", err)
	}

	if h.Resend != nil {
		if err := h.Resend.Allow(c, "otp:"+req.Channel+":"+req.Identifier); err != nil {
			return fail(c, "auth.resend_otp", "resend_otp_limited", err)
		}
	}

	if err := h.Svc.ResendOTP(ctx, req.Identifier, models.Channel(req.Channel)); err != nil {
		return fail(c, "auth.resend_otp", "resend_otp_error", err)
	}

	return success(c, http.StatusOK, "OTP resent", nil)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.Svc.Logout(ctx, middleware.TokenID(c)); err != nil {
		return fail(c, "auth.logout", "logout_error", err)
	}
	c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))

	logging.FromContext(ctx).With("handler", "auth.logout").Info("logout_successful")
	return success(c, http.StatusOK, "Logged out", nil)
}
