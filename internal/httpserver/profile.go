package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/freshcart/internal/service"
	"github.com/Skotchmaster/freshcart/internal/transport"
	middleware "github.com/Skotchmaster/freshcart/pkg/middleware/auth"
)

type ProfileHTTP struct {
	Svc *service.ProfileService
}

func currentUser(c echo.Context) (uint, error) {
	id, ok := middleware.UserID(c)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

func (h *ProfileHTTP) Get(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, "profile.get", "get_profile_error", err)
	}

	p, err := h.Svc.Get(c.Request().Context(), userID)
	if err != nil {
		return fail(c, "profile.get", "get_profile_error", err)
	}

	return success(c, http.StatusOK, "", echo.Map{
		"user":      p.User,
		"addresses": p.Addresses,
	})
}

func (h *ProfileHTTP) Update(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, "profile.update", "update_profile_error", err)
	}

	var req transport.UpdateProfileRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "profile.update", "update_profile_error", err)
	}

	u, sent, err := h.Svc.Update(c.Request().Context(), userID, service.ProfileUpdate{Name: req.Name, Email: req.Email})
	if err != nil {
		return fail(c, "profile.update", "update_profile_error", err)
	}

	msg := "Profile updated"
	if sent {
		msg = "Profile updated, verification code sent to the new email"
	}
	return success(c, http.StatusOK, msg, u)
}

func (h *ProfileHTTP) VerifyEmail(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, "profile.verify_email", "verify_email_error", err)
	}

	var req transport.VerifyEmailRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "profile.verify_email", "verify_email_error", err)
	}

	u, err := h.Svc.VerifyEmail(c.Request().Context(), userID, req.Code)
	if err != nil {
		return fail(c, "profile.verify_email", "verify_email_error", err)
	}
	return success(c, http.StatusOK, "Email verified", u)
}

func (h *ProfileHTTP) ChangePassword(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return fail(c, "profile.change_password", "change_password_error", err)
	}

	var req transport.ChangePasswordRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "profile.change_password", "change_password_error", err)
	}

	if err := h.Svc.ChangePassword(c.Request().Context(), userID, middleware.TokenID(c), req.CurrentPassword, req.Password); err != nil {
		return fail(c, "profile.change_password", "change_password_error", err)
	}
	return success(c, http.StatusOK, "Password changed", nil)
}
