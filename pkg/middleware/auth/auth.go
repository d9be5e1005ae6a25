package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/freshcart/pkg/logging"
	"github.com/Skotchmaster/freshcart/pkg/tokens"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxJTI    = "jti"
)

// TokenChecker reports whether a token id is still live (issued, not revoked, not expired).
type TokenChecker interface {
	IsActive(ctx context.Context, jti string) (bool, error)
}

type Auth struct {
	JWTSecret []byte
	Tokens    TokenChecker
}

func NewAuth(secret []byte, checker TokenChecker) *Auth {
	return &Auth{JWTSecret: secret, Tokens: checker}
}

func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}
		if err := m.authenticate(c, raw); err != nil {
			return err
		}
		return next(c)
	}
}

// OptionalAuth lets anonymous requests through but rejects a token that is present and invalid.
func (m *Auth) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return next(c)
		}
		if err := m.authenticate(c, raw); err != nil {
			return err
		}
		return next(c)
	}
}

func (m *Auth) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.RequireAuth(func(c echo.Context) error {
		if role, _ := c.Get(ctxRole).(string); role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	})
}

func (m *Auth) authenticate(c echo.Context, raw string) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("mw", "auth")

	claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
	if err != nil {
		c.SetCookie(tokens.DeleteCookie(tokens.AccessCookie, "/"))
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || claims.ID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}

	if m.Tokens != nil {
		active, err := m.Tokens.IsActive(ctx, claims.ID)
		if err != nil {
			l.Error("token_lookup_failed", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		if !active {
			return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
		}
	}

	c.Set(ctxUserID, uint(userID))
	c.Set(ctxRole, claims.Role)
	c.Set(ctxJTI, claims.ID)
	return nil
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	if ck, err := c.Cookie(tokens.AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

// UserID returns the authenticated user id, if any.
func UserID(c echo.Context) (uint, bool) {
	id, ok := c.Get(ctxUserID).(uint)
	return id, ok && id != 0
}

func TokenID(c echo.Context) string {
	s, _ := c.Get(ctxJTI).(string)
	return s
}

func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}
