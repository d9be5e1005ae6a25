package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho() *echo.Echo {
	e := echo.New()
	mw := Middleware(Config{GuardCookies: []string{"accessToken"}, SkipPaths: []string{"/auth/login"}})
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/cart", ok, mw)
	e.POST("/cart/add", ok, mw)
	e.POST("/auth/login", ok, mw)
	return e
}

func TestMiddleware_IssuesTokenOnSafeRequest(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	newEcho().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	token := rec.Header().Get("X-CSRF-Token")
	require.NotEmpty(t, token)
	assert.Contains(t, rec.Header().Get(echo.HeaderSetCookie), "XSRF-TOKEN="+token)
}

func TestMiddleware_Writes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		cookies []*http.Cookie
		headers map[string]string
		want    int
	}{
		{
			name: "no credential cookie",
			path: "/cart/add",
			want: http.StatusOK,
		},
		{
			name:    "cookie session without token",
			path:    "/cart/add",
			cookies: []*http.Cookie{{Name: "accessToken", Value: "jwt"}, {Name: "XSRF-TOKEN", Value: "abc"}},
			want:    http.StatusForbidden,
		},
		{
			name:    "cookie session with wrong token",
			path:    "/cart/add",
			cookies: []*http.Cookie{{Name: "accessToken", Value: "jwt"}, {Name: "XSRF-TOKEN", Value: "abc"}},
			headers: map[string]string{"X-CSRF-Token": "abd"},
			want:    http.StatusForbidden,
		},
		{
			name:    "cookie session with matching token",
			path:    "/cart/add",
			cookies: []*http.Cookie{{Name: "accessToken", Value: "jwt"}, {Name: "XSRF-TOKEN", Value: "abc"}},
			headers: map[string]string{"X-CSRF-Token": "abc"},
			want:    http.StatusOK,
		},
		{
			name:    "bearer header",
			path:    "/cart/add",
			cookies: []*http.Cookie{{Name: "accessToken", Value: "jwt"}},
			headers: map[string]string{echo.HeaderAuthorization: "Bearer jwt"},
			want:    http.StatusOK,
		},
		{
			name:    "skipped path",
			path:    "/auth/login",
			cookies: []*http.Cookie{{Name: "accessToken", Value: "jwt"}},
			want:    http.StatusOK,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			for _, ck := range tt.cookies {
				req.AddCookie(ck)
			}
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			newEcho().ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
