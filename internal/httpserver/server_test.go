package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/notify"
	"github.com/Skotchmaster/freshcart/internal/repo"
	"github.com/Skotchmaster/freshcart/internal/service"
	"github.com/Skotchmaster/freshcart/internal/util"
	"github.com/Skotchmaster/freshcart/pkg/db"
	"github.com/Skotchmaster/freshcart/pkg/middleware/ratelimit"
)

var testSecret = []byte("test-jwt-secret")

type outbox struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (o *outbox) Send(_ context.Context, msg notify.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last(ch models.Channel, identifier string) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].Channel == ch && o.sent[i].Identifier == identifier {
			return o.sent[i].Code
		}
	}
	return ""
}

type envelope struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Meta    *util.Meta        `json:"meta"`
	Errors  map[string]string `json:"errors"`
}

type testEnv struct {
	e      *echo.Echo
	repo   *repo.GormRepo
	box    *outbox
	tokens *service.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := db.Open(context.Background(), db.Options{Driver: db.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, models.AutoMigrate(gdb))

	r := &repo.GormRepo{DB: gdb}
	box := &outbox{}
	otp := &service.OtpService{Repo: r}
	toks := &service.TokenService{Repo: r, Secret: testSecret}

	e := echo.New()
	e.Validator = NewValidator()
	e.HTTPErrorHandler = ErrorHandler

	Register(e, &Deps{
		DB: gdb,
		AuthHandler: &AuthHTTP{
			Svc: &service.AuthService{
				Repo:     r,
				OTP:      otp,
				Tokens:   toks,
				Notifier: box,
				WhatsApp: notify.StaticWhatsapp{},
			},
			Resend: ratelimit.New(2, time.Minute),
		},
		ProfileHandler:  &ProfileHTTP{Svc: &service.ProfileService{Repo: r, OTP: otp, Notifier: box}},
		CartHandler:     &CartHTTP{Svc: &service.CartService{Repo: r}},
		AddressHandler:  &AddressHTTP{Svc: &service.AddressService{Repo: r}},
		LocationHandler: &LocationHTTP{Svc: &service.LocationService{Repo: r}},
		CatalogHandler:  &CatalogHTTP{Svc: &service.CatalogService{Repo: r}},
		JWTSecret:       testSecret,
		Tokens:          toks,
	})

	return &testEnv{e: e, repo: r, box: box, tokens: toks}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)

	var out envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func itoa(id uint) string { return strconv.FormatUint(uint64(id), 10) }

func bearer(token string) map[string]string {
	return map[string]string{echo.HeaderAuthorization: "Bearer " + token}
}

// signup registers mobile through both steps and returns the session token.
func (env *testEnv) signup(t *testing.T, mobile string) string {
	t.Helper()

	rec, out := env.do(t, http.MethodPost, "/auth/register", echo.Map{
		"name": "Asha", "mobile": mobile, "password": "s3cret-pass",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var flow struct {
		VerificationToken string `json:"verification_token"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &flow))

	rec, out = env.do(t, http.MethodPost, "/auth/register/verify", echo.Map{
		"verification_token": flow.VerificationToken,
		"mobile_otp":         env.box.last(models.ChannelMobile, mobile),
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sess struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &sess))
	require.NotEmpty(t, sess.Token)
	return sess.Token
}

func (env *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	u := &models.User{Name: "Admin", Mobile: "9000000001", PasswordHash: "x", Role: models.RoleAdmin}
	require.NoError(t, env.repo.CreateUser(context.Background(), u))
	tok, err := env.tokens.Issue(context.Background(), u)
	require.NoError(t, err)
	return tok.Token
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	for _, path := range []string{"/health/live", "/health/ready"} {
		rec, _ := env.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAuthFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec, out := env.do(t, http.MethodPost, "/auth/register", echo.Map{"mobile": "123"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "error", out.Status)
	assert.Equal(t, "Validation Error", out.Message)
	assert.Contains(t, out.Errors, "mobile")
	assert.Contains(t, out.Errors, "name")
	assert.Contains(t, out.Errors, "password")

	rec, out = env.do(t, http.MethodPost, "/auth/register", echo.Map{
		"name": "Asha", "mobile": "9876543210", "password": "s3cret-pass",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var flow struct {
		VerificationToken string `json:"verification_token"`
		WhatsappEnabled   bool   `json:"whatsapp_enabled"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &flow))
	assert.False(t, flow.WhatsappEnabled)

	code := env.box.last(models.ChannelMobile, "9876543210")
	bad := "000000"
	if code == bad {
		bad = "111111"
	}
	rec, out = env.do(t, http.MethodPost, "/auth/register/verify", echo.Map{
		"verification_token": flow.VerificationToken, "mobile_otp": bad,
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid OTP", out.Message)

	rec, out = env.do(t, http.MethodPost, "/auth/register/verify", echo.Map{
		"verification_token": flow.VerificationToken, "mobile_otp": code,
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sess struct {
		Token     string       `json:"token"`
		TokenType string       `json:"token_type"`
		User      *models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &sess))
	assert.Equal(t, "Bearer", sess.TokenType)
	assert.Equal(t, "9876543210", sess.User.Mobile)
	assert.NotContains(t, string(out.Data), "password")

	rec, _ = env.do(t, http.MethodGet, "/profile", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = env.do(t, http.MethodGet, "/profile", nil, bearer(sess.Token))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, out = env.do(t, http.MethodPost, "/auth/login", echo.Map{
		"login_type": "password", "mobile": "9876543210", "password": "wrong-pass",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", out.Message)

	rec, out = env.do(t, http.MethodPost, "/auth/login", echo.Map{"login_type": "otp"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, out.Errors, "verification_token")
	assert.Contains(t, out.Errors, "mobile_otp")

	rec, _ = env.do(t, http.MethodPost, "/auth/login", echo.Map{
		"login_type": "password", "mobile": "9876543210", "password": "s3cret-pass",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/auth/logout", nil, bearer(sess.Token))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = env.do(t, http.MethodGet, "/profile", nil, bearer(sess.Token))
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "revoked token is rejected")
}

func TestResendOTP_RateLimited(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	body := echo.Map{"identifier": "9876543210", "channel": "mobile"}

	for i := 0; i < 2; i++ {
		rec, _ := env.do(t, http.MethodPost, "/auth/resend-otp", body, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, _ := env.do(t, http.MethodPost, "/auth/resend-otp", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/auth/resend-otp", echo.Map{"identifier": "a@b.co", "channel": "email"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "limits are per channel and identifier")

	rec, out := env.do(t, http.MethodPost, "/auth/resend-otp", echo.Map{"identifier": "x", "channel": "fax"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, out.Errors, "channel")
}

func TestGuestCartAndMerge(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	cat := &models.Category{Name: "Dairy", Slug: "dairy", IsActive: true}
	require.NoError(t, env.repo.CreateCategory(ctx, cat))
	p := &models.Product{CategoryID: cat.ID, Name: "Milk", Slug: "milk", Description: "toned", Price: decimal.RequireFromString("30"), SKU: "MILK", IsActive: true}
	require.NoError(t, env.repo.CreateProduct(ctx, p))

	rec, _ := env.do(t, http.MethodPost, "/cart/add", echo.Map{"product_id": p.ID, "quantity": 2}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sid := rec.Header().Get(CartSessionHeader)
	require.NotEmpty(t, sid)
	assert.Contains(t, rec.Header().Get(echo.HeaderSetCookie), CartSessionCookie)

	guestHdr := map[string]string{CartSessionHeader: sid}
	rec, _ = env.do(t, http.MethodPost, "/cart/add", echo.Map{"product_id": p.ID, "quantity": 1}, guestHdr)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, sid, rec.Header().Get(CartSessionHeader))

	rec, out := env.do(t, http.MethodGet, "/cart", nil, guestHdr)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart struct {
		ItemCount int    `json:"item_count"`
		Total     string `json:"total"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &cart))
	assert.Equal(t, 3, cart.ItemCount)
	assert.Equal(t, "90", cart.Total)

	rec, out = env.do(t, http.MethodPost, "/cart/add", echo.Map{"product_id": p.ID, "quantity": 0}, guestHdr)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, out.Errors, "quantity")

	rec, _ = env.do(t, http.MethodPost, "/cart/merge", echo.Map{"session_id": sid}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := env.signup(t, "9876543210")
	hdr := bearer(token)
	hdr[CartSessionHeader] = sid
	rec, out = env.do(t, http.MethodPost, "/cart/merge", nil, hdr)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var merged struct {
		Merged bool `json:"merged"`
		Moved  int  `json:"moved"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &merged))
	assert.True(t, merged.Merged)
	assert.Equal(t, 1, merged.Moved)

	rec, out = env.do(t, http.MethodGet, "/cart", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(out.Data, &cart))
	assert.Equal(t, 3, cart.ItemCount)
}

func TestAddressesAndLocations(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	user := env.signup(t, "9876543210")
	admin := env.adminToken(t)

	loc := echo.Map{"pincode": "560001", "area_name": "MG Road", "district": "Bengaluru", "state": "Karnataka"}
	rec, _ := env.do(t, http.MethodPost, "/service-locations", loc, bearer(user))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = env.do(t, http.MethodPost, "/service-locations", loc, bearer(admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = env.do(t, http.MethodPost, "/check-serviceability", echo.Map{"pincode": "560001"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, out := env.do(t, http.MethodPost, "/check-serviceability", echo.Map{"pincode": "999999"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "pincode 999999 is not serviceable", out.Message)

	addr := echo.Map{
		"name": "Asha", "mobile": "9876543210", "address_line1": "12 Main Road",
		"city": "Bengaluru", "state": "Karnataka", "pincode": "560001",
	}
	rec, _ = env.do(t, http.MethodPost, "/addresses", addr, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, out = env.do(t, http.MethodPost, "/addresses", echo.Map{"name": "Asha", "pincode": "12"}, bearer(user))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, out.Errors, "pincode")

	rec, out = env.do(t, http.MethodPost, "/addresses", addr, bearer(user))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Address
	require.NoError(t, json.Unmarshal(out.Data, &created))
	assert.True(t, created.IsDefault)
	assert.NotNil(t, created.ServiceLocationID)

	other := env.signup(t, "9123456780")
	rec, _ = env.do(t, http.MethodGet, "/addresses/"+itoa(created.ID), nil, bearer(other))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec, _ = env.do(t, http.MethodGet, "/addresses/abc", nil, bearer(user))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductListing(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	admin := env.adminToken(t)

	rec, out := env.do(t, http.MethodPost, "/categories", echo.Map{"name": "Fresh Fruits"}, bearer(admin))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cat models.Category
	require.NoError(t, json.Unmarshal(out.Data, &cat))
	assert.Equal(t, "fresh-fruits", cat.Slug)

	for _, sku := range []string{"APPLE", "MANGO", "GUAVA"} {
		rec, _ := env.do(t, http.MethodPost, "/products", echo.Map{
			"category_id": cat.ID, "name": sku, "description": "fresh " + sku,
			"price": "99.50", "stock": 10, "sku": sku,
		}, bearer(admin))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec, out = env.do(t, http.MethodGet, "/products?page=2&size=2", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, out.Meta)
	assert.EqualValues(t, 3, out.Meta.Total)
	assert.EqualValues(t, 2, out.Meta.TotalPages)
	assert.True(t, out.Meta.HasPrev)
	assert.False(t, out.Meta.HasNext)

	rec, out = env.do(t, http.MethodGet, "/products/search?q=mango", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, out.Meta.Total)

	rec, _ = env.do(t, http.MethodGet, "/products/search", nil, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, out = env.do(t, http.MethodDelete, "/categories/"+itoa(cat.ID), nil, bearer(admin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cannot delete category with products", out.Message)
}

func TestStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "echo error", err: echo.NewHTTPError(http.StatusTooManyRequests, "slow down"), want: http.StatusTooManyRequests},
		{name: "validation", err: service.NewValidationError("q", "required"), want: http.StatusUnprocessableEntity},
		{name: "unauthenticated", err: service.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{name: "forbidden", err: service.ErrForbidden, want: http.StatusForbidden},
		{name: "not found", err: service.ErrNotFound, want: http.StatusNotFound},
		{name: "conflict", err: service.ErrConflict, want: http.StatusConflict},
		{name: "business rule", err: service.ErrInvalidOTP, want: http.StatusBadRequest},
		{name: "unknown", err: assert.AnError, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	t.Parallel()

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	ErrorHandler(assert.AnError, c)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var out envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "internal server error", out.Message)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}
