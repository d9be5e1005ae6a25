package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/freshcart/pkg/db"
	middleware "github.com/Skotchmaster/freshcart/pkg/middleware/auth"
	"github.com/Skotchmaster/freshcart/pkg/middleware/ratelimit"
)

type Deps struct {
	DB              *gorm.DB
	AuthHandler     *AuthHTTP
	ProfileHandler  *ProfileHTTP
	CartHandler     *CartHTTP
	AddressHandler  *AddressHTTP
	LocationHandler *LocationHTTP
	CatalogHandler  *CatalogHTTP
	JWTSecret       []byte
	Tokens          middleware.TokenChecker
	// AuthLimiter throttles the unauthenticated /auth endpoints per client address.
	AuthLimiter *ratelimit.Limiter
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewAuth(d.JWTSecret, d.Tokens)

	auth := e.Group("/auth")
	if d.AuthLimiter != nil {
		auth.Use(d.AuthLimiter.Middleware(nil))
	}
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/register/verify", d.AuthHandler.VerifyRegistration)
	auth.POST("/login", d.AuthHandler.Login)
	auth.POST("/login/request-otp", d.AuthHandler.RequestLoginOTP)
	auth.POST("/resend-otp", d.AuthHandler.ResendOTP)
	auth.POST("/logout", d.AuthHandler.Logout, authMW.RequireAuth)

	e.GET("/profile", d.ProfileHandler.Get, authMW.RequireAuth)
	e.PUT("/profile", d.ProfileHandler.Update, authMW.RequireAuth)
	e.POST("/profile/verify-email", d.ProfileHandler.VerifyEmail, authMW.RequireAuth)
	e.POST("/change-password", d.ProfileHandler.ChangePassword, authMW.RequireAuth)

	cart := e.Group("/cart")
	cart.GET("", d.CartHandler.GetCart, authMW.OptionalAuth)
	cart.POST("/add", d.CartHandler.AddToCart, authMW.OptionalAuth)
	cart.PUT("/items/:id", d.CartHandler.UpdateItem, authMW.OptionalAuth)
	cart.DELETE("/items/:id", d.CartHandler.RemoveItem, authMW.OptionalAuth)
	cart.DELETE("/clear", d.CartHandler.Clear, authMW.OptionalAuth)
	cart.POST("/merge", d.CartHandler.Merge, authMW.RequireAuth)

	addr := e.Group("/addresses", authMW.RequireAuth)
	addr.GET("", d.AddressHandler.List)
	addr.POST("", d.AddressHandler.Create)
	addr.GET("/:id", d.AddressHandler.Get)
	addr.PUT("/:id", d.AddressHandler.Update)
	addr.DELETE("/:id", d.AddressHandler.Delete)
	addr.POST("/:id/set-default", d.AddressHandler.SetDefault)

	e.GET("/service-locations", d.LocationHandler.List)
	e.POST("/check-serviceability", d.LocationHandler.CheckServiceability)
	e.POST("/service-locations", d.LocationHandler.Create, authMW.RequireAdmin)
	e.GET("/service-locations/:id", d.LocationHandler.Get, authMW.RequireAdmin)
	e.PUT("/service-locations/:id", d.LocationHandler.Update, authMW.RequireAdmin)
	e.DELETE("/service-locations/:id", d.LocationHandler.Delete, authMW.RequireAdmin)

	e.GET("/categories", d.CatalogHandler.ListCategories)
	e.GET("/categories/:id", d.CatalogHandler.GetCategory)
	e.GET("/categories/:id/subcategories", d.CatalogHandler.Subcategories)
	e.POST("/categories", d.CatalogHandler.CreateCategory, authMW.RequireAdmin)
	e.PUT("/categories/:id", d.CatalogHandler.UpdateCategory, authMW.RequireAdmin)
	e.DELETE("/categories/:id", d.CatalogHandler.DeleteCategory, authMW.RequireAdmin)

	e.GET("/products", d.CatalogHandler.ListProducts)
	e.GET("/products/search", d.CatalogHandler.SearchProducts)
	e.GET("/products/:id", d.CatalogHandler.GetProduct)
	e.GET("/products/:id/variants", d.CatalogHandler.Variants)
	e.POST("/products", d.CatalogHandler.CreateProduct, authMW.RequireAdmin)
	e.PUT("/products/:id", d.CatalogHandler.UpdateProduct, authMW.RequireAdmin)
	e.DELETE("/products/:id", d.CatalogHandler.DeleteProduct, authMW.RequireAdmin)
}
