package repo

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/pkg/db"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()

	gdb, err := db.Open(context.Background(), db.Options{Driver: db.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, models.AutoMigrate(gdb))

	return &GormRepo{DB: gdb}
}

func seedUser(t *testing.T, r *GormRepo, mobile string) *models.User {
	t.Helper()
	u := &models.User{Name: "user " + mobile, Mobile: mobile, PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func seedCategory(t *testing.T, r *GormRepo, slug string) *models.Category {
	t.Helper()
	c := &models.Category{Name: slug, Slug: slug, IsActive: true}
	require.NoError(t, r.CreateCategory(context.Background(), c))
	return c
}

func seedProduct(t *testing.T, r *GormRepo, categoryID uint, sku, price string) *models.Product {
	t.Helper()
	p := &models.Product{
		CategoryID:  categoryID,
		Name:        "product " + sku,
		Slug:        "product-" + sku,
		Description: "description of " + sku,
		Price:       decimal.RequireFromString(price),
		Stock:       10,
		SKU:         sku,
		IsActive:    true,
	}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func seedAddress(t *testing.T, r *GormRepo, userID uint, isDefault bool) *models.Address {
	t.Helper()
	a := &models.Address{
		UserID:       userID,
		Name:         "Home",
		Mobile:       "9876543210",
		AddressLine1: "12 Main Road",
		City:         "Bengaluru",
		State:        "Karnataka",
		Pincode:      "560001",
		Type:         models.AddressHome,
		IsDefault:    isDefault,
	}
	require.NoError(t, r.CreateAddress(context.Background(), a))
	return a
}
