package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/freshcart/internal/mykafka"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "Fresh Fruits", want: "fresh-fruits"},
		{in: "  Dairy & Eggs  ", want: "dairy-eggs"},
		{in: "Atta, Rice & Dal!", want: "atta-rice-dal"},
		{in: "100% Juice", want: "100-juice"},
		{in: "---", want: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestCatalogService_Categories(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	svc := &CatalogService{Repo: r}
	ctx := context.Background()

	root, err := svc.CreateCategory(ctx, CategoryInput{Name: "Fresh Fruits"})
	require.NoError(t, err)
	assert.Equal(t, "fresh-fruits", root.Slug)

	missing := uint(9999)
	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Orphan", ParentID: &missing})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "parent_id")

	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Fresh  Fruits"})
	assert.ErrorIs(t, err, ErrBusinessRule, "slug is unique")

	pid := root.ID
	child, err := svc.CreateCategory(ctx, CategoryInput{Name: "Citrus", ParentID: &pid})
	require.NoError(t, err)

	off := false
	hidden, err := svc.CreateCategory(ctx, CategoryInput{Name: "Hidden", ParentID: &pid, IsActive: &off})
	require.NoError(t, err)
	assert.False(t, hidden.IsActive)

	subs, err := svc.Subcategories(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, child.ID, subs[0].ID)

	self := root.ID
	_, err = svc.UpdateCategory(ctx, root.ID, CategoryUpdate{ParentID: &self})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "category cannot be its own parent", verr.Fields["parent_id"])

	name := "Seasonal Fruits"
	renamed, err := svc.UpdateCategory(ctx, root.ID, CategoryUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "seasonal-fruits", renamed.Slug)

	err = svc.DeleteCategory(ctx, root.ID)
	assert.ErrorIs(t, err, ErrBusinessRule)
	assert.Equal(t, "cannot delete category with subcategories", Message(err))

	require.NoError(t, svc.DeleteCategory(ctx, hidden.ID))
	assert.ErrorIs(t, svc.DeleteCategory(ctx, hidden.ID), ErrNotFound)

	seedProduct(t, r, child.ID, "ORANGE", "60")
	err = svc.DeleteCategory(ctx, child.ID)
	assert.Equal(t, "cannot delete category with products", Message(err))
}

func TestCatalogService_Products(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	idx := newMemIndex()
	events := &recorder{}
	svc := &CatalogService{Repo: r, Index: idx, Events: events}
	ctx := context.Background()
	cat := seedCategory(t, r, "tea")

	_, err := svc.CreateProduct(ctx, ProductInput{CategoryID: 9999, Name: "x", SKU: "X", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrValidation)

	p, err := svc.CreateProduct(ctx, ProductInput{
		CategoryID:  cat.ID,
		Name:        "Green Tea",
		Description: "loose leaf",
		Price:       decimal.RequireFromString("249.999"),
		Stock:       5,
		SKU:         "TEA",
		Variants: []VariantInput{
			{Name: "100g", SKU: "TEA-100", Price: decimal.RequireFromString("250"), IsDefault: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "green-tea", p.Slug)
	assert.Equal(t, "250", p.Price.String())
	require.Len(t, p.Variants, 1)
	assert.True(t, p.Variants[0].IsActive)
	assert.Contains(t, idx.docs, p.ID)

	_, err = svc.CreateProduct(ctx, ProductInput{CategoryID: cat.ID, Name: "Dup", SKU: "TEA", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, ErrBusinessRule)

	off := false
	draft, err := svc.CreateProduct(ctx, ProductInput{CategoryID: cat.ID, Name: "Draft", SKU: "DRAFT", Price: decimal.NewFromInt(10), IsActive: &off})
	require.NoError(t, err)
	assert.False(t, draft.IsActive)
	_, err = svc.GetProduct(ctx, draft.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	total, items, err := svc.ListProducts(ctx, nil, 0, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)

	name := "Jasmine Green Tea"
	empty := []VariantInput{}
	updated, err := svc.UpdateProduct(ctx, p.ID, ProductUpdate{Name: &name, Variants: &empty})
	require.NoError(t, err)
	assert.Equal(t, "jasmine-green-tea", updated.Slug)
	assert.Empty(t, updated.Variants)
	assert.Equal(t, name, idx.docs[p.ID].Name)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	assert.NotContains(t, idx.docs, p.ID)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, p.ID), ErrNotFound)

	assert.Equal(t, []string{"product_created", "product_created", "product_updated", "product_deleted"}, events.types())
	for _, ev := range events.events {
		assert.Equal(t, mykafka.TopicCatalogEvents, ev.Topic)
	}
}

func TestCatalogService_Search(t *testing.T) {
	t.Parallel()

	r := newTestRepo(t)
	ctx := context.Background()
	cat := seedCategory(t, r, "veg")
	seedProduct(t, r, cat.ID, "TOMATO", "30")
	seedProduct(t, r, cat.ID, "ONION", "40")

	db := &CatalogService{Repo: r}
	_, _, err := db.SearchProducts(ctx, "   ", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)

	total, items, err := db.SearchProducts(ctx, "onion", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "ONION", items[0].SKU)

	idx := newMemIndex()
	indexed := &CatalogService{Repo: r, Index: idx}
	total, _, err = indexed.SearchProducts(ctx, "onion", 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total, "an index, once configured, is the source of results")
}
