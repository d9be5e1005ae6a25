package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/mykafka"
	"github.com/Skotchmaster/freshcart/internal/repo"
	"github.com/Skotchmaster/freshcart/internal/search"
	"github.com/Skotchmaster/freshcart/pkg/logging"
)

const indexTimeout = 5 * time.Second

// ProductIndexer keeps the search index in step with the catalog.
type ProductIndexer interface {
	Put(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (*search.Results, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  ProductIndexer
	Events mykafka.Publisher
}

type CategoryInput struct {
	Name        string
	Slug        string
	ParentID    *uint
	Description string
	SortOrder   int
	IsActive    *bool
}

type CategoryUpdate struct {
	Name        *string
	Slug        *string
	ParentID    *uint
	Description *string
	SortOrder   *int
	IsActive    *bool
}

type VariantInput struct {
	ID         uint
	Name       string
	SKU        string
	Price      decimal.Decimal
	Stock      int
	Attributes map[string]string
	IsDefault  bool
	IsActive   *bool
}

type ProductInput struct {
	CategoryID  uint
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	SKU         string
	IsActive    *bool
	Variants    []VariantInput
}

type ProductUpdate struct {
	CategoryID  *uint
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	SKU         *string
	IsActive    *bool
	// nil leaves the variants alone; an empty slice removes them all.
	Variants *[]VariantInput
}

// Slugify lowercases s and joins its letter and digit runs with single dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListRootCategories(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	c, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, storeErr(err, "category")
	}
	return c, nil
}

func (s *CatalogService) Subcategories(ctx context.Context, id uint) ([]models.Category, error) {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return nil, err
	}
	return s.Repo.ListSubcategories(ctx, id)
}

func (s *CatalogService) checkParent(ctx context.Context, parentID *uint) error {
	if parentID == nil {
		return nil
	}
	ok, err := s.Repo.CategoryExists(ctx, *parentID)
	if err != nil {
		return err
	}
	if !ok {
		return NewValidationError("parent_id", "parent category does not exist")
	}
	return nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	if err := s.checkParent(ctx, in.ParentID); err != nil {
		return nil, err
	}
	slug := in.Slug
	if slug == "" {
		slug = Slugify(in.Name)
	}
	c := &models.Category{
		ParentID:    in.ParentID,
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		SortOrder:   in.SortOrder,
		IsActive:    true,
	}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		return nil, storeErr(err, "category slug")
	}
	if in.IsActive != nil && !*in.IsActive {
		return s.Repo.UpdateCategory(ctx, c.ID, map[string]any{"is_active": false})
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, upd CategoryUpdate) (*models.Category, error) {
	if upd.ParentID != nil && *upd.ParentID == id {
		return nil, NewValidationError("parent_id", "category cannot be its own parent")
	}
	if err := s.checkParent(ctx, upd.ParentID); err != nil {
		return nil, err
	}

	changes := map[string]any{}
	if upd.Name != nil {
		changes["name"] = *upd.Name
		changes["slug"] = Slugify(*upd.Name)
	}
	if upd.Slug != nil {
		changes["slug"] = *upd.Slug
	}
	if upd.ParentID != nil {
		changes["parent_id"] = *upd.ParentID
	}
	if upd.Description != nil {
		changes["description"] = *upd.Description
	}
	if upd.SortOrder != nil {
		changes["sort_order"] = *upd.SortOrder
	}
	if upd.IsActive != nil {
		changes["is_active"] = *upd.IsActive
	}

	c, err := s.Repo.UpdateCategory(ctx, id, changes)
	if err != nil {
		return nil, storeErr(err, "category")
	}
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.GetCategory(ctx, id); err != nil {
		return err
	}
	children, products, err := s.Repo.CategoryUsage(ctx, id)
	if err != nil {
		return err
	}
	if children > 0 {
		return fmt.Errorf("%w: cannot delete category with subcategories", ErrBusinessRule)
	}
	if products > 0 {
		return fmt.Errorf("%w: cannot delete category with products", ErrBusinessRule)
	}
	return storeErr(s.Repo.DeleteCategory(ctx, id), "category")
}

func (s *CatalogService) ListProducts(ctx context.Context, categoryID *uint, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, repo.ProductFilter{CategoryID: categoryID, Offset: offset, Limit: limit})
}

// SearchProducts asks the search index when one is configured and the database otherwise.
func (s *CatalogService) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	if strings.TrimSpace(query) == "" {
		return 0, nil, NewValidationError("q", "search query is required")
	}
	if s.Index == nil {
		return s.Repo.SearchProducts(ctx, query, offset, limit)
	}
	res, err := s.Index.Search(ctx, query, offset, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("search products: %w", err)
	}
	return res.Total, res.Items, nil
}

// GetProduct returns an active product with its category and variants.
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, storeErr(err, "product")
	}
	if !p.IsActive {
		return nil, fmt.Errorf("%w: product not found", ErrNotFound)
	}
	return p, nil
}

func (s *CatalogService) Variants(ctx context.Context, productID uint) ([]models.ProductVariant, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.Repo.ListVariants(ctx, productID)
}

func toVariants(in []VariantInput) []models.ProductVariant {
	out := make([]models.ProductVariant, 0, len(in))
	for _, v := range in {
		active := true
		if v.IsActive != nil {
			active = *v.IsActive
		}
		out = append(out, models.ProductVariant{
			ID:         v.ID,
			Name:       v.Name,
			SKU:        v.SKU,
			Price:      v.Price.Round(2),
			Stock:      v.Stock,
			Attributes: v.Attributes,
			IsDefault:  v.IsDefault,
			IsActive:   active,
		})
	}
	return out
}

func (s *CatalogService) categoryMustExist(ctx context.Context, id uint) error {
	ok, err := s.Repo.CategoryExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return NewValidationError("category_id", "category does not exist")
	}
	return nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (*models.Product, error) {
	if err := s.categoryMustExist(ctx, in.CategoryID); err != nil {
		return nil, err
	}
	p := &models.Product{
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Slug:        Slugify(in.Name),
		Description: in.Description,
		Price:       in.Price.Round(2),
		Stock:       in.Stock,
		SKU:         in.SKU,
		IsActive:    true,
		Variants:    toVariants(in.Variants),
	}
	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, storeErr(err, "product sku")
	}

	var changes map[string]any
	if in.IsActive != nil && !*in.IsActive {
		changes = map[string]any{"is_active": false}
	}
	full, err := s.Repo.UpdateProduct(ctx, p.ID, changes, nil)
	if err != nil {
		return nil, err
	}

	s.syncIndex(ctx, full)
	publish(ctx, s.Events, mykafka.TopicCatalogEvents, idKey(full.ID), mykafka.NewEvent("product_created", 0, map[string]any{
		"product_id": full.ID,
		"sku":        full.SKU,
	}))
	return full, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, upd ProductUpdate) (*models.Product, error) {
	changes := map[string]any{}
	if upd.CategoryID != nil {
		if err := s.categoryMustExist(ctx, *upd.CategoryID); err != nil {
			return nil, err
		}
		changes["category_id"] = *upd.CategoryID
	}
	if upd.Name != nil {
		changes["name"] = *upd.Name
		changes["slug"] = Slugify(*upd.Name)
	}
	if upd.Description != nil {
		changes["description"] = *upd.Description
	}
	if upd.Price != nil {
		changes["price"] = upd.Price.Round(2)
	}
	if upd.Stock != nil {
		changes["stock"] = *upd.Stock
	}
	if upd.SKU != nil {
		changes["sku"] = *upd.SKU
	}
	if upd.IsActive != nil {
		changes["is_active"] = *upd.IsActive
	}

	var variants []models.ProductVariant
	if upd.Variants != nil {
		variants = toVariants(*upd.Variants)
	}

	p, err := s.Repo.UpdateProduct(ctx, id, changes, variants)
	if err != nil {
		return nil, storeErr(err, "product")
	}

	s.syncIndex(ctx, p)
	publish(ctx, s.Events, mykafka.TopicCatalogEvents, idKey(p.ID), mykafka.NewEvent("product_updated", 0, map[string]any{
		"product_id": p.ID,
	}))
	return p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return storeErr(err, "product")
	}

	if s.Index != nil {
		ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
		defer cancel()
		if err := s.Index.Delete(ictx, id); err != nil {
			logging.FromContext(ctx).Warn("search_delete_error", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, mykafka.TopicCatalogEvents, idKey(id), mykafka.NewEvent("product_deleted", 0, map[string]any{
		"product_id": id,
	}))
	return nil
}

func (s *CatalogService) syncIndex(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	defer cancel()
	if err := s.Index.Put(ictx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_error", "product_id", p.ID, "error", err)
	}
}
