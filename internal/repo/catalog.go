package repo

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/freshcart/internal/models"
)

func activeChildren(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true).Order("sort_order ASC, id ASC")
}

func (r *GormRepo) ListRootCategories(ctx context.Context) ([]models.Category, error) {
	var out []models.Category
	err := r.DB.WithContext(ctx).
		Preload("Children", activeChildren).
		Where("parent_id IS NULL AND is_active = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&out).Error
	return out, err
}

func (r *GormRepo) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).Preload("Children", activeChildren).Take(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) ListSubcategories(ctx context.Context, parentID uint) ([]models.Category, error) {
	var out []models.Category
	err := activeChildren(r.DB.WithContext(ctx)).Where("parent_id = ?", parentID).Find(&out).Error
	return out, err
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) UpdateCategory(ctx context.Context, id uint, changes map[string]any) (*models.Category, error) {
	var c models.Category
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Take(&c, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&c).Updates(changes).Error; err != nil {
			return err
		}
		return tx.Take(&c, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CategoryUsage counts what still hangs off a category.
func (r *GormRepo) CategoryUsage(ctx context.Context, id uint) (children, products int64, err error) {
	db := r.DB.WithContext(ctx)
	if err = db.Model(&models.Category{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
		return
	}
	err = db.Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error
	return
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type ProductFilter struct {
	CategoryID *uint
	Offset     int
	Limit      int
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter) (int64, []models.Product, error) {
	base := func() *gorm.DB {
		q := r.DB.WithContext(ctx).Model(&models.Product{}).Where("is_active = ?", true)
		if f.CategoryID != nil {
			q = q.Where("category_id = ?", *f.CategoryID)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	err := base().Preload("Variants", "is_active = ?", true).
		Order("id ASC").
		Offset(f.Offset).
		Limit(f.Limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := r.DB.WithContext(ctx).
		Preload("Category").
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Take(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetVariant(ctx context.Context, id uint) (*models.ProductVariant, error) {
	var v models.ProductVariant
	if err := r.DB.WithContext(ctx).Take(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *GormRepo) ListVariants(ctx context.Context, productID uint) ([]models.ProductVariant, error) {
	var out []models.ProductVariant
	err := r.DB.WithContext(ctx).
		Where("product_id = ? AND is_active = ?", productID, true).
		Order("is_default DESC, id ASC").
		Find(&out).Error
	return out, err
}

// inactiveSKUs lists the variants that must be switched off after insert: gorm leaves a false
// is_active out of the INSERT and the column default turns it back on.
func inactiveSKUs(vs []models.ProductVariant) []string {
	var out []string
	for _, v := range vs {
		if !v.IsActive {
			out = append(out, v.SKU)
		}
	}
	return out
}

func deactivateSKUs(tx *gorm.DB, skus []string) error {
	if len(skus) == 0 {
		return nil
	}
	return tx.Model(&models.ProductVariant{}).Where("sku IN ?", skus).Update("is_active", false).Error
}

// CreateProduct inserts the product together with its variants.
func (r *GormRepo) CreateProduct(ctx context.Context, p *models.Product) error {
	inactive := inactiveSKUs(p.Variants)
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return deactivateSKUs(tx, inactive)
	})
}

// UpdateProduct applies changes and, when variants is non-nil, replaces the variant set: listed
// ids are updated, new entries inserted, missing ones deleted.
func (r *GormRepo) UpdateProduct(ctx context.Context, id uint, changes map[string]any, variants []models.ProductVariant) (*models.Product, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p models.Product
		if err := tx.Take(&p, id).Error; err != nil {
			return err
		}
		if len(changes) > 0 {
			if err := tx.Model(&p).Updates(changes).Error; err != nil {
				return err
			}
		}
		if variants == nil {
			return nil
		}

		keep := make([]uint, 0, len(variants))
		for i := range variants {
			v := variants[i]
			v.ProductID = id
			if v.ID != 0 {
				if err := tx.Clauses(forUpdate).Select("id").Where("product_id = ?", id).
					Take(&models.ProductVariant{}, v.ID).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.ProductVariant{}).
					Where("id = ? AND product_id = ?", v.ID, id).
					Select("name", "sku", "price", "stock", "attributes", "is_default", "is_active").
					Updates(&v).Error; err != nil {
					return err
				}
			} else {
				off := inactiveSKUs([]models.ProductVariant{v})
				if err := tx.Create(&v).Error; err != nil {
					return err
				}
				if err := deactivateSKUs(tx, off); err != nil {
					return err
				}
			}
			keep = append(keep, v.ID)
		}

		var drop []uint
		q := tx.Model(&models.ProductVariant{}).Where("product_id = ?", id)
		if len(keep) > 0 {
			q = q.Where("id NOT IN ?", keep)
		}
		if err := q.Pluck("id", &drop).Error; err != nil {
			return err
		}
		if len(drop) == 0 {
			return nil
		}
		// cart lines pointing at a removed variant go with it
		if err := tx.Where("product_variant_id IN ?", drop).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", drop).Delete(&models.ProductVariant{}).Error
	})
	if err != nil {
		return nil, err
	}
	return r.GetProduct(ctx, id)
}

func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) CategoryExists(ctx context.Context, id uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// SearchProducts is the database fallback for full-text search: a case-insensitive substring
// match on name and description.
func (r *GormRepo) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	base := func() *gorm.DB {
		return r.DB.WithContext(ctx).Model(&models.Product{}).
			Where("is_active = ?", true).
			Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var items []models.Product
	if err := base().Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}
