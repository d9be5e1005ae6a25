package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/freshcart/internal/models"
	"github.com/Skotchmaster/freshcart/internal/service"
	"github.com/Skotchmaster/freshcart/internal/transport"
	"github.com/Skotchmaster/freshcart/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) ListCategories(c echo.Context) error {
	out, err := h.Svc.ListCategories(c.Request().Context())
	if err != nil {
		return fail(c, "catalog.list_categories", "list_categories_error", err)
	}
	if out == nil {
		out = []models.Category{}
	}
	return success(c, http.StatusOK, "", out)
}

func (h *CatalogHTTP) GetCategory(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "catalog.get_category", "get_category_error", err)
	}
	cat, err := h.Svc.GetCategory(c.Request().Context(), id)
	if err != nil {
		return fail(c, "catalog.get_category", "get_category_error", err)
	}
	return success(c, http.StatusOK, "", cat)
}

func (h *CatalogHTTP) Subcategories(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "catalog.subcategories", "subcategories_error", err)
	}
	out, err := h.Svc.Subcategories(c.Request().Context(), id)
	if err != nil {
		return fail(c, "catalog.subcategories", "subcategories_error", err)
	}
	if out == nil {
		out = []models.Category{}
	}
	return success(c, http.StatusOK, "", out)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	var req transport.CategoryRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "catalog.create_category", "create_category_error", err)
	}

	cat, err := h.Svc.CreateCategory(c.Request().Context(), service.CategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		ParentID:    req.ParentID,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return fail(c, "catalog.create_category", "create_category_error", err)
	}
	return success(c, http.StatusCreated, "Category created", cat)
}

func (h *CatalogHTTP) UpdateCategory(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "catalog.update_category", "update_category_error", err)
	}
	var req transport.UpdateCategoryRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "catalog.update_category", "update_category_error", err)
	}

	cat, err := h.Svc.UpdateCategory(c.Request().Context(), id, service.CategoryUpdate{
		Name:        req.Name,
		Slug:        req.Slug,
		ParentID:    req.ParentID,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		IsActive:    req.IsActive,
	})
	if err != nil {
		return fail(c, "catalog.update_category", "update_category_error", err)
	}
	return success(c, http.StatusOK, "Category updated", cat)
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "catalog.delete_category", "delete_category_error", err)
	}
	if err := h.Svc.DeleteCategory(c.Request().Context(), id); err != nil {
		return fail(c, "catalog.delete_category", "delete_category_error", err)
	}
	return success(c, http.StatusOK, "Category deleted", nil)
}

func pageParams(c echo.Context) (page, offset, limit int) {
	page = util.ParseIntDefault(c.QueryParam("page"), 1)
	if page < 1 {
		page = 1
	}
	offset, limit = util.Calculate(page, util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize))
	return page, offset, limit
}

func (h *CatalogHTTP) ListProducts(c echo.Context) error {
	page, offset, limit := pageParams(c)

	var categoryID *uint
	if raw := c.QueryParam("category_id"); raw != "" {
		id := util.ParseIntDefault(raw, 0)
		if id <= 0 {
			return fail(c, "catalog.list_products", "list_products_error",
				echo.NewHTTPError(http.StatusBadRequest, "category_id must be a positive integer"))
		}
		cid := uint(id)
		categoryID = &cid
	}

	total, items, err := h.Svc.ListProducts(c.Request().Context(), categoryID, offset, limit)
	if err != nil {
		return fail(c, "catalog.list_products", "list_products_error", err)
	}
	if items == nil {
		items = []models.Product{}
	}
	return paged(c, items, util.NewMeta(page, offset, limit, total))
}

func (h *CatalogHTTP) SearchProducts(c echo.Context) error {
	page, offset, limit := pageParams(c)

	total, items, err := h.Svc.SearchProducts(c.Request().Context(), c.QueryParam("q"), offset, limit)
	if err != nil {
		return fail(c, "catalog.search", "search_products_error", err)
	}
	if items == nil {
		items = []models.Product{}
	}
	return paged(c, items, util.NewMeta(page, offset, limit, total))
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "catalog.get_product", "get_product_error", err)
	}
	p, err := h.Svc.GetProduct(c.Request().Context(), id)
	if err != nil {
		return fail(c, "catalog.get_product", "get_product_error", err)
	}
	return success(c, http.StatusOK, "", p)
}

func (h *CatalogHTTP) Variants(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "catalog.variants", "product_variants_error", err)
	}
	out, err := h.Svc.Variants(c.Request().Context(), id)
	if err != nil {
		return fail(c, "catalog.variants", "product_variants_error", err)
	}
	if out == nil {
		out = []models.ProductVariant{}
	}
	return success(c, http.StatusOK, "", out)
}

func variantInputs(in []transport.VariantRequest) []service.VariantInput {
	out := make([]service.VariantInput, 0, len(in))
	for _, v := range in {
		out = append(out, service.VariantInput{
			ID:         v.ID,
			Name:       v.Name,
			SKU:        v.SKU,
			Price:      v.Price,
			Stock:      v.Stock,
			Attributes: v.Attributes,
			IsDefault:  v.IsDefault,
			IsActive:   v.IsActive,
		})
	}
	return out
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	var req transport.ProductRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "catalog.create_product", "create_product_error", err)
	}

	p, err := h.Svc.CreateProduct(c.Request().Context(), service.ProductInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		SKU:         req.SKU,
		IsActive:    req.IsActive,
		Variants:    variantInputs(req.Variants),
	})
	if err != nil {
		return fail(c, "catalog.create_product", "create_product_error", err)
	}
	return success(c, http.StatusCreated, "Product created", p)
}

func (h *CatalogHTTP) UpdateProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "catalog.update_product", "update_product_error", err)
	}
	var req transport.UpdateProductRequest
	if err := bindValid(c, &req); err != nil {
		return fail(c, "catalog.update_product", "update_product_error", err)
	}

	upd := service.ProductUpdate{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		SKU:         req.SKU,
		IsActive:    req.IsActive,
	}
	if req.Variants != nil {
		vs := variantInputs(*req.Variants)
		upd.Variants = &vs
	}

	p, err := h.Svc.UpdateProduct(c.Request().Context(), id, upd)
	if err != nil {
		return fail(c, "catalog.update_product", "update_product_error", err)
	}
	return success(c, http.StatusOK, "Product updated", p)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return fail(c, "catalog.delete_product", "delete_product_error", err)
	}
	if err := h.Svc.DeleteProduct(c.Request().Context(), id); err != nil {
		return fail(c, "catalog.delete_product", "delete_product_error", err)
	}
	return success(c, http.StatusOK, "Product deleted", nil)
}
