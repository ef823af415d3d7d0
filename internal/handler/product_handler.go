package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_shop/internal/middleware"
	"github.com/GTDGit/gtd_shop/internal/service"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

// ProductHandler handles the public catalog endpoints.
type ProductHandler struct {
	catalogService *service.CatalogService
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(catalogService *service.CatalogService) *ProductHandler {
	return &ProductHandler{catalogService: catalogService}
}

// ListProducts handles GET /products/
func (h *ProductHandler) ListProducts(c *gin.Context) {
	h.list(c, nil)
}

// ListByCategory handles GET /products-by-category/:id/
func (h *ProductHandler) ListByCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	h.list(c, &id)
}

func (h *ProductHandler) list(c *gin.Context, categoryID *int) {
	q, err := parseProductQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	q.CategoryID = categoryID

	result, err := h.catalogService.ListProducts(c.Request.Context(), q)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessWithPagination(c, 200, "Products retrieved", result.Items, result.Page, result.Limit, result.Total)
}

// GetProduct handles GET /products/:id/
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	product, err := h.catalogService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Product retrieved", product)
}

// ListAttributeValues handles GET /attribute-values/
func (h *ProductHandler) ListAttributeValues(c *gin.Context) {
	values, err := h.catalogService.ListAttributeValues(c.Request.Context(), middleware.CacheIdentity(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Attribute values retrieved", values)
}

func parseProductQuery(c *gin.Context) (service.ProductQuery, error) {
	page, limit := pageParams(c)
	q := service.ProductQuery{
		Search:   c.Query("search"),
		Page:     page,
		Limit:    limit,
		Identity: middleware.CacheIdentity(c),
	}

	var err error
	if q.AttributeValueIDs, err = service.ParseIDList(c.Query("attribute-values")); err != nil {
		return q, err
	}
	if q.BrandIDs, err = service.ParseIDList(c.Query("brand")); err != nil {
		return q, err
	}
	if q.PriceRange, err = service.ParsePriceRange(c.Query("price")); err != nil {
		return q, err
	}
	return q, nil
}
