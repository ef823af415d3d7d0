package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_shop/internal/service"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

// AdminCatalogHandler handles staff-only catalog maintenance.
type AdminCatalogHandler struct {
	categoryService  *service.CategoryService
	adminService     *service.CatalogAdminService
	inventoryService *service.InventoryService
	indexService     *service.SearchIndexService
}

// NewAdminCatalogHandler constructs an AdminCatalogHandler. indexService may
// be nil when search is not configured.
func NewAdminCatalogHandler(
	categoryService *service.CategoryService,
	adminService *service.CatalogAdminService,
	inventoryService *service.InventoryService,
	indexService *service.SearchIndexService,
) *AdminCatalogHandler {
	return &AdminCatalogHandler{
		categoryService:  categoryService,
		adminService:     adminService,
		inventoryService: inventoryService,
		indexService:     indexService,
	}
}

// CreateCategory handles POST /admin/categories
func (h *AdminCatalogHandler) CreateCategory(c *gin.Context) {
	var req service.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	category, err := h.categoryService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 201, "Category created", category)
}

// DeleteCategory handles DELETE /admin/categories/:id
func (h *AdminCatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.categoryService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Category deleted", nil)
}

// CreateBrand handles POST /admin/brands
func (h *AdminCatalogHandler) CreateBrand(c *gin.Context) {
	var req service.CreateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	brand, err := h.adminService.CreateBrand(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 201, "Brand created", brand)
}

// DeleteBrand handles DELETE /admin/brands/:id
func (h *AdminCatalogHandler) DeleteBrand(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.adminService.DeleteBrand(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Brand deleted", nil)
}

// CreateAttribute handles POST /admin/attributes
func (h *AdminCatalogHandler) CreateAttribute(c *gin.Context) {
	var req service.CreateAttributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	attr, err := h.adminService.CreateAttribute(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 201, "Attribute created", attr)
}

// CreateAttributeValue handles POST /admin/attributes/:id/values
func (h *AdminCatalogHandler) CreateAttributeValue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CreateAttributeValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	value, err := h.adminService.CreateAttributeValue(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 201, "Attribute value created", value)
}

// CreateProduct handles POST /admin/products
func (h *AdminCatalogHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	product, categoryIDs, err := h.adminService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 201, "Product created", gin.H{
		"product":    product,
		"categories": categoryIDs,
	})
}

// CreateInventory handles POST /admin/products/:id/inventories
func (h *AdminCatalogHandler) CreateInventory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CreateInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	inv, stock, err := h.inventoryService.CreateInventory(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 201, "Inventory created", gin.H{
		"inventory": gin.H{
			"id":        inv.ID,
			"productId": inv.ProductID,
			"code":      inv.Code,
			"price":     inv.Price.StringFixed(2),
			"createdAt": inv.CreatedAt,
		},
		"stock": stock,
	})
}

// InStock handles GET /admin/inventories/:id/in-stock
func (h *AdminCatalogHandler) InStock(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	inStock, err := h.inventoryService.InStock(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Stock checked", gin.H{"inventoryId": id, "inStock": inStock})
}

// SellUnits handles POST /admin/stocks/:id/sell
func (h *AdminCatalogHandler) SellUnits(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.SellUnitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	stock, err := h.inventoryService.SellUnits(c.Request.Context(), id, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Units sold", stock)
}

// UploadImage handles POST /admin/inventories/:id/images (multipart "image", "altText")
func (h *AdminCatalogHandler) UploadImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	header, err := c.FormFile("image")
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "image file is required")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		utils.Error(c, 400, "INVALID_REQUEST", "file must be an image")
		return
	}
	file, err := header.Open()
	if err != nil {
		utils.Error(c, 400, "INVALID_REQUEST", "unable to read image file")
		return
	}
	defer file.Close()

	img, err := h.inventoryService.UploadImage(c.Request.Context(), id, header.Filename, contentType, file, c.PostForm("altText"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 201, "Image uploaded", img)
}

// Reindex handles POST /admin/search/reindex
func (h *AdminCatalogHandler) Reindex(c *gin.Context) {
	if h.indexService == nil {
		respondError(c, utils.ErrSearchUnavailable)
		return
	}
	n, err := h.indexService.Reindex(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Search index rebuilt", gin.H{"documents": n})
}
