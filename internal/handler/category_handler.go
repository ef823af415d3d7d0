package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_shop/internal/service"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

// CategoryHandler serves the public category tree.
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler constructs a CategoryHandler.
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// ListRoots handles GET /main-categories/
func (h *CategoryHandler) ListRoots(c *gin.Context) {
	page, limit := pageParams(c)
	categories, total, err := h.categoryService.ListRoots(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessWithPagination(c, 200, "Categories retrieved", categories, page, limit, total)
}

// GetCategory handles GET /categories/:id/
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	category, err := h.categoryService.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Category retrieved", category)
}
