package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_shop/internal/dto"
	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

// CategoryService serves the category tree.
type CategoryService struct {
	categories CategoryRepository
}

// NewCategoryService constructs a CategoryService.
func NewCategoryService(categories CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// CreateCategoryRequest is the admin payload for a new category.
type CreateCategoryRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Slug     string `json:"slug" binding:"max=150"`
	ParentID *int   `json:"parentId"`
	IsActive *bool  `json:"isActive"`
}

// ListRoots returns one page of parentless categories with their children.
func (s *CategoryService) ListRoots(ctx context.Context, page, limit int) ([]dto.Category, int, error) {
	page, limit = NormalizePage(page, limit)
	roots, total, err := s.categories.ListRoots(ctx, limit, offset(page, limit))
	if err != nil {
		return nil, 0, fmt.Errorf("list root categories: %w", err)
	}

	trees, err := s.withChildren(ctx, roots)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.Category, 0, len(trees))
	for _, t := range trees {
		out = append(out, dto.NewCategory(t))
	}
	return out, total, nil
}

// GetCategory returns a category with its direct children; every child lists
// the ids of its own children.
func (s *CategoryService) GetCategory(ctx context.Context, id int) (*dto.Category, error) {
	c, err := s.categories.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}

	trees, err := s.withChildren(ctx, []models.Category{*c})
	if err != nil {
		return nil, err
	}
	out := dto.NewCategory(trees[0])
	return &out, nil
}

// CreateCategory adds a category under an existing parent, or as a root.
func (s *CategoryService) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, utils.NewValidationError("name is required")
	}

	if req.ParentID != nil {
		if _, err := s.categories.GetByID(ctx, *req.ParentID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, utils.ErrUnknownCategory
			}
			return nil, fmt.Errorf("get parent category: %w", err)
		}
	}

	c := &models.Category{
		Name:     name,
		Slug:     req.Slug,
		IsActive: true,
		ParentID: req.ParentID,
	}
	if c.Slug == "" {
		c.Slug = slug.Make(name)
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}

	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	log.Info().Int("category_id", c.ID).Str("name", c.Name).Int("level", c.Level).Msg("Category created")
	return c, nil
}

// DeleteCategory removes a category without children or products.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int) error {
	err := s.categories.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return utils.ErrCategoryNotFound
	}
	if err != nil {
		return err
	}
	log.Info().Int("category_id", id).Msg("Category deleted")
	return nil
}

// withChildren loads two levels below parents: the children themselves and
// the ids of the grandchildren.
func (s *CategoryService) withChildren(ctx context.Context, parents []models.Category) ([]models.CategoryWithChildren, error) {
	parentIDs := make([]int, 0, len(parents))
	for _, p := range parents {
		parentIDs = append(parentIDs, p.ID)
	}
	children, err := s.categories.ListChildren(ctx, parentIDs)
	if err != nil {
		return nil, fmt.Errorf("list child categories: %w", err)
	}

	childIDs := make([]int, 0, len(children))
	for _, c := range children {
		childIDs = append(childIDs, c.ID)
	}
	grandchildren, err := s.categories.ListChildren(ctx, childIDs)
	if err != nil {
		return nil, fmt.Errorf("list grandchild categories: %w", err)
	}

	grandchildIDs := make(map[int][]int)
	for _, g := range grandchildren {
		grandchildIDs[*g.ParentID] = append(grandchildIDs[*g.ParentID], g.ID)
	}
	childrenOf := make(map[int][]models.CategoryChild)
	for _, c := range children {
		childrenOf[*c.ParentID] = append(childrenOf[*c.ParentID], models.CategoryChild{
			Category: c,
			ChildIDs: grandchildIDs[c.ID],
		})
	}

	out := make([]models.CategoryWithChildren, 0, len(parents))
	for _, p := range parents {
		out = append(out, models.CategoryWithChildren{Category: p, Children: childrenOf[p.ID]})
	}
	return out, nil
}
