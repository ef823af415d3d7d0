package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

// CatalogAdminService handles staff writes to brands, attributes and products.
type CatalogAdminService struct {
	brands     BrandRepository
	attributes AttributeRepository
	products   ProductRepository
	categories CategoryRepository
}

// NewCatalogAdminService constructs a CatalogAdminService.
func NewCatalogAdminService(
	brands BrandRepository,
	attributes AttributeRepository,
	products ProductRepository,
	categories CategoryRepository,
) *CatalogAdminService {
	return &CatalogAdminService{
		brands:     brands,
		attributes: attributes,
		products:   products,
		categories: categories,
	}
}

// CreateBrandRequest is the payload for a new brand.
type CreateBrandRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

// CreateAttributeRequest is the payload for a new attribute.
type CreateAttributeRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description"`
}

// CreateAttributeValueRequest is the payload for a new attribute value.
type CreateAttributeValueRequest struct {
	Value string `json:"value" binding:"required,max=255"`
}

// CreateProductRequest is the payload for a new product. With
// WithAncestors set, every ancestor of the given categories is stored too.
type CreateProductRequest struct {
	Name          string `json:"name" binding:"required,max=200"`
	Slug          string `json:"slug" binding:"max=255"`
	Description   string `json:"description"`
	BrandID       int    `json:"brandId" binding:"required"`
	CategoryIDs   []int  `json:"categoryIds" binding:"required,min=1"`
	WithAncestors bool   `json:"withAncestors"`
	IsActive      *bool  `json:"isActive"`
}

// CreateBrand adds a brand with a unique name.
func (s *CatalogAdminService) CreateBrand(ctx context.Context, req CreateBrandRequest) (*models.Brand, error) {
	b := &models.Brand{Name: strings.TrimSpace(req.Name)}
	if b.Name == "" {
		return nil, utils.NewValidationError("name is required")
	}
	if err := s.brands.Create(ctx, b); err != nil {
		return nil, err
	}
	log.Info().Int("brand_id", b.ID).Str("name", b.Name).Msg("Brand created")
	return b, nil
}

// DeleteBrand removes a brand no product references.
func (s *CatalogAdminService) DeleteBrand(ctx context.Context, id int) error {
	err := s.brands.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return utils.ErrBrandNotFound
	}
	if err != nil {
		return err
	}
	log.Info().Int("brand_id", id).Msg("Brand deleted")
	return nil
}

// CreateAttribute adds an attribute with a unique name.
func (s *CatalogAdminService) CreateAttribute(ctx context.Context, req CreateAttributeRequest) (*models.ProductAttribute, error) {
	a := &models.ProductAttribute{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if a.Name == "" {
		return nil, utils.NewValidationError("name is required")
	}
	if err := s.attributes.CreateAttribute(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// CreateAttributeValue adds a value to an existing attribute.
func (s *CatalogAdminService) CreateAttributeValue(ctx context.Context, attributeID int, req CreateAttributeValueRequest) (*models.ProductAttributeValue, error) {
	attr, err := s.attributes.GetAttribute(ctx, attributeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrAttributeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get attribute %d: %w", attributeID, err)
	}

	v := &models.ProductAttributeValue{
		ProductAttributeID:   attr.ID,
		Value:                strings.TrimSpace(req.Value),
		AttributeName:        attr.Name,
		AttributeDescription: attr.Description,
	}
	if v.Value == "" {
		return nil, utils.NewValidationError("value is required")
	}
	if err := s.attributes.CreateValue(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// CreateProduct adds a product tied to a brand and one or more categories.
func (s *CatalogAdminService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, []int, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, nil, utils.NewValidationError("name is required")
	}
	if len(req.CategoryIDs) == 0 {
		return nil, nil, utils.NewValidationError("at least one category is required")
	}

	brand, err := s.brands.GetByID(ctx, req.BrandID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, utils.ErrUnknownBrand
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get brand %d: %w", req.BrandID, err)
	}

	ok, err := s.categories.Exists(ctx, req.CategoryIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("check categories: %w", err)
	}
	if !ok {
		return nil, nil, utils.ErrUnknownCategory
	}

	categoryIDs := uniqueInts(req.CategoryIDs)
	if req.WithAncestors {
		for _, id := range req.CategoryIDs {
			lineage, err := s.categories.Lineage(ctx, id)
			if err != nil {
				return nil, nil, fmt.Errorf("load category lineage %d: %w", id, err)
			}
			for _, c := range lineage {
				categoryIDs = append(categoryIDs, c.ID)
			}
		}
		categoryIDs = uniqueInts(categoryIDs)
	}

	p := &models.Product{
		Name:        name,
		Slug:        req.Slug,
		Description: req.Description,
		BrandID:     brand.ID,
		BrandName:   brand.Name,
		IsActive:    true,
	}
	if p.Slug == "" {
		p.Slug = slug.Make(name)
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.products.Create(ctx, p, categoryIDs); err != nil {
		return nil, nil, err
	}
	log.Info().Int("product_id", p.ID).Str("name", p.Name).Ints("categories", categoryIDs).Msg("Product created")
	return p, categoryIDs, nil
}

func uniqueInts(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
