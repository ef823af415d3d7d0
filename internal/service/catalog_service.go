package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_shop/internal/cache"
	"github.com/GTDGit/gtd_shop/internal/config"
	"github.com/GTDGit/gtd_shop/internal/dto"
	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

// ProductPage is one page of a product listing. It is what gets cached.
type ProductPage struct {
	Items []dto.ProductListItem `json:"items"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// CatalogService serves product listings, product details and attribute values.
type CatalogService struct {
	products   ProductRepository
	categories CategoryRepository
	attributes AttributeRepository
	loader     *inventoryLoader
	search     ProductSearcher
	cache      ResultCache

	productsTTL        time.Duration
	attributeValuesTTL time.Duration
}

// NewCatalogService constructs a CatalogService. resultCache may be nil to
// disable caching.
func NewCatalogService(
	products ProductRepository,
	categories CategoryRepository,
	inventories InventoryRepository,
	stocks StockRepository,
	attributes AttributeRepository,
	images ImageStorage,
	resultCache ResultCache,
	cacheCfg config.CacheConfig,
) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		attributes: attributes,
		loader: &inventoryLoader{
			inventories: inventories,
			stocks:      stocks,
			attributes:  attributes,
			images:      images,
		},
		cache:              resultCache,
		productsTTL:        cacheCfg.ProductsTTL,
		attributeValuesTTL: cacheCfg.AttributeValuesTTL,
	}
}

// SetSearcher enables free-text search. Without it search queries fail with
// utils.ErrSearchUnavailable.
func (s *CatalogService) SetSearcher(searcher ProductSearcher) {
	s.search = searcher
}

// ListProducts applies every given filter conjunctively and returns one page
// ordered by product id. Results are cached per identity and parameters.
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	page, limit := NormalizePage(q.Page, q.Limit)
	key := cache.Key("products", identityOrAnon(q.Identity), q.cacheParams(page, limit))

	var cached ProductPage
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	filter := models.ProductFilter{
		CategoryID:        q.CategoryID,
		AttributeValueIDs: q.AttributeValueIDs,
		BrandIDs:          q.BrandIDs,
		Limit:             limit,
		Offset:            offset(page, limit),
	}
	if q.PriceRange != nil {
		filter.PriceMin = &q.PriceRange.Min
		filter.PriceMax = &q.PriceRange.Max
	}

	result := &ProductPage{Items: []dto.ProductListItem{}, Page: page, Limit: limit}

	if q.Search != "" {
		ids, err := s.searchIDs(ctx, q.Search)
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			s.cacheSet(ctx, key, result, s.productsTTL)
			return result, nil
		}
		filter.ProductIDs = ids
	}

	products, total, err := s.products.Filter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("filter products: %w", err)
	}

	ids := make([]int, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	inventories, err := s.loader.load(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, p := range products {
		result.Items = append(result.Items, dto.NewProductListItem(p, inventories[p.ID]))
	}
	result.Total = total

	s.cacheSet(ctx, key, result, s.productsTTL)
	return result, nil
}

// GetProduct returns the full product view.
func (s *CatalogService) GetProduct(ctx context.Context, id int) (*dto.ProductDetail, error) {
	p, err := s.products.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}

	categories, err := s.categories.ForProducts(ctx, []int{id})
	if err != nil {
		return nil, fmt.Errorf("load product categories: %w", err)
	}
	inventories, err := s.loader.load(ctx, []int{id})
	if err != nil {
		return nil, err
	}

	detail := dto.NewProductDetail(*p, categories[id], inventories[id])
	return &detail, nil
}

// ListAttributeValues returns every attribute value with its attribute.
func (s *CatalogService) ListAttributeValues(ctx context.Context, identity string) ([]dto.AttributeValue, error) {
	key := cache.Key("attribute-values", identityOrAnon(identity), nil)

	var cached []dto.AttributeValue
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	values, err := s.attributes.ListValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attribute values: %w", err)
	}
	out := dto.NewAttributeValues(values)

	s.cacheSet(ctx, key, out, s.attributeValuesTTL)
	return out, nil
}

func (s *CatalogService) searchIDs(ctx context.Context, query string) ([]int, error) {
	if s.search == nil {
		log.Error().Str("query", query).Msg("Search requested but no search backend is configured")
		return nil, utils.ErrSearchUnavailable
	}
	ids, err := s.search.Search(ctx, query)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("Product search failed")
		return nil, fmt.Errorf("%w: %w", utils.ErrSearchUnavailable, err)
	}
	return ids, nil
}

// cacheGet reports a hit. Cache failures are logged and treated as misses.
func (s *CatalogService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Result cache read failed")
		return false
	}
	return hit
}

func (s *CatalogService) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cache == nil || ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, value, ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Result cache write failed")
	}
}
