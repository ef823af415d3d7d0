package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_shop/internal/search"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

// SearchIndexService rebuilds the product search index from the database.
type SearchIndexService struct {
	products    ProductRepository
	categories  CategoryRepository
	inventories InventoryRepository
	attributes  AttributeRepository
	indexer     ProductIndexer
}

// NewSearchIndexService constructs a SearchIndexService.
func NewSearchIndexService(
	products ProductRepository,
	categories CategoryRepository,
	inventories InventoryRepository,
	attributes AttributeRepository,
	indexer ProductIndexer,
) *SearchIndexService {
	return &SearchIndexService{
		products:    products,
		categories:  categories,
		inventories: inventories,
		attributes:  attributes,
		indexer:     indexer,
	}
}

// Reindex writes a document for every product and returns how many were sent.
func (s *SearchIndexService) Reindex(ctx context.Context) (int, error) {
	docs, err := s.Documents(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.indexer.EnsureIndex(ctx); err != nil {
		return 0, fmt.Errorf("%w: %w", utils.ErrSearchUnavailable, err)
	}
	if err := s.indexer.Index(ctx, docs); err != nil {
		return 0, fmt.Errorf("%w: %w", utils.ErrSearchUnavailable, err)
	}
	log.Info().Int("documents", len(docs)).Msg("Search index rebuilt")
	return len(docs), nil
}

// Documents builds the search projection of every product.
func (s *SearchIndexService) Documents(ctx context.Context) ([]search.ProductDocument, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		return []search.ProductDocument{}, nil
	}

	productIDs := make([]int, 0, len(products))
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
	}

	categories, err := s.categories.ForProducts(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	inventories, err := s.inventories.ForProducts(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load inventories: %w", err)
	}

	inventoryIDs := make([]int, 0, len(inventories))
	byProduct := make(map[int][]int)
	for _, inv := range inventories {
		inventoryIDs = append(inventoryIDs, inv.ID)
		byProduct[inv.ProductID] = append(byProduct[inv.ProductID], inv.ID)
	}
	values, err := s.attributes.ValuesForInventories(ctx, inventoryIDs)
	if err != nil {
		return nil, fmt.Errorf("load attribute values: %w", err)
	}

	docs := make([]search.ProductDocument, 0, len(products))
	for _, p := range products {
		var categoryNames []string
		for _, c := range categories[p.ID] {
			categoryNames = append(categoryNames, c.Name)
		}

		seen := make(map[int]struct{})
		var attributeValues []string
		for _, invID := range byProduct[p.ID] {
			for _, v := range values[invID] {
				if _, ok := seen[v.ID]; ok {
					continue
				}
				seen[v.ID] = struct{}{}
				attributeValues = append(attributeValues, v.Value)
			}
		}

		docs = append(docs, search.ProductDocument{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Categories:  strings.Join(categoryNames, " "),
			Brand:       p.BrandName,
			Attributes:  strings.Join(attributeValues, " "),
		})
	}
	return docs, nil
}
