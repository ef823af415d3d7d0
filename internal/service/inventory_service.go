package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_shop/internal/database"
	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

const (
	inventoryCodeConstraint = "product_inventories_code_key"
	inventoryCodeAttempts   = 3
)

var maxPrice = decimal.RequireFromString("9999.99")

// InventoryService manages inventory rows, stock and images.
type InventoryService struct {
	products    ProductRepository
	inventories InventoryRepository
	stocks      StockRepository
	attributes  AttributeRepository
	images      ImageStorage
	now         func() time.Time
}

// NewInventoryService constructs an InventoryService.
func NewInventoryService(
	products ProductRepository,
	inventories InventoryRepository,
	stocks StockRepository,
	attributes AttributeRepository,
	images ImageStorage,
) *InventoryService {
	return &InventoryService{
		products:    products,
		inventories: inventories,
		stocks:      stocks,
		attributes:  attributes,
		images:      images,
		now:         time.Now,
	}
}

// CreateInventoryRequest is the payload for a new inventory row.
type CreateInventoryRequest struct {
	Price             string `json:"price" binding:"required"`
	AttributeValueIDs []int  `json:"attributeValueIds"`
	Units             int    `json:"units" binding:"min=0"`
}

// SellUnitsRequest is the payload for selling stock.
type SellUnitsRequest struct {
	Quantity int `json:"quantity"`
}

// ParsePrice validates a price: 0.00 to 9999.99 with at most two decimals.
func ParsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, utils.ErrInvalidPrice
	}
	if price.IsNegative() || price.GreaterThan(maxPrice) || !price.Equal(price.Round(2)) {
		return decimal.Zero, utils.ErrInvalidPrice
	}
	return price, nil
}

// CreateInventory adds a sellable variant with a fresh unique code and its
// stock record.
func (s *InventoryService) CreateInventory(ctx context.Context, productID int, req CreateInventoryRequest) (*models.ProductInventory, *models.Stock, error) {
	price, err := ParsePrice(req.Price)
	if err != nil {
		return nil, nil, err
	}
	if req.Units < 0 {
		return nil, nil, utils.NewValidationError("units cannot be negative")
	}

	product, err := s.products.GetByID(ctx, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, utils.ErrProductNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("get product %d: %w", productID, err)
	}

	valueIDs := uniqueInts(req.AttributeValueIDs)
	if len(valueIDs) > 0 {
		values, err := s.attributes.ValuesByIDs(ctx, valueIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("load attribute values: %w", err)
		}
		if len(values) != len(valueIDs) {
			return nil, nil, utils.ErrUnknownAttributeValue
		}
	}

	for attempt := 1; ; attempt++ {
		code, err := utils.GenerateInventoryCode(product.Name, product.BrandName, s.now())
		if err != nil {
			return nil, nil, err
		}

		inv := &models.ProductInventory{ProductID: product.ID, Code: code, Price: price}
		stock, err := s.inventories.Create(ctx, inv, valueIDs, req.Units)
		if err == nil {
			log.Info().
				Int("inventory_id", inv.ID).
				Int("product_id", product.ID).
				Str("code", inv.Code).
				Msg("Inventory created")
			return inv, stock, nil
		}
		if !database.IsUniqueViolation(err, inventoryCodeConstraint) || attempt >= inventoryCodeAttempts {
			return nil, nil, fmt.Errorf("create inventory: %w", err)
		}
		log.Warn().Str("code", code).Int("attempt", attempt).Msg("Inventory code collision, regenerating")
	}
}

// SellUnits moves quantity units of a stock to sold.
func (s *InventoryService) SellUnits(ctx context.Context, stockID, quantity int) (*models.Stock, error) {
	if quantity <= 0 {
		return nil, utils.ErrInvalidQuantity
	}

	stock, err := s.stocks.SellUnits(ctx, stockID, quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrStockNotFound
	}
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("stock_id", stockID).
		Int("quantity", quantity).
		Int("units_left", stock.Units).
		Msg("Stock units sold")
	return stock, nil
}

// InStock reports whether the inventory row has units on hand.
func (s *InventoryService) InStock(ctx context.Context, inventoryID int) (bool, error) {
	if err := s.requireInventory(ctx, inventoryID); err != nil {
		return false, err
	}

	stock, err := s.stocks.GetByInventoryID(ctx, inventoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get stock: %w", err)
	}
	return stock.Units > 0, nil
}

// UploadImage stores an image file and attaches it to the inventory row.
func (s *InventoryService) UploadImage(ctx context.Context, inventoryID int, filename, contentType string, body io.Reader, altText string) (*models.ProductImage, error) {
	if err := s.requireInventory(ctx, inventoryID); err != nil {
		return nil, err
	}

	key, err := s.images.Upload(ctx, filename, contentType, body)
	if err != nil {
		log.Error().Err(err).Int("inventory_id", inventoryID).Msg("Image upload failed")
		return nil, fmt.Errorf("%w: %w", utils.ErrStorageUnavailable, err)
	}

	img := &models.ProductImage{ProductInventoryID: inventoryID, Image: key, AltText: altText}
	if err := s.inventories.CreateImage(ctx, img); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}
	img.URL = s.images.URL(key)
	return img, nil
}

func (s *InventoryService) requireInventory(ctx context.Context, inventoryID int) error {
	rows, err := s.inventories.GetByIDs(ctx, []int{inventoryID})
	if err != nil {
		return fmt.Errorf("get inventory %d: %w", inventoryID, err)
	}
	if len(rows) == 0 {
		return utils.ErrInventoryNotFound
	}
	return nil
}
