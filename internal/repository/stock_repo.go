package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

const stockColumns = `id, product_inventory_id, units, units_sold, last_checked`

// StockRepository handles data access for stock counters.
type StockRepository struct {
	db *sqlx.DB
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(db *sqlx.DB) *StockRepository {
	return &StockRepository{db: db}
}

// GetByInventoryID returns the stock of an inventory row or sql.ErrNoRows.
func (r *StockRepository) GetByInventoryID(ctx context.Context, inventoryID int) (*models.Stock, error) {
	var s models.Stock
	q := `SELECT ` + stockColumns + ` FROM stocks WHERE product_inventory_id = $1`
	if err := r.db.GetContext(ctx, &s, q, inventoryID); err != nil {
		return nil, err
	}
	return &s, nil
}

// ForInventories returns the stock of each inventory row keyed by inventory id.
func (r *StockRepository) ForInventories(ctx context.Context, inventoryIDs []int) (map[int]models.Stock, error) {
	out := make(map[int]models.Stock, len(inventoryIDs))
	if len(inventoryIDs) == 0 {
		return out, nil
	}
	var stocks []models.Stock
	q := `SELECT ` + stockColumns + ` FROM stocks WHERE product_inventory_id = ANY($1)`
	if err := r.db.SelectContext(ctx, &stocks, q, idArray(inventoryIDs)); err != nil {
		return nil, err
	}
	for _, s := range stocks {
		out[s.ProductInventoryID] = s
	}
	return out, nil
}

// SellUnits moves quantity units from units to units_sold in a single
// conditional update, so concurrent sales cannot oversell. It returns
// sql.ErrNoRows for an unknown stock and utils.ErrInsufficientStock, leaving
// the counters untouched, when fewer units are on hand.
func (r *StockRepository) SellUnits(ctx context.Context, stockID, quantity int) (*models.Stock, error) {
	q := `
        UPDATE stocks
        SET units = units - $2, units_sold = units_sold + $2, last_checked = NOW()
        WHERE id = $1 AND units >= $2
        RETURNING ` + stockColumns

	var s models.Stock
	err := r.db.GetContext(ctx, &s, q, stockID, quantity)
	if err == nil {
		return &s, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var units int
	if err := r.db.GetContext(ctx, &units, `SELECT units FROM stocks WHERE id = $1`, stockID); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %d in stock, tried to sell %d", utils.ErrInsufficientStock, units, quantity)
}
