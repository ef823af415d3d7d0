package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_shop/internal/database"
	"github.com/GTDGit/gtd_shop/internal/models"
)

const inventoryColumns = `id, product_id, code, price, created_at, updated_at`

// InventoryRepository handles data access for inventory rows and their images.
type InventoryRepository struct {
	db *sqlx.DB
}

// NewInventoryRepository creates a new InventoryRepository.
func NewInventoryRepository(db *sqlx.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// Create inserts the inventory row, its attribute links and its stock record
// in one transaction. A code collision is returned as the raw unique violation
// so the caller can regenerate the code.
func (r *InventoryRepository) Create(ctx context.Context, inv *models.ProductInventory, attributeValueIDs []int, units int) (*models.Stock, error) {
	stock := &models.Stock{Units: units}
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insertInventory = `
            INSERT INTO product_inventories (product_id, code, price)
            VALUES ($1, $2, $3)
            RETURNING id, created_at, updated_at`
		if err := tx.QueryRowxContext(ctx, insertInventory, inv.ProductID, inv.Code, inv.Price).
			Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return err
		}

		if len(attributeValueIDs) > 0 {
			const insertValues = `
                INSERT INTO inventory_attribute_values (product_inventory_id, attribute_value_id)
                SELECT $1, v FROM unnest($2::bigint[]) AS v
                ON CONFLICT DO NOTHING`
			if _, err := tx.ExecContext(ctx, insertValues, inv.ID, idArray(attributeValueIDs)); err != nil {
				return err
			}
		}

		const insertStock = `
            INSERT INTO stocks (product_inventory_id, units)
            VALUES ($1, $2)
            RETURNING id, product_inventory_id, units_sold`
		return tx.QueryRowxContext(ctx, insertStock, inv.ID, units).
			Scan(&stock.ID, &stock.ProductInventoryID, &stock.UnitsSold)
	})
	if err != nil {
		return nil, err
	}
	return stock, nil
}

// GetByIDs returns the inventory rows matching ids ordered by id.
func (r *InventoryRepository) GetByIDs(ctx context.Context, ids []int) ([]models.ProductInventory, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.ProductInventory
	q := `SELECT ` + inventoryColumns + ` FROM product_inventories WHERE id = ANY($1) ORDER BY id`
	if err := r.db.SelectContext(ctx, &rows, q, idArray(ids)); err != nil {
		return nil, err
	}
	return rows, nil
}

// ForProducts returns the inventory rows of the given products ordered by
// product then id, so the first row of a product is its oldest.
func (r *InventoryRepository) ForProducts(ctx context.Context, productIDs []int) ([]models.ProductInventory, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	var rows []models.ProductInventory
	q := `SELECT ` + inventoryColumns + ` FROM product_inventories WHERE product_id = ANY($1) ORDER BY product_id, id`
	if err := r.db.SelectContext(ctx, &rows, q, idArray(productIDs)); err != nil {
		return nil, err
	}
	return rows, nil
}

// ImagesFor returns the images of each inventory row ordered by id.
func (r *InventoryRepository) ImagesFor(ctx context.Context, inventoryIDs []int) (map[int][]models.ProductImage, error) {
	out := make(map[int][]models.ProductImage, len(inventoryIDs))
	if len(inventoryIDs) == 0 {
		return out, nil
	}
	const q = `
        SELECT id, product_inventory_id, image, alt_text, created_at, updated_at
        FROM product_images
        WHERE product_inventory_id = ANY($1)
        ORDER BY product_inventory_id, id`
	var images []models.ProductImage
	if err := r.db.SelectContext(ctx, &images, q, idArray(inventoryIDs)); err != nil {
		return nil, err
	}
	for _, img := range images {
		out[img.ProductInventoryID] = append(out[img.ProductInventoryID], img)
	}
	return out, nil
}

// CreateImage records an uploaded image for an inventory row.
func (r *InventoryRepository) CreateImage(ctx context.Context, img *models.ProductImage) error {
	const q = `
        INSERT INTO product_images (product_inventory_id, image, alt_text)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRowxContext(ctx, q, img.ProductInventoryID, img.Image, img.AltText).
		Scan(&img.ID, &img.CreatedAt, &img.UpdatedAt)
}
