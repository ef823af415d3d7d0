package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_shop/internal/database"
	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

const productSelect = `
        SELECT p.id, p.name, p.slug, p.description, p.brand_id, b.name AS brand_name,
               p.is_active, p.created_at, p.updated_at
        FROM products p
        JOIN brands b ON b.id = p.brand_id`

// ProductRepository handles data access for products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Filter returns one page of products matching f ordered by id, and the total
// number of matches.
func (r *ProductRepository) Filter(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}

	baseWhere := `WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if f.CategoryID != nil {
		baseWhere += fmt.Sprintf(` AND EXISTS (
            SELECT 1 FROM product_categories pc
            WHERE pc.product_id = p.id AND pc.category_id = $%d)`, argIdx)
		args = append(args, *f.CategoryID)
		argIdx++
	}
	if len(f.AttributeValueIDs) > 0 {
		baseWhere += fmt.Sprintf(` AND EXISTS (
            SELECT 1 FROM product_inventories pi
            JOIN inventory_attribute_values iav ON iav.product_inventory_id = pi.id
            WHERE pi.product_id = p.id AND iav.attribute_value_id = ANY($%d))`, argIdx)
		args = append(args, idArray(f.AttributeValueIDs))
		argIdx++
	}
	if len(f.BrandIDs) > 0 {
		baseWhere += fmt.Sprintf(" AND p.brand_id = ANY($%d)", argIdx)
		args = append(args, idArray(f.BrandIDs))
		argIdx++
	}
	if f.PriceMin != nil && f.PriceMax != nil {
		baseWhere += fmt.Sprintf(` AND EXISTS (
            SELECT 1 FROM product_inventories pi
            WHERE pi.product_id = p.id AND pi.price BETWEEN $%d AND $%d)`, argIdx, argIdx+1)
		args = append(args, *f.PriceMin, *f.PriceMax)
		argIdx += 2
	}
	if f.ProductIDs != nil {
		baseWhere += fmt.Sprintf(" AND p.id = ANY($%d)", argIdx)
		args = append(args, idArray(f.ProductIDs))
		argIdx++
	}

	countQuery := `SELECT COUNT(1) FROM products p ` + baseWhere
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	listQuery := productSelect + ` ` + baseWhere +
		fmt.Sprintf(` ORDER BY p.id LIMIT $%d OFFSET $%d`, argIdx, argIdx+1)
	args = append(args, f.Limit, f.Offset)

	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, listQuery, args...); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetByID returns a single product or sql.ErrNoRows.
func (r *ProductRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	var p models.Product
	if err := r.db.GetContext(ctx, &p, productSelect+` WHERE p.id = $1`, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByIDs returns the products matching ids ordered by id.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, productSelect+` WHERE p.id = ANY($1) ORDER BY p.id`, idArray(ids)); err != nil {
		return nil, err
	}
	return products, nil
}

// ListAll returns every product ordered by id. Used by the search indexer.
func (r *ProductRepository) ListAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, productSelect+` ORDER BY p.id`); err != nil {
		return nil, err
	}
	return products, nil
}

// Create inserts the product and its category links in one transaction.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product, categoryIDs []int) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insertProduct = `
            INSERT INTO products (name, slug, description, brand_id, is_active)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING id, created_at, updated_at`
		if err := tx.QueryRowxContext(ctx, insertProduct,
			p.Name, p.Slug, p.Description, p.BrandID, p.IsActive,
		).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return err
		}

		const insertCategories = `
            INSERT INTO product_categories (product_id, category_id)
            SELECT $1, c FROM unnest($2::bigint[]) AS c
            ON CONFLICT DO NOTHING`
		_, err := tx.ExecContext(ctx, insertCategories, p.ID, idArray(uniqueIDs(categoryIDs)))
		return err
	})
	switch {
	case database.IsUniqueViolation(err, ""):
		return utils.ErrDuplicateName
	case database.IsForeignKeyViolation(err):
		return utils.ErrUnknownCategory
	}
	return err
}
