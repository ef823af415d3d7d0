package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_shop/internal/database"
	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

const categoryColumns = `c.id, c.name, c.slug, c.is_active, c.parent_id, c.level`

// CategoryRepository handles data access for the category tree.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListRoots returns parentless categories ordered by name, plus their total count.
func (r *CategoryRepository) ListRoots(ctx context.Context, limit, offset int) ([]models.Category, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM categories WHERE parent_id IS NULL`); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + categoryColumns + ` FROM categories c
        WHERE c.parent_id IS NULL
        ORDER BY c.name
        LIMIT $1 OFFSET $2`
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, q, limit, offset); err != nil {
		return nil, 0, err
	}
	return categories, total, nil
}

// GetByID returns a single category or sql.ErrNoRows.
func (r *CategoryRepository) GetByID(ctx context.Context, id int) (*models.Category, error) {
	q := `SELECT ` + categoryColumns + ` FROM categories c WHERE c.id = $1`
	var c models.Category
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListChildren returns the direct children of every given parent, ordered by
// parent then name.
func (r *CategoryRepository) ListChildren(ctx context.Context, parentIDs []int) ([]models.Category, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	q := `SELECT ` + categoryColumns + ` FROM categories c
        WHERE c.parent_id = ANY($1)
        ORDER BY c.parent_id, c.name`
	var children []models.Category
	if err := r.db.SelectContext(ctx, &children, q, idArray(parentIDs)); err != nil {
		return nil, err
	}
	return children, nil
}

// Lineage returns the category and all of its ancestors, root first.
// The result is empty when the id does not exist.
func (r *CategoryRepository) Lineage(ctx context.Context, id int) ([]models.Category, error) {
	const q = `
        WITH RECURSIVE lineage AS (
            SELECT id, name, slug, is_active, parent_id, level FROM categories WHERE id = $1
            UNION ALL
            SELECT c.id, c.name, c.slug, c.is_active, c.parent_id, c.level
            FROM categories c
            JOIN lineage l ON c.id = l.parent_id
        )
        SELECT id, name, slug, is_active, parent_id, level FROM lineage ORDER BY level`
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, q, id); err != nil {
		return nil, err
	}
	return categories, nil
}

// ForProducts returns the stored categories of each product, shallow first.
func (r *CategoryRepository) ForProducts(ctx context.Context, productIDs []int) (map[int][]models.Category, error) {
	out := make(map[int][]models.Category, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	type row struct {
		ProductID int `db:"product_id"`
		models.Category
	}
	q := `SELECT pc.product_id, ` + categoryColumns + `
        FROM product_categories pc
        JOIN categories c ON c.id = pc.category_id
        WHERE pc.product_id = ANY($1)
        ORDER BY pc.product_id, c.level, c.name`
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, q, idArray(productIDs)); err != nil {
		return nil, err
	}
	for _, rw := range rows {
		out[rw.ProductID] = append(out[rw.ProductID], rw.Category)
	}
	return out, nil
}

// Create inserts a category. Level is derived from the parent inside the
// statement. Duplicate names or slugs surface as utils.ErrDuplicateName.
func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	const q = `
        INSERT INTO categories (name, slug, is_active, parent_id, level)
        VALUES ($1, $2, $3, $4, COALESCE((SELECT level + 1 FROM categories WHERE id = $4), 0))
        RETURNING id, level`
	err := r.db.QueryRowxContext(ctx, q, c.Name, c.Slug, c.IsActive, c.ParentID).Scan(&c.ID, &c.Level)
	if database.IsUniqueViolation(err, "") {
		return utils.ErrDuplicateName
	}
	if database.IsForeignKeyViolation(err) {
		return utils.ErrUnknownCategory
	}
	return err
}

// Delete removes a category that has neither children nor products.
func (r *CategoryRepository) Delete(ctx context.Context, id int) error {
	const inUseQ = `
        SELECT EXISTS (SELECT 1 FROM categories WHERE parent_id = $1)
            OR EXISTS (SELECT 1 FROM product_categories WHERE category_id = $1)`
	var inUse bool
	if err := r.db.GetContext(ctx, &inUse, inUseQ, id); err != nil {
		return err
	}
	if inUse {
		return utils.ErrCategoryInUse
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if database.IsForeignKeyViolation(err) {
		return utils.ErrCategoryInUse
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Exists reports whether every id refers to a category.
func (r *CategoryRepository) Exists(ctx context.Context, ids []int) (bool, error) {
	ids = uniqueIDs(ids)
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(1) FROM categories WHERE id = ANY($1)`, idArray(ids))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}
	return n == len(ids), nil
}
