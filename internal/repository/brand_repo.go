package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_shop/internal/database"
	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

// BrandRepository handles data access for brands.
type BrandRepository struct {
	db *sqlx.DB
}

// NewBrandRepository creates a new BrandRepository.
func NewBrandRepository(db *sqlx.DB) *BrandRepository {
	return &BrandRepository{db: db}
}

// GetByID returns a single brand or sql.ErrNoRows.
func (r *BrandRepository) GetByID(ctx context.Context, id int) (*models.Brand, error) {
	var b models.Brand
	if err := r.db.GetContext(ctx, &b, `SELECT id, name FROM brands WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserts a brand; a taken name returns utils.ErrDuplicateName.
func (r *BrandRepository) Create(ctx context.Context, b *models.Brand) error {
	err := r.db.QueryRowxContext(ctx, `INSERT INTO brands (name) VALUES ($1) RETURNING id`, b.Name).Scan(&b.ID)
	if database.IsUniqueViolation(err, "") {
		return utils.ErrDuplicateName
	}
	return err
}

// Delete removes a brand. Brands still referenced by products are protected
// by the foreign key and return utils.ErrBrandInUse.
func (r *BrandRepository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM brands WHERE id = $1`, id)
	if database.IsForeignKeyViolation(err) {
		return utils.ErrBrandInUse
	}
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
