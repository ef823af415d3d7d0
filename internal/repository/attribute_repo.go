package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_shop/internal/database"
	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

const attributeValueSelect = `
        SELECT v.id, v.product_attribute_id, v.value,
               a.name AS attribute_name, a.description AS attribute_description
        FROM product_attribute_values v
        JOIN product_attributes a ON a.id = v.product_attribute_id`

// AttributeRepository handles data access for attributes and their values.
type AttributeRepository struct {
	db *sqlx.DB
}

// NewAttributeRepository creates a new AttributeRepository.
func NewAttributeRepository(db *sqlx.DB) *AttributeRepository {
	return &AttributeRepository{db: db}
}

// GetAttribute returns a single attribute or sql.ErrNoRows.
func (r *AttributeRepository) GetAttribute(ctx context.Context, id int) (*models.ProductAttribute, error) {
	var a models.ProductAttribute
	const q = `SELECT id, name, description FROM product_attributes WHERE id = $1`
	if err := r.db.GetContext(ctx, &a, q, id); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAttribute inserts an attribute; a taken name returns utils.ErrDuplicateName.
func (r *AttributeRepository) CreateAttribute(ctx context.Context, a *models.ProductAttribute) error {
	const q = `INSERT INTO product_attributes (name, description) VALUES ($1, $2) RETURNING id`
	err := r.db.QueryRowxContext(ctx, q, a.Name, a.Description).Scan(&a.ID)
	if database.IsUniqueViolation(err, "") {
		return utils.ErrDuplicateName
	}
	return err
}

// CreateValue inserts a value for an existing attribute.
func (r *AttributeRepository) CreateValue(ctx context.Context, v *models.ProductAttributeValue) error {
	const q = `INSERT INTO product_attribute_values (product_attribute_id, value) VALUES ($1, $2) RETURNING id`
	err := r.db.QueryRowxContext(ctx, q, v.ProductAttributeID, v.Value).Scan(&v.ID)
	if database.IsForeignKeyViolation(err) {
		return utils.ErrAttributeNotFound
	}
	return err
}

// ListValues returns every attribute value with its attribute.
func (r *AttributeRepository) ListValues(ctx context.Context) ([]models.ProductAttributeValue, error) {
	var values []models.ProductAttributeValue
	if err := r.db.SelectContext(ctx, &values, attributeValueSelect+` ORDER BY v.id`); err != nil {
		return nil, err
	}
	return values, nil
}

// ValuesByIDs returns the values matching ids; missing ids are skipped.
func (r *AttributeRepository) ValuesByIDs(ctx context.Context, ids []int) ([]models.ProductAttributeValue, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var values []models.ProductAttributeValue
	q := attributeValueSelect + ` WHERE v.id = ANY($1) ORDER BY v.id`
	if err := r.db.SelectContext(ctx, &values, q, idArray(ids)); err != nil {
		return nil, err
	}
	return values, nil
}

// ValuesForInventories returns the attribute values attached to each inventory row.
func (r *AttributeRepository) ValuesForInventories(ctx context.Context, inventoryIDs []int) (map[int][]models.ProductAttributeValue, error) {
	out := make(map[int][]models.ProductAttributeValue, len(inventoryIDs))
	if len(inventoryIDs) == 0 {
		return out, nil
	}

	type row struct {
		InventoryID int `db:"product_inventory_id"`
		models.ProductAttributeValue
	}
	const q = `
        SELECT iav.product_inventory_id, v.id, v.product_attribute_id, v.value,
               a.name AS attribute_name, a.description AS attribute_description
        FROM inventory_attribute_values iav
        JOIN product_attribute_values v ON v.id = iav.attribute_value_id
        JOIN product_attributes a ON a.id = v.product_attribute_id
        WHERE iav.product_inventory_id = ANY($1)
        ORDER BY iav.product_inventory_id, v.id`
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, q, idArray(inventoryIDs)); err != nil {
		return nil, err
	}
	for _, rw := range rows {
		out[rw.InventoryID] = append(out[rw.InventoryID], rw.ProductAttributeValue)
	}
	return out, nil
}
