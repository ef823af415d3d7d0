package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_shop/internal/database"
	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

const orderColumns = `id, customer_id, customer_first_name, customer_last_name, customer_email,
        customer_address, customer_country, customer_city, customer_zip_code, status, created_at`

// OrderRepository handles data access for orders.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order and its items in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *models.Order, inventoryIDs []int) error {
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const insertOrder = `
            INSERT INTO orders (customer_id, customer_first_name, customer_last_name, customer_email,
                customer_address, customer_country, customer_city, customer_zip_code, status)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
            RETURNING id, created_at`
		if err := tx.QueryRowxContext(ctx, insertOrder,
			o.CustomerID, o.CustomerFirstName, o.CustomerLastName, o.CustomerEmail,
			o.CustomerAddress, o.CustomerCountry, o.CustomerCity, o.CustomerZipCode, o.Status,
		).Scan(&o.ID, &o.CreatedAt); err != nil {
			return err
		}

		const insertItems = `
            INSERT INTO order_items (order_id, product_inventory_id)
            SELECT $1, i FROM unnest($2::bigint[]) AS i
            ON CONFLICT DO NOTHING`
		_, err := tx.ExecContext(ctx, insertItems, o.ID, idArray(uniqueIDs(inventoryIDs)))
		return err
	})
	if database.IsForeignKeyViolation(err) {
		return utils.ErrUnknownInventory
	}
	return err
}

// ListByCustomer returns one page of the customer's orders, newest first.
func (r *OrderRepository) ListByCustomer(ctx context.Context, customerID, limit, offset int) ([]models.Order, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(1) FROM orders WHERE customer_id = $1`, customerID); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + orderColumns + ` FROM orders
        WHERE customer_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2 OFFSET $3`
	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, q, customerID, limit, offset); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// GetForCustomer returns the order only when it belongs to customerID,
// otherwise sql.ErrNoRows.
func (r *OrderRepository) GetForCustomer(ctx context.Context, customerID, id int) (*models.Order, error) {
	var o models.Order
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND customer_id = $2`
	if err := r.db.GetContext(ctx, &o, q, id, customerID); err != nil {
		return nil, err
	}
	return &o, nil
}

// InventoryIDsFor returns the inventory ids referenced by each order.
func (r *OrderRepository) InventoryIDsFor(ctx context.Context, orderIDs []int) (map[int][]int, error) {
	out := make(map[int][]int, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	type row struct {
		OrderID     int `db:"order_id"`
		InventoryID int `db:"product_inventory_id"`
	}
	const q = `
        SELECT order_id, product_inventory_id FROM order_items
        WHERE order_id = ANY($1)
        ORDER BY order_id, product_inventory_id`
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, q, idArray(orderIDs)); err != nil {
		return nil, err
	}
	for _, rw := range rows {
		out[rw.OrderID] = append(out[rw.OrderID], rw.InventoryID)
	}
	return out, nil
}
