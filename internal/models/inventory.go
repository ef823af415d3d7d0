package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductInventory is a sellable variant of a product.
type ProductInventory struct {
	ID        int             `db:"id" json:"id"`
	ProductID int             `db:"product_id" json:"productId"`
	Code      string          `db:"code" json:"code"`
	Price     decimal.Decimal `db:"price" json:"price"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time       `db:"updated_at" json:"updatedAt"`
}

// Stock tracks units on hand for one inventory row.
type Stock struct {
	ID                 int        `db:"id" json:"id"`
	ProductInventoryID int        `db:"product_inventory_id" json:"productInventoryId"`
	Units              int        `db:"units" json:"units"`
	UnitsSold          int        `db:"units_sold" json:"unitsSold"`
	LastChecked        *time.Time `db:"last_checked" json:"lastChecked"`
}

// ProductImage references an uploaded object. URL is resolved from Image by
// the storage backend and is not persisted.
type ProductImage struct {
	ID                 int       `db:"id" json:"id"`
	ProductInventoryID int       `db:"product_inventory_id" json:"productInventoryId"`
	Image              string    `db:"image" json:"image"`
	AltText            string    `db:"alt_text" json:"altText"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `db:"updated_at" json:"updatedAt"`
	URL                string    `db:"-" json:"url"`
}

// InventoryDetail bundles an inventory row with everything shown alongside it.
type InventoryDetail struct {
	Inventory       ProductInventory
	AttributeValues []ProductAttributeValue
	Images          []ProductImage
	Stock           *Stock
}
