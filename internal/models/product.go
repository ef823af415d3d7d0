package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Brand is the manufacturer a product belongs to.
type Brand struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// ProductAttribute is a named dimension such as "color" or "size".
type ProductAttribute struct {
	ID          int     `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
}

// ProductAttributeValue is one discrete value of an attribute. The attribute
// name and description are joined in on reads.
type ProductAttributeValue struct {
	ID                   int     `db:"id" json:"id"`
	ProductAttributeID   int     `db:"product_attribute_id" json:"productAttributeId"`
	Value                string  `db:"value" json:"value"`
	AttributeName        string  `db:"attribute_name" json:"attributeName"`
	AttributeDescription *string `db:"attribute_description" json:"attributeDescription"`
}

// Product is a catalog entry. BrandName is joined from brands.
type Product struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description"`
	BrandID     int       `db:"brand_id" json:"brandId"`
	BrandName   string    `db:"brand_name" json:"brandName"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// ProductFilter narrows a product listing. Every field is optional and all
// of them combine conjunctively. A non-nil ProductIDs restricts the result to
// those ids, so an empty non-nil slice matches nothing.
type ProductFilter struct {
	CategoryID        *int
	AttributeValueIDs []int
	BrandIDs          []int
	PriceMin          *decimal.Decimal
	PriceMax          *decimal.Decimal
	ProductIDs        []int
	Limit             int
	Offset            int
}
