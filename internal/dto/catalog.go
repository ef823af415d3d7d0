// Package dto maps models into the JSON shapes returned by the API.
package dto

import (
	"time"

	"github.com/GTDGit/gtd_shop/internal/models"
)

// CategoryChild is a child category exposing only its own children's ids.
type CategoryChild struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	IsActive bool   `json:"isActive"`
	Children []int  `json:"children"`
}

// Category is a category with its direct children.
type Category struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	IsActive bool            `json:"isActive"`
	Children []CategoryChild `json:"children"`
}

// CategoryRef is the compact category shown on a product.
type CategoryRef struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Level int    `json:"level"`
}

// Brand is a brand reference.
type Brand struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ProductAttribute describes the attribute a value belongs to.
type ProductAttribute struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// AttributeValue is an attribute value with its attribute.
type AttributeValue struct {
	ID               int              `json:"id"`
	ProductAttribute ProductAttribute `json:"productAttribute"`
	Value            string           `json:"value"`
}

// Image is a product image.
type Image struct {
	Image   string `json:"image"`
	AltText string `json:"altText"`
}

// ProductListItem is one entry of a product listing.
type ProductListItem struct {
	ID                 int              `json:"id"`
	Name               string           `json:"name"`
	Slug               string           `json:"slug"`
	Brand              Brand            `json:"brand"`
	Price              *string          `json:"price"`
	Image              *Image           `json:"image"`
	AllAttributeValues []AttributeValue `json:"allAttributeValues"`
}

// Stock shows units on hand.
type Stock struct {
	Units int `json:"units"`
}

// Inventory is a sellable variant on the product detail page.
type Inventory struct {
	ID              int              `json:"id"`
	AttributeValues []AttributeValue `json:"attributeValues"`
	Price           string           `json:"price"`
	Images          []Image          `json:"images"`
	Stock           *Stock           `json:"stock"`
}

// ProductDetail is the full product view.
type ProductDetail struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Slug        string        `json:"slug"`
	Categories  []CategoryRef `json:"categories"`
	Brand       Brand         `json:"brand"`
	Description string        `json:"description"`
	Inventories []Inventory   `json:"inventories"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// NewCategory maps a category and its children.
func NewCategory(c models.CategoryWithChildren) Category {
	children := make([]CategoryChild, 0, len(c.Children))
	for _, child := range c.Children {
		ids := child.ChildIDs
		if ids == nil {
			ids = []int{}
		}
		children = append(children, CategoryChild{
			ID:       child.ID,
			Name:     child.Name,
			Slug:     child.Slug,
			IsActive: child.IsActive,
			Children: ids,
		})
	}
	return Category{
		ID:       c.ID,
		Name:     c.Name,
		Slug:     c.Slug,
		IsActive: c.IsActive,
		Children: children,
	}
}

// NewAttributeValue maps one attribute value.
func NewAttributeValue(v models.ProductAttributeValue) AttributeValue {
	return AttributeValue{
		ID: v.ID,
		ProductAttribute: ProductAttribute{
			Name:        v.AttributeName,
			Description: v.AttributeDescription,
		},
		Value: v.Value,
	}
}

// NewAttributeValues maps a list of attribute values, never returning nil.
func NewAttributeValues(values []models.ProductAttributeValue) []AttributeValue {
	out := make([]AttributeValue, 0, len(values))
	for _, v := range values {
		out = append(out, NewAttributeValue(v))
	}
	return out
}

func newImage(img models.ProductImage) Image {
	url := img.URL
	if url == "" {
		url = img.Image
	}
	return Image{Image: url, AltText: img.AltText}
}

func newBrand(p models.Product) Brand {
	return Brand{ID: p.BrandID, Name: p.BrandName}
}

// NewProductListItem maps a product for listings. The price and image come
// from the first inventory row; attribute values are the union over all rows.
func NewProductListItem(p models.Product, inventories []models.InventoryDetail) ProductListItem {
	item := ProductListItem{
		ID:                 p.ID,
		Name:               p.Name,
		Slug:               p.Slug,
		Brand:              newBrand(p),
		AllAttributeValues: []AttributeValue{},
	}

	if len(inventories) > 0 {
		first := inventories[0]
		price := first.Inventory.Price.StringFixed(2)
		item.Price = &price
		if len(first.Images) > 0 {
			img := newImage(first.Images[0])
			item.Image = &img
		}
	}

	seen := make(map[int]struct{})
	for _, inv := range inventories {
		for _, v := range inv.AttributeValues {
			if _, ok := seen[v.ID]; ok {
				continue
			}
			seen[v.ID] = struct{}{}
			item.AllAttributeValues = append(item.AllAttributeValues, NewAttributeValue(v))
		}
	}
	return item
}

// NewProductDetail maps the full product view. Categories are expected
// shallow first.
func NewProductDetail(p models.Product, categories []models.Category, inventories []models.InventoryDetail) ProductDetail {
	detail := ProductDetail{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Categories:  make([]CategoryRef, 0, len(categories)),
		Brand:       newBrand(p),
		Description: p.Description,
		Inventories: make([]Inventory, 0, len(inventories)),
		UpdatedAt:   p.UpdatedAt,
	}
	for _, c := range categories {
		detail.Categories = append(detail.Categories, CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug, Level: c.Level})
	}
	for _, inv := range inventories {
		images := make([]Image, 0, len(inv.Images))
		for _, img := range inv.Images {
			images = append(images, newImage(img))
		}
		var stock *Stock
		if inv.Stock != nil {
			stock = &Stock{Units: inv.Stock.Units}
		}
		detail.Inventories = append(detail.Inventories, Inventory{
			ID:              inv.Inventory.ID,
			AttributeValues: NewAttributeValues(inv.AttributeValues),
			Price:           inv.Inventory.Price.StringFixed(2),
			Images:          images,
			Stock:           stock,
		})
	}
	return detail
}
