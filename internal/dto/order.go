package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_shop/internal/models"
)

// OrderProductRef is the product an ordered inventory row belongs to.
type OrderProductRef struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Brand Brand  `json:"brand"`
}

// OrderProduct is one ordered inventory row.
type OrderProduct struct {
	ID              int              `json:"id"`
	Product         OrderProductRef  `json:"product"`
	AttributeValues []AttributeValue `json:"attributeValues"`
	Price           string           `json:"price"`
}

// Order is the order view returned to its customer.
type Order struct {
	ID                int            `json:"id"`
	Products          []OrderProduct `json:"products"`
	CustomerFirstName string         `json:"customerFirstName"`
	CustomerLastName  string         `json:"customerLastName"`
	CustomerEmail     string         `json:"customerEmail"`
	CustomerAddress   string         `json:"customerAddress"`
	CustomerCountry   string         `json:"customerCountry"`
	CustomerCity      string         `json:"customerCity"`
	CustomerZipCode   string         `json:"customerZipCode"`
	Status            string         `json:"status"`
	TotalPrice        string         `json:"totalPrice"`
	CreatedAt         time.Time      `json:"createdAt"`
}

// OrderCreated is returned right after an order is placed.
type OrderCreated struct {
	ID                int       `json:"id"`
	Products          []int     `json:"products"`
	CustomerFirstName string    `json:"customerFirstName"`
	CustomerLastName  string    `json:"customerLastName"`
	CustomerEmail     string    `json:"customerEmail"`
	CustomerAddress   string    `json:"customerAddress"`
	CustomerCountry   string    `json:"customerCountry"`
	CustomerCity      string    `json:"customerCity"`
	CustomerZipCode   string    `json:"customerZipCode"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
}

// NewOrder maps an order, its lines and its computed total.
func NewOrder(o models.Order, lines []models.OrderLine, total decimal.Decimal) Order {
	products := make([]OrderProduct, 0, len(lines))
	for _, line := range lines {
		products = append(products, OrderProduct{
			ID: line.Inventory.ID,
			Product: OrderProductRef{
				ID:    line.Product.ID,
				Name:  line.Product.Name,
				Slug:  line.Product.Slug,
				Brand: newBrand(line.Product),
			},
			AttributeValues: NewAttributeValues(line.AttributeValues),
			Price:           line.Inventory.Price.StringFixed(2),
		})
	}
	return Order{
		ID:                o.ID,
		Products:          products,
		CustomerFirstName: o.CustomerFirstName,
		CustomerLastName:  o.CustomerLastName,
		CustomerEmail:     o.CustomerEmail,
		CustomerAddress:   o.CustomerAddress,
		CustomerCountry:   o.CustomerCountry,
		CustomerCity:      o.CustomerCity,
		CustomerZipCode:   o.CustomerZipCode,
		Status:            o.Status.Label(),
		TotalPrice:        total.StringFixed(2),
		CreatedAt:         o.CreatedAt,
	}
}

// NewOrderCreated maps a freshly created order.
func NewOrderCreated(o models.Order, inventoryIDs []int) OrderCreated {
	return OrderCreated{
		ID:                o.ID,
		Products:          inventoryIDs,
		CustomerFirstName: o.CustomerFirstName,
		CustomerLastName:  o.CustomerLastName,
		CustomerEmail:     o.CustomerEmail,
		CustomerAddress:   o.CustomerAddress,
		CustomerCountry:   o.CustomerCountry,
		CustomerCity:      o.CustomerCity,
		CustomerZipCode:   o.CustomerZipCode,
		Status:            o.Status.Label(),
		CreatedAt:         o.CreatedAt,
	}
}
