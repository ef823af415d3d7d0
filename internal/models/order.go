package models

import "time"

// OrderStatus is stored as a single character.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "P"
	OrderStatusConfirmed OrderStatus = "C"
	OrderStatusDelivered OrderStatus = "D"
	OrderStatusReturned  OrderStatus = "R"
)

// Label returns the human readable status.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "Pending"
	case OrderStatusConfirmed:
		return "Confirmed"
	case OrderStatusDelivered:
		return "Delivered"
	case OrderStatusReturned:
		return "Returned"
	default:
		return string(s)
	}
}

// Order is a customer's purchase record. Items live in order_items.
type Order struct {
	ID                int         `db:"id" json:"id"`
	CustomerID        int         `db:"customer_id" json:"customerId"`
	CustomerFirstName string      `db:"customer_first_name" json:"customerFirstName"`
	CustomerLastName  string      `db:"customer_last_name" json:"customerLastName"`
	CustomerEmail     string      `db:"customer_email" json:"customerEmail"`
	CustomerAddress   string      `db:"customer_address" json:"customerAddress"`
	CustomerCountry   string      `db:"customer_country" json:"customerCountry"`
	CustomerCity      string      `db:"customer_city" json:"customerCity"`
	CustomerZipCode   string      `db:"customer_zip_code" json:"customerZipCode"`
	Status            OrderStatus `db:"status" json:"status"`
	CreatedAt         time.Time   `db:"created_at" json:"createdAt"`
}

// OrderLine is one referenced inventory row with its product for display.
type OrderLine struct {
	Inventory       ProductInventory
	Product         Product
	AttributeValues []ProductAttributeValue
}
