package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_shop/internal/dto"
	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

// OrderService places and reads customer orders.
type OrderService struct {
	orders      OrderRepository
	users       UserRepository
	inventories InventoryRepository
	products    ProductRepository
	attributes  AttributeRepository
}

// NewOrderService constructs an OrderService.
func NewOrderService(
	orders OrderRepository,
	users UserRepository,
	inventories InventoryRepository,
	products ProductRepository,
	attributes AttributeRepository,
) *OrderService {
	return &OrderService{
		orders:      orders,
		users:       users,
		inventories: inventories,
		products:    products,
		attributes:  attributes,
	}
}

// CreateOrderRequest is the checkout payload. Products holds inventory ids.
type CreateOrderRequest struct {
	Products          []int  `json:"products"`
	CustomerFirstName string `json:"customerFirstName" binding:"required,max=255"`
	CustomerLastName  string `json:"customerLastName" binding:"required,max=255"`
	CustomerAddress   string `json:"customerAddress" binding:"required,max=255"`
	CustomerCountry   string `json:"customerCountry" binding:"required,max=255"`
	CustomerCity      string `json:"customerCity" binding:"required,max=255"`
	CustomerZipCode   string `json:"customerZipCode" binding:"required,max=15"`
}

// CreateOrder records a pending order for the customer. Stock is not touched.
func (s *OrderService) CreateOrder(ctx context.Context, customerID int, req CreateOrderRequest) (*dto.OrderCreated, error) {
	ids := uniqueInts(req.Products)
	if len(ids) == 0 {
		return nil, utils.ErrEmptyOrder
	}

	rows, err := s.inventories.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load inventories: %w", err)
	}
	if len(rows) != len(ids) {
		return nil, utils.ErrUnknownInventory
	}

	customer, err := s.users.GetByID(ctx, customerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}

	order := &models.Order{
		CustomerID:        customer.ID,
		CustomerFirstName: req.CustomerFirstName,
		CustomerLastName:  req.CustomerLastName,
		CustomerEmail:     customer.Email,
		CustomerAddress:   req.CustomerAddress,
		CustomerCountry:   req.CustomerCountry,
		CustomerCity:      req.CustomerCity,
		CustomerZipCode:   req.CustomerZipCode,
		Status:            models.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, order, ids); err != nil {
		if errors.Is(err, utils.ErrUnknownInventory) {
			return nil, err
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	log.Info().
		Int("order_id", order.ID).
		Int("customer_id", customerID).
		Int("items", len(ids)).
		Msg("Order created")

	created := dto.NewOrderCreated(*order, ids)
	return &created, nil
}

// ListOrders returns one page of the customer's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, customerID, page, limit int) ([]dto.Order, int, error) {
	page, limit = NormalizePage(page, limit)

	orders, total, err := s.orders.ListByCustomer(ctx, customerID, limit, offset(page, limit))
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	out, err := s.withLines(ctx, orders)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetOrder returns an order owned by the customer. Orders of other customers
// are reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, customerID, orderID int) (*dto.Order, error) {
	order, err := s.orders.GetForCustomer(ctx, customerID, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, utils.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %d: %w", orderID, err)
	}

	out, err := s.withLines(ctx, []models.Order{*order})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// TotalPrice sums the current prices of the referenced inventory rows.
func TotalPrice(lines []models.OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Inventory.Price)
	}
	return total
}

func (s *OrderService) withLines(ctx context.Context, orders []models.Order) ([]dto.Order, error) {
	out := make([]dto.Order, 0, len(orders))
	if len(orders) == 0 {
		return out, nil
	}

	orderIDs := make([]int, 0, len(orders))
	for _, o := range orders {
		orderIDs = append(orderIDs, o.ID)
	}
	itemIDs, err := s.orders.InventoryIDsFor(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}

	var inventoryIDs []int
	for _, ids := range itemIDs {
		inventoryIDs = append(inventoryIDs, ids...)
	}
	inventoryIDs = uniqueInts(inventoryIDs)

	inventories, err := s.inventories.GetByIDs(ctx, inventoryIDs)
	if err != nil {
		return nil, fmt.Errorf("load inventories: %w", err)
	}
	inventoryByID := make(map[int]models.ProductInventory, len(inventories))
	productIDs := make([]int, 0, len(inventories))
	for _, inv := range inventories {
		inventoryByID[inv.ID] = inv
		productIDs = append(productIDs, inv.ProductID)
	}

	products, err := s.products.GetByIDs(ctx, uniqueInts(productIDs))
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	productByID := make(map[int]models.Product, len(products))
	for _, p := range products {
		productByID[p.ID] = p
	}

	values, err := s.attributes.ValuesForInventories(ctx, inventoryIDs)
	if err != nil {
		return nil, fmt.Errorf("load attribute values: %w", err)
	}

	for _, o := range orders {
		var lines []models.OrderLine
		for _, id := range itemIDs[o.ID] {
			inv, ok := inventoryByID[id]
			if !ok {
				continue
			}
			lines = append(lines, models.OrderLine{
				Inventory:       inv,
				Product:         productByID[inv.ProductID],
				AttributeValues: values[id],
			})
		}
		out = append(out, dto.NewOrder(o, lines, TotalPrice(lines)))
	}
	return out, nil
}
