package service

import (
	"context"
	"fmt"

	"github.com/GTDGit/gtd_shop/internal/models"
)

// inventoryLoader assembles inventory rows with their attribute values,
// images and stock using one query per relation.
type inventoryLoader struct {
	inventories InventoryRepository
	stocks      StockRepository
	attributes  AttributeRepository
	images      ImageStorage
}

// load returns the inventory details of each product, oldest row first.
func (l *inventoryLoader) load(ctx context.Context, productIDs []int) (map[int][]models.InventoryDetail, error) {
	out := make(map[int][]models.InventoryDetail, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	rows, err := l.inventories.ForProducts(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load inventories: %w", err)
	}
	if len(rows) == 0 {
		return out, nil
	}

	ids := make([]int, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	values, err := l.attributes.ValuesForInventories(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load inventory attribute values: %w", err)
	}
	images, err := l.inventories.ImagesFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load inventory images: %w", err)
	}
	stocks, err := l.stocks.ForInventories(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load inventory stock: %w", err)
	}

	for _, r := range rows {
		detail := models.InventoryDetail{
			Inventory:       r,
			AttributeValues: values[r.ID],
			Images:          images[r.ID],
		}
		for i := range detail.Images {
			if l.images != nil {
				detail.Images[i].URL = l.images.URL(detail.Images[i].Image)
			}
		}
		if s, ok := stocks[r.ID]; ok {
			detail.Stock = &s
		}
		out[r.ProductID] = append(out[r.ProductID], detail)
	}
	return out, nil
}
