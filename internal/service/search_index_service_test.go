package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_shop/internal/service/servicetest"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

func TestReindex(t *testing.T) {
	store := servicetest.NewStore()
	home := store.AddCategory("Home", nil)
	lamps := store.AddCategory("Lamps", &home)
	red := store.AddAttributeValue("color", "red")
	blue := store.AddAttributeValue("color", "blue")
	lamp := store.AddProduct("Desk Lamp", store.AddBrand("Acme"), home, lamps)
	store.AddInventory(lamp, "10.00", 1, red)
	store.AddInventory(lamp, "12.00", 1, red, blue)
	store.AddProduct("Bare", store.AddBrand("Other"), home)

	indexer := &servicetest.Indexer{}
	svc := NewSearchIndexService(store.Products(), store.Categories(), store.Inventories(), store.Attributes(), indexer)

	n, err := svc.Reindex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, indexer.Ensured)

	require.Len(t, indexer.Docs, 2)
	doc := indexer.Docs[0]
	assert.Equal(t, lamp.ID, doc.ID)
	assert.Equal(t, "Desk Lamp", doc.Name)
	assert.Equal(t, "Acme", doc.Brand)
	assert.Equal(t, "Home Lamps", doc.Categories)
	assert.Equal(t, "red blue", doc.Attributes)
	assert.Empty(t, indexer.Docs[1].Attributes)
}

func TestReindexFailure(t *testing.T) {
	store := servicetest.NewStore()
	indexer := &servicetest.Indexer{Err: errors.New("cluster red")}
	svc := NewSearchIndexService(store.Products(), store.Categories(), store.Inventories(), store.Attributes(), indexer)

	_, err := svc.Reindex(context.Background())
	assert.ErrorIs(t, err, utils.ErrSearchUnavailable)
}
