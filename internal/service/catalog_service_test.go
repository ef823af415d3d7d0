package service

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_shop/internal/config"
	"github.com/GTDGit/gtd_shop/internal/dto"
	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/service/servicetest"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

type catalogFixture struct {
	store   *servicetest.Store
	cache   *servicetest.Cache
	images  *servicetest.Images
	catalog *CatalogService
}

func newCatalogFixture() *catalogFixture {
	store := servicetest.NewStore()
	cache := servicetest.NewCache()
	images := servicetest.NewImages()
	catalog := NewCatalogService(
		store.Products(),
		store.Categories(),
		store.Inventories(),
		store.Stocks(),
		store.Attributes(),
		images,
		cache,
		config.CacheConfig{ProductsTTL: time.Minute, AttributeValuesTTL: time.Minute},
	)
	return &catalogFixture{store: store, cache: cache, images: images, catalog: catalog}
}

func itemIDs(items []dto.ProductListItem) []int {
	ids := make([]int, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func mustPriceRange(t *testing.T, raw string) *PriceRange {
	t.Helper()
	r, err := ParsePriceRange(raw)
	require.NoError(t, err)
	return r
}

func TestListProductsPriceRange(t *testing.T) {
	f := newCatalogFixture()
	acme := f.store.AddBrand("Acme")
	cat := f.store.AddCategory("Tools", nil)
	widget := f.store.AddProduct("Widget", acme, cat)
	f.store.AddInventory(widget, "10.00", 1)
	f.store.AddInventory(widget, "1000.00", 1)
	gadget := f.store.AddProduct("Gadget", acme, cat)
	f.store.AddInventory(gadget, "20.00", 1)

	page, err := f.catalog.ListProducts(context.Background(), ProductQuery{PriceRange: mustPriceRange(t, "500,1100")})
	require.NoError(t, err)

	assert.Equal(t, []int{widget.ID}, itemIDs(page.Items))
	assert.Equal(t, 1, page.Total)
	// Which inventory row supplies the listed price is not pinned.
	require.NotNil(t, page.Items[0].Price)
	assert.Contains(t, []string{"10.00", "1000.00"}, *page.Items[0].Price)
	assert.Equal(t, "Acme", page.Items[0].Brand.Name)
}

func TestParsePriceRangeErrors(t *testing.T) {
	_, err := ParsePriceRange("100,5")
	assert.ErrorIs(t, err, utils.ErrInvalidPriceRange)
	assert.ErrorIs(t, err, utils.ErrValidation)

	for _, raw := range []string{"5", "1,x", "a,b", "1,2,3"} {
		_, err := ParsePriceRange(raw)
		assert.ErrorIs(t, err, utils.ErrMalformedPriceRange, raw)
	}

	r, err := ParsePriceRange(" 5 , 5 ")
	require.NoError(t, err)
	assert.True(t, r.Min.Equal(r.Max))

	r, err = ParsePriceRange("")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestParseIDList(t *testing.T) {
	ids, err := ParseIDList("3, 1,3")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, ids)

	_, err = ParseIDList("1,x")
	assert.ErrorIs(t, err, utils.ErrMalformedIDList)

	ids, err = ParseIDList("")
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestListProductsAttributeFilterDeduplicates(t *testing.T) {
	f := newCatalogFixture()
	brand := f.store.AddBrand("Acme")
	cat := f.store.AddCategory("Shirts", nil)
	red := f.store.AddAttributeValue("color", "red")
	blue := f.store.AddAttributeValue("color", "blue")

	tee := f.store.AddProduct("Tee", brand, cat)
	f.store.AddInventory(tee, "10.00", 1, red)
	f.store.AddInventory(tee, "12.00", 1, red)
	polo := f.store.AddProduct("Polo", brand, cat)
	f.store.AddInventory(polo, "30.00", 1, blue)
	henley := f.store.AddProduct("Henley", brand, cat)
	f.store.AddInventory(henley, "20.00", 1, blue)
	f.store.AddInventory(henley, "21.00", 1, red)

	page, err := f.catalog.ListProducts(context.Background(), ProductQuery{AttributeValueIDs: []int{red.ID}})
	require.NoError(t, err)

	assert.Equal(t, []int{tee.ID, henley.ID}, itemIDs(page.Items))
	assert.Len(t, page.Items[0].AllAttributeValues, 1)
	assert.Len(t, page.Items[1].AllAttributeValues, 2)
}

func TestListProductsConjunctiveFilters(t *testing.T) {
	f := newCatalogFixture()
	acme := f.store.AddBrand("Acme")
	other := f.store.AddBrand("Other")
	parent := f.store.AddCategory("Kitchen", nil)
	child := f.store.AddCategory("Knives", &parent)

	pan := f.store.AddProduct("Pan", acme, parent)
	f.store.AddInventory(pan, "40.00", 1)
	knife := f.store.AddProduct("Knife", acme, child)
	f.store.AddInventory(knife, "60.00", 1)
	pot := f.store.AddProduct("Pot", other, parent)
	f.store.AddInventory(pot, "50.00", 1)

	ctx := context.Background()

	byCategory, err := f.catalog.ListProducts(ctx, ProductQuery{CategoryID: &parent.ID})
	require.NoError(t, err)
	assert.Equal(t, []int{pan.ID, pot.ID}, itemIDs(byCategory.Items), "direct membership only")

	byBrand, err := f.catalog.ListProducts(ctx, ProductQuery{CategoryID: &parent.ID, BrandIDs: []int{acme.ID}})
	require.NoError(t, err)
	assert.Equal(t, []int{pan.ID}, itemIDs(byBrand.Items))

	none, err := f.catalog.ListProducts(ctx, ProductQuery{BrandIDs: []int{acme.ID}, PriceRange: mustPriceRange(t, "45,55")})
	require.NoError(t, err)
	assert.Empty(t, none.Items)
	assert.Equal(t, 0, none.Total)
}

func TestListProductsPagination(t *testing.T) {
	f := newCatalogFixture()
	brand := f.store.AddBrand("Acme")
	cat := f.store.AddCategory("Misc", nil)
	var ids []int
	for _, name := range []string{"One", "Two", "Three"} {
		ids = append(ids, f.store.AddProduct(name, brand, cat).ID)
	}

	page, err := f.catalog.ListProducts(context.Background(), ProductQuery{Page: 2, Limit: 2})
	require.NoError(t, err)

	assert.Equal(t, []int{ids[2]}, itemIDs(page.Items))
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Limit)
	assert.Nil(t, page.Items[0].Price, "no inventory rows")
}

func TestListProductsSearchNarrowsSQLResult(t *testing.T) {
	f := newCatalogFixture()
	acme := f.store.AddBrand("Acme")
	other := f.store.AddBrand("Other")
	cat := f.store.AddCategory("Misc", nil)
	a := f.store.AddProduct("Alpha", acme, cat)
	f.store.AddProduct("Beta", acme, cat)
	c := f.store.AddProduct("Gamma", other, cat)

	searcher := &servicetest.Searcher{IDs: []int{a.ID, c.ID}}
	f.catalog.SetSearcher(searcher)

	page, err := f.catalog.ListProducts(context.Background(), ProductQuery{Search: "widgt", BrandIDs: []int{acme.ID}})
	require.NoError(t, err)

	assert.Equal(t, []int{a.ID}, itemIDs(page.Items))
	assert.Equal(t, []string{"widgt"}, searcher.Queries)
}

func TestListProductsSearchWithoutHits(t *testing.T) {
	f := newCatalogFixture()
	f.store.AddProduct("Alpha", f.store.AddBrand("Acme"), f.store.AddCategory("Misc", nil))
	f.catalog.SetSearcher(&servicetest.Searcher{IDs: []int{}})

	page, err := f.catalog.ListProducts(context.Background(), ProductQuery{Search: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestListProductsSearchUnavailable(t *testing.T) {
	f := newCatalogFixture()

	_, err := f.catalog.ListProducts(context.Background(), ProductQuery{Search: "lamp"})
	assert.ErrorIs(t, err, utils.ErrSearchUnavailable)

	searcher := &servicetest.Searcher{Err: errors.New("connection refused")}
	f.catalog.SetSearcher(searcher)
	_, err = f.catalog.ListProducts(context.Background(), ProductQuery{Search: "lamp"})
	assert.ErrorIs(t, err, utils.ErrSearchUnavailable)
	assert.ErrorIs(t, err, utils.ErrExternalService)
	assert.Len(t, searcher.Queries, 1, "no retry")
	assert.Empty(t, f.cache.Keys(), "failures are not cached")
}

func TestListProductsCachedPerIdentity(t *testing.T) {
	f := newCatalogFixture()
	brand := f.store.AddBrand("Acme")
	cat := f.store.AddCategory("Misc", nil)
	first := f.store.AddProduct("First", brand, cat)
	ctx := context.Background()

	page, err := f.catalog.ListProducts(ctx, ProductQuery{Identity: "user:1"})
	require.NoError(t, err)
	assert.Equal(t, []int{first.ID}, itemIDs(page.Items))

	second := f.store.AddProduct("Second", brand, cat)

	cached, err := f.catalog.ListProducts(ctx, ProductQuery{Identity: "user:1"})
	require.NoError(t, err)
	assert.Equal(t, []int{first.ID}, itemIDs(cached.Items), "served from cache")

	fresh, err := f.catalog.ListProducts(ctx, ProductQuery{Identity: "user:2"})
	require.NoError(t, err)
	assert.Equal(t, []int{first.ID, second.ID}, itemIDs(fresh.Items))

	assert.Len(t, f.cache.Keys(), 2)
}

func TestListProductsCacheKeyIgnoresParameterOrder(t *testing.T) {
	f := newCatalogFixture()
	ctx := context.Background()

	ids1, err := ParseIDList("3,1,2")
	require.NoError(t, err)
	ids2, err := ParseIDList("2,1,3")
	require.NoError(t, err)

	_, err = f.catalog.ListProducts(ctx, ProductQuery{AttributeValueIDs: ids1, BrandIDs: []int{4}})
	require.NoError(t, err)
	_, err = f.catalog.ListProducts(ctx, ProductQuery{BrandIDs: []int{4}, AttributeValueIDs: ids2})
	require.NoError(t, err)

	assert.Len(t, f.cache.Keys(), 1)
	assert.Equal(t, 1, f.cache.Sets)
}

func TestListProductsBypassesBrokenCache(t *testing.T) {
	f := newCatalogFixture()
	p := f.store.AddProduct("Alpha", f.store.AddBrand("Acme"), f.store.AddCategory("Misc", nil))
	f.cache.Err = errors.New("redis down")

	page, err := f.catalog.ListProducts(context.Background(), ProductQuery{})
	require.NoError(t, err)
	assert.Equal(t, []int{p.ID}, itemIDs(page.Items))
}

func TestCacheParamsNormalized(t *testing.T) {
	q := ProductQuery{AttributeValueIDs: []int{1, 2}, Search: "lamp"}
	v := q.cacheParams(1, 50)

	want := url.Values{}
	want.Set("limit", "50")
	want.Set("page", "1")
	want.Set("search", "lamp")
	want.Set("attribute-values", "1,2")
	assert.Equal(t, want.Encode(), v.Encode())
}

func TestGetProduct(t *testing.T) {
	f := newCatalogFixture()
	brand := f.store.AddBrand("Acme")
	root := f.store.AddCategory("Home", nil)
	mid := f.store.AddCategory("Lighting", &root)
	leaf := f.store.AddCategory("Lamps", &mid)
	red := f.store.AddAttributeValue("color", "red")

	p := f.store.AddProduct("Desk Lamp", brand, leaf, root, mid)
	inv, _ := f.store.AddInventory(p, "49.5", 3, red)
	require.NoError(t, f.store.Inventories().CreateImage(context.Background(), &models.ProductImage{
		ProductInventoryID: inv.ID,
		Image:              "uploads/products/lamp.png",
		AltText:            "lamp",
	}))

	detail, err := f.catalog.GetProduct(context.Background(), p.ID)
	require.NoError(t, err)

	require.Len(t, detail.Categories, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{detail.Categories[0].Level, detail.Categories[1].Level, detail.Categories[2].Level})
	assert.Equal(t, "Acme", detail.Brand.Name)
	require.Len(t, detail.Inventories, 1)
	assert.Equal(t, "49.50", detail.Inventories[0].Price)
	require.NotNil(t, detail.Inventories[0].Stock)
	assert.Equal(t, 3, detail.Inventories[0].Stock.Units)
	require.Len(t, detail.Inventories[0].Images, 1)
	assert.Equal(t, "https://cdn.test/uploads/products/lamp.png", detail.Inventories[0].Images[0].Image)
	assert.Equal(t, "red", detail.Inventories[0].AttributeValues[0].Value)

	_, err = f.catalog.GetProduct(context.Background(), 999)
	assert.ErrorIs(t, err, utils.ErrProductNotFound)
}

func TestListAttributeValues(t *testing.T) {
	f := newCatalogFixture()
	f.store.AddAttributeValue("color", "red")
	f.store.AddAttributeValue("size", "XL")

	values, err := f.catalog.ListAttributeValues(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, "color", values[0].ProductAttribute.Name)
	assert.Equal(t, "XL", values[1].Value)

	f.store.AddAttributeValue("size", "S")
	cached, err := f.catalog.ListAttributeValues(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, cached, 2)
}
