// Package servicetest provides in-memory implementations of the service
// collaborators for tests.
package servicetest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GTDGit/gtd_shop/internal/mailer"
	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/search"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

// Store is a shared in-memory database. The repository views returned by its
// methods all read and write the same data.
type Store struct {
	mu sync.Mutex

	seq int
	now func() time.Time

	categories       map[int]models.Category
	brands           map[int]models.Brand
	attributes       map[int]models.ProductAttribute
	values           map[int]models.ProductAttributeValue
	products         map[int]models.Product
	productCats      map[int][]int
	inventories      map[int]models.ProductInventory
	inventoryValues  map[int][]int
	stocks           map[int]models.Stock
	images           map[int]models.ProductImage
	orders           map[int]models.Order
	orderItems       map[int][]int
	users            map[int]models.User
	profiles         map[int]models.UserProfile

	// FailNextInventoryCreate is returned once by InventoryRepo.Create.
	FailNextInventoryCreate error
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		now:             func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
		categories:      make(map[int]models.Category),
		brands:          make(map[int]models.Brand),
		attributes:      make(map[int]models.ProductAttribute),
		values:          make(map[int]models.ProductAttributeValue),
		products:        make(map[int]models.Product),
		productCats:     make(map[int][]int),
		inventories:     make(map[int]models.ProductInventory),
		inventoryValues: make(map[int][]int),
		stocks:          make(map[int]models.Stock),
		images:          make(map[int]models.ProductImage),
		orders:          make(map[int]models.Order),
		orderItems:      make(map[int][]int),
		users:           make(map[int]models.User),
		profiles:        make(map[int]models.UserProfile),
	}
}

func (s *Store) nextID() int {
	s.seq++
	return s.seq
}

// tick advances the clock by a second so created_at values differ.
func (s *Store) tick() time.Time {
	t := s.now()
	s.now = func() time.Time { return t.Add(time.Second) }
	return t
}

// Categories returns the category repository view.
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{s} }

// Brands returns the brand repository view.
func (s *Store) Brands() *BrandRepo { return &BrandRepo{s} }

// Attributes returns the attribute repository view.
func (s *Store) Attributes() *AttributeRepo { return &AttributeRepo{s} }

// Products returns the product repository view.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s} }

// Inventories returns the inventory repository view.
func (s *Store) Inventories() *InventoryRepo { return &InventoryRepo{s} }

// Stocks returns the stock repository view.
func (s *Store) Stocks() *StockRepo { return &StockRepo{s} }

// Orders returns the order repository view.
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s} }

// Users returns the user repository view.
func (s *Store) Users() *UserRepo { return &UserRepo{s} }

// CategoryRepo is the in-memory category repository.
type CategoryRepo struct{ s *Store }

func sortCategories(list []models.Category) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
}

func (r *CategoryRepo) ListRoots(_ context.Context, limit, offset int) ([]models.Category, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var roots []models.Category
	for _, c := range r.s.categories {
		if c.ParentID == nil {
			roots = append(roots, c)
		}
	}
	sortCategories(roots)
	return page(roots, limit, offset), len(roots), nil
}

func (r *CategoryRepo) GetByID(_ context.Context, id int) (*models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (r *CategoryRepo) ListChildren(_ context.Context, parentIDs []int) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := toSet(parentIDs)
	var out []models.Category
	for _, c := range r.s.categories {
		if c.ParentID != nil {
			if _, ok := want[*c.ParentID]; ok {
				out = append(out, c)
			}
		}
	}
	sortCategories(out)
	sort.SliceStable(out, func(i, j int) bool { return *out[i].ParentID < *out[j].ParentID })
	return out, nil
}

func (r *CategoryRepo) Lineage(_ context.Context, id int) ([]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Category
	for cur, ok := r.s.categories[id]; ok; {
		out = append([]models.Category{cur}, out...)
		if cur.ParentID == nil {
			break
		}
		cur, ok = r.s.categories[*cur.ParentID]
	}
	return out, nil
}

func (r *CategoryRepo) ForProducts(_ context.Context, productIDs []int) (map[int][]models.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int][]models.Category)
	for _, pid := range productIDs {
		var list []models.Category
		for _, cid := range r.s.productCats[pid] {
			list = append(list, r.s.categories[cid])
		}
		sortCategories(list)
		sort.SliceStable(list, func(i, j int) bool { return list[i].Level < list[j].Level })
		if len(list) > 0 {
			out[pid] = list
		}
	}
	return out, nil
}

func (r *CategoryRepo) Exists(_ context.Context, ids []int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		if _, ok := r.s.categories[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (r *CategoryRepo) Create(_ context.Context, c *models.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.categories {
		if strings.EqualFold(existing.Name, c.Name) || existing.Slug == c.Slug {
			return utils.ErrDuplicateName
		}
	}
	c.Level = 0
	if c.ParentID != nil {
		parent, ok := r.s.categories[*c.ParentID]
		if !ok {
			return utils.ErrUnknownCategory
		}
		c.Level = parent.Level + 1
	}
	c.ID = r.s.nextID()
	r.s.categories[c.ID] = *c
	return nil
}

func (r *CategoryRepo) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return sql.ErrNoRows
	}
	for _, c := range r.s.categories {
		if c.ParentID != nil && *c.ParentID == id {
			return utils.ErrCategoryInUse
		}
	}
	for _, cats := range r.s.productCats {
		for _, cid := range cats {
			if cid == id {
				return utils.ErrCategoryInUse
			}
		}
	}
	delete(r.s.categories, id)
	return nil
}

// BrandRepo is the in-memory brand repository.
type BrandRepo struct{ s *Store }

func (r *BrandRepo) GetByID(_ context.Context, id int) (*models.Brand, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.brands[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

func (r *BrandRepo) Create(_ context.Context, b *models.Brand) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.brands {
		if existing.Name == b.Name {
			return utils.ErrDuplicateName
		}
	}
	b.ID = r.s.nextID()
	r.s.brands[b.ID] = *b
	return nil
}

func (r *BrandRepo) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.brands[id]; !ok {
		return sql.ErrNoRows
	}
	for _, p := range r.s.products {
		if p.BrandID == id {
			return utils.ErrBrandInUse
		}
	}
	delete(r.s.brands, id)
	return nil
}

// AttributeRepo is the in-memory attribute repository.
type AttributeRepo struct{ s *Store }

func (r *AttributeRepo) GetAttribute(_ context.Context, id int) (*models.ProductAttribute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.attributes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &a, nil
}

func (r *AttributeRepo) CreateAttribute(_ context.Context, a *models.ProductAttribute) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.attributes {
		if existing.Name == a.Name {
			return utils.ErrDuplicateName
		}
	}
	a.ID = r.s.nextID()
	r.s.attributes[a.ID] = *a
	return nil
}

func (r *AttributeRepo) CreateValue(_ context.Context, v *models.ProductAttributeValue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	attr, ok := r.s.attributes[v.ProductAttributeID]
	if !ok {
		return utils.ErrAttributeNotFound
	}
	v.ID = r.s.nextID()
	v.AttributeName = attr.Name
	v.AttributeDescription = attr.Description
	r.s.values[v.ID] = *v
	return nil
}

func (r *AttributeRepo) ListValues(_ context.Context) ([]models.ProductAttributeValue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.ProductAttributeValue, 0, len(r.s.values))
	for _, id := range sortedKeys(r.s.values) {
		out = append(out, r.s.values[id])
	}
	return out, nil
}

func (r *AttributeRepo) ValuesByIDs(_ context.Context, ids []int) ([]models.ProductAttributeValue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.ProductAttributeValue
	for _, id := range sortedIDs(ids) {
		if v, ok := r.s.values[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *AttributeRepo) ValuesForInventories(_ context.Context, inventoryIDs []int) (map[int][]models.ProductAttributeValue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int][]models.ProductAttributeValue)
	for _, invID := range inventoryIDs {
		for _, vid := range sortedIDs(r.s.inventoryValues[invID]) {
			out[invID] = append(out[invID], r.s.values[vid])
		}
	}
	return out, nil
}

// ProductRepo is the in-memory product repository.
type ProductRepo struct{ s *Store }

func (r *ProductRepo) Filter(_ context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var restrict map[int]struct{}
	if f.ProductIDs != nil {
		restrict = toSet(f.ProductIDs)
	}
	brands := toSet(f.BrandIDs)
	values := toSet(f.AttributeValueIDs)

	var matched []models.Product
	for _, id := range sortedKeys(r.s.products) {
		p := r.s.products[id]
		if restrict != nil {
			if _, ok := restrict[id]; !ok {
				continue
			}
		}
		if f.CategoryID != nil && !containsInt(r.s.productCats[id], *f.CategoryID) {
			continue
		}
		if len(brands) > 0 {
			if _, ok := brands[p.BrandID]; !ok {
				continue
			}
		}
		if len(values) > 0 && !r.s.hasInventory(id, func(inv models.ProductInventory) bool {
			for _, vid := range r.s.inventoryValues[inv.ID] {
				if _, ok := values[vid]; ok {
					return true
				}
			}
			return false
		}) {
			continue
		}
		if f.PriceMin != nil && f.PriceMax != nil && !r.s.hasInventory(id, func(inv models.ProductInventory) bool {
			return inv.Price.GreaterThanOrEqual(*f.PriceMin) && inv.Price.LessThanOrEqual(*f.PriceMax)
		}) {
			continue
		}
		matched = append(matched, p)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	return page(matched, limit, f.Offset), len(matched), nil
}

func (s *Store) hasInventory(productID int, match func(models.ProductInventory) bool) bool {
	for _, inv := range s.inventories {
		if inv.ProductID == productID && match(inv) {
			return true
		}
	}
	return false
}

func (r *ProductRepo) GetByID(_ context.Context, id int) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (r *ProductRepo) GetByIDs(_ context.Context, ids []int) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Product
	for _, id := range sortedIDs(ids) {
		if p, ok := r.s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *ProductRepo) ListAll(_ context.Context) ([]models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Product, 0, len(r.s.products))
	for _, id := range sortedKeys(r.s.products) {
		out = append(out, r.s.products[id])
	}
	return out, nil
}

func (r *ProductRepo) Create(_ context.Context, p *models.Product, categoryIDs []int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	brand, ok := r.s.brands[p.BrandID]
	if !ok {
		return utils.ErrUnknownBrand
	}
	for _, cid := range categoryIDs {
		if _, ok := r.s.categories[cid]; !ok {
			return utils.ErrUnknownCategory
		}
	}
	for _, existing := range r.s.products {
		if existing.Slug == p.Slug {
			return utils.ErrDuplicateName
		}
	}
	now := r.s.tick()
	p.ID = r.s.nextID()
	p.BrandName = brand.Name
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.products[p.ID] = *p
	r.s.productCats[p.ID] = sortedIDs(categoryIDs)
	return nil
}

// InventoryRepo is the in-memory inventory repository.
type InventoryRepo struct{ s *Store }

func (r *InventoryRepo) Create(_ context.Context, inv *models.ProductInventory, attributeValueIDs []int, units int) (*models.Stock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.FailNextInventoryCreate; err != nil {
		r.s.FailNextInventoryCreate = nil
		return nil, err
	}
	if _, ok := r.s.products[inv.ProductID]; !ok {
		return nil, utils.ErrProductNotFound
	}
	for _, existing := range r.s.inventories {
		if existing.Code == inv.Code {
			return nil, fmt.Errorf("duplicate inventory code %s", inv.Code)
		}
	}
	now := r.s.tick()
	inv.ID = r.s.nextID()
	inv.CreatedAt, inv.UpdatedAt = now, now
	r.s.inventories[inv.ID] = *inv
	r.s.inventoryValues[inv.ID] = sortedIDs(attributeValueIDs)

	stock := models.Stock{ID: r.s.nextID(), ProductInventoryID: inv.ID, Units: units}
	r.s.stocks[stock.ID] = stock
	return &stock, nil
}

func (r *InventoryRepo) GetByIDs(_ context.Context, ids []int) ([]models.ProductInventory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.ProductInventory
	for _, id := range sortedIDs(ids) {
		if inv, ok := r.s.inventories[id]; ok {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *InventoryRepo) ForProducts(_ context.Context, productIDs []int) ([]models.ProductInventory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := toSet(productIDs)
	var out []models.ProductInventory
	for _, id := range sortedKeys(r.s.inventories) {
		inv := r.s.inventories[id]
		if _, ok := want[inv.ProductID]; ok {
			out = append(out, inv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (r *InventoryRepo) ImagesFor(_ context.Context, inventoryIDs []int) (map[int][]models.ProductImage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := toSet(inventoryIDs)
	out := make(map[int][]models.ProductImage)
	for _, id := range sortedKeys(r.s.images) {
		img := r.s.images[id]
		if _, ok := want[img.ProductInventoryID]; ok {
			out[img.ProductInventoryID] = append(out[img.ProductInventoryID], img)
		}
	}
	return out, nil
}

func (r *InventoryRepo) CreateImage(_ context.Context, img *models.ProductImage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.inventories[img.ProductInventoryID]; !ok {
		return utils.ErrInventoryNotFound
	}
	now := r.s.tick()
	img.ID = r.s.nextID()
	img.CreatedAt, img.UpdatedAt = now, now
	r.s.images[img.ID] = *img
	return nil
}

// StockRepo is the in-memory stock repository.
type StockRepo struct{ s *Store }

func (r *StockRepo) GetByInventoryID(_ context.Context, inventoryID int) (*models.Stock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range r.s.stocks {
		if st.ProductInventoryID == inventoryID {
			return &st, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *StockRepo) ForInventories(_ context.Context, inventoryIDs []int) (map[int]models.Stock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := toSet(inventoryIDs)
	out := make(map[int]models.Stock)
	for _, st := range r.s.stocks {
		if _, ok := want[st.ProductInventoryID]; ok {
			out[st.ProductInventoryID] = st
		}
	}
	return out, nil
}

func (r *StockRepo) SellUnits(_ context.Context, stockID, quantity int) (*models.Stock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.stocks[stockID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if st.Units < quantity {
		return nil, fmt.Errorf("%w: %d in stock, tried to sell %d", utils.ErrInsufficientStock, st.Units, quantity)
	}
	now := r.s.tick()
	st.Units -= quantity
	st.UnitsSold += quantity
	st.LastChecked = &now
	r.s.stocks[stockID] = st
	return &st, nil
}

// StockByInventory returns the stock row of an inventory, for assertions.
func (s *Store) StockByInventory(inventoryID int) models.Stock {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.stocks {
		if st.ProductInventoryID == inventoryID {
			return st
		}
	}
	return models.Stock{}
}

// OrderRepo is the in-memory order repository.
type OrderRepo struct{ s *Store }

func (r *OrderRepo) Create(_ context.Context, o *models.Order, inventoryIDs []int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range inventoryIDs {
		if _, ok := r.s.inventories[id]; !ok {
			return utils.ErrUnknownInventory
		}
	}
	o.ID = r.s.nextID()
	o.CreatedAt = r.s.tick()
	r.s.orders[o.ID] = *o
	r.s.orderItems[o.ID] = sortedIDs(inventoryIDs)
	return nil
}

func (r *OrderRepo) ListByCustomer(_ context.Context, customerID, limit, offset int) ([]models.Order, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Order
	for _, o := range r.s.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, limit, offset), len(out), nil
}

func (r *OrderRepo) GetForCustomer(_ context.Context, customerID, id int) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok || o.CustomerID != customerID {
		return nil, sql.ErrNoRows
	}
	return &o, nil
}

func (r *OrderRepo) InventoryIDsFor(_ context.Context, orderIDs []int) (map[int][]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make(map[int][]int)
	for _, id := range orderIDs {
		if items, ok := r.s.orderItems[id]; ok {
			out[id] = append([]int(nil), items...)
		}
	}
	return out, nil
}

// UserRepo is the in-memory user repository.
type UserRepo struct{ s *Store }

func (r *UserRepo) CreateWithProfile(_ context.Context, u *models.User, p *models.UserProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.Email = strings.ToLower(u.Email)
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return utils.ErrEmailTaken
		}
	}
	now := r.s.tick()
	u.ID = r.s.nextID()
	u.CreatedAt, u.UpdatedAt = now, now
	p.UserID = u.ID
	r.s.users[u.ID] = *u
	r.s.profiles[u.ID] = *p
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *UserRepo) GetProfile(_ context.Context, userID int) (*models.UserProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &p, nil
}

func (r *UserRepo) UpdateProfile(_ context.Context, p *models.UserProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.profiles[p.UserID]; !ok {
		return sql.ErrNoRows
	}
	r.s.profiles[p.UserID] = *p
	return nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, userID int, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = hash
	u.UpdatedAt = r.s.tick()
	r.s.users[userID] = u
	return nil
}

// SetUserActive toggles the is_active flag of a user.
func (s *Store) SetUserActive(userID int, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userID]
	u.IsActive = active
	s.users[userID] = u
}

// SetUserStaff toggles the is_staff flag of a user.
func (s *Store) SetUserStaff(userID int, staff bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userID]
	u.IsStaff = staff
	s.users[userID] = u
}

// SetPrice overwrites the price of an inventory row.
func (s *Store) SetPrice(inventoryID int, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv := s.inventories[inventoryID]
	inv.Price = price
	s.inventories[inventoryID] = inv
}

// Cache is an in-memory result cache storing JSON, like the Redis one.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]byte
	Err     error
	Sets    int
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string][]byte)}
}

func (c *Cache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return false, c.Err
	}
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *Cache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.Sets++
	return nil
}

// Keys returns the stored keys in sorted order.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Searcher returns fixed ids for every query, or Err.
type Searcher struct {
	IDs     []int
	Err     error
	Queries []string
}

func (s *Searcher) Search(_ context.Context, query string) ([]int, error) {
	s.Queries = append(s.Queries, query)
	if s.Err != nil {
		return nil, s.Err
	}
	return s.IDs, nil
}

// Indexer records the documents it receives.
type Indexer struct {
	Ensured int
	Docs    []search.ProductDocument
	Err     error
}

func (i *Indexer) EnsureIndex(_ context.Context) error {
	i.Ensured++
	return i.Err
}

func (i *Indexer) Index(_ context.Context, docs []search.ProductDocument) error {
	if i.Err != nil {
		return i.Err
	}
	i.Docs = append(i.Docs, docs...)
	return nil
}

// Images keeps uploaded files in memory.
type Images struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

// NewImages returns an empty Images store.
func NewImages() *Images {
	return &Images{Objects: make(map[string][]byte)}
}

func (i *Images) Upload(_ context.Context, filename, _ string, body io.Reader) (string, error) {
	if i.Err != nil {
		return "", i.Err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	key := fmt.Sprintf("uploads/products/%d-%s", len(i.Objects)+1, filename)
	i.Objects[key] = data
	return key, nil
}

func (i *Images) URL(key string) string {
	return "https://cdn.test/" + key
}

// Mail collects enqueued messages. Full makes Enqueue report a drop.
type Mail struct {
	mu       sync.Mutex
	Messages []mailer.Message
	Full     bool
}

func (m *Mail) Enqueue(msg mailer.Message) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Full {
		return false
	}
	m.Messages = append(m.Messages, msg)
	return true
}

// Sent returns a copy of the enqueued messages.
func (m *Mail) Sent() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.Messages...)
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func toSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func containsInt(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func sortedIDs(ids []int) []int {
	set := toSet(ids)
	out := make([]int, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	out := make([]int, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
