package service

import (
	"context"
	"io"
	"time"

	"github.com/GTDGit/gtd_shop/internal/mailer"
	"github.com/GTDGit/gtd_shop/internal/models"
	"github.com/GTDGit/gtd_shop/internal/search"
)

// CategoryRepository is the category storage used by the services.
type CategoryRepository interface {
	ListRoots(ctx context.Context, limit, offset int) ([]models.Category, int, error)
	GetByID(ctx context.Context, id int) (*models.Category, error)
	ListChildren(ctx context.Context, parentIDs []int) ([]models.Category, error)
	Lineage(ctx context.Context, id int) ([]models.Category, error)
	ForProducts(ctx context.Context, productIDs []int) (map[int][]models.Category, error)
	Exists(ctx context.Context, ids []int) (bool, error)
	Create(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id int) error
}

// BrandRepository is the brand storage.
type BrandRepository interface {
	GetByID(ctx context.Context, id int) (*models.Brand, error)
	Create(ctx context.Context, brand *models.Brand) error
	Delete(ctx context.Context, id int) error
}

// AttributeRepository is the attribute and attribute value storage.
type AttributeRepository interface {
	GetAttribute(ctx context.Context, id int) (*models.ProductAttribute, error)
	CreateAttribute(ctx context.Context, attr *models.ProductAttribute) error
	CreateValue(ctx context.Context, value *models.ProductAttributeValue) error
	ListValues(ctx context.Context) ([]models.ProductAttributeValue, error)
	ValuesByIDs(ctx context.Context, ids []int) ([]models.ProductAttributeValue, error)
	ValuesForInventories(ctx context.Context, inventoryIDs []int) (map[int][]models.ProductAttributeValue, error)
}

// ProductRepository is the product storage.
type ProductRepository interface {
	Filter(ctx context.Context, filter models.ProductFilter) ([]models.Product, int, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
	GetByIDs(ctx context.Context, ids []int) ([]models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product, categoryIDs []int) error
}

// InventoryRepository is the inventory and image storage.
type InventoryRepository interface {
	Create(ctx context.Context, inv *models.ProductInventory, attributeValueIDs []int, units int) (*models.Stock, error)
	GetByIDs(ctx context.Context, ids []int) ([]models.ProductInventory, error)
	ForProducts(ctx context.Context, productIDs []int) ([]models.ProductInventory, error)
	ImagesFor(ctx context.Context, inventoryIDs []int) (map[int][]models.ProductImage, error)
	CreateImage(ctx context.Context, image *models.ProductImage) error
}

// StockRepository is the stock counter storage.
type StockRepository interface {
	GetByInventoryID(ctx context.Context, inventoryID int) (*models.Stock, error)
	ForInventories(ctx context.Context, inventoryIDs []int) (map[int]models.Stock, error)
	SellUnits(ctx context.Context, stockID, quantity int) (*models.Stock, error)
}

// OrderRepository is the order storage.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order, inventoryIDs []int) error
	ListByCustomer(ctx context.Context, customerID, limit, offset int) ([]models.Order, int, error)
	GetForCustomer(ctx context.Context, customerID, id int) (*models.Order, error)
	InventoryIDsFor(ctx context.Context, orderIDs []int) (map[int][]int, error)
}

// UserRepository is the account storage.
type UserRepository interface {
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.UserProfile) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetProfile(ctx context.Context, userID int) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, profile *models.UserProfile) error
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
}

// ResultCache stores computed listings. Implementations report a miss as
// (false, nil).
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// ProductSearcher resolves free text to product ids.
type ProductSearcher interface {
	Search(ctx context.Context, query string) ([]int, error)
}

// ProductIndexer writes product documents to the search index.
type ProductIndexer interface {
	EnsureIndex(ctx context.Context) error
	Index(ctx context.Context, docs []search.ProductDocument) error
}

// ImageStorage stores uploaded image files.
type ImageStorage interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (string, error)
	URL(key string) string
}

// MailQueue accepts messages for asynchronous delivery.
type MailQueue interface {
	Enqueue(msg mailer.Message) bool
}
