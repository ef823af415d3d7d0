package servicetest

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/GTDGit/gtd_shop/internal/models"
)

// AddCategory inserts a category under parent, or a root when parent is nil.
func (s *Store) AddCategory(name string, parent *models.Category) models.Category {
	c := models.Category{Name: name, Slug: slug.Make(name), IsActive: true}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	must(s.Categories().Create(context.Background(), &c))
	return c
}

// AddBrand inserts a brand.
func (s *Store) AddBrand(name string) models.Brand {
	b := models.Brand{Name: name}
	must(s.Brands().Create(context.Background(), &b))
	return b
}

// AddAttributeValue inserts an attribute if needed and a value for it.
func (s *Store) AddAttributeValue(attribute, value string) models.ProductAttributeValue {
	ctx := context.Background()
	attrID := 0
	s.mu.Lock()
	for _, a := range s.attributes {
		if a.Name == attribute {
			attrID = a.ID
		}
	}
	s.mu.Unlock()
	if attrID == 0 {
		a := models.ProductAttribute{Name: attribute}
		must(s.Attributes().CreateAttribute(ctx, &a))
		attrID = a.ID
	}
	v := models.ProductAttributeValue{ProductAttributeID: attrID, Value: value}
	must(s.Attributes().CreateValue(ctx, &v))
	return v
}

// AddProduct inserts an active product in the given categories.
func (s *Store) AddProduct(name string, brand models.Brand, categories ...models.Category) models.Product {
	p := models.Product{
		Name:        name,
		Slug:        slug.Make(name),
		Description: name + " description",
		BrandID:     brand.ID,
		IsActive:    true,
	}
	ids := make([]int, 0, len(categories))
	for _, c := range categories {
		ids = append(ids, c.ID)
	}
	must(s.Products().Create(context.Background(), &p, ids))
	return p
}

// AddInventory inserts an inventory row with its stock.
func (s *Store) AddInventory(product models.Product, price string, units int, values ...models.ProductAttributeValue) (models.ProductInventory, models.Stock) {
	inv := models.ProductInventory{
		ProductID: product.ID,
		Code:      fmt.Sprintf("CODE-%d-%d", product.ID, s.peekSeq()),
		Price:     decimal.RequireFromString(price),
	}
	ids := make([]int, 0, len(values))
	for _, v := range values {
		ids = append(ids, v.ID)
	}
	stock, err := s.Inventories().Create(context.Background(), &inv, ids, units)
	must(err)
	return inv, *stock
}

// AddUser inserts an active account with an empty profile.
func (s *Store) AddUser(email, password string) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	must(err)
	u := models.User{Email: email, PasswordHash: string(hash), IsActive: true}
	p := models.UserProfile{FirstName: "Ann", LastName: "Lee"}
	must(s.Users().CreateWithProfile(context.Background(), &u, &p))
	return u
}

func (s *Store) peekSeq() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq + 1
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
