package models

import "time"

// User is an account able to log in and place orders.
type User struct {
	ID           int       `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	IsStaff      bool      `db:"is_staff" json:"isStaff"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// UserProfile holds the shipping details of a user.
type UserProfile struct {
	UserID    int    `db:"user_id" json:"userId"`
	FirstName string `db:"first_name" json:"firstName"`
	LastName  string `db:"last_name" json:"lastName"`
	Address   string `db:"address" json:"address"`
	Country   string `db:"country" json:"country"`
	City      string `db:"city" json:"city"`
	ZipCode   string `db:"zip_code" json:"zipCode"`
}
