package dto

import "github.com/GTDGit/gtd_shop/internal/models"

// Account is the public part of a user.
type Account struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

// Profile is a user with their shipping details.
type Profile struct {
	User      Account `json:"user"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Address   string  `json:"address"`
	Country   string  `json:"country"`
	City      string  `json:"city"`
	ZipCode   string  `json:"zipCode"`
}

// Token is the login response.
type Token struct {
	Token string `json:"token"`
}

// NewProfile maps a user and profile.
func NewProfile(u models.User, p models.UserProfile) Profile {
	return Profile{
		User:      Account{ID: u.ID, Email: u.Email},
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Address:   p.Address,
		Country:   p.Country,
		City:      p.City,
		ZipCode:   p.ZipCode,
	}
}
