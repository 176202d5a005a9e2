package models

import (
	"mime/multipart"
	"time"
)

type User struct {
	ID        string     `json:"_id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role,omitempty"`
	Address   string     `json:"address,omitempty"`
	Country   string     `json:"country,omitempty"`
	City      string     `json:"city,omitempty"`
	Image     string     `json:"image,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Product is a row of the admin products table.
type Product struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Stock    int     `json:"stock"`
}

// Signup carries the account fields posted as a multipart form.
type Signup struct {
	Username string
	Email    string
	Password string
	Address  string
	Country  string
	City     string
	Image    *multipart.FileHeader
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Username string `json:"username"`
	Address  string `json:"address"`
	Country  string `json:"country"`
	City     string `json:"city"`
}
