package dto

import (
	"mime/multipart"

	"github.com/yukikurage/taskboard-web/internal/models"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,allowedtld"`
	Password string `json:"password" binding:"required,password"`
}

// SignupRequest is bound from a multipart form so the profile image can be uploaded.
type SignupRequest struct {
	Username string                `form:"username" binding:"required,min=3,max=30,lettersspaces"`
	Email    string                `form:"email" binding:"required,email,allowedtld"`
	Password string                `form:"password" binding:"required,password"`
	Address  string                `form:"address" binding:"required,min=5,max=100"`
	Country  string                `form:"country" binding:"required,min=2,max=50"`
	City     string                `form:"city" binding:"required,min=2,max=50"`
	Image    *multipart.FileHeader `form:"image"`
}

func (r SignupRequest) Signup() models.Signup {
	return models.Signup{
		Username: r.Username,
		Email:    r.Email,
		Password: r.Password,
		Address:  r.Address,
		Country:  r.Country,
		City:     r.City,
		Image:    r.Image,
	}
}

// ProfileRequest updates the editable profile fields; empty fields are kept.
type ProfileRequest struct {
	Username string `json:"username" binding:"omitempty,min=3,max=30,lettersspaces"`
	Address  string `json:"address" binding:"omitempty,min=5,max=100"`
	Country  string `json:"country" binding:"omitempty,min=2,max=50"`
	City     string `json:"city" binding:"omitempty,min=2,max=50"`
}

func (r ProfileRequest) ProfileUpdate() models.ProfileUpdate {
	return models.ProfileUpdate{
		Username: r.Username,
		Address:  r.Address,
		Country:  r.Country,
		City:     r.City,
	}
}

// UserDTO is the profile shown to the signed-in user.
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
	Address  string `json:"address,omitempty"`
	Country  string `json:"country,omitempty"`
	City     string `json:"city,omitempty"`
	Image    string `json:"image,omitempty"`
}

func ToUserDTO(u models.User) UserDTO {
	return UserDTO{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Address:  u.Address,
		Country:  u.Country,
		City:     u.City,
		Image:    u.Image,
	}
}

// AdminDashboard holds one page of each admin table.
type AdminDashboard struct {
	Users    Page[UserDTO]        `json:"users"`
	Products Page[models.Product] `json:"products"`
}

// Page is one page of a table.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}
