package user

import (
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/validator"
)

// UserResponse represents user data in API responses
type UserResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Image      *string `json:"image,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	Department *string `json:"department,omitempty"`
	Title      *string `json:"title,omitempty"`
	Role       Role    `json:"role"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
}

// ToResponse converts a User entity to its API representation
func (u User) ToResponse() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Image:      u.Image,
		Phone:      u.Phone,
		Department: u.Department,
		Title:      u.Title,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  u.UpdatedAt.Format(time.RFC3339),
	}
}

// ListUsersFilter holds pagination and search for the user table
type ListUsersFilter struct {
	Search *string
	Page   int
	Limit  int
}

// Normalize applies pagination defaults
func (f *ListUsersFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

type ListUsersResponse struct {
	Users      []UserResponse `json:"users"`
	TotalItems int64          `json:"totalItems"`
	Page       int            `json:"page"`
	Limit      int            `json:"limit"`
}

// EditUserRequest is the admin edit form: phone, department, title and role
type EditUserRequest struct {
	ID         string `json:"id"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	Title      string `json:"title"`
	Role       string `json:"role"`
}

func (r *EditUserRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	} else if !validator.IsValidUUID(r.ID) {
		errs.Add("id", "id must be a valid UUID")
	}

	if !validator.MaxLen(r.Phone, 50) {
		errs.Add("phone", "phone must not exceed 50 characters")
	}

	if !validator.MaxLen(r.Department, 255) {
		errs.Add("department", "department must not exceed 255 characters")
	}

	if !validator.MaxLen(r.Title, 255) {
		errs.Add("title", "title must not exceed 255 characters")
	}

	if validator.IsEmpty(r.Role) {
		errs.Add("role", "role is required")
	} else {
		validRoles := make([]string, 0, len(AllRoles()))
		for _, role := range AllRoles() {
			validRoles = append(validRoles, string(role))
		}
		if !validator.IsInSlice(r.Role, validRoles) {
			errs.Add("role", "invalid role")
		}
	}

	return errs.Err()
}
