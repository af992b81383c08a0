package dto

import (
	"time"

	"github.com/taskboard/taskboard/internal/models"
)

// UserCreateRequest is the body of POST /users.
type UserCreateRequest struct {
	FullName  string `json:"fullName" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Telephone string `json:"telephone"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Telephone string    `json:"telephone"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserListResponse is a paginated list of users
type UserListResponse struct {
	Items      []UserResponse `json:"items"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int            `json:"totalPages"`
}

// ToUserResponse converts a User model to UserResponse
func ToUserResponse(user models.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		Telephone: user.Telephone,
		CreatedAt: user.CreatedAt,
	}
}

// ToUserListResponse converts users to a paginated response
func ToUserListResponse(users []models.User, page, pageSize int, totalItems int64) UserListResponse {
	items := make([]UserResponse, len(users))
	for i, u := range users {
		items[i] = ToUserResponse(u)
	}

	return UserListResponse{
		Items:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages(totalItems, pageSize),
	}
}

func totalPages(totalItems int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	pages := int(totalItems) / pageSize
	if int(totalItems)%pageSize > 0 {
		pages++
	}
	return pages
}
