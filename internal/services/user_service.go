package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskboard/taskboard/internal/models"
	"github.com/taskboard/taskboard/internal/repository"
	"gorm.io/gorm"
)

// UserService handles user business logic.
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService creates a new UserService
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// CreateUserInput represents input for creating a user explicitly.
type CreateUserInput struct {
	FullName  string
	Email     string
	Telephone string
}

// CreateUser upserts by email so repeated creates converge on one row.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error) {
	user, err := s.userRepo.UpsertByEmail(ctx, &models.User{
		FullName:  input.FullName,
		Email:     input.Email,
		Telephone: input.Telephone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUser returns a user by id
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// GetUserByEmail returns a user by email (normalized before lookup)
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// ListUsers returns users matching an optional substring search
func (s *UserService) ListUsers(ctx context.Context, search string, page, pageSize int) ([]models.User, int64, error) {
	users, total, err := s.userRepo.List(ctx, search, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}
