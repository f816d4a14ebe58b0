package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/storekit/storefront-auth/internal/models"
)

// UserRepository defines the interface for user database operations
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User, groupName string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Role        string   `json:"role"`
	Groups      []string `json:"groups"`
	IsActive    bool     `json:"is_active"`
	IsSuperuser bool     `json:"is_superuser"`
	DateJoined  string   `json:"date_joined"`
	LastLogin   *string  `json:"last_login"`
}

func userModelToResponse(user *models.User) *UserResponse {
	groups := user.Groups
	if groups == nil {
		groups = []string{}
	}

	var lastLogin *string
	if user.LastLogin != nil {
		formatted := user.LastLogin.UTC().Format(time.RFC3339)
		lastLogin = &formatted
	}

	return &UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Role:        user.RoleDisplay(),
		Groups:      groups,
		IsActive:    user.IsActive,
		IsSuperuser: user.IsSuperuser,
		DateJoined:  user.DateJoined.UTC().Format(time.RFC3339),
		LastLogin:   lastLogin,
	}
}

// UserService handles user profile business logic
type UserService struct {
	repo   UserRepository
	logger *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// GetProfile returns the profile of the given user
func (s *UserService) GetProfile(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user profile", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return userModelToResponse(user), nil
}

// ListUsers returns a page of users, newest first. Admin only; the guard is
// enforced at the routing layer.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]*UserResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	responses := make([]*UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, userModelToResponse(user))
	}

	return responses, nil
}
