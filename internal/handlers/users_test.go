package handlers

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/storekit/storefront-auth/internal/models"
	"github.com/storekit/storefront-auth/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_Me(t *testing.T) {
	mockService := &MockUserService{
		GetProfileFunc: func(ctx context.Context, userID string) (*services.UserResponse, error) {
			assert.Equal(t, "user123", userID)
			return &services.UserResponse{
				ID:     "user123",
				Email:  "shopper@example.com",
				Role:   models.GroupCustomer,
				Groups: []string{models.GroupCustomer},
			}, nil
		},
	}
	handler := NewUserHandler(mockService)

	req := NewTestRequest(t, "GET", "/api/auth/me", nil)
	req = WithUserContext(req, &models.User{ID: "user123", Email: "shopper@example.com"})
	w := httptest.NewRecorder()

	handler.Me(w, req)

	var resp services.UserResponse
	AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "user123", resp.ID)
	assert.Equal(t, models.GroupCustomer, resp.Role)
}

func TestUserHandler_Me_NoUserInContext(t *testing.T) {
	handler := NewUserHandler(&MockUserService{})

	req := NewTestRequest(t, "GET", "/api/auth/me", nil)
	w := httptest.NewRecorder()

	handler.Me(w, req)

	AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestUserHandler_ListUsers_Pagination(t *testing.T) {
	var gotLimit, gotOffset int

	mockService := &MockUserService{
		ListUsersFunc: func(ctx context.Context, limit, offset int) ([]*services.UserResponse, error) {
			gotLimit, gotOffset = limit, offset
			return []*services.UserResponse{
				{ID: "user1"},
				{ID: "user2"},
			}, nil
		},
	}
	handler := NewUserHandler(mockService)

	req := NewTestRequest(t, "GET", "/api/auth/admin/users?limit=2&offset=4", nil)
	w := httptest.NewRecorder()

	handler.ListUsers(w, req)

	var resp []*services.UserResponse
	AssertJSONResponse(t, w, 200, &resp)
	require.Len(t, resp, 2)
	assert.Equal(t, 2, gotLimit)
	assert.Equal(t, 4, gotOffset)
}

func TestUserHandler_ListUsers_DefaultsOnBadParams(t *testing.T) {
	var gotLimit, gotOffset int

	mockService := &MockUserService{
		ListUsersFunc: func(ctx context.Context, limit, offset int) ([]*services.UserResponse, error) {
			gotLimit, gotOffset = limit, offset
			return nil, nil
		},
	}
	handler := NewUserHandler(mockService)

	req := NewTestRequest(t, "GET", "/api/auth/admin/users?limit=abc&offset=", nil)
	w := httptest.NewRecorder()

	handler.ListUsers(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, 50, gotLimit)
	assert.Equal(t, 0, gotOffset)
}

func TestUserHandler_CustomerProfile(t *testing.T) {
	mockService := &MockUserService{
		GetProfileFunc: func(ctx context.Context, userID string) (*services.UserResponse, error) {
			return &services.UserResponse{ID: userID, Role: models.GroupCustomer}, nil
		},
	}
	handler := NewUserHandler(mockService)

	req := NewTestRequest(t, "GET", "/api/auth/customer/profile", nil)
	req = WithUserContext(req, &models.User{ID: "user123", Groups: []string{models.GroupCustomer}})
	w := httptest.NewRecorder()

	handler.CustomerProfile(w, req)

	var resp services.UserResponse
	AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "user123", resp.ID)
}

func TestUserHandler_StaffProfile(t *testing.T) {
	mockService := &MockUserService{
		GetProfileFunc: func(ctx context.Context, userID string) (*services.UserResponse, error) {
			return &services.UserResponse{ID: userID, Role: models.GroupStaff}, nil
		},
	}
	handler := NewUserHandler(mockService)

	req := NewTestRequest(t, "GET", "/api/auth/staff/profile", nil)
	req = WithUserContext(req, &models.User{ID: "staff123", Groups: []string{models.GroupStaff}})
	w := httptest.NewRecorder()

	handler.StaffProfile(w, req)

	var resp services.UserResponse
	AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "staff123", resp.ID)
}
