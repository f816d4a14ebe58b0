package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/storekit/storefront-auth/internal/auth"
	"github.com/storekit/storefront-auth/internal/models"
	"github.com/storekit/storefront-auth/internal/services"
	pkghttp "github.com/storekit/storefront-auth/pkg/http"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithUserContext adds an authenticated user to the request context
func WithUserContext(req *http.Request, user *models.User) *http.Request {
	ctx := context.WithValue(req.Context(), auth.UserContextKey, user)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	contentType := w.Header().Get("Content-Type")
	assert.Equal(t, "application/json", contentType, "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc             func(ctx context.Context, email, password, firstName, lastName, role string) (*services.TokenPair, error)
	LoginFunc                func(ctx context.Context, email, password, ipAddress string) (*services.TokenPair, error)
	RefreshFunc              func(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	RequestPasswordResetFunc func(ctx context.Context, email string) error
	ConfirmPasswordResetFunc func(ctx context.Context, token, newPassword string) error
}

func (m *MockAuthService) Register(ctx context.Context, email, password, firstName, lastName, role string) (*services.TokenPair, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrInternalServer
	}
	return m.RegisterFunc(ctx, email, password, firstName, lastName, role)
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ipAddress string) (*services.TokenPair, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.LoginFunc(ctx, email, password, ipAddress)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	if m.RefreshFunc == nil {
		return nil, models.ErrUnauthorized
	}
	return m.RefreshFunc(ctx, refreshToken)
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if m.RequestPasswordResetFunc == nil {
		return nil
	}
	return m.RequestPasswordResetFunc(ctx, email)
}

func (m *MockAuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if m.ConfirmPasswordResetFunc == nil {
		return models.ErrInvalidResetToken
	}
	return m.ConfirmPasswordResetFunc(ctx, token, newPassword)
}

// MockUserService implements UserServiceInterface for testing
type MockUserService struct {
	GetProfileFunc func(ctx context.Context, userID string) (*services.UserResponse, error)
	ListUsersFunc  func(ctx context.Context, limit, offset int) ([]*services.UserResponse, error)
}

func (m *MockUserService) GetProfile(ctx context.Context, userID string) (*services.UserResponse, error) {
	if m.GetProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetProfileFunc(ctx, userID)
}

func (m *MockUserService) ListUsers(ctx context.Context, limit, offset int) ([]*services.UserResponse, error) {
	if m.ListUsersFunc == nil {
		return []*services.UserResponse{}, nil
	}
	return m.ListUsersFunc(ctx, limit, offset)
}
