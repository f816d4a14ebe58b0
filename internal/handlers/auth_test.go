package handlers

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/storekit/storefront-auth/internal/models"
	"github.com/storekit/storefront-auth/internal/services"
	"github.com/stretchr/testify/assert"
)

func testTokenPair() *services.TokenPair {
	return &services.TokenPair{
		Access:    "access-token",
		Refresh:   "refresh-token",
		TokenType: "Bearer",
		ExpiresIn: 900,
	}
}

func TestAuthHandler_Register_Created(t *testing.T) {
	mockService := &MockAuthService{
		RegisterFunc: func(ctx context.Context, email, password, firstName, lastName, role string) (*services.TokenPair, error) {
			assert.Equal(t, "shopper@example.com", email)
			assert.Equal(t, "customer", role)
			return testTokenPair(), nil
		},
	}
	handler := NewAuthHandler(mockService, nil)

	req := NewTestRequest(t, "POST", "/api/auth/register", RegisterRequest{
		Email:    "shopper@example.com",
		Password: "pass1234",
		Role:     "customer",
	})
	w := httptest.NewRecorder()

	handler.Register(w, req)

	var resp services.TokenPair
	AssertJSONResponse(t, w, 201, &resp)
	assert.Equal(t, "access-token", resp.Access)
	assert.Equal(t, "refresh-token", resp.Refresh)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 900, resp.ExpiresIn)
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	mockService := &MockAuthService{
		RegisterFunc: func(ctx context.Context, email, password, firstName, lastName, role string) (*services.TokenPair, error) {
			return nil, models.ErrConflict
		},
	}
	handler := NewAuthHandler(mockService, nil)

	req := NewTestRequest(t, "POST", "/api/auth/register", RegisterRequest{
		Email:    "taken@example.com",
		Password: "pass1234",
	})
	w := httptest.NewRecorder()

	handler.Register(w, req)

	AssertErrorResponse(t, w, 400, "bad_request")
}

func TestAuthHandler_Register_ValidationFailures(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{}, nil)

	tests := []struct {
		name string
		body RegisterRequest
	}{
		{"missing email", RegisterRequest{Password: "pass1234"}},
		{"bad email", RegisterRequest{Email: "not-an-email", Password: "pass1234"}},
		{"missing password", RegisterRequest{Email: "shopper@example.com"}},
		{"bad role", RegisterRequest{Email: "shopper@example.com", Password: "pass1234", Role: "root"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewTestRequest(t, "POST", "/api/auth/register", tt.body)
			w := httptest.NewRecorder()

			handler.Register(w, req)

			AssertErrorResponse(t, w, 400, "bad_request")
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	mockService := &MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress string) (*services.TokenPair, error) {
			return testTokenPair(), nil
		},
	}
	handler := NewAuthHandler(mockService, nil)

	req := NewTestRequest(t, "POST", "/api/auth/login", LoginRequest{
		Email:    "shopper@example.com",
		Password: "pass1234",
	})
	w := httptest.NewRecorder()

	handler.Login(w, req)

	var resp services.TokenPair
	AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "access-token", resp.Access)
}

func TestAuthHandler_Login_InvalidCredentialBodiesAreIdentical(t *testing.T) {
	// The service collapses unknown email, wrong password and disabled
	// account into one error; the handler must emit one body for all three
	handler := NewAuthHandler(&MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress string) (*services.TokenPair, error) {
			return nil, models.ErrInvalidCredentials
		},
	}, nil)

	bodies := make(map[string]bool)
	for _, creds := range []LoginRequest{
		{Email: "nobody@example.com", Password: "pass1234"},
		{Email: "known@example.com", Password: "wrong-password"},
	} {
		req := NewTestRequest(t, "POST", "/api/auth/login", creds)
		w := httptest.NewRecorder()

		handler.Login(w, req)

		assert.Equal(t, 400, w.Code)
		bodies[w.Body.String()] = true
	}

	assert.Len(t, bodies, 1, "all credential failures must produce a byte-identical body")
}

func TestAuthHandler_Login_RateLimited(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{
		LoginFunc: func(ctx context.Context, email, password, ipAddress string) (*services.TokenPair, error) {
			return nil, models.ErrRateLimitExceeded
		},
	}, nil)

	req := NewTestRequest(t, "POST", "/api/auth/login", LoginRequest{
		Email:    "busy@example.com",
		Password: "pass1234",
	})
	w := httptest.NewRecorder()

	handler.Login(w, req)

	AssertErrorResponse(t, w, 429, "rate_limit_exceeded")
}

func TestAuthHandler_Refresh_Success(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
			assert.Equal(t, "refresh-token", refreshToken)
			return &services.TokenPair{Access: "new-access", TokenType: "Bearer", ExpiresIn: 900}, nil
		},
	}, nil)

	req := NewTestRequest(t, "POST", "/api/auth/refresh", RefreshRequest{Refresh: "refresh-token"})
	w := httptest.NewRecorder()

	handler.Refresh(w, req)

	var resp map[string]interface{}
	AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "new-access", resp["access"])
	assert.NotContains(t, resp, "refresh", "refresh is omitted when not rotated")
}

func TestAuthHandler_Refresh_Invalid(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{
		RefreshFunc: func(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
			return nil, models.ErrUnauthorized
		},
	}, nil)

	req := NewTestRequest(t, "POST", "/api/auth/refresh", RefreshRequest{Refresh: "stale"})
	w := httptest.NewRecorder()

	handler.Refresh(w, req)

	AssertErrorResponse(t, w, 401, "unauthorized")
}

func TestAuthHandler_RequestPasswordReset_GenericBody(t *testing.T) {
	// Known and unknown emails get the same 200 body
	handler := NewAuthHandler(&MockAuthService{
		RequestPasswordResetFunc: func(ctx context.Context, email string) error {
			return nil
		},
	}, nil)

	bodies := make(map[string]bool)
	for _, email := range []string{"known@example.com", "nobody@example.com"} {
		req := NewTestRequest(t, "POST", "/api/auth/password-reset/request", PasswordResetRequest{Email: email})
		w := httptest.NewRecorder()

		handler.RequestPasswordReset(w, req)

		var resp MessageResponse
		AssertJSONResponse(t, w, 200, &resp)
		bodies[w.Body.String()] = true
	}

	assert.Len(t, bodies, 1)
}

func TestAuthHandler_RequestPasswordReset_RateLimited(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{
		RequestPasswordResetFunc: func(ctx context.Context, email string) error {
			return models.ErrRateLimitExceeded
		},
	}, nil)

	req := NewTestRequest(t, "POST", "/api/auth/password-reset/request", PasswordResetRequest{Email: "busy@example.com"})
	w := httptest.NewRecorder()

	handler.RequestPasswordReset(w, req)

	AssertErrorResponse(t, w, 429, "rate_limit_exceeded")
}

func TestAuthHandler_ConfirmPasswordReset_Success(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{
		ConfirmPasswordResetFunc: func(ctx context.Context, token, newPassword string) error {
			assert.Equal(t, "valid-token", token)
			assert.Equal(t, "newpass99", newPassword)
			return nil
		},
	}, nil)

	req := NewTestRequest(t, "POST", "/api/auth/password-reset/confirm", PasswordResetConfirmRequest{
		Token:       "valid-token",
		NewPassword: "newpass99",
	})
	w := httptest.NewRecorder()

	handler.ConfirmPasswordReset(w, req)

	var resp MessageResponse
	AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "Password has been reset successfully.", resp.Message)
}

func TestAuthHandler_ConfirmPasswordReset_InvalidToken(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{}, nil)

	req := NewTestRequest(t, "POST", "/api/auth/password-reset/confirm", PasswordResetConfirmRequest{
		Token:       "used-or-expired",
		NewPassword: "newpass99",
	})
	w := httptest.NewRecorder()

	handler.ConfirmPasswordReset(w, req)

	AssertErrorResponse(t, w, 400, "bad_request")
}

func TestAuthHandler_Logout(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{}, nil)

	req := NewTestRequest(t, "POST", "/api/auth/logout", nil)
	w := httptest.NewRecorder()

	handler.Logout(w, req)

	var resp MessageResponse
	AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "Successfully logged out.", resp.Message)
}

func TestAuthHandler_InvalidJSONBody(t *testing.T) {
	handler := NewAuthHandler(&MockAuthService{}, nil)

	req := httptest.NewRequest("POST", "/api/auth/login", nil)
	w := httptest.NewRecorder()

	handler.Login(w, req)

	AssertErrorResponse(t, w, 400, "bad_request")
}
