package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/storekit/storefront-auth/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUserRepo struct {
	GetByIDFunc func(ctx context.Context, id string) (*models.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func testUser(groups []string, superuser bool) *models.User {
	return &models.User{
		ID:          "user123",
		Email:       "shopper@example.com",
		IsActive:    true,
		IsSuperuser: superuser,
		Groups:      groups,
		DateJoined:  time.Now(),
	}
}

// okHandler records that it ran and echoes the context user ID
func okHandler(t *testing.T, wantUserID string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r)
		require.NotNil(t, user, "user must be in context past the auth guard")
		assert.Equal(t, wantUserID, user.ID)
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_ValidToken(t *testing.T) {
	tm := newTestTokenManager()
	user := testUser([]string{models.GroupCustomer}, false)
	repo := &mockUserRepo{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			assert.Equal(t, "user123", id)
			return user, nil
		},
	}

	token, err := tm.GenerateAccessToken("user123", "shopper@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	RequireAuth(tm, repo)(okHandler(t, "user123")).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_Unauthorized(t *testing.T) {
	tm := newTestTokenManager()
	disabledUser := testUser([]string{models.GroupCustomer}, false)
	disabledUser.IsActive = false

	accessToken, err := tm.GenerateAccessToken("user123", "shopper@example.com")
	require.NoError(t, err)
	refreshToken, err := tm.GenerateRefreshToken("user123", "shopper@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		repo   *mockUserRepo
	}{
		{
			name:   "missing header",
			header: "",
			repo:   &mockUserRepo{},
		},
		{
			name:   "malformed header",
			header: "Basic dXNlcjpwYXNz",
			repo:   &mockUserRepo{},
		},
		{
			name:   "garbage token",
			header: "Bearer not-a-jwt",
			repo:   &mockUserRepo{},
		},
		{
			name:   "refresh token used as access token",
			header: "Bearer " + refreshToken,
			repo:   &mockUserRepo{},
		},
		{
			name:   "valid token for deleted user",
			header: "Bearer " + accessToken,
			repo: &mockUserRepo{
				GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
					return nil, models.ErrNotFound
				},
			},
		},
		{
			name:   "valid token for disabled user",
			header: "Bearer " + accessToken,
			repo: &mockUserRepo{
				GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
					return disabledUser, nil
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handlerRan := false
			RequireAuth(tm, tt.repo)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerRan = true
			})).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.False(t, handlerRan)
		})
	}
}

func TestRoleGuards(t *testing.T) {
	customer := testUser([]string{models.GroupCustomer}, false)
	staff := testUser([]string{models.GroupStaff}, false)
	admin := testUser([]string{models.GroupAdmin}, false)
	superuser := testUser(nil, true)

	tests := []struct {
		name       string
		guard      func(http.Handler) http.Handler
		user       *models.User
		wantStatus int
	}{
		{"admin guard passes admin group", RequireAdmin(), admin, http.StatusOK},
		{"admin guard passes superuser", RequireAdmin(), superuser, http.StatusOK},
		{"admin guard rejects staff", RequireAdmin(), staff, http.StatusForbidden},
		{"admin guard rejects customer", RequireAdmin(), customer, http.StatusForbidden},

		{"staff guard passes staff", RequireStaff(), staff, http.StatusOK},
		{"staff guard passes admin implicitly", RequireStaff(), admin, http.StatusOK},
		{"staff guard passes superuser implicitly", RequireStaff(), superuser, http.StatusOK},
		{"staff guard rejects customer", RequireStaff(), customer, http.StatusForbidden},

		{"customer guard passes customer", RequireCustomer(), customer, http.StatusOK},
		{"customer guard rejects staff", RequireCustomer(), staff, http.StatusForbidden},
		{"customer guard rejects admin", RequireCustomer(), admin, http.StatusForbidden},
		{"customer guard rejects superuser", RequireCustomer(), superuser, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), UserContextKey, tt.user))
			w := httptest.NewRecorder()

			tt.guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRoleGuards_NoUserInContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run without an authenticated user")
	})).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetUserFromContext_Empty(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Nil(t, GetUserFromContext(req))
}
