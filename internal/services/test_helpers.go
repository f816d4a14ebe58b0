package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/storekit/storefront-auth/internal/auth"
	"github.com/storekit/storefront-auth/internal/models"
	pkgauth "github.com/storekit/storefront-auth/pkg/auth"
	pkglogger "github.com/storekit/storefront-auth/pkg/logger"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc         func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc      func(ctx context.Context, email string) (*models.User, error)
	CreateFunc          func(ctx context.Context, user *models.User, groupName string) (*models.User, error)
	UpdateLastLoginFunc func(ctx context.Context, id string, at time.Time) error
	ListFunc            func(ctx context.Context, limit, offset int) ([]*models.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User, groupName string) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user, groupName)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(ctx, id, at)
	}
	return nil
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

// MockResetTokenRepository implements ResetTokenRepository for testing
type MockResetTokenRepository struct {
	CreateFunc                func(ctx context.Context, userID, token string, expiresAt time.Time) (*models.PasswordResetToken, error)
	ConsumeAndSetPasswordFunc func(ctx context.Context, token, passwordHash string) (string, error)
}

func (m *MockResetTokenRepository) Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.PasswordResetToken, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, token, expiresAt)
	}
	return &models.PasswordResetToken{ID: "reset_123", UserID: userID, Token: token, ExpiresAt: expiresAt}, nil
}

func (m *MockResetTokenRepository) ConsumeAndSetPassword(ctx context.Context, token, passwordHash string) (string, error) {
	if m.ConsumeAndSetPasswordFunc != nil {
		return m.ConsumeAndSetPasswordFunc(ctx, token, passwordHash)
	}
	return "", models.ErrInvalidResetToken
}

// MockRateLimiter implements RateLimiter for testing and records calls
type MockRateLimiter struct {
	AllowFunc     func(ctx context.Context, action, identifier string) bool
	RecordedKeys  []string
	ResetKeys     []string
	AllowedChecks []string
}

func (m *MockRateLimiter) Allow(ctx context.Context, action, identifier string) bool {
	m.AllowedChecks = append(m.AllowedChecks, action+":"+identifier)
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, action, identifier)
	}
	return true
}

func (m *MockRateLimiter) RecordAttempt(ctx context.Context, action, identifier string) {
	m.RecordedKeys = append(m.RecordedKeys, action+":"+identifier)
}

func (m *MockRateLimiter) Reset(ctx context.Context, action, identifier string) {
	m.ResetKeys = append(m.ResetKeys, action+":"+identifier)
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendPasswordResetEmailFunc func(ctx context.Context, email, token string, expiresAt time.Time) error
	SentTo                     []string
	SentTokens                 []string
}

func (m *MockEmailService) SendPasswordResetEmail(ctx context.Context, email, token string, expiresAt time.Time) error {
	m.SentTo = append(m.SentTo, email)
	m.SentTokens = append(m.SentTokens, token)
	if m.SendPasswordResetEmailFunc != nil {
		return m.SendPasswordResetEmailFunc(ctx, email, token, expiresAt)
	}
	return nil
}

// NewTestUser creates a user with a known password hash for the given groups
func NewTestUser(id, email, password string, isSuperuser bool, groups ...string) *models.User {
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		panic(err)
	}
	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		IsActive:     true,
		IsSuperuser:  isSuperuser,
		Groups:       groups,
		DateJoined:   time.Now(),
	}
}

// newTestAuthService wires an AuthService with a real token manager, zero
// timing delay and the given mocks
func newTestAuthService(userRepo *MockUserRepository, resetRepo *MockResetTokenRepository, limiter *MockRateLimiter, email *MockEmailService) *AuthService {
	logger := slog.Default()
	tm := auth.NewTokenManager("test-secret-at-least-16-chars", 15*time.Minute, 7*24*time.Hour)
	timing := auth.NewTimingDelay(auth.TimingConfig{BaseDelayMs: 0, RandomDelayMs: 0})

	if userRepo == nil {
		userRepo = &MockUserRepository{}
	}
	if resetRepo == nil {
		resetRepo = &MockResetTokenRepository{}
	}
	if limiter == nil {
		limiter = &MockRateLimiter{}
	}
	if email == nil {
		email = &MockEmailService{}
	}

	return NewAuthService(
		userRepo,
		resetRepo,
		limiter,
		email,
		tm,
		timing,
		1*time.Hour,
		logger,
		pkglogger.NewAuditLogger(logger),
	)
}
