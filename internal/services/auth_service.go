package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/storekit/storefront-auth/internal/auth"
	"github.com/storekit/storefront-auth/internal/models"
	pkgauth "github.com/storekit/storefront-auth/pkg/auth"
	pkglogger "github.com/storekit/storefront-auth/pkg/logger"
)

// ResetTokenRepository defines the interface for password reset token operations
type ResetTokenRepository interface {
	Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.PasswordResetToken, error)
	ConsumeAndSetPassword(ctx context.Context, token, passwordHash string) (string, error)
}

// RateLimiter defines the interface for attempt throttling
type RateLimiter interface {
	Allow(ctx context.Context, action, identifier string) bool
	RecordAttempt(ctx context.Context, action, identifier string)
	Reset(ctx context.Context, action, identifier string)
}

// Registration role hints. The hint selects the initial group; "admin"
// additionally marks the account as superuser.
const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
	RoleAdmin    = "admin"
)

// TokenPair is the response body for token-issuing operations. Refresh is
// omitted when only a new access token was minted.
type TokenPair struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh,omitempty"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// AuthService handles authentication business logic
type AuthService struct {
	repo          UserRepository
	resetRepo     ResetTokenRepository
	limiter       RateLimiter
	email         EmailService
	tm            *auth.TokenManager
	timing        *auth.TimingDelay
	resetTokenTTL time.Duration
	logger        *slog.Logger
	auditLogger   *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	repo UserRepository,
	resetRepo ResetTokenRepository,
	limiter RateLimiter,
	email EmailService,
	tm *auth.TokenManager,
	timing *auth.TimingDelay,
	resetTokenTTL time.Duration,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	return &AuthService{
		repo:          repo,
		resetRepo:     resetRepo,
		limiter:       limiter,
		email:         email,
		tm:            tm,
		timing:        timing,
		resetTokenTTL: resetTokenTTL,
		logger:        logger,
		auditLogger:   auditLogger,
	}
}

// NormalizeEmail lowercases and trims an email address. Every path that
// stores or looks up an email goes through this, so the same address always
// hits the same row.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) tokenPair(user *models.User) (*TokenPair, error) {
	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := s.tm.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &TokenPair{
		Access:    accessToken,
		Refresh:   refreshToken,
		TokenType: "Bearer",
		ExpiresIn: int(s.tm.AccessTokenExpiry().Seconds()),
	}, nil
}

// Register creates a new account and returns an initial token pair. The role
// hint picks the starting group; "admin" also grants superuser status.
func (s *AuthService) Register(ctx context.Context, email, password, firstName, lastName, role string) (*TokenPair, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", models.ErrBadRequest)
	}

	if role == "" {
		role = RoleCustomer
	}

	var groupName string
	var isSuperuser bool
	switch role {
	case RoleCustomer:
		groupName = models.GroupCustomer
	case RoleStaff:
		groupName = models.GroupStaff
	case RoleAdmin:
		groupName = models.GroupAdmin
		isSuperuser = true
	default:
		return nil, fmt.Errorf("invalid role %q: %w", role, models.ErrBadRequest)
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), models.ErrBadRequest)
	}

	passwordHash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user := &models.User{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		IsActive:     true,
		IsSuperuser:  isSuperuser,
	}

	created, err := s.repo.Create(ctx, user, groupName)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			s.logger.Info("registration rejected: email already in use")
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered",
		slog.String("user_id", created.ID),
		slog.String("role", role))
	s.auditLogger.LogAccountAction("user_registered", created.ID, map[string]string{
		"role": role,
	})

	return s.tokenPair(created)
}

// Login authenticates a user and returns a token pair. The limiter is
// consulted before any credential work, so a locked-out email never learns
// whether its password was right. Unknown email, wrong password and a
// disabled account all fail with the same error and the same latency.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress string) (*TokenPair, error) {
	start := time.Now()
	email = NormalizeEmail(email)
	if email == "" {
		return nil, models.ErrInvalidCredentials
	}

	if !s.limiter.Allow(ctx, ActionLogin, email) {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_blocked",
			IPAddress:     ipAddress,
			FailureReason: "rate_limited",
			Success:       false,
		})
		return nil, models.ErrRateLimitExceeded
	}

	fail := func(userID, reason string) (*TokenPair, error) {
		s.limiter.RecordAttempt(ctx, ActionLogin, email)
		s.logger.Info("login failed: invalid credentials")
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        userID,
			IPAddress:     ipAddress,
			FailureReason: reason,
			Success:       false,
		})
		s.timing.WaitFrom(start)
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fail("", "unknown_email")
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.IsActive {
		return fail(user.ID, "account_disabled")
	}

	if err := pkgauth.ComparePassword(user.PasswordHash, password); err != nil {
		return fail(user.ID, "invalid_credentials")
	}

	s.limiter.Reset(ctx, ActionLogin, email)

	if err := s.repo.UpdateLastLogin(ctx, user.ID, time.Now()); err != nil {
		// Not worth failing the login over
		s.logger.Warn("failed to update last login", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return s.tokenPair(user)
}

// Refresh mints a new access token from a valid refresh token. The refresh
// token is not rotated; it stays valid until its own expiry. The user is
// re-fetched so a deactivated account stops refreshing immediately.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken = strings.TrimSpace(refreshToken); refreshToken == "" {
		return nil, models.ErrUnauthorized
	}

	claims, err := s.tm.ValidateToken(refreshToken, models.TokenTypeRefresh)
	if err != nil {
		s.logger.Info("refresh token validation failed", slog.Any("error", err))
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found for token refresh", slog.String("user_id", claims.UserID))
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for token refresh", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.IsActive {
		s.logger.Info("refresh blocked for disabled account", slog.String("user_id", user.ID))
		return nil, models.ErrUnauthorized
	}

	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &TokenPair{
		Access:    accessToken,
		TokenType: "Bearer",
		ExpiresIn: int(s.tm.AccessTokenExpiry().Seconds()),
	}, nil
}

// RequestPasswordReset starts the reset flow. Apart from the rate limit, it
// behaves identically whether or not the email maps to an account: same nil
// result, same latency class. The handler returns the same generic message
// either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	start := time.Now()
	email = NormalizeEmail(email)
	if email == "" {
		return fmt.Errorf("email is required: %w", models.ErrBadRequest)
	}

	if !s.limiter.Allow(ctx, ActionPasswordReset, email) {
		s.auditLogger.LogPasswordReset("reset_request_blocked", "", false)
		return models.ErrRateLimitExceeded
	}
	s.limiter.RecordAttempt(ctx, ActionPasswordReset, email)

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to get user for password reset", slog.Any("error", err))
		}
		s.auditLogger.LogPasswordReset("reset_requested", "", false)
		s.timing.WaitFrom(start)
		return nil
	}

	if !user.IsActive {
		s.auditLogger.LogPasswordReset("reset_requested", user.ID, false)
		s.timing.WaitFrom(start)
		return nil
	}

	token, err := pkgauth.GenerateResetToken()
	if err != nil {
		s.logger.Error("failed to generate reset token", slog.Any("error", err))
		s.timing.WaitFrom(start)
		return nil
	}

	expiresAt := time.Now().Add(s.resetTokenTTL)
	if _, err := s.resetRepo.Create(ctx, user.ID, token, expiresAt); err != nil {
		s.logger.Error("failed to store reset token", slog.String("user_id", user.ID), slog.Any("error", err))
		s.timing.WaitFrom(start)
		return nil
	}

	if err := s.email.SendPasswordResetEmail(ctx, user.Email, token, expiresAt); err != nil {
		// Already logged by the email service; the response stays generic
		s.auditLogger.LogPasswordReset("reset_email_failed", user.ID, false)
		s.timing.WaitFrom(start)
		return nil
	}

	s.auditLogger.LogPasswordReset("reset_requested", user.ID, true)
	s.timing.WaitFrom(start)
	return nil
}

// ConfirmPasswordReset validates the new password and atomically consumes
// the token. A token that is unknown, expired or already used fails with
// ErrInvalidResetToken; exactly one of two racing confirms can win.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if token = strings.TrimSpace(token); token == "" {
		return models.ErrInvalidResetToken
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%s: %w", err.Error(), models.ErrBadRequest)
	}

	passwordHash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	userID, err := s.resetRepo.ConsumeAndSetPassword(ctx, token, passwordHash)
	if err != nil {
		if errors.Is(err, models.ErrInvalidResetToken) {
			s.auditLogger.LogPasswordReset("reset_confirm_failed", "", false)
			return models.ErrInvalidResetToken
		}
		s.logger.Error("failed to consume reset token", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password reset completed", slog.String("user_id", userID))
	s.auditLogger.LogPasswordReset("reset_completed", userID, true)
	return nil
}
