package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token type markers carried in the "type" claim. An access token is never
// accepted where a refresh token is required, and vice versa.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type TokenClaims struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
