package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"shopper@example.com", "s******@*******.com"},
		{"a@b.io", "a@*.io"},
		{"admin@store.example.net", "a****@*****.*******.net"},
		{"not-an-email", "[invalid-email]"},
		{"", "[invalid-email]"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SanitizedEmail(tt.input), "input %q", tt.input)
	}
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("token=abc123"))
	assert.True(t, SanitizeQueryString("reset_token=xyz"))
	assert.True(t, SanitizeQueryString("email=shopper%40example.com"))
	assert.True(t, SanitizeQueryString("PASSWORD=hunter2"))

	assert.False(t, SanitizeQueryString("limit=50&offset=0"))
	assert.False(t, SanitizeQueryString(""))
}
