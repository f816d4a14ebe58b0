package services

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogEmailService_MasksRecipientAddress(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	emailService := NewLogEmailService("http://localhost:3000", logger)

	err := emailService.SendPasswordResetEmail(context.Background(),
		"shopper@example.com", "some-reset-token", time.Now().Add(1*time.Hour))
	require.NoError(t, err)

	logged := buf.String()
	assert.Contains(t, logged, "s******@*******.com")
	assert.NotContains(t, logged, "shopper@example.com",
		"recipient address must not reach the log unmasked")
}

func TestLogEmailService_IncludesResetLink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	emailService := NewLogEmailService("http://localhost:3000", logger)

	err := emailService.SendPasswordResetEmail(context.Background(),
		"shopper@example.com", "tok123", time.Now().Add(1*time.Hour))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "http://localhost:3000/reset-password?token=tok123")
}
