package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/storekit/storefront-auth/internal/database"
	"github.com/storekit/storefront-auth/internal/models"
)

type ResetTokenRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewResetTokenRepository(db *database.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db, pool: db.Pool}
}

func (r *ResetTokenRepository) Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.PasswordResetToken, error) {
	reset := &models.PasswordResetToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     token,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}

	query := `
		INSERT INTO password_reset_tokens (id, user_id, token, created_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`

	_, err := r.pool.Exec(ctx, query, reset.ID, reset.UserID, reset.Token, reset.CreatedAt, reset.ExpiresAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return reset, nil
}

func (r *ResetTokenRepository) GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	query := `
		SELECT id, user_id, token, created_at, expires_at, used
		FROM password_reset_tokens WHERE token = $1
	`

	var reset models.PasswordResetToken
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&reset.ID, &reset.UserID, &reset.Token, &reset.CreatedAt, &reset.ExpiresAt, &reset.Used,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &reset, nil
}

// ConsumeAndSetPassword marks the token used and updates the owning user's
// password hash in one transaction. The consume step is a single guarded
// UPDATE, so two confirms racing on the same token produce exactly one
// winner; the loser sees ErrInvalidResetToken. Any other still-live tokens
// for the same user are invalidated in the same transaction to limit the
// blast radius of a leaked token.
func (r *ResetTokenRepository) ConsumeAndSetPassword(ctx context.Context, token, passwordHash string) (string, error) {
	var userID string

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		consume := `
			UPDATE password_reset_tokens
			SET used = TRUE
			WHERE token = $1 AND used = FALSE AND expires_at > now()
			RETURNING user_id
		`
		if err := tx.QueryRow(ctx, consume, token).Scan(&userID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrInvalidResetToken
			}
			return database.MapPostgresError(err)
		}

		invalidateOthers := `
			UPDATE password_reset_tokens
			SET used = TRUE
			WHERE user_id = $1 AND used = FALSE
		`
		if _, err := tx.Exec(ctx, invalidateOthers, userID); err != nil {
			return database.MapPostgresError(err)
		}

		setPassword := `UPDATE users SET password_hash = $1 WHERE id = $2 AND is_active = TRUE`
		tag, err := tx.Exec(ctx, setPassword, passwordHash, userID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if tag.RowsAffected() == 0 {
			return models.ErrInvalidResetToken
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return userID, nil
}

// DeleteExpired removes tokens past their expiry. Called periodically by the
// background cleanup manager.
func (r *ResetTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM password_reset_tokens WHERE expires_at < now()`

	tag, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return tag.RowsAffected(), nil
}
