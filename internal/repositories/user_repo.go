package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/storekit/storefront-auth/internal/database"
	"github.com/storekit/storefront-auth/internal/models"
)

type UserRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db, pool: db.Pool}
}

// userSelect returns user columns plus the aggregated group names, so a single
// round trip yields a fully populated model.
const userSelect = `
	SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name,
	       u.is_active, u.is_superuser, u.date_joined, u.last_login,
	       COALESCE(array_agg(g.name ORDER BY g.name) FILTER (WHERE g.name IS NOT NULL), '{}')
	FROM users u
	LEFT JOIN user_groups ug ON ug.user_id = u.id
	LEFT JOIN groups g ON g.id = ug.group_id
`

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var lastLogin *time.Time

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName,
		&user.IsActive, &user.IsSuperuser, &user.DateJoined, &lastLogin,
		&user.Groups,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	user.LastLogin = lastLogin
	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := userSelect + ` WHERE u.id = $1 GROUP BY u.id`
	return scanUserRow(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := userSelect + ` WHERE u.email = $1 GROUP BY u.id`
	return scanUserRow(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := userSelect + ` GROUP BY u.id ORDER BY u.date_joined DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

// Create inserts the user and its initial group membership in one
// transaction, so a failure on either side leaves no partial user behind.
// A concurrent registration racing on the same email loses on the unique
// index and surfaces as ErrConflict.
func (r *UserRepository) Create(ctx context.Context, user *models.User, groupName string) (*models.User, error) {
	user.ID = uuid.New().String()
	user.DateJoined = time.Now()

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO users (id, email, password_hash, first_name, last_name, is_active, is_superuser, date_joined)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		_, err := tx.Exec(ctx, query,
			user.ID, user.Email, user.PasswordHash, user.FirstName, user.LastName,
			user.IsActive, user.IsSuperuser, user.DateJoined,
		)
		if err != nil {
			return database.MapPostgresError(err)
		}

		if groupName != "" {
			membership := `
				INSERT INTO user_groups (user_id, group_id)
				SELECT $1, id FROM groups WHERE name = $2
			`
			tag, err := tx.Exec(ctx, membership, user.ID, groupName)
			if err != nil {
				return database.MapPostgresError(err)
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("group %q does not exist", groupName)
			}
			user.Groups = []string{groupName}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET last_login = $1 WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Deactivate soft-disables a user. Users are never hard-deleted, which keeps
// audit history intact.
func (r *UserRepository) Deactivate(ctx context.Context, id string) error {
	query := `UPDATE users SET is_active = FALSE WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) AddToGroup(ctx context.Context, userID, groupName string) error {
	query := `
		INSERT INTO user_groups (user_id, group_id)
		SELECT $1, id FROM groups WHERE name = $2
		ON CONFLICT (user_id, group_id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, userID, groupName)
	return database.MapPostgresError(err)
}

func (r *UserRepository) RemoveFromGroup(ctx context.Context, userID, groupName string) error {
	query := `
		DELETE FROM user_groups
		WHERE user_id = $1 AND group_id = (SELECT id FROM groups WHERE name = $2)
	`

	_, err := r.pool.Exec(ctx, query, userID, groupName)
	return database.MapPostgresError(err)
}
