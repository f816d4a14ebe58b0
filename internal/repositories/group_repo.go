package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/storekit/storefront-auth/internal/database"
)

type GroupRepository struct {
	pool *pgxpool.Pool
}

func NewGroupRepository(db *database.DB) *GroupRepository {
	return &GroupRepository{pool: db.Pool}
}

// EnsureGroups creates any missing groups by name. The operation is
// idempotent and safe to run on every deployment.
func (r *GroupRepository) EnsureGroups(ctx context.Context, names ...string) error {
	query := `INSERT INTO groups (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`

	for _, name := range names {
		if _, err := r.pool.Exec(ctx, query, uuid.New().String(), name); err != nil {
			return fmt.Errorf("failed to ensure group %q: %w", name, database.MapPostgresError(err))
		}
	}

	return nil
}

func (r *GroupRepository) GetIDByName(ctx context.Context, name string) (string, error) {
	query := `SELECT id FROM groups WHERE name = $1`

	var id string
	if err := r.pool.QueryRow(ctx, query, name).Scan(&id); err != nil {
		return "", database.MapPostgresError(err)
	}
	return id, nil
}

func (r *GroupRepository) ListNames(ctx context.Context) ([]string, error) {
	query := `SELECT name FROM groups ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, database.MapPostgresError(err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return names, nil
}
