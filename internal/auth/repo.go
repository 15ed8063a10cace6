package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlas-retail/atlas-retail/internal/shared"
)

// Repository loads API keys from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetActive returns the active key with the given id.
func (r *Repository) GetActive(ctx context.Context, id int64) (*APIKey, error) {
	const query = `
		SELECT id, name, key_hash, role, location_ids, is_active
		FROM api_keys
		WHERE id = $1 AND is_active`

	var key APIKey
	var role string
	err := r.pool.QueryRow(ctx, query, id).Scan(&key.ID, &key.Name, &key.KeyHash, &role, &key.LocationIDs, &key.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidKey
		}
		return nil, err
	}
	key.Role = shared.Role(role)
	return &key, nil
}
