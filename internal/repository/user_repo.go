package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"coursenova-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Touch records the identity from a verified token, creating the mirror row
// on first sight. An empty email never overwrites a known one.
func (r *UserRepo) Touch(ctx context.Context, id uuid.UUID, email string) (*models.User, error) {
	u := &models.User{}
	query := `INSERT INTO users (id, email)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE
			SET email = COALESCE(NULLIF(EXCLUDED.email, ''), users.email), last_seen_at = NOW()
		RETURNING id, email, full_name, created_at, last_seen_at`

	err := r.pool.QueryRow(ctx, query, id, email).Scan(&u.ID, &u.Email, &u.FullName, &u.CreatedAt, &u.LastSeenAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}
