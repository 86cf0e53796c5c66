package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the PostgreSQL-backed rating store.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Ping connectivity
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
