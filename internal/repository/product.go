package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/actuallystonmai/product-recommendation-service/internal/domain"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) GetProductByID(ctx context.Context, productID int64) (*domain.Product, error) {
	p := &domain.Product{}

	err := r.pool.QueryRow(ctx,
		`SELECT id, title, description, category, price, image_url, created_at
		 FROM products WHERE id = $1`,
		productID,
	).Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.Price, &p.ImageURL, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("query product id=%d: %w", productID, err)
	}

	return p, nil
}
