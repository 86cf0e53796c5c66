package seeds

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/actuallystonmai/product-recommendation-service/internal/logging"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Setup truncates the PostgreSQL tables and inserts ds with multi-row
// INSERTs.
func Setup(ctx context.Context, pool *pgxpool.Pool, ds *Dataset) error {
	log := logging.With().Str("component", "seed").Logger()

	// Truncate existing data before insert
	log.Info().Msg("truncating existing data")
	if _, err := pool.Exec(ctx, `
		TRUNCATE ratings, products, users RESTART IDENTITY CASCADE
	`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	log.Info().Int("count", len(ds.Users)).Msg("inserting users")
	if err := insertUsers(ctx, pool, ds); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	log.Info().Int("count", len(ds.Products)).Msg("inserting products")
	if err := insertProducts(ctx, pool, ds); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}

	log.Info().Int("count", len(ds.Ratings)).Msg("inserting ratings")
	if err := insertRatings(ctx, pool, ds); err != nil {
		return fmt.Errorf("seed ratings: %w", err)
	}

	// Explicit ids leave the sequences behind.
	if _, err := pool.Exec(ctx, `
		SELECT setval(pg_get_serial_sequence('users', 'id'), COALESCE(MAX(id), 1)) FROM users;
	`); err != nil {
		return fmt.Errorf("reset users sequence: %w", err)
	}
	if _, err := pool.Exec(ctx, `
		SELECT setval(pg_get_serial_sequence('products', 'id'), COALESCE(MAX(id), 1)) FROM products;
	`); err != nil {
		return fmt.Errorf("reset products sequence: %w", err)
	}

	log.Info().Msg("seeding complete")
	return nil
}

func insertUsers(ctx context.Context, pool *pgxpool.Pool, ds *Dataset) error {
	rows := []string{}
	args := []any{}

	for _, u := range ds.Users {
		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, u.ID, u.Name, u.Email, u.Role, u.Status, u.CreatedAt)
	}

	if len(rows) == 0 {
		return nil
	}

	query := "INSERT INTO users (id, name, email, role, status, created_at) VALUES " +
		strings.Join(rows, ", ")

	_, err := pool.Exec(ctx, query, args...)
	return err
}

func insertProducts(ctx context.Context, pool *pgxpool.Pool, ds *Dataset) error {
	rows := []string{}
	args := []any{}

	for _, p := range ds.Products {
		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, p.ID, p.Title, p.Description, p.Category, p.Price, p.ImageURL, p.CreatedAt)
	}

	if len(rows) == 0 {
		return nil
	}

	query := "INSERT INTO products (id, title, description, category, price, image_url, created_at) VALUES " +
		strings.Join(rows, ", ")

	_, err := pool.Exec(ctx, query, args...)
	return err
}

func insertRatings(ctx context.Context, pool *pgxpool.Pool, ds *Dataset) error {
	rows := []string{}
	args := []any{}
	now := time.Now().UTC()

	for _, r := range ds.Ratings {
		base := len(args)
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7))
		args = append(args, uuid.NewString(), r.UserID, r.ProductID, r.Score, r.Review, now, now)
	}

	if len(rows) == 0 {
		return nil
	}

	query := "INSERT INTO ratings (id, user_id, product_id, rating, review, created_at, updated_at) VALUES " +
		strings.Join(rows, ", ")

	_, err := pool.Exec(ctx, query, args...)
	return err
}
