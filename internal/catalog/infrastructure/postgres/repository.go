package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/ecobazaar/internal/catalog/domain"
	"github.com/dmehra2102/ecobazaar/pkg/database"
)

const productColumns = `id, seller_id, name, category, price, carbon_footprint, eco_rating, image_url, verified, created_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if database.IsNoRows(err) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, err
}

func (r *Repository) ListByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id`, ids)
}

func (r *Repository) ListBySeller(ctx context.Context, sellerID int64) ([]domain.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE seller_id=$1 ORDER BY id`, sellerID)
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

// ListPendingVerification returns unverified products, oldest submission first.
func (r *Repository) ListPendingVerification(ctx context.Context) ([]domain.Product, error) {
	return r.list(ctx, `SELECT `+productColumns+` FROM products WHERE NOT verified ORDER BY created_at, id`)
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func scanProduct(row pgx.CollectableRow) (domain.Product, error) {
	var p domain.Product
	var rating string
	err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.Category, &p.Price, &p.CarbonFootprint, &rating, &p.ImageURL, &p.Verified, &p.CreatedAt)
	p.EcoRating = domain.EcoRating(rating)
	return p, err
}
