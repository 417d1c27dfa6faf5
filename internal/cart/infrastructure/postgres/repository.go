package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/ecobazaar/internal/cart/domain"
	catalog "github.com/dmehra2102/ecobazaar/internal/catalog/domain"
	identity "github.com/dmehra2102/ecobazaar/internal/identity/domain"
	"github.com/dmehra2102/ecobazaar/pkg/database"
)

const itemQuery = `
	SELECT ci.id, ci.quantity, ci.added_at,
	       p.id, p.seller_id, p.name, p.category, p.price, p.carbon_footprint, p.eco_rating, p.image_url, p.verified, p.created_at
	FROM cart_items ci
	JOIN carts c ON c.id = ci.cart_id
	JOIN products p ON p.id = ci.product_id`

// querier is the read surface shared by the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// Get returns the user's cart, creating an empty one on first access.
func (r *Repository) Get(ctx context.Context, userID int64) (domain.Cart, error) {
	c := domain.Cart{UserID: userID}
	id, updated, err := ensureCart(ctx, r.pool, userID)
	if err != nil {
		return domain.Cart{}, err
	}
	c.ID, c.UpdatedAt = id, updated

	rows, err := r.pool.Query(ctx, itemQuery+` WHERE c.user_id=$1 ORDER BY ci.id`, userID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("list cart items: %w", err)
	}
	c.Items, err = pgx.CollectRows(rows, scanItem)
	if err != nil {
		return domain.Cart{}, err
	}
	return c, nil
}

func (r *Repository) SetQuantity(ctx context.Context, userID, productID int64, quantity int) (domain.CartItem, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.CartItem{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	cartID, _, err := ensureCart(ctx, tx, userID)
	if err != nil {
		return domain.CartItem{}, err
	}
	var itemID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity, added_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING id`, cartID, productID, quantity).Scan(&itemID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return domain.CartItem{}, catalog.ErrProductNotFound
		}
		return domain.CartItem{}, fmt.Errorf("upsert cart item: %w", err)
	}
	if err := touch(ctx, tx, cartID); err != nil {
		return domain.CartItem{}, err
	}
	item, err := getItem(ctx, tx, userID, itemID)
	if err != nil {
		return domain.CartItem{}, err
	}
	return item, tx.Commit(ctx)
}

func (r *Repository) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (domain.CartItem, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.CartItem{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var cartID int64
	err = tx.QueryRow(ctx, `
		UPDATE cart_items ci SET quantity=$3
		FROM carts c
		WHERE ci.cart_id = c.id AND c.user_id=$1 AND ci.id=$2
		RETURNING c.id`, userID, itemID, quantity).Scan(&cartID)
	if database.IsNoRows(err) {
		return domain.CartItem{}, domain.ErrItemNotFound
	}
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("update cart item: %w", err)
	}
	if err := touch(ctx, tx, cartID); err != nil {
		return domain.CartItem{}, err
	}
	item, err := getItem(ctx, tx, userID, itemID)
	if err != nil {
		return domain.CartItem{}, err
	}
	return item, tx.Commit(ctx)
}

func (r *Repository) RemoveItem(ctx context.Context, userID, itemID int64) error {
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM cart_items ci USING carts c
		WHERE ci.cart_id = c.id AND c.user_id=$1 AND ci.id=$2`, userID, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

// Clear is idempotent: clearing an empty or missing cart succeeds.
func (r *Repository) Clear(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM cart_items ci USING carts c
		WHERE ci.cart_id = c.id AND c.user_id=$1`, userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func ensureCart(ctx context.Context, q querier, userID int64) (int64, time.Time, error) {
	var id int64
	var updated time.Time
	err := q.QueryRow(ctx, `
		INSERT INTO carts (user_id, updated_at) VALUES ($1, now())
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, updated_at`, userID).Scan(&id, &updated)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return 0, time.Time{}, identity.ErrUserNotFound
		}
		return 0, time.Time{}, fmt.Errorf("ensure cart: %w", err)
	}
	return id, updated, nil
}

func touch(ctx context.Context, tx pgx.Tx, cartID int64) error {
	if _, err := tx.Exec(ctx, `UPDATE carts SET updated_at=now() WHERE id=$1`, cartID); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	return nil
}

func getItem(ctx context.Context, q querier, userID, itemID int64) (domain.CartItem, error) {
	rows, err := q.Query(ctx, itemQuery+` WHERE c.user_id=$1 AND ci.id=$2`, userID, itemID)
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("get cart item: %w", err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if database.IsNoRows(err) {
		return domain.CartItem{}, domain.ErrItemNotFound
	}
	return it, err
}

func scanItem(row pgx.CollectableRow) (domain.CartItem, error) {
	var it domain.CartItem
	var rating string
	p := &it.Product
	err := row.Scan(&it.ID, &it.Quantity, &it.AddedAt,
		&p.ID, &p.SellerID, &p.Name, &p.Category, &p.Price, &p.CarbonFootprint, &rating, &p.ImageURL, &p.Verified, &p.CreatedAt)
	p.EcoRating = catalog.EcoRating(rating)
	return it, err
}
