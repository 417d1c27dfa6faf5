package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	audit "github.com/dmehra2102/ecobazaar/internal/audit/domain"
	auditpg "github.com/dmehra2102/ecobazaar/internal/audit/infrastructure/postgres"
	identity "github.com/dmehra2102/ecobazaar/internal/identity/domain"
	"github.com/dmehra2102/ecobazaar/internal/order/application"
	"github.com/dmehra2102/ecobazaar/internal/order/domain"
	"github.com/dmehra2102/ecobazaar/pkg/database"
	"github.com/dmehra2102/ecobazaar/pkg/outbox"
)

const orderColumns = `id, user_id, status, payment_method, payment_status, shipping_address, phone_number,
	total_amount, total_carbon_footprint, created_at, updated_at`

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

func (r *Repository) PlaceWithOutbox(ctx context.Context, userID int64, build application.Builder, record application.Recorder) (domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT p.id, p.name, p.price, p.carbon_footprint, ci.quantity
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN products p ON p.id = ci.product_id
		WHERE c.user_id=$1
		ORDER BY ci.id
		FOR UPDATE OF ci`, userID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("read cart lines: %w", err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Line, error) {
		var l domain.Line
		err := row.Scan(&l.ProductID, &l.Name, &l.Price, &l.Carbon, &l.Quantity)
		return l, err
	})
	if err != nil {
		return domain.Order{}, fmt.Errorf("scan cart lines: %w", err)
	}

	o, err := build(lines)
	if err != nil {
		return domain.Order{}, err
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (user_id, status, payment_method, payment_status, shipping_address, phone_number,
			total_amount, total_carbon_footprint, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id`,
		o.UserID, string(o.Status), o.PaymentMethod, o.PaymentStatus, o.ShippingAddress, o.PhoneNumber,
		o.TotalAmount, o.TotalCarbonFootprint, o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return domain.Order{}, identity.ErrUserNotFound
		}
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, product_id, quantity, price_snapshot, carbon_snapshot, product_name_snapshot)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.ID, item.ProductID, item.Quantity, item.PriceSnapshot, item.CarbonSnapshot, item.ProductNameSnapshot)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return domain.Order{}, fmt.Errorf("insert order items: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM cart_items ci USING carts c
		WHERE ci.cart_id = c.id AND c.user_id=$1`, userID); err != nil {
		return domain.Order{}, fmt.Errorf("empty cart: %w", err)
	}

	if err := r.recordInTx(ctx, tx, o, record); err != nil {
		return domain.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) UpdateStatusWithOutbox(ctx context.Context, orderID int64, status domain.OrderStatus, record application.StatusRecorder) (domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var prev string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&prev)
	if database.IsNoRows(err) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("lock order: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, orderID, string(status)); err != nil {
		return domain.Order{}, fmt.Errorf("update order status: %w", err)
	}

	orders, err := r.list(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	o := orders[0]

	err = r.recordInTx(ctx, tx, o, func(o domain.Order) (audit.Entry, outbox.Message, error) {
		return record(domain.OrderStatus(prev), o)
	})
	if err != nil {
		return domain.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.Order, error) {
	orders, err := r.list(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
	if err != nil {
		return domain.Order{}, err
	}
	if len(orders) == 0 {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return orders[0], nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	return r.list(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1 ORDER BY created_at DESC, id DESC`, userID)
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, r.pool, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
}

// ListContainingProducts returns every order with at least one line for any
// of productIDs. Each order carries all of its items, not only the matching ones.
func (r *Repository) ListContainingProducts(ctx context.Context, productIDs []int64) ([]domain.Order, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, r.pool, `SELECT `+orderColumns+` FROM orders
		WHERE id IN (SELECT order_id FROM order_items WHERE product_id = ANY($1))
		ORDER BY created_at DESC, id DESC`, productIDs)
}

func (r *Repository) list(ctx context.Context, q querier, query string, args ...any) ([]domain.Order, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	ids := make([]int64, len(orders))
	pos := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		pos[o.ID] = i
	}
	rows, err = q.Query(ctx, `
		SELECT order_id, product_id, quantity, price_snapshot, carbon_snapshot, product_name_snapshot
		FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var orderID int64
		var it domain.OrderItem
		if err := rows.Scan(&orderID, &it.ProductID, &it.Quantity, &it.PriceSnapshot, &it.CarbonSnapshot, &it.ProductNameSnapshot); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		i := pos[orderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return orders, rows.Err()
}

func (r *Repository) recordInTx(ctx context.Context, tx pgx.Tx, o domain.Order, record application.Recorder) error {
	entry, msg, err := record(o)
	if err != nil {
		return err
	}
	if err := auditpg.Insert(ctx, tx, entry); err != nil {
		return err
	}
	headers := msg.Headers
	if headers == nil {
		headers = map[string]string{}
	}
	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,$6,'pending')`,
		msg.AggregateType, msg.AggregateID, msg.Type, msg.Payload, headers, msg.Traceparent)
	if err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (domain.Order, error) {
	var o domain.Order
	var status string
	err := row.Scan(&o.ID, &o.UserID, &status, &o.PaymentMethod, &o.PaymentStatus, &o.ShippingAddress, &o.PhoneNumber,
		&o.TotalAmount, &o.TotalCarbonFootprint, &o.CreatedAt, &o.UpdatedAt)
	o.Status = domain.OrderStatus(status)
	return o, err
}
