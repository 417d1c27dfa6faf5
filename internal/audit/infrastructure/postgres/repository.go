package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/ecobazaar/internal/audit/domain"
)

// Execer is satisfied by both *pgxpool.Pool and pgx.Tx, so entries can be
// written inside a caller's transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Record(ctx context.Context, e domain.Entry) error {
	return Insert(ctx, r.pool, e)
}

func Insert(ctx context.Context, db Execer, e domain.Entry) error {
	_, err := db.Exec(ctx, `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, details, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		e.UserID, e.Action, e.EntityType, e.EntityID, e.Details, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first. limit <= 0 returns everything.
func (r *Repository) Recent(ctx context.Context, limit int) ([]domain.Entry, error) {
	query := `SELECT id, user_id, action, entity_type, entity_id, details, created_at
		FROM audit_logs ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Entry, error) {
		var e domain.Entry
		err := row.Scan(&e.ID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.CreatedAt)
		return e, err
	})
}
