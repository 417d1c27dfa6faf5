package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/ecobazaar/internal/identity/domain"
	"github.com/dmehra2102/ecobazaar/pkg/database"
)

const userColumns = `id, email, full_name, password_hash, role, active, created_at`

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Create(ctx context.Context, u domain.User) (domain.User, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, full_name, password_hash, role, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id`,
		u.Email, u.FullName, u.PasswordHash, u.Role.String(), u.Active, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return domain.User{}, domain.ErrEmailInUse
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
	return scanOne(row)
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
	return scanOne(row)
}

func (r *Repository) ListAll(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func scanOne(row pgx.Row) (domain.User, error) {
	u, err := scan(row)
	if database.IsNoRows(err) {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, err
}

func scan(row pgx.Row) (domain.User, error) {
	var u domain.User
	var role string
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &role, &u.Active, &u.CreatedAt); err != nil {
		if database.IsNoRows(err) {
			return domain.User{}, err
		}
		return domain.User{}, fmt.Errorf("scan user: %w", err)
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %d has unknown role %q", u.ID, role)
	}
	u.Role = parsed
	return u, nil
}
