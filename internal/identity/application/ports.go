package application

import (
	"context"

	audit "github.com/dmehra2102/ecobazaar/internal/audit/domain"
	"github.com/dmehra2102/ecobazaar/internal/identity/domain"
)

type UserRepository interface {
	// Create returns domain.ErrEmailInUse when the email is taken.
	Create(ctx context.Context, u domain.User) (domain.User, error)
	Get(ctx context.Context, id int64) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	// Compare returns nil only when password matches hash.
	Compare(hash, password string) error
}

type AuditLog interface {
	Record(ctx context.Context, e audit.Entry) error
}
