package application

import (
	"context"

	audit "github.com/dmehra2102/ecobazaar/internal/audit/domain"
	catalog "github.com/dmehra2102/ecobazaar/internal/catalog/domain"
	identity "github.com/dmehra2102/ecobazaar/internal/identity/domain"
	order "github.com/dmehra2102/ecobazaar/internal/order/domain"
)

type OrderReader interface {
	ListByUser(ctx context.Context, userID int64) ([]order.Order, error)
	ListAll(ctx context.Context) ([]order.Order, error)
	// ListContainingProducts returns whole orders, including lines of
	// products outside the given set.
	ListContainingProducts(ctx context.Context, productIDs []int64) ([]order.Order, error)
}

type ProductReader interface {
	ListByIDs(ctx context.Context, ids []int64) ([]catalog.Product, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]catalog.Product, error)
	ListAll(ctx context.Context) ([]catalog.Product, error)
	ListPendingVerification(ctx context.Context) ([]catalog.Product, error)
	Count(ctx context.Context) (int64, error)
}

type UserReader interface {
	Get(ctx context.Context, id int64) (identity.User, error)
	ListAll(ctx context.Context) ([]identity.User, error)
	Count(ctx context.Context) (int64, error)
}

type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Entry, error)
}
