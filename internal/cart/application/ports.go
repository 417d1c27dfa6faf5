package application

import (
	"context"

	"github.com/dmehra2102/ecobazaar/internal/cart/domain"
	catalog "github.com/dmehra2102/ecobazaar/internal/catalog/domain"
)

// CartRepository creates a user's cart on first access. Item reads join the
// live product row.
type CartRepository interface {
	Get(ctx context.Context, userID int64) (domain.Cart, error)
	// SetQuantity inserts the product line or overwrites its quantity.
	SetQuantity(ctx context.Context, userID, productID int64, quantity int) (domain.CartItem, error)
	UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (domain.CartItem, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
}

type ProductGetter interface {
	Get(ctx context.Context, id int64) (catalog.Product, error)
	ListByIDs(ctx context.Context, ids []int64) ([]catalog.Product, error)
}

// Cache holds a user's cart rows, never product data. Entries are keyed by
// version; Invalidate moves the user to a new version. A miss is
// (Lines{}, false, nil).
type Cache interface {
	Version(ctx context.Context, userID int64) (int64, error)
	Get(ctx context.Context, userID, version int64) (domain.Lines, bool, error)
	Set(ctx context.Context, version int64, lines domain.Lines) error
	Invalidate(ctx context.Context, userID int64) error
}
