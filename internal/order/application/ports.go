package application

import (
	"context"

	audit "github.com/dmehra2102/ecobazaar/internal/audit/domain"
	"github.com/dmehra2102/ecobazaar/internal/order/domain"
	"github.com/dmehra2102/ecobazaar/pkg/outbox"
)

// Builder turns the cart lines read inside the placement transaction into an
// order. Returning an error aborts the transaction.
type Builder func(lines []domain.Line) (domain.Order, error)

// Recorder derives the audit entry and outbox message for an order that has
// just been written and carries its ID.
type Recorder func(o domain.Order) (audit.Entry, outbox.Message, error)

// StatusRecorder is Recorder for a status change; prev is the status before it.
type StatusRecorder func(prev domain.OrderStatus, o domain.Order) (audit.Entry, outbox.Message, error)

type OrderRepository interface {
	// PlaceWithOutbox reads and locks the user's cart lines, inserts the order
	// and its items, empties the cart and writes the audit and outbox rows,
	// all in one transaction.
	PlaceWithOutbox(ctx context.Context, userID int64, build Builder, record Recorder) (domain.Order, error)
	UpdateStatusWithOutbox(ctx context.Context, orderID int64, status domain.OrderStatus, record StatusRecorder) (domain.Order, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
}

// CartInvalidator drops cached carts once placement has emptied them.
type CartInvalidator interface {
	Invalidate(ctx context.Context, userID int64) error
}
