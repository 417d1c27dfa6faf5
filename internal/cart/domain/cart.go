package domain

import (
	"time"

	catalog "github.com/dmehra2102/ecobazaar/internal/catalog/domain"
	"github.com/dmehra2102/ecobazaar/pkg/apperr"
)

const MaxQuantity = 99

type Cart struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem references the live product: price and footprint always reflect
// the catalog's current state.
type CartItem struct {
	ID       int64           `json:"id"`
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	AddedAt  time.Time       `json:"added_at"`
}

// Line is a cart row without its product, the part of a cart that only cart
// writes can change.
type Line struct {
	ItemID    int64     `json:"item_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// Lines is what the cart cache stores. Prices and footprints are joined
// from the catalog on every read.
type Lines struct {
	CartID    int64     `json:"cart_id"`
	UserID    int64     `json:"user_id"`
	UpdatedAt time.Time `json:"updated_at"`
	Lines     []Line    `json:"lines"`
}

func LinesOf(c Cart) Lines {
	out := Lines{CartID: c.ID, UserID: c.UserID, UpdatedAt: c.UpdatedAt, Lines: make([]Line, 0, len(c.Items))}
	for _, it := range c.Items {
		out.Lines = append(out.Lines, Line{ItemID: it.ID, ProductID: it.Product.ID, Quantity: it.Quantity, AddedAt: it.AddedAt})
	}
	return out
}

func (l Lines) ProductIDs() []int64 {
	ids := make([]int64, 0, len(l.Lines))
	for _, ln := range l.Lines {
		ids = append(ids, ln.ProductID)
	}
	return ids
}

// Join attaches the given products. It reports false when a product is
// missing, i.e. the cached lines no longer match the database.
func (l Lines) Join(products map[int64]catalog.Product) (Cart, bool) {
	c := Cart{ID: l.CartID, UserID: l.UserID, UpdatedAt: l.UpdatedAt, Items: make([]CartItem, 0, len(l.Lines))}
	for _, ln := range l.Lines {
		p, ok := products[ln.ProductID]
		if !ok {
			return Cart{}, false
		}
		c.Items = append(c.Items, CartItem{ID: ln.ItemID, Product: p, Quantity: ln.Quantity, AddedAt: ln.AddedAt})
	}
	return c, true
}

func (i CartItem) Subtotal() float64    { return i.Product.Price * float64(i.Quantity) }
func (i CartItem) CarbonTotal() float64 { return i.Product.CarbonFootprint * float64(i.Quantity) }

var (
	ErrItemNotFound    = apperr.New(apperr.KindNotFound, "cart item not found")
	ErrInvalidQuantity = apperr.Newf(apperr.KindInvalidArgument, "quantity must be between 1 and %d", MaxQuantity)
)

func ValidateQuantity(q int) error {
	if q <= 0 || q > MaxQuantity {
		return ErrInvalidQuantity
	}
	return nil
}
