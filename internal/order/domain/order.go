package domain

import (
	"time"

	"github.com/dmehra2102/ecobazaar/pkg/apperr"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"
	StatusCanceled  OrderStatus = "CANCELLED"
)

func ParseStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(s); st {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCanceled:
		return st, nil
	}
	return "", apperr.Newf(apperr.KindInvalidArgument, "unknown order status %q", s)
}

const (
	PaymentCOD = "COD"

	PaymentStatusPending = "PENDING"
	PaymentStatusPaid    = "PAID"
)

type Order struct {
	ID                   int64
	UserID               int64
	Status               OrderStatus
	PaymentMethod        string
	PaymentStatus        string
	ShippingAddress      string
	PhoneNumber          string
	TotalAmount          float64
	TotalCarbonFootprint float64
	Items                []OrderItem
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// OrderItem is a snapshot of the product at purchase time. Later price or
// footprint changes on the product never reach it.
type OrderItem struct {
	ProductID           int64   `json:"product_id"`
	Quantity            int     `json:"quantity"`
	PriceSnapshot       float64 `json:"price_snapshot"`
	CarbonSnapshot      float64 `json:"carbon_snapshot"`
	ProductNameSnapshot string  `json:"product_name_snapshot"`
}

func (i OrderItem) Revenue() float64 { return i.PriceSnapshot * float64(i.Quantity) }
func (i OrderItem) Carbon() float64  { return i.CarbonSnapshot * float64(i.Quantity) }

// Line is the live view of one product being bought.
type Line struct {
	ProductID int64
	Name      string
	Price     float64
	Carbon    float64
	Quantity  int
}

type Checkout struct {
	ShippingAddress string
	PhoneNumber     string
	PaymentMethod   string
}

var (
	ErrOrderNotFound  = apperr.New(apperr.KindNotFound, "order not found")
	ErrCartEmpty      = apperr.New(apperr.KindInvalidArgument, "cart is empty")
	ErrBadQuantity    = apperr.New(apperr.KindInvalidArgument, "item quantity must be positive")
	ErrPaymentMissing = apperr.New(apperr.KindInvalidArgument, "payment method is required")
)

// NewOrderFromCart copies every line into an immutable snapshot and fixes
// the order totals. Totals are never recomputed afterwards.
func NewOrderFromCart(userID int64, lines []Line, co Checkout, now time.Time) (Order, error) {
	if len(lines) == 0 {
		return Order{}, ErrCartEmpty
	}
	if co.PaymentMethod == "" {
		return Order{}, ErrPaymentMissing
	}

	items := make([]OrderItem, 0, len(lines))
	var total, carbon float64
	for _, l := range lines {
		if l.Quantity <= 0 {
			return Order{}, ErrBadQuantity
		}
		item := OrderItem{
			ProductID:           l.ProductID,
			Quantity:            l.Quantity,
			PriceSnapshot:       l.Price,
			CarbonSnapshot:      l.Carbon,
			ProductNameSnapshot: l.Name,
		}
		total += item.Revenue()
		carbon += item.Carbon()
		items = append(items, item)
	}

	paymentStatus := PaymentStatusPaid
	if co.PaymentMethod == PaymentCOD {
		paymentStatus = PaymentStatusPending
	}

	now = now.UTC()
	return Order{
		UserID:               userID,
		Status:               StatusPending,
		PaymentMethod:        co.PaymentMethod,
		PaymentStatus:        paymentStatus,
		ShippingAddress:      co.ShippingAddress,
		PhoneNumber:          co.PhoneNumber,
		TotalAmount:          total,
		TotalCarbonFootprint: carbon,
		Items:                items,
		CreatedAt:            now,
		UpdatedAt:            now,
	}, nil
}

func (o Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
