package domain

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusChanged = "OrderStatusChanged"
)

type OrderCreated struct {
	OrderID     int64       `json:"order_id"`
	UserID      int64       `json:"user_id"`
	TotalAmount float64     `json:"total_amount"`
	TotalCarbon float64     `json:"total_carbon"`
	Items       []OrderItem `json:"items"`
}

type OrderStatusChanged struct {
	OrderID int64       `json:"order_id"`
	From    OrderStatus `json:"from"`
	To      OrderStatus `json:"to"`
}
