package application

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	audit "github.com/dmehra2102/ecobazaar/internal/audit/domain"
	"github.com/dmehra2102/ecobazaar/internal/order/domain"
	"github.com/dmehra2102/ecobazaar/pkg/metrics"
	"github.com/dmehra2102/ecobazaar/pkg/outbox"
)

const aggregateOrder = "order"

// EventMeta travels with outbox messages so consumers can continue the trace.
type EventMeta struct {
	Headers     map[string]string
	Traceparent string
}

type Service struct {
	log     *slog.Logger
	repo    OrderRepository
	carts   CartInvalidator
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(log *slog.Logger, repo OrderRepository, carts CartInvalidator, m *metrics.Metrics) *Service {
	return &Service{log: log, repo: repo, carts: carts, metrics: m, now: time.Now}
}

func (s *Service) PlaceOrder(ctx context.Context, userID int64, co domain.Checkout, meta EventMeta) (domain.Order, error) {
	build := func(lines []domain.Line) (domain.Order, error) {
		return domain.NewOrderFromCart(userID, lines, co, s.now())
	}
	record := func(o domain.Order) (audit.Entry, outbox.Message, error) {
		payload, err := json.Marshal(domain.OrderCreated{
			OrderID:     o.ID,
			UserID:      o.UserID,
			TotalAmount: o.TotalAmount,
			TotalCarbon: o.TotalCarbonFootprint,
			Items:       o.Items,
		})
		if err != nil {
			return audit.Entry{}, outbox.Message{}, fmt.Errorf("encode %s: %w", domain.EventOrderCreated, err)
		}
		entry := audit.NewEntry(o.UserID, audit.ActionOrderCreated, audit.EntityOrder, o.ID, "Order placed via "+o.PaymentMethod)
		return entry, message(o.ID, domain.EventOrderCreated, payload, meta), nil
	}

	o, err := s.repo.PlaceWithOutbox(ctx, userID, build, record)
	if err != nil {
		return domain.Order{}, err
	}
	s.metrics.OrdersPlaced.WithLabelValues(o.PaymentMethod).Inc()
	if err := s.carts.Invalidate(ctx, userID); err != nil {
		s.log.Warn("cart cache invalidate after order failed", "user_id", userID, "order_id", o.ID, "err", err)
	}
	s.log.Info("order placed", "order_id", o.ID, "user_id", userID, "items", o.ItemCount(), "total", o.TotalAmount)
	return o, nil
}

func (s *Service) UpdateStatus(ctx context.Context, orderID int64, status string, meta EventMeta) (domain.Order, error) {
	to, err := domain.ParseStatus(status)
	if err != nil {
		return domain.Order{}, err
	}
	record := func(prev domain.OrderStatus, o domain.Order) (audit.Entry, outbox.Message, error) {
		payload, err := json.Marshal(domain.OrderStatusChanged{OrderID: o.ID, From: prev, To: o.Status})
		if err != nil {
			return audit.Entry{}, outbox.Message{}, fmt.Errorf("encode %s: %w", domain.EventOrderStatusChanged, err)
		}
		details := fmt.Sprintf("Status changed from %s to %s", prev, o.Status)
		entry := audit.NewEntry(o.UserID, audit.ActionOrderStatusUpdated, audit.EntityOrder, o.ID, details)
		return entry, message(o.ID, domain.EventOrderStatusChanged, payload, meta), nil
	}
	return s.repo.UpdateStatusWithOutbox(ctx, orderID, to, record)
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Order, error) {
	return s.repo.Get(ctx, id)
}

// ListByUser returns the user's orders newest first.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListAll(ctx)
}

func message(orderID int64, eventType string, payload []byte, meta EventMeta) outbox.Message {
	return outbox.Message{
		AggregateType: aggregateOrder,
		AggregateID:   strconv.FormatInt(orderID, 10),
		Type:          eventType,
		Payload:       payload,
		Headers:       meta.Headers,
		Traceparent:   meta.Traceparent,
	}
}
