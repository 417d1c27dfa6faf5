package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	order "github.com/dmehra2102/ecobazaar/internal/order/domain"
	"github.com/dmehra2102/ecobazaar/pkg/idempotency"
	"github.com/dmehra2102/ecobazaar/pkg/metrics"
	"github.com/dmehra2102/ecobazaar/pkg/tracing"
)

type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewReader(brokers []string, topic, group string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: group,
	})
}

// Consumer follows the order event stream and keeps the platform counters
// exposed on /metrics: events by type, carbon ordered and status changes.
type Consumer struct {
	log     *slog.Logger
	reader  Reader
	metrics *metrics.Metrics
	idem    *idempotency.Store
	tracer  trace.Tracer
}

func NewConsumer(log *slog.Logger, reader Reader, m *metrics.Metrics, idem *idempotency.Store) *Consumer {
	return &Consumer{
		log:     log,
		reader:  reader,
		metrics: m,
		idem:    idem,
		tracer:  otel.Tracer("analytics-consumer"),
	}
}

// Run returns nil once ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.reader.Close()
	c.log.Info("analytics consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("fetch order event: %w", err)
		}
		// Malformed events are logged and skipped; redelivery would not fix them.
		if err := c.handle(ctx, msg); err != nil {
			c.log.Error("order event not handled", "offset", msg.Offset, "err", err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.log.Warn("commit order event", "offset", msg.Offset, "err", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	key := c.idem.Key("kafka", fmt.Sprintf("%s/%d/%d", msg.Topic, msg.Partition, msg.Offset))
	seen, err := c.idem.Seen(ctx, key)
	if err != nil {
		c.log.Warn("dedupe check failed, handling anyway", "key", key, "err", err)
	} else if seen {
		c.log.Info("duplicate message skipped", "key", key)
		return nil
	}

	eventType := headerValue(msg.Headers, "event_type")
	msgCtx := tracing.ExtractKafkaHeaders(ctx, msg.Headers)
	_, span := c.tracer.Start(msgCtx, "consume "+eventType,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		))
	defer span.End()

	switch eventType {
	case order.EventOrderCreated:
		var ev order.OrderCreated
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			span.RecordError(err)
			return fmt.Errorf("decode %s: %w", eventType, err)
		}
		if ev.TotalCarbon < 0 {
			return fmt.Errorf("order %d has negative carbon %v", ev.OrderID, ev.TotalCarbon)
		}
		c.metrics.OrderedCarbon.Add(ev.TotalCarbon)
	case order.EventOrderStatusChanged:
		var ev order.OrderStatusChanged
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			span.RecordError(err)
			return fmt.Errorf("decode %s: %w", eventType, err)
		}
		c.metrics.OrderTransitions.WithLabelValues(string(ev.To)).Inc()
	default:
		c.log.Debug("order event ignored", "event_type", eventType)
		return nil
	}
	c.metrics.OrderEvents.WithLabelValues(eventType).Inc()
	return nil
}

func headerValue(h []kafka.Header, key string) string {
	for _, hh := range h {
		if hh.Key == key {
			return string(hh.Value)
		}
	}
	return ""
}
