package outbox

import (
	"context"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/ecobazaar/pkg/tracing"
)

type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Dispatcher struct {
	log      *slog.Logger
	producer Producer
	topic    string
	tracer   trace.Tracer
}

func NewDispatcher(log *slog.Logger, producer Producer, topic string) *Dispatcher {
	return &Dispatcher{log: log, producer: producer, topic: topic, tracer: otel.Tracer("outbox")}
}

// Dispatch publishes one event keyed by aggregate ID, so events for the same
// order stay on one partition. The span continues the trace stored with the
// event, and its context is what consumers receive.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) error {
	headers := make([]kafka.Header, 0, len(event.Headers)+2)
	for k, v := range event.Headers {
		if k == tracing.TraceparentHeader {
			continue
		}
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	headers = append(headers, kafka.Header{Key: "event_type", Value: []byte(event.Type)})

	if event.Traceparent != "" {
		ctx = tracing.ExtractKafkaHeaders(ctx, []kafka.Header{{Key: tracing.TraceparentHeader, Value: []byte(event.Traceparent)}})
	}
	ctx, span := d.tracer.Start(ctx, "outbox.dispatch "+event.Type,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.Int64("outbox.event_id", event.ID),
			attribute.String("messaging.destination.name", d.topic),
		))
	defer span.End()

	headers = tracing.InjectKafkaHeaders(ctx, headers)
	if event.Traceparent != "" && !hasHeader(headers, tracing.TraceparentHeader) {
		headers = append(headers, kafka.Header{Key: tracing.TraceparentHeader, Value: []byte(event.Traceparent)})
	}

	msg := kafka.Message{
		Topic:   d.topic,
		Key:     []byte(event.AggregateID),
		Value:   event.Payload,
		Headers: headers,
	}
	if err := d.producer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		d.log.Error("outbox dispatch failed", "event_id", event.ID, "err", err)
		return err
	}
	d.log.Info("outbox dispatched", "event_id", event.ID, "type", event.Type)
	return nil
}

func hasHeader(headers []kafka.Header, key string) bool {
	for _, h := range headers {
		if h.Key == key {
			return true
		}
	}
	return false
}
