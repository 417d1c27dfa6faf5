package tracing

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// TraceparentHeader is the W3C trace context key, both as a kafka header and
// as the value stored with outbox rows.
const TraceparentHeader = "traceparent"

// KafkaCarrier adapts message headers to the otel propagators. Set replaces
// an existing header with the same key instead of appending a second one.
type KafkaCarrier struct {
	Headers *[]kafka.Header
}

var _ propagation.TextMapCarrier = KafkaCarrier{}

func (c KafkaCarrier) Get(key string) string {
	// the last occurrence wins, as with HTTP header overrides
	for i := len(*c.Headers) - 1; i >= 0; i-- {
		if (*c.Headers)[i].Key == key {
			return string((*c.Headers)[i].Value)
		}
	}
	return ""
}

func (c KafkaCarrier) Set(key, value string) {
	for i, h := range *c.Headers {
		if h.Key == key {
			(*c.Headers)[i].Value = []byte(value)
			return
		}
	}
	*c.Headers = append(*c.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c KafkaCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.Headers))
	for _, h := range *c.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}

// InjectKafkaHeaders writes the span context of ctx into headers and returns
// the updated slice. headers is not modified in place when it has to grow.
func InjectKafkaHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	out := append([]kafka.Header(nil), headers...)
	otel.GetTextMapPropagator().Inject(ctx, KafkaCarrier{Headers: &out})
	return out
}

// ExtractKafkaHeaders returns ctx carrying the remote span context found in
// headers, if any. Consumers start their span from it.
func ExtractKafkaHeaders(ctx context.Context, headers []kafka.Header) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, KafkaCarrier{Headers: &headers})
}
