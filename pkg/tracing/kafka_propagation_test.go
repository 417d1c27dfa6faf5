package tracing

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestKafkaCarrier_SetReplacesExistingKey(t *testing.T) {
	headers := []kafka.Header{
		{Key: "event_type", Value: []byte("OrderCreated")},
		{Key: TraceparentHeader, Value: []byte("old")},
	}
	c := KafkaCarrier{Headers: &headers}

	c.Set(TraceparentHeader, "new")
	c.Set("tracestate", "k=v")

	assert.Len(t, headers, 3)
	assert.Equal(t, "new", c.Get(TraceparentHeader))
	assert.Equal(t, "k=v", c.Get("tracestate"))
	assert.Equal(t, []string{"event_type", TraceparentHeader, "tracestate"}, c.Keys())
}

func TestKafkaCarrier_GetLastOccurrenceAndMissing(t *testing.T) {
	headers := []kafka.Header{
		{Key: TraceparentHeader, Value: []byte("first")},
		{Key: TraceparentHeader, Value: []byte("second")},
	}
	c := KafkaCarrier{Headers: &headers}

	assert.Equal(t, "second", c.Get(TraceparentHeader))
	assert.Empty(t, c.Get("missing"))
}
