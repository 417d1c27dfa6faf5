package kafka

import (
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestNewWriter_KeyedPartitioning(t *testing.T) {
	w := NewWriter(slog.New(slog.NewTextHandler(io.Discard, nil)), []string{"broker-1:9092", "broker-2:9092"})
	defer w.Close()

	assert.IsType(t, &kafka.Hash{}, w.Balancer, "events for one order must share a partition")
	assert.Equal(t, kafka.RequireAll, w.RequiredAcks)
	assert.Empty(t, w.Topic)
}
