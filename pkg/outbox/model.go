package outbox

import "time"

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Message is what a producer writes into the outbox table alongside its
// business rows.
type Message struct {
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Headers       map[string]string
	Traceparent   string
}

// Event is a stored Message as the relay sees it.
type Event struct {
	ID int64
	Message
	CreatedAt  time.Time
	Status     Status
	RelayID    string
	RetryCount int
	LastError  *string
}
