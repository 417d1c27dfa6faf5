package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Store interface {
	LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error)
	MarkSent(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
	ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error
}

type RelayConfig struct {
	BatchSize int
	Interval  time.Duration
	Lease     time.Duration
}

func (c RelayConfig) withDefaults() RelayConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.Interval <= 0 {
		c.Interval = 500 * time.Millisecond
	}
	if c.Lease <= 0 {
		c.Lease = 5 * time.Second
	}
	return c
}

type Relay struct {
	log       *slog.Logger
	store     Store
	dispatch  *Dispatcher
	relayID   string
	batchSize int
	interval  time.Duration
	lease     time.Duration
	outcomes  *prometheus.CounterVec
	now       func() time.Time
}

// NewRelay counts dispatch outcomes on outcomes ("sent", "failed") when it is
// not nil.
func NewRelay(log *slog.Logger, store Store, dispatch *Dispatcher, relayID string, cfg RelayConfig, outcomes *prometheus.CounterVec) *Relay {
	cfg = cfg.withDefaults()
	return &Relay{
		log:       log,
		store:     store,
		dispatch:  dispatch,
		relayID:   relayID,
		batchSize: cfg.BatchSize,
		interval:  cfg.Interval,
		lease:     cfg.Lease,
		outcomes:  outcomes,
		now:       time.Now,
	}
}

func (r *Relay) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	r.log.Info("relay started", "relay_id", r.relayID, "batch_size", r.batchSize)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("relay stopping", "relay_id", r.relayID)
			return nil
		case <-t.C:
			if _, err := r.Tick(ctx); err != nil {
				r.log.Error("relay lock batch error", "err", err)
			}
		}
	}
}

// Tick moves one batch and reports how many events were sent. Events still
// waiting when half the lease has gone get their lease extended.
func (r *Relay) Tick(ctx context.Context) (int, error) {
	events, err := r.store.LockBatch(ctx, r.relayID, r.batchSize, r.lease)
	if err != nil || len(events) == 0 {
		return 0, err
	}

	leasedAt := r.now()
	ids := make([]int64, 0, len(events))
	for i, e := range events {
		if r.now().Sub(leasedAt) > r.lease/2 {
			if err := r.store.ExtendLease(ctx, r.relayID, remaining(events[i:]), r.lease); err != nil {
				r.log.Warn("relay extend lease", "err", err)
			}
			leasedAt = r.now()
		}
		if err := r.dispatch.Dispatch(ctx, e); err != nil {
			r.count("failed")
			if err := r.store.MarkFailed(ctx, e.ID, err.Error()); err != nil {
				r.log.Error("relay mark failed error", "event_id", e.ID, "err", err)
			}
			continue
		}
		r.count("sent")
		ids = append(ids, e.ID)
	}
	if len(ids) > 0 {
		if err := r.store.MarkSent(ctx, ids); err != nil {
			r.log.Error("relay mark sent error", "err", err)
		}
	}
	return len(ids), nil
}

func (r *Relay) count(outcome string) {
	if r.outcomes != nil {
		r.outcomes.WithLabelValues(outcome).Inc()
	}
}

func remaining(events []Event) []int64 {
	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
