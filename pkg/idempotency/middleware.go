// Package idempotency replays the first successful response for a repeated
// Idempotency-Key, so a retried checkout cannot place a second order.
package idempotency

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/ecobazaar/pkg/apperr"
	"github.com/dmehra2102/ecobazaar/pkg/httpx"
)

const (
	Header  = "Idempotency-Key"
	pending = "pending"
)

var ErrInProgress = apperr.New(apperr.KindConflict, "a request with this idempotency key is still in progress")

type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Key(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}

// Response is what gets replayed for a completed key.
type Response struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// Begin claims key. When it was already claimed, the stored response is
// returned, or ErrInProgress if the first request has not finished.
func (s *Store) Begin(ctx context.Context, key string) (bool, *Response, error) {
	ok, err := s.rdb.SetNX(ctx, key, pending, s.ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if ok {
		return true, nil, nil
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between the two calls
		return s.Begin(ctx, key)
	}
	if err != nil {
		return false, nil, err
	}
	if string(raw) == pending {
		return false, nil, ErrInProgress
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return false, nil, fmt.Errorf("decode stored response: %w", err)
	}
	return false, &resp, nil
}

func (s *Store) Complete(ctx context.Context, key string, resp Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, raw, s.ttl).Err()
}

// Seen marks key as processed and reports whether it already was. Used by
// consumers to skip redelivered messages.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Release forgets key so the client may retry after a failed attempt.
func (s *Store) Release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Middleware applies to requests carrying the header; others pass through.
// Only 2xx responses are remembered. scope separates keys per route and
// subject, e.g. the user placing the order.
func Middleware(log *slog.Logger, store *Store, scope func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(Header)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			key := store.Key(scope(r), raw)

			fresh, stored, err := store.Begin(ctx, key)
			if err != nil {
				httpx.Error(w, log, err)
				return
			}
			if !fresh {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.status >= 200 && rec.status < 300 {
				if err := store.Complete(ctx, key, Response{Status: rec.status, Body: rec.body.Bytes()}); err != nil {
					log.Warn("idempotency store response", "key", key, "err", err)
				}
				return
			}
			if err := store.Release(ctx, key); err != nil {
				log.Warn("idempotency release", "key", key, "err", err)
			}
		})
	}
}

type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
