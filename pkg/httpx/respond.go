// Package httpx holds the response helpers shared by every chi handler.
package httpx

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/dmehra2102/ecobazaar/pkg/apperr"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Timestamp int64  `json:"timestamp"`
}

func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Error("encode response failed", "err", err)
	}
}

// Error writes err with the status code of its apperr kind.
func Error(w http.ResponseWriter, log *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		log.Error("request failed", "err", err)
	}
	JSON(w, StatusOf(kind), ErrorResponse{
		Error:     apperr.MessageOf(err),
		Code:      kind.String(),
		Timestamp: time.Now().UnixMilli(),
	})
}

func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidArgument:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// PathID parses a positive int64 path parameter.
func PathID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Newf(apperr.KindInvalidArgument, "%s must be a positive integer", name)
	}
	return id, nil
}

// Limit reads the "limit" query parameter, falling back to def when absent.
func Limit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, apperr.New(apperr.KindInvalidArgument, "limit must be a positive integer")
	}
	return n, nil
}

// OptionalFloat parses an optional float query parameter; nil means absent.
// NaN and infinities are rejected.
func OptionalFloat(r *http.Request, name string) (*float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apperr.Newf(apperr.KindInvalidArgument, "%s must be a finite number", name)
	}
	return &v, nil
}
