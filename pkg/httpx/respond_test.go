package httpx

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/ecobazaar/pkg/apperr"
)

func TestError_MapsKindToStatus(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperr.New(apperr.KindNotFound, "user not found"), http.StatusNotFound, "not_found"},
		{apperr.New(apperr.KindInvalidArgument, "bad role"), http.StatusBadRequest, "invalid_argument"},
		{apperr.New(apperr.KindConflict, "email in use"), http.StatusConflict, "conflict"},
		{apperr.New(apperr.KindUnauthorized, "account is deactivated"), http.StatusUnauthorized, "unauthorized"},
		{errors.New("db down"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		Error(rec, log, tc.err)

		assert.Equal(t, tc.status, rec.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.code, body.Code)
	}
}

func TestLimit(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	n, err := Limit(r, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	r = httptest.NewRequest(http.MethodGet, "/x?limit=3", nil)
	n, err = Limit(r, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, bad := range []string{"abc", "0", "-2"} {
		r = httptest.NewRequest(http.MethodGet, "/x?limit="+bad, nil)
		_, err = Limit(r, 10)
		assert.True(t, apperr.IsInvalid(err), bad)
	}
}

func TestOptionalFloat(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?minPrice=2.5&maxPrice=oops", nil)

	v, err := OptionalFloat(r, "minPrice")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.InDelta(t, 2.5, *v, 1e-9)

	v, err = OptionalFloat(r, "minCarbon")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = OptionalFloat(r, "maxPrice")
	assert.True(t, apperr.IsInvalid(err))
}

func TestOptionalFloat_RejectsNonFinite(t *testing.T) {
	for _, raw := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf", "infinity", "1e400"} {
		r := httptest.NewRequest(http.MethodGet, "/x?minPrice="+raw, nil)
		_, err := OptionalFloat(r, "minPrice")
		assert.True(t, apperr.IsInvalid(err), raw)
	}
}
