package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestKindOf_WrappedChain(t *testing.T) {
	base := New(KindNotFound, "user not found")
	wrapped := fmt.Errorf("load dashboard: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.True(t, errors.Is(wrapped, base))
}

func TestKindOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, "internal server error", MessageOf(errors.New("boom")))
}

func TestMessageOf_HidesInternalCause(t *testing.T) {
	err := Wrap(KindInternal, "query orders", errors.New("connection refused"))
	assert.Equal(t, "internal server error", MessageOf(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGRPCStatus(t *testing.T) {
	cases := map[Kind]codes.Code{
		KindNotFound:        codes.NotFound,
		KindInvalidArgument: codes.InvalidArgument,
		KindConflict:        codes.AlreadyExists,
		KindUnauthorized:    codes.Unauthenticated,
		KindInternal:        codes.Internal,
	}
	for kind, want := range cases {
		st, ok := status.FromError(New(kind, "x"))
		assert.True(t, ok)
		assert.Equal(t, want, st.Code(), kind.String())
	}
}
