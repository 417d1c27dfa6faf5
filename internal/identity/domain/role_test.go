package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmehra2102/ecobazaar/pkg/apperr"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"USER":    RoleShopper,
		"shopper": RoleShopper,
		"SELLER":  RoleSeller,
		" admin ": RoleAdmin,
	}
	for in, want := range cases {
		got, err := ParseRole(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseRole("SUPERUSER")
	assert.ErrorIs(t, err, ErrUnknownRole)
	assert.True(t, apperr.IsInvalid(err))
}

func TestRole_SelfRegistrable(t *testing.T) {
	assert.True(t, RoleShopper.SelfRegistrable())
	assert.True(t, RoleSeller.SelfRegistrable())
	assert.False(t, RoleAdmin.SelfRegistrable())
	assert.False(t, Role(0).SelfRegistrable())
}

func TestRole_TextRoundTrip(t *testing.T) {
	b, err := RoleShopper.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "USER", string(b))

	var r Role
	require.NoError(t, r.UnmarshalText([]byte("SELLER")))
	assert.Equal(t, RoleSeller, r)
	assert.Error(t, r.UnmarshalText([]byte("nope")))
}
