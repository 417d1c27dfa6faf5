package domain

import (
	"strings"

	"github.com/dmehra2102/ecobazaar/pkg/apperr"
)

// Role is the closed set of account roles. Shoppers travel on the wire as
// "USER" for compatibility with existing clients.
type Role uint8

const (
	RoleShopper Role = iota + 1
	RoleSeller
	RoleAdmin
)

var Roles = []Role{RoleShopper, RoleSeller, RoleAdmin}

var ErrUnknownRole = apperr.New(apperr.KindInvalidArgument, "invalid role. Only SELLER and USER (Shopper) roles are allowed")

func (r Role) String() string {
	switch r {
	case RoleShopper:
		return "USER"
	case RoleSeller:
		return "SELLER"
	case RoleAdmin:
		return "ADMIN"
	default:
		return "UNKNOWN"
	}
}

func (r Role) Valid() bool {
	return r >= RoleShopper && r <= RoleAdmin
}

// SelfRegistrable reports whether an account with this role may be created
// through public sign-up.
func (r Role) SelfRegistrable() bool {
	return r == RoleShopper || r == RoleSeller
}

func ParseRole(s string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USER", "SHOPPER":
		return RoleShopper, nil
	case "SELLER":
		return RoleSeller, nil
	case "ADMIN":
		return RoleAdmin, nil
	default:
		return 0, ErrUnknownRole
	}
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
