package domain

import (
	"time"

	"github.com/dmehra2102/ecobazaar/pkg/apperr"
)

type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
}

var (
	ErrUserNotFound       = apperr.New(apperr.KindNotFound, "user not found")
	ErrEmailInUse         = apperr.New(apperr.KindConflict, "email already in use")
	ErrAdminRegistration  = apperr.New(apperr.KindInvalidArgument, "admin accounts cannot be created through registration")
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "invalid credentials")
	ErrAccountDeactivated = apperr.New(apperr.KindUnauthorized, "account is deactivated")
	ErrMissingField       = apperr.New(apperr.KindInvalidArgument, "email, password and full name are required")
)

func NewUser(email, fullName, passwordHash string, role Role) User {
	return User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Role:         role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
}
