package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	audit "github.com/dmehra2102/ecobazaar/internal/audit/domain"
	"github.com/dmehra2102/ecobazaar/internal/identity/domain"
	"github.com/dmehra2102/ecobazaar/pkg/apperr"
)

type Service struct {
	log    *slog.Logger
	users  UserRepository
	hasher PasswordHasher
	audit  AuditLog
}

func NewService(log *slog.Logger, users UserRepository, hasher PasswordHasher, audit AuditLog) *Service {
	return &Service{log: log, users: users, hasher: hasher, audit: audit}
}

type Registration struct {
	Email    string
	Password string
	FullName string
	Role     string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a shopper or seller account. Admins are only ever
// created by EnsureAdmin.
func (s *Service) Register(ctx context.Context, in Registration) (domain.User, error) {
	email := normalizeEmail(in.Email)
	name := strings.TrimSpace(in.FullName)
	if email == "" || in.Password == "" || name == "" {
		return domain.User{}, domain.ErrMissingField
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return domain.User{}, err
	}
	if !role.SelfRegistrable() {
		return domain.User{}, domain.ErrAdminRegistration
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, domain.ErrEmailInUse
	} else if !apperr.IsNotFound(err) {
		return domain.User{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.Create(ctx, domain.NewUser(email, name, hash, role))
	if err != nil {
		return domain.User{}, err
	}

	entry := audit.NewEntry(u.ID, audit.ActionUserRegistered, audit.EntityUser, u.ID, "role="+role.String())
	if err := s.audit.Record(ctx, entry); err != nil {
		s.log.Warn("audit record failed", "user_id", u.ID, "err", err)
	}
	s.log.Info("user registered", "user_id", u.ID, "role", role.String())
	return u, nil
}

// Login checks the account state before the password, so a deactivated
// account is reported as such even with a wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, error) {
	u, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if apperr.IsNotFound(err) {
			return domain.User{}, domain.ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("lookup email: %w", err)
	}
	if !u.Active {
		return domain.User{}, domain.ErrAccountDeactivated
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return domain.User{}, domain.ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (domain.User, error) {
	return s.users.Get(ctx, id)
}

// AllowedRoles lists the roles open to public registration.
func (s *Service) AllowedRoles() []domain.Role {
	var out []domain.Role
	for _, r := range domain.Roles {
		if r.SelfRegistrable() {
			out = append(out, r)
		}
	}
	return out
}

type AdminSeed struct {
	Email    string
	Password string
	FullName string
}

// EnsureAdmin creates the bootstrap admin unless an account with that email
// already exists. Safe to run on every start and from several replicas.
func (s *Service) EnsureAdmin(ctx context.Context, seed AdminSeed) (bool, error) {
	email := normalizeEmail(seed.Email)
	if email == "" || seed.Password == "" {
		return false, domain.ErrMissingField
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return false, nil
	} else if !apperr.IsNotFound(err) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := s.hasher.Hash(seed.Password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.users.Create(ctx, domain.NewUser(email, seed.FullName, hash, domain.RoleAdmin))
	if err != nil {
		if apperr.IsConflict(err) {
			return false, nil
		}
		return false, err
	}
	s.log.Info("default admin created", "user_id", u.ID, "email", email)
	return true, nil
}
