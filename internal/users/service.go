package users

import (
	"context"
	"log/slog"

	"github.com/voyager-travel/voyager/internal/auth"
	"github.com/voyager-travel/voyager/internal/shared"
)

// Provisioner creates accounts with hashed passwords.
type Provisioner interface {
	EnsureUser(ctx context.Context, req auth.CreateUserRequest) (*auth.User, error)
}

// Service manages staff accounts.
type Service struct {
	repo     Repository
	accounts Provisioner
	audit    shared.Auditor
	logger   *slog.Logger
}

// NewService constructs the service.
func NewService(repo Repository, accounts Provisioner, audit shared.Auditor, logger *slog.Logger) *Service {
	if audit == nil {
		audit = shared.NopAuditor{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, accounts: accounts, audit: audit, logger: logger}
}

// ListUsers returns every account.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	out, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []User{}
	}
	return out, nil
}

// CreateUser creates an account, or resets name, role and password when the
// email already exists.
func (s *Service) CreateUser(ctx context.Context, req auth.CreateUserRequest) (User, error) {
	u, err := s.accounts.EnsureUser(ctx, req)
	if err != nil {
		return User{}, err
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: "user.upsert", Entity: "user", EntityID: shared.EntityID(u.ID),
		Meta: map[string]any{"email": u.Email, "role": u.Role}})
	return User{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role, IsActive: u.IsActive, CreatedAt: u.CreatedAt}, nil
}

// SetActive enables or disables an account. Admins cannot disable themselves.
// Tokens already issued stay valid until they expire.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	if !active && id == shared.ActorID(ctx) {
		return User{}, shared.NewValidationError("id", "cannot deactivate your own account")
	}
	u, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return User{}, err
	}
	action := "user.deactivate"
	if active {
		action = "user.activate"
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "user", EntityID: shared.EntityID(id)})
	s.logger.Info("user access changed", slog.Int64("user_id", id), slog.Bool("active", active))
	return u, nil
}
