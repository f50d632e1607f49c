package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/voyager-travel/voyager/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenIssuer
	logger *slog.Logger
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenIssuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tokens: tokens, logger: logger}
}

// Tokens exposes the issuer for middleware wiring.
func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			s.logger.Error("lookup user", slog.Any("error", err))
		}
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Login authenticates and issues a bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	if err := shared.ValidateStruct(req); err != nil {
		return LoginResult{}, err
	}
	user, err := s.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		return LoginResult{}, err
	}
	token, expiresAt, err := s.tokens.Issue(*user)
	if err != nil {
		return LoginResult{}, err
	}
	if err := s.repo.TouchLogin(ctx, user.ID); err != nil {
		s.logger.Warn("record login", slog.Int64("user_id", user.ID), slog.Any("error", err))
	}
	return LoginResult{Token: token, TokenType: "Bearer", ExpiresAt: expiresAt, User: *user}, nil
}

// Me loads the account behind a principal.
func (s *Service) Me(ctx context.Context, p shared.Principal) (*User, error) {
	user, err := s.repo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, shared.ErrUnauthorized
	}
	return user, nil
}

// EnsureUser creates or resets an account with a bcrypt hashed password.
func (s *Service) EnsureUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := shared.ValidateStruct(req); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Upsert(ctx, User{Email: req.Email, Name: req.Name, Role: req.Role, PasswordHash: string(hash)})
}
