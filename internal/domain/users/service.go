package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Togather-Foundation/booking/internal/audit"
	"github.com/Togather-Foundation/booking/internal/auth"
	"github.com/Togather-Foundation/booking/internal/domain/ids"
	"github.com/Togather-Foundation/booking/internal/sanitize"
	"github.com/Togather-Foundation/booking/internal/validation"
)

// Session is what register and login hand back to the client.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type RegisterParams struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,max=72"`
}

type LoginParams struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type Service struct {
	repo     Repository
	tokens   *auth.TokenManager
	hasher   *auth.PasswordHasher
	audit    *audit.Logger
	logger   zerolog.Logger
	now      func() time.Time
	onSignup func()
}

type Option func(*Service)

// WithSignupHook registers a callback invoked after each successful
// registration.
func WithSignupHook(fn func()) Option {
	return func(s *Service) {
		s.onSignup = fn
	}
}

func NewService(
	repo Repository,
	tokens *auth.TokenManager,
	hasher *auth.PasswordHasher,
	auditLogger *audit.Logger,
	logger zerolog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		repo:   repo,
		tokens: tokens,
		hasher: hasher,
		audit:  auditLogger,
		logger: logger.With().Str("component", "users").Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a regular user and returns a signed session token.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*Session, error) {
	params.Email = NormalizeEmail(params.Email)
	params.Name = sanitize.Text(params.Name)
	if err := validation.Struct(params); err != nil {
		return nil, err
	}

	user, err := s.create(ctx, params, auth.RoleUser)
	if err != nil {
		return nil, err
	}
	if s.onSignup != nil {
		s.onSignup()
	}
	return s.session(user)
}

func (s *Service) create(ctx context.Context, params RegisterParams, role auth.Role) (*User, error) {
	if _, err := s.repo.GetByEmail(ctx, params.Email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, validation.FieldError{Field: "password", Message: "must be at most 72 bytes"}
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	// The unique index on email still decides concurrent registrations.
	user, err := s.repo.Create(ctx, User{
		ID:           ids.New(),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, params LoginParams) (*Session, error) {
	if err := validation.Struct(params); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !s.hasher.Check(user.PasswordHash, params.Password) {
		return nil, ErrInvalidCredentials
	}
	return s.session(user)
}

func (s *Service) session(user *User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}

// Promote grants the admin role to targetID. Promoting an existing admin is a
// no-op that still succeeds.
func (s *Service) Promote(ctx context.Context, actor User, targetID string) (*User, error) {
	if actor.ID == targetID {
		s.audit.Failure("user.promote", actor.ID, "user", targetID, map[string]string{"reason": "self_promotion"})
		return nil, ErrSelfPromotion
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if errors.Is(err, ErrNotFound) {
		s.audit.Failure("user.promote", actor.ID, "user", targetID, map[string]string{"reason": "not_found"})
	}
	if err != nil {
		return nil, err
	}
	if target.IsAdmin() {
		return target, nil
	}

	promoted, err := s.repo.SetRole(ctx, targetID, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}

	s.audit.Success("user.promote", actor.ID, "user", promoted.ID, map[string]string{"email": promoted.Email})
	return promoted, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx, nil)
}

func (s *Service) ListAdmins(ctx context.Context) ([]User, error) {
	role := auth.RoleAdmin
	return s.repo.List(ctx, &role)
}

// EnsureAdmin makes sure an admin with the given email exists, creating the
// account or promoting an existing one. Used for first-run bootstrap.
func (s *Service) EnsureAdmin(ctx context.Context, params RegisterParams) (*User, error) {
	params.Email = NormalizeEmail(params.Email)
	params.Name = sanitize.Text(params.Name)
	if err := validation.Struct(params); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(ctx, params.Email)
	switch {
	case err == nil && existing.IsAdmin():
		return existing, nil
	case err == nil:
		promoted, err := s.repo.SetRole(ctx, existing.ID, auth.RoleAdmin)
		if err != nil {
			return nil, err
		}
		s.audit.Success("user.promote", "bootstrap", "user", promoted.ID, map[string]string{"email": promoted.Email})
		return promoted, nil
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("find admin: %w", err)
	}

	created, err := s.create(ctx, params, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.audit.Success("user.create_admin", "bootstrap", "user", created.ID, map[string]string{"email": created.Email})
	return created, nil
}
