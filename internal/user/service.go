package user

import (
	"context"
	"errors"
	"strings"

	"bitebuddy-be/internal/logger"
	"bitebuddy-be/internal/validation"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, in RegisterInput) (string, *User, error)
	Login(ctx context.Context, email, password string) (string, *User, error)
	LoginAdmin(ctx context.Context, email, password string) (string, *User, error)
	ListStaff(ctx context.Context, includeInactive bool) ([]*User, error)
	GetStaff(ctx context.Context, id int64) (*User, error)
	CreateStaff(ctx context.Context, in StaffInput) (*User, error)
	SetActive(ctx context.Context, actorID, id int64, active bool) (*User, error)
	EnsureAdmin(ctx context.Context, in StaffInput) (*User, error)
}

type service struct {
	repo     Repository
	tokens   *TokenManager
	validate *validator.Validate
}

func NewService(repo Repository, tokens *TokenManager) Service {
	return &service{repo: repo, tokens: tokens, validate: validation.New()}
}

// Register creates a customer account. Staff and admins come from CreateStaff.
func (s *service) Register(ctx context.Context, in RegisterInput) (string, *User, error) {
	log := logger.FromCtx(ctx)

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return "", nil, validation.First(err)
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", nil, err
	}

	u, err := s.repo.Create(ctx, CreateParams{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hashed,
		Role:         RoleCustomer,
	})
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Generate(u)
	if err != nil {
		log.Error("failed to generate jwt", zap.Int64("user_id", u.ID), zap.Error(err))
		return "", nil, err
	}

	log.Info("customer registered", zap.Int64("user_id", u.ID))
	return token, u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Generate(u)
	return token, u, err
}

// LoginAdmin authenticates for the privileged route. Valid credentials of a
// non-admin account fail exactly like wrong ones.
func (s *service) LoginAdmin(ctx context.Context, email, password string) (string, *User, error) {
	u, err := s.authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}
	if u.Role != RoleAdmin {
		logger.FromCtx(ctx).Warn("non-admin attempted admin login", zap.Int64("user_id", u.ID))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(u)
	return token, u, err
}

func (s *service) authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			logger.FromCtx(ctx).Error("failed to load user", zap.Error(err))
			return nil, err
		}
		return nil, ErrInvalidCredentials
	}

	if !u.IsActive || !CheckPasswordHash(password, u.Password) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

func (s *service) ListStaff(ctx context.Context, includeInactive bool) ([]*User, error) {
	return s.repo.ListByRole(ctx, RoleStaff, includeInactive)
}

func (s *service) GetStaff(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Role != RoleStaff || !u.IsActive {
		return nil, ErrNotStaff
	}
	return u, nil
}

func (s *service) CreateStaff(ctx context.Context, in StaffInput) (*User, error) {
	log := logger.FromCtx(ctx)

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := s.validate.Struct(in); err != nil {
		return nil, validation.First(err)
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	u, err := s.repo.Create(ctx, CreateParams{
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: hashed,
		Role:         in.Role,
	})
	if err != nil {
		return nil, err
	}

	log.Info("team member created", zap.Int64("user_id", u.ID), zap.String("role", string(u.Role)))
	return u, nil
}

// SetActive enables or disables a team member. An admin cannot disable
// their own account.
func (s *service) SetActive(ctx context.Context, actorID, id int64, active bool) (*User, error) {
	if actorID == id && !active {
		return nil, ErrSelfDeactivation
	}

	u, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return nil, err
	}

	logger.FromCtx(ctx).Info("team member status changed",
		zap.Int64("user_id", u.ID),
		zap.Int64("by", actorID),
		zap.Bool("active", active),
	)
	return u, nil
}

// EnsureAdmin creates the first admin account unless the email is already
// registered as an admin.
func (s *service) EnsureAdmin(ctx context.Context, in StaffInput) (*User, error) {
	in.Role = RoleAdmin

	existing, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	switch {
	case err == nil:
		if existing.Role != RoleAdmin {
			return nil, ErrEmailExists
		}
		return existing, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, err
	}

	return s.CreateStaff(ctx, in)
}
