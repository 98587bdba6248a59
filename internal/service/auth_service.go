package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"forumhub/internal/auth"
	apperrors "forumhub/internal/errors"
	"forumhub/internal/model"
	"forumhub/internal/repository"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token string     `json:"token"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// AuthService handles registration and login.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	hasher auth.PasswordHasher
	logger *zap.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, hasher auth.PasswordHasher, logger *zap.Logger) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		logger: logger.Named("AuthService"),
	}
}

// Register creates an active USER with a hashed password. An existing email fails
// with AlreadyExists and leaves the stored record untouched.
func (s *authService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.TrimSpace(email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.AlreadyExists("User", "email", email)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleUser,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.AlreadyExists("User", "email", email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

// Login checks the credentials and issues a token for the user's email and role.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Compare(user.PasswordHash, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, apperrors.ErrUserInactive
	}

	token, err := s.tokens.Issue(user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &LoginResult{Token: token, Email: user.Email, Role: user.Role}, nil
}
