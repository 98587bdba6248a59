package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"forumhub/internal/authz"
	"forumhub/internal/events"
	"forumhub/internal/model"
	"forumhub/internal/repository"
)

// PrincipalCache drops cached principals whose profile changed.
type PrincipalCache interface {
	Invalidate(ctx context.Context, email string)
}

// UpdateProfileInput carries the admin-editable profile fields. Nil fields are
// left unchanged.
type UpdateProfileInput struct {
	Role   *model.Role
	Active *bool
}

// UserService exposes user administration.
type UserService interface {
	UpdateProfile(ctx context.Context, actor *model.User, userID uuid.UUID, in UpdateProfileInput) (*model.User, error)
}

type userService struct {
	store      repository.Store
	principals PrincipalCache
	events     events.Publisher
	logger     *zap.Logger
}

// NewUserService builds a UserService.
func NewUserService(store repository.Store, principals PrincipalCache, publisher events.Publisher, logger *zap.Logger) UserService {
	return &userService{
		store:      store,
		principals: principals,
		events:     publisher,
		logger:     logger.Named("UserService"),
	}
}

// UpdateProfile changes role and active flags. Only admins may call it, including
// for their own profile.
func (s *userService) UpdateProfile(ctx context.Context, actor *model.User, userID uuid.UUID, in UpdateProfileInput) (*model.User, error) {
	if err := authorize(s.logger, actor, authz.ActionUpdateUser, authz.User(userID)); err != nil {
		return nil, err
	}

	var updated *model.User
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		user, err := tx.Users().FindByIDForUpdate(ctx, userID)
		if err != nil {
			return notFound(err, "find user", "User", userID)
		}
		if in.Role != nil {
			user.Role = *in.Role
		}
		if in.Active != nil {
			user.Active = *in.Active
		}
		if err := tx.Users().Update(ctx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.principals != nil {
		s.principals.Invalidate(ctx, updated.Email)
	}
	s.logger.Info("user profile updated",
		zap.String("user_id", updated.ID.String()),
		zap.String("role", string(updated.Role)),
		zap.Bool("active", updated.Active),
		zap.String("by", actor.Email))
	publish(ctx, s.logger, s.events, events.New(events.UserUpdated, actor.ID, updated.ID))
	return updated, nil
}
