package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "forumhub/internal/errors"
	"forumhub/internal/events"
	"forumhub/internal/metrics"
	"forumhub/internal/model"
	"forumhub/internal/repository"
)

// LikeService enforces one like per user per post. Both operations return the
// post's like total after the change.
type LikeService interface {
	Like(ctx context.Context, userID, postID uuid.UUID) (int64, error)
	Unlike(ctx context.Context, userID, postID uuid.UUID) (int64, error)
}

type likeService struct {
	store  repository.Store
	events events.Publisher
	logger *zap.Logger
}

// NewLikeService builds a LikeService.
func NewLikeService(store repository.Store, publisher events.Publisher, logger *zap.Logger) LikeService {
	return &likeService{store: store, events: publisher, logger: logger.Named("LikeService")}
}

// Like fails with AlreadyLiked when the pair exists. The unique index on
// (user_id, post_id) settles concurrent attempts.
func (s *likeService) Like(ctx context.Context, userID, postID uuid.UUID) (int64, error) {
	var count int64
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := s.ensureParticipants(ctx, tx, userID, postID); err != nil {
			return err
		}

		exists, err := tx.Likes().Exists(ctx, userID, postID)
		if err != nil {
			return fmt.Errorf("check like: %w", err)
		}
		if exists {
			return apperrors.ErrAlreadyLiked
		}

		if err := tx.Likes().Create(ctx, &model.Like{UserID: userID, PostID: postID}); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.ErrAlreadyLiked
			}
			return fmt.Errorf("create like: %w", err)
		}

		count, err = tx.Likes().CountByPost(ctx, postID)
		if err != nil {
			return fmt.Errorf("count likes: %w", err)
		}
		return nil
	})
	s.observe("like", err)
	if err != nil {
		return 0, err
	}

	publish(ctx, s.logger, s.events, events.New(events.PostLiked, userID, postID).WithLikeCount(count))
	return count, nil
}

// Unlike fails with LikeNotFound when the pair does not exist.
func (s *likeService) Unlike(ctx context.Context, userID, postID uuid.UUID) (int64, error) {
	var count int64
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := s.ensureParticipants(ctx, tx, userID, postID); err != nil {
			return err
		}

		if err := tx.Likes().Delete(ctx, userID, postID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperrors.ErrLikeNotFound
			}
			return fmt.Errorf("delete like: %w", err)
		}

		var err error
		count, err = tx.Likes().CountByPost(ctx, postID)
		if err != nil {
			return fmt.Errorf("count likes: %w", err)
		}
		return nil
	})
	s.observe("unlike", err)
	if err != nil {
		return 0, err
	}

	publish(ctx, s.logger, s.events, events.New(events.PostUnliked, userID, postID).WithLikeCount(count))
	return count, nil
}

// ensureParticipants reports a missing user before a missing post. Inactive posts
// count as missing.
func (s *likeService) ensureParticipants(ctx context.Context, tx repository.Store, userID, postID uuid.UUID) error {
	exists, err := tx.Users().ExistsByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return apperrors.NotFound("User", "id", userID)
	}
	if _, err := tx.Posts().FindByID(ctx, postID, repository.VisibilityActive); err != nil {
		return notFound(err, "find post", "Post", postID)
	}
	return nil
}

func (s *likeService) observe(operation string, err error) {
	switch {
	case err == nil:
		metrics.ObserveLike(operation, "ok")
	case errors.Is(err, apperrors.ErrAlreadyLiked):
		metrics.ObserveLike(operation, "already_liked")
	case errors.Is(err, apperrors.ErrLikeNotFound):
		metrics.ObserveLike(operation, "like_not_found")
	case errors.Is(err, apperrors.ErrResourceNotFound):
		metrics.ObserveLike(operation, "not_found")
	default:
		metrics.ObserveLike(operation, "error")
	}
}
